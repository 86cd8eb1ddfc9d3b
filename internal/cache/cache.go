package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/zeebo/blake3"

	"github.com/harborview/sitekit/internal/log"
	"github.com/harborview/sitekit/internal/revalidate"
)

// Cache stores rendered content entries in Redis, keyed by path, with tag
// index sets so whole groups can be invalidated at once.
type Cache struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

var _ revalidate.Revalidator = (*Cache)(nil)

// Entry is one cached rendered artifact.
type Entry struct {
	Body     []byte    `json:"body"`
	ETag     string    `json:"etag"`
	StoredAt time.Time `json:"stored_at"`
}

// New connects to Redis and verifies the connection with a short ping.
func New(addr, password string, db int, prefix string) (*Cache, error) {
	if prefix == "" {
		prefix = "sitekit:"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &Cache{
		client: client,
		prefix: prefix,
		logger: log.WithComponent("cache"),
	}, nil
}

func (c *Cache) pageKey(path string) string {
	return c.prefix + "page:" + path
}

func (c *Cache) tagKey(tag string) string {
	return c.prefix + "tag:" + tag
}

// ETag computes the entity tag for a body: a BLAKE3 content hash.
func ETag(body []byte) string {
	sum := blake3.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// Put stores a rendered entry under its path and registers it in each tag's
// index set.
func (c *Cache) Put(ctx context.Context, path string, body []byte, tags []string) error {
	entry := Entry{
		Body:     body,
		ETag:     ETag(body),
		StoredAt: time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	key := c.pageKey(path)
	if err := c.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	for _, tag := range tags {
		if err := c.client.SAdd(ctx, c.tagKey(tag), key).Err(); err != nil {
			return fmt.Errorf("index tag %s: %w", tag, err)
		}
	}
	return nil
}

// Get returns the cached entry for a path, or nil on miss.
func (c *Cache) Get(ctx context.Context, path string) (*Entry, error) {
	data, err := c.client.Get(ctx, c.pageKey(path)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decode cache entry for %s: %w", path, err)
	}
	return &entry, nil
}

// RevalidatePath drops the cached entry for one path.
func (c *Cache) RevalidatePath(ctx context.Context, path string) error {
	if err := c.client.Del(ctx, c.pageKey(path)).Err(); err != nil {
		return fmt.Errorf("revalidate path %s: %w", path, err)
	}
	c.logger.Debug("path revalidated", "path", path)
	return nil
}

// RevalidateTag drops every entry registered under a tag, then the tag's
// index set itself.
func (c *Cache) RevalidateTag(ctx context.Context, tag string) error {
	setKey := c.tagKey(tag)
	members, err := c.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return fmt.Errorf("revalidate tag %s: %w", tag, err)
	}
	if len(members) > 0 {
		if err := c.client.Del(ctx, members...).Err(); err != nil {
			return fmt.Errorf("revalidate tag %s members: %w", tag, err)
		}
	}
	if err := c.client.Del(ctx, setKey).Err(); err != nil {
		return fmt.Errorf("revalidate tag %s index: %w", tag, err)
	}
	c.logger.Debug("tag revalidated", "tag", tag, "entries", len(members))
	return nil
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
