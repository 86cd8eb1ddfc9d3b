package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborview/sitekit/internal/log"
)

// Repository reads published content for a single domain from Postgres.
type Repository struct {
	pool   *pgxpool.Pool
	domain string
}

// NewRepository connects to the CMS database and verifies the connection
// before returning.
func NewRepository(ctx context.Context, databaseURL, domain string) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("connected to content database", "component", "content", "domain", domain)
	return &Repository{pool: pool, domain: domain}, nil
}

// Close releases the connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// ListPublishedPages returns all published pages for the domain ordered by slug.
func (r *Repository) ListPublishedPages(ctx context.Context) ([]Page, error) {
	const query = `SELECT id, domain, slug, title, description, sections, status, published_at, updated_at
		FROM pages WHERE domain = $1 AND status = $2 ORDER BY slug ASC`
	rows, err := r.pool.Query(ctx, query, r.domain, StatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pages := make([]Page, 0)
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *page)
	}
	return pages, rows.Err()
}

// GetPageBySlug returns one published page, or ErrNotFound.
func (r *Repository) GetPageBySlug(ctx context.Context, slug string) (*Page, error) {
	const query = `SELECT id, domain, slug, title, description, sections, status, published_at, updated_at
		FROM pages WHERE domain = $1 AND slug = $2 AND status = $3`
	row := r.pool.QueryRow(ctx, query, r.domain, slug, StatusPublished)
	page, err := scanPage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return page, nil
}

// ListPublishedPosts returns published posts newest first.
func (r *Repository) ListPublishedPosts(ctx context.Context, limit int) ([]Post, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `SELECT id, domain, slug, title, excerpt, body, author, tags, status, published_at, updated_at
		FROM posts WHERE domain = $1 AND status = $2 ORDER BY published_at DESC LIMIT $3`
	rows, err := r.pool.Query(ctx, query, r.domain, StatusPublished, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]Post, 0)
	for rows.Next() {
		var p Post
		if err := rows.Scan(
			&p.ID,
			&p.Domain,
			&p.Slug,
			&p.Title,
			&p.Excerpt,
			&p.Body,
			&p.Author,
			&p.Tags,
			&p.Status,
			&p.PublishedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetPostBySlug returns one published post, or ErrNotFound.
func (r *Repository) GetPostBySlug(ctx context.Context, slug string) (*Post, error) {
	const query = `SELECT id, domain, slug, title, excerpt, body, author, tags, status, published_at, updated_at
		FROM posts WHERE domain = $1 AND slug = $2 AND status = $3`
	row := r.pool.QueryRow(ctx, query, r.domain, slug, StatusPublished)
	var p Post
	if err := row.Scan(
		&p.ID,
		&p.Domain,
		&p.Slug,
		&p.Title,
		&p.Excerpt,
		&p.Body,
		&p.Author,
		&p.Tags,
		&p.Status,
		&p.PublishedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetSettings returns the site settings row for the domain, or ErrNotFound.
func (r *Repository) GetSettings(ctx context.Context) (*SiteSettings, error) {
	const query = `SELECT domain, title, description, navigation, social, updated_at
		FROM site_settings WHERE domain = $1`
	row := r.pool.QueryRow(ctx, query, r.domain)
	var (
		s       SiteSettings
		navJSON []byte
		socJSON []byte
	)
	if err := row.Scan(&s.Domain, &s.Title, &s.Description, &navJSON, &socJSON, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(navJSON) > 0 {
		if err := json.Unmarshal(navJSON, &s.Navigation); err != nil {
			return nil, fmt.Errorf("parse navigation: %w", err)
		}
	}
	if len(socJSON) > 0 {
		if err := json.Unmarshal(socJSON, &s.Social); err != nil {
			return nil, fmt.Errorf("parse social links: %w", err)
		}
	}
	return &s, nil
}

func scanPage(row pgx.Row) (*Page, error) {
	var (
		p            Page
		sectionsJSON []byte
	)
	if err := row.Scan(
		&p.ID,
		&p.Domain,
		&p.Slug,
		&p.Title,
		&p.Description,
		&sectionsJSON,
		&p.Status,
		&p.PublishedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	sections, err := DecodeSections(sectionsJSON)
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", p.Slug, err)
	}
	p.Sections = sections
	return &p, nil
}
