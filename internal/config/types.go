package config

import "time"

// Config represents the complete sitekit configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Site     SiteConfig     `yaml:"site"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Deploy   DeployConfig   `yaml:"deploy"`
	API      APIConfig      `yaml:"api"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// SiteConfig identifies the site this instance serves.
type SiteConfig struct {
	// Domain is the content domain in the CMS (e.g. "example.com").
	Domain string `yaml:"domain"`
	// BaseURL is the public origin used in sitemap/RSS links.
	BaseURL string `yaml:"base_url"`
	// Environment is "staging" or "production"; drives robots.txt policy.
	Environment string `yaml:"environment"`
	Title       string `yaml:"title,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// DatabaseConfig defines the hosted Postgres (Supabase) connection.
type DatabaseConfig struct {
	// URL is a postgres:// connection string. Supports ${ENV_VAR} interpolation.
	URL string `yaml:"url"`
	// QueryTimeout bounds individual content queries.
	QueryTimeout time.Duration `yaml:"query_timeout,omitempty"`
}

// CacheConfig defines the Redis cache used for revalidation.
type CacheConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	// KeyPrefix namespaces all cache keys (default "sitekit:").
	KeyPrefix string `yaml:"key_prefix,omitempty"`
}

// LedgerConfig defines the local webhook delivery ledger.
type LedgerConfig struct {
	Path      string        `yaml:"path"`
	Retention time.Duration `yaml:"retention,omitempty"`
}

// WebhookConfig defines the inbound CMS webhook listener.
type WebhookConfig struct {
	Listen string `yaml:"listen"`
	// Secret is the shared HMAC secret. Supports ${ENV_VAR} interpolation.
	Secret      string `yaml:"secret"`
	MaxBodySize int64  `yaml:"max_body_size,omitempty"`
}

// DeployConfig defines deploy-hook endpoints per environment.
type DeployConfig struct {
	// Hooks maps environment name ("staging", "production") to hook settings.
	Hooks map[string]DeployHook `yaml:"hooks,omitempty"`
	// DebounceDelay is the coalescing window for queued deployments.
	DebounceDelay time.Duration `yaml:"debounce_delay,omitempty"`
	// RequestTimeout bounds each deploy-hook POST.
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
}

// DeployHook is a single deploy-hook endpoint.
type DeployHook struct {
	// URL is the hook endpoint. Supports ${ENV_VAR} interpolation.
	URL    string `yaml:"url"`
	Name   string `yaml:"name,omitempty"`
	Branch string `yaml:"branch,omitempty"`
}

// APIConfig defines the public HTTP API server.
type APIConfig struct {
	Listen string `yaml:"listen"`
	// Token is the bearer token required for mutating endpoints.
	// Supports ${ENV_VAR} interpolation. Empty disables auth (dev only).
	Token string `yaml:"token,omitempty"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "sitekit",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Site: SiteConfig{
			Environment: "production",
		},
		Database: DatabaseConfig{
			QueryTimeout: 5 * time.Second,
		},
		Cache: CacheConfig{
			Addr:      "127.0.0.1:6379",
			KeyPrefix: "sitekit:",
		},
		Ledger: LedgerConfig{
			Path:      "./data/ledger.db",
			Retention: 30 * 24 * time.Hour,
		},
		Webhook: WebhookConfig{
			Listen:      "127.0.0.1:8081",
			MaxBodySize: 1 << 20, // 1 MB
		},
		Deploy: DeployConfig{
			DebounceDelay:  30 * time.Second,
			RequestTimeout: 10 * time.Second,
		},
		API: APIConfig{
			Listen: "127.0.0.1:8080",
		},
	}
}
