package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a file, applies defaults,
// interpolates ${ENV_VAR} references and validates the result.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	interpolateEnv(cfg)
	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// interpolateEnv expands ${VAR} references in string fields that commonly
// carry secrets. Unset variables expand to the empty string.
func interpolateEnv(cfg *Config) {
	cfg.Database.URL = expandEnv(cfg.Database.URL)
	cfg.Cache.Password = expandEnv(cfg.Cache.Password)
	cfg.Webhook.Secret = expandEnv(cfg.Webhook.Secret)
	cfg.API.Token = expandEnv(cfg.API.Token)
	for env, hook := range cfg.Deploy.Hooks {
		hook.URL = expandEnv(hook.URL)
		cfg.Deploy.Hooks[env] = hook
	}
}

func expandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(m string) string {
		name := envVarPattern.FindStringSubmatch(m)[1]
		return os.Getenv(name)
	})
}

// applyEnvOverrides lets well-known environment variables override the file.
// Secrets are expected to arrive this way in hosted deployments.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SITEKIT_WEBHOOK_SECRET"); v != "" {
		cfg.Webhook.Secret = v
	}
	if v := os.Getenv("SITEKIT_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("SITEKIT_REDIS_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("SITEKIT_API_TOKEN"); v != "" {
		cfg.API.Token = v
	}
	if v := os.Getenv("SITEKIT_DOMAIN"); v != "" {
		cfg.Site.Domain = v
	}
	for _, env := range []string{"staging", "production"} {
		key := "SITEKIT_DEPLOY_HOOK_" + strings.ToUpper(env)
		if v := os.Getenv(key); v != "" {
			if cfg.Deploy.Hooks == nil {
				cfg.Deploy.Hooks = make(map[string]DeployHook)
			}
			hook := cfg.Deploy.Hooks[env]
			hook.URL = v
			cfg.Deploy.Hooks[env] = hook
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Site.Domain == "" {
		return fmt.Errorf("site.domain is required")
	}
	if cfg.Site.Environment != "staging" && cfg.Site.Environment != "production" {
		return fmt.Errorf("site.environment must be \"staging\" or \"production\", got %q", cfg.Site.Environment)
	}
	if cfg.Webhook.Secret == "" {
		return fmt.Errorf("webhook.secret is required (set SITEKIT_WEBHOOK_SECRET)")
	}
	if cfg.Webhook.MaxBodySize <= 0 {
		return fmt.Errorf("webhook.max_body_size must be positive")
	}
	for env := range cfg.Deploy.Hooks {
		if env != "staging" && env != "production" {
			return fmt.Errorf("deploy.hooks: unknown environment %q", env)
		}
	}
	if cfg.Site.BaseURL != "" && !strings.HasPrefix(cfg.Site.BaseURL, "http") {
		return fmt.Errorf("site.base_url must be an absolute URL, got %q", cfg.Site.BaseURL)
	}
	return nil
}
