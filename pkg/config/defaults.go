package config

import (
	"strings"
	"time"

	"github.com/gatewarden/gatewarden/pkg/api"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and
// environment variables to fill in any missing values.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyShutdownTimeoutDefaults(cfg)
	applyServerDefaults(&cfg.Server)
	applyMetricsDefaults(&cfg.Metrics)
	applyDirectoryDefaults(&cfg.Auth.Directory)
	applyExternalDefaults(&cfg.Auth.External)
	applySessionDefaults(&cfg.Auth.Session)

	if cfg.PublicPaths == nil {
		cfg.PublicPaths = []string{"/h2-console/**"}
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyShutdownTimeoutDefaults sets shutdown timeout defaults.
func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyServerDefaults sets HTTP server defaults.
func applyServerDefaults(cfg *api.ServerConfig) {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false (opt-in for metrics)
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyDirectoryDefaults sets directory authenticator defaults.
func applyDirectoryDefaults(cfg *DirectoryConfig) {
	if cfg.UserSearchFilter == "" {
		cfg.UserSearchFilter = "(uid=%s)"
	}
	if cfg.UserSearchBase == "" {
		cfg.UserSearchBase = "ou=people"
	}
	if cfg.GroupSearchBase == "" {
		cfg.GroupSearchBase = "ou=groups"
	}
	if cfg.GroupRolePrefix == "" {
		cfg.GroupRolePrefix = "ROLE_"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
}

// applyExternalDefaults sets external provider defaults.
// Endpoint URLs stay empty here; the adapter falls back to Google's.
func applyExternalDefaults(cfg *ExternalConfig) {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"openid", "profile", "email"}
	}
	if cfg.DefaultRole == "" {
		cfg.DefaultRole = "viewer"
	}
}

// applySessionDefaults sets session defaults.
func applySessionDefaults(cfg *SessionConfig) {
	if cfg.TTL == 0 {
		cfg.TTL = 12 * time.Hour
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "gatewarden_session"
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
