package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/gatewarden/gatewarden/pkg/api"
)

// Config represents the Gatewarden configuration.
//
// This structure captures the static configuration of the broker:
//   - Logging configuration
//   - Server settings (listen address, timeouts, shutdown)
//   - Metrics server configuration
//   - Authentication sources (local store, directory, external provider)
//   - Session signing configuration
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (GATEWARDEN_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Server contains HTTP server configuration
	Server api.ServerConfig `mapstructure:"server" yaml:"server"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Auth configures the identity sources and session signing
	Auth AuthConfig `mapstructure:"auth" yaml:"auth"`

	// PublicPaths lists extra path patterns served without
	// authentication, in addition to the built-in public entry points.
	// The default keeps the previous deployment's diagnostic console
	// path reachable.
	PublicPaths []string `mapstructure:"public_paths" yaml:"public_paths,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected.
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP server are enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// AuthConfig groups the identity source configuration.
type AuthConfig struct {
	// Local configures the built-in credential store.
	// The three hashes are required; startup fails without them.
	Local LocalConfig `mapstructure:"local" yaml:"local"`

	// Directory configures the LDAP directory authenticator
	Directory DirectoryConfig `mapstructure:"directory" yaml:"directory"`

	// External configures the external OAuth2 identity provider
	External ExternalConfig `mapstructure:"external" yaml:"external"`

	// Session configures session token signing
	Session SessionConfig `mapstructure:"session" yaml:"session"`
}

// LocalConfig supplies the bcrypt hashes for the fixed local identities.
// These are secrets; set them through the environment rather than the
// config file:
//
//	GATEWARDEN_AUTH_LOCAL_ADMIN_PASSWORD_HASH
//	GATEWARDEN_AUTH_LOCAL_MODERATOR_PASSWORD_HASH
//	GATEWARDEN_AUTH_LOCAL_VIEWER_PASSWORD_HASH
type LocalConfig struct {
	AdminPasswordHash     string `mapstructure:"admin_password_hash" validate:"required" yaml:"admin_password_hash,omitempty"`
	ModeratorPasswordHash string `mapstructure:"moderator_password_hash" validate:"required" yaml:"moderator_password_hash,omitempty"`
	ViewerPasswordHash    string `mapstructure:"viewer_password_hash" validate:"required" yaml:"viewer_password_hash,omitempty"`
}

// DirectoryConfig configures the LDAP directory authenticator.
// When Enabled is false, logins fall back to the local store only.
type DirectoryConfig struct {
	// Enabled controls whether directory authentication is active
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// URL is the directory endpoint, e.g. "ldap://ldap.example.com:389"
	URL string `mapstructure:"url" validate:"required_if=Enabled true,omitempty,url" yaml:"url"`

	// BaseDN is the directory suffix, e.g. "dc=example,dc=com"
	BaseDN string `mapstructure:"base_dn" validate:"required_if=Enabled true" yaml:"base_dn"`

	// BindDN and BindPassword are the service credentials for the lookup
	// bind. Empty BindDN means anonymous lookup. The password is a
	// secret: GATEWARDEN_AUTH_DIRECTORY_BIND_PASSWORD
	BindDN       string `mapstructure:"bind_dn" yaml:"bind_dn,omitempty"`
	BindPassword string `mapstructure:"bind_password" yaml:"bind_password,omitempty"`

	// UserSearchFilter locates the user entry; %s is replaced with the
	// escaped username. Default: "(uid=%s)"
	UserSearchFilter string `mapstructure:"user_search_filter" yaml:"user_search_filter"`

	// UserSearchBase is the user subtree relative to BaseDN.
	// Default: "ou=people"
	UserSearchBase string `mapstructure:"user_search_base" yaml:"user_search_base"`

	// GroupSearchBase is the group subtree relative to BaseDN.
	// Default: "ou=groups"
	GroupSearchBase string `mapstructure:"group_search_base" yaml:"group_search_base"`

	// GroupRolePrefix is stripped from group CNs before role mapping.
	// Default: "ROLE_"
	GroupRolePrefix string `mapstructure:"group_role_prefix" yaml:"group_role_prefix"`

	// Timeout bounds every directory round trip. Default: 5s
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// InsecureSkipVerify disables TLS certificate verification for ldaps
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// ExternalConfig configures the external OAuth2 identity provider.
// Endpoints default to Google's when unset.
type ExternalConfig struct {
	// Enabled controls whether external login is offered
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// ClientID identifies this application at the provider
	ClientID string `mapstructure:"client_id" validate:"required_if=Enabled true" yaml:"client_id"`

	// ClientSecret is a secret: GATEWARDEN_AUTH_EXTERNAL_CLIENT_SECRET
	ClientSecret string `mapstructure:"client_secret" validate:"required_if=Enabled true" yaml:"client_secret,omitempty"`

	// RedirectURL is the callback URL registered at the provider
	RedirectURL string `mapstructure:"redirect_url" validate:"required_if=Enabled true,omitempty,url" yaml:"redirect_url"`

	// AuthURL, TokenURL and UserInfoURL override the provider endpoints
	AuthURL     string `mapstructure:"auth_url" yaml:"auth_url,omitempty"`
	TokenURL    string `mapstructure:"token_url" yaml:"token_url,omitempty"`
	UserInfoURL string `mapstructure:"userinfo_url" yaml:"userinfo_url,omitempty"`

	// Scopes requested during the handshake.
	// Default: openid, profile, email
	Scopes []string `mapstructure:"scopes" yaml:"scopes,omitempty"`

	// DefaultRole is granted to externally asserted identities, which
	// carry no local authority of their own. Default: "viewer"
	DefaultRole string `mapstructure:"default_role" validate:"omitempty,oneof=admin moderator viewer" yaml:"default_role"`
}

// SessionConfig configures session token signing.
type SessionConfig struct {
	// Secret is the HMAC signing key for session tokens (required).
	// Secret: GATEWARDEN_AUTH_SESSION_SECRET
	Secret string `mapstructure:"secret" validate:"required,min=32" yaml:"secret,omitempty"`

	// TTL is the session lifetime. Default: 12h
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`

	// CookieName is the session cookie name. Default: "gatewarden_session"
	CookieName string `mapstructure:"cookie_name" yaml:"cookie_name"`

	// Secure marks the session cookie Secure (HTTPS only).
	// Default: false, set to true behind TLS
	Secure bool `mapstructure:"secure" yaml:"secure"`
}

// secretKeys are config keys that are expected to arrive via the
// environment only. AutomaticEnv resolves just the keys viper already
// knows about, so these are bound explicitly.
var secretKeys = []string{
	"auth.local.admin_password_hash",
	"auth.local.moderator_password_hash",
	"auth.local.viewer_password_hash",
	"auth.directory.bind_password",
	"auth.external.client_secret",
	"auth.session.secret",
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (GATEWARDEN_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	cfg, err := LoadUnvalidated(configPath)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadUnvalidated loads and defaults the configuration without running
// validation. Read-only commands that inspect configuration but do not
// need the secrets use it; the server itself always validates.
func LoadUnvalidated(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
// It checks if the config file exists and provides instructions if not.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if DefaultConfigExists() {
			configPath = GetDefaultConfigPath()
		}
		// No file at the default location is fine: everything can come
		// from the environment.
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  gatewarden init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML
// format. Secret fields carry omitempty yaml tags so an init-generated
// file does not embed credentials.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Restricted permissions: the file may still carry secrets when the
	// operator chooses to put them there.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the GATEWARDEN_ prefix and underscores.
	// Example: GATEWARDEN_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("GATEWARDEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range secretKeys {
		v.BindEnv(key) //nolint:errcheck // only errors on empty input
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// durationDecodeHook returns a mapstructure decode hook that converts
// strings to time.Duration, so config files can use "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to
// current directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "gatewarden")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "gatewarden")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
