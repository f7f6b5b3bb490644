package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSecrets sets the required secret environment variables for the
// duration of the test.
func testSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("GATEWARDEN_AUTH_LOCAL_ADMIN_PASSWORD_HASH", "$2a$10$adminhashadminhashadminhashadminhashadminhashadminha")
	t.Setenv("GATEWARDEN_AUTH_LOCAL_MODERATOR_PASSWORD_HASH", "$2a$10$moderatorhashmoderatorhashmoderatorhashmoderatorhash")
	t.Setenv("GATEWARDEN_AUTH_LOCAL_VIEWER_PASSWORD_HASH", "$2a$10$viewerhashviewerhashviewerhashviewerhashviewerhashvi")
	t.Setenv("GATEWARDEN_AUTH_SESSION_SECRET", "0123456789abcdef0123456789abcdef")
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadDefaultsOnly(t *testing.T) {
	testSecrets(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "(uid=%s)", cfg.Auth.Directory.UserSearchFilter)
	assert.Equal(t, "ROLE_", cfg.Auth.Directory.GroupRolePrefix)
	assert.Equal(t, 5*time.Second, cfg.Auth.Directory.Timeout)
	assert.Equal(t, []string{"openid", "profile", "email"}, cfg.Auth.External.Scopes)
	assert.Equal(t, "viewer", cfg.Auth.External.DefaultRole)
	assert.Equal(t, 12*time.Hour, cfg.Auth.Session.TTL)
	assert.Equal(t, "gatewarden_session", cfg.Auth.Session.CookieName)
	assert.Equal(t, []string{"/h2-console/**"}, cfg.PublicPaths)
}

func TestLoadUnvalidatedWithoutSecrets(t *testing.T) {
	// No hashes, no session secret: inspection commands still load.
	cfg, err := LoadUnvalidated("")
	require.NoError(t, err)
	assert.Equal(t, []string{"/h2-console/**"}, cfg.PublicPaths)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadFromFile(t *testing.T) {
	testSecrets(t)

	path := writeConfigFile(t, `
logging:
  level: debug
  format: json
server:
  port: 9000
shutdown_timeout: 5s
auth:
  directory:
    enabled: true
    url: ldap://ldap.example.com:389
    base_dn: dc=example,dc=com
    timeout: 2s
  session:
    ttl: 1h
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level, "level is normalized to uppercase")
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.Auth.Directory.Enabled)
	assert.Equal(t, "ldap://ldap.example.com:389", cfg.Auth.Directory.URL)
	assert.Equal(t, 2*time.Second, cfg.Auth.Directory.Timeout)
	assert.Equal(t, time.Hour, cfg.Auth.Session.TTL)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	testSecrets(t)
	t.Setenv("GATEWARDEN_LOGGING_LEVEL", "ERROR")

	path := writeConfigFile(t, `
logging:
  level: info
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ERROR", cfg.Logging.Level)
}

func TestLoadFailsWithoutLocalHashes(t *testing.T) {
	t.Setenv("GATEWARDEN_AUTH_SESSION_SECRET", "0123456789abcdef0123456789abcdef")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GATEWARDEN_AUTH_LOCAL_ADMIN_PASSWORD_HASH")
}

func TestLoadFailsWithoutSessionSecret(t *testing.T) {
	testSecrets(t)
	t.Setenv("GATEWARDEN_AUTH_SESSION_SECRET", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GATEWARDEN_AUTH_SESSION_SECRET")
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Logging.Level = "TRACE" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"short session secret", func(c *Config) { c.Auth.Session.Secret = "short" }},
		{"bad default role", func(c *Config) { c.Auth.External.DefaultRole = "root" }},
		{"directory enabled without url", func(c *Config) {
			c.Auth.Directory.Enabled = true
			c.Auth.Directory.URL = ""
		}},
		{"external enabled without client id", func(c *Config) {
			c.Auth.External.Enabled = true
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func validConfig() *Config {
	cfg := GetDefaultConfig()
	cfg.Auth.Local.AdminPasswordHash = "$2a$10$hash"
	cfg.Auth.Local.ModeratorPasswordHash = "$2a$10$hash"
	cfg.Auth.Local.ViewerPasswordHash = "$2a$10$hash"
	cfg.Auth.Session.Secret = "0123456789abcdef0123456789abcdef"
	return cfg
}

func TestSaveConfigRoundTrip(t *testing.T) {
	testSecrets(t)

	cfg := GetDefaultConfig()
	cfg.Server.Port = 9000
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, SaveConfig(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, loaded.Server.Port)
}
