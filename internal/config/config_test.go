package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeanGrijp/go-secfetch/csrf"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"POST", "PUT", "PATCH", "DELETE"}, cfg.ProtectedMethods)
	assert.False(t, cfg.AllowSameSite)
	assert.Empty(t, cfg.TrustedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "policy.toml", `
protected_methods = ["POST", "DELETE"]
allow_same_site = true
trusted_origins = ["https://app.example.com", "https://admin.example.com"]

[exempt]
routes = ["/webhook"]
groups = ["/api"]

[log]
level = "debug"
format = "console"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"POST", "DELETE"}, cfg.ProtectedMethods)
	assert.True(t, cfg.AllowSameSite)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.TrustedOrigins)
	assert.Equal(t, []string{"/webhook"}, cfg.Exempt.Routes)
	assert.Equal(t, []string{"/api"}, cfg.Exempt.Groups)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "policy.yaml", `
allow_same_site: false
trusted_origins:
  - https://app.example.com
trust_forwarded_host: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://app.example.com"}, cfg.TrustedOrigins)
	assert.True(t, cfg.TrustForwardedHost)
	assert.Equal(t, csrf.DefaultProtectedMethods, cfg.ProtectedMethods, "unset fields keep defaults")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "policy.toml", `
allow_same_site = false
trusted_origins = ["https://file.example.com"]
`)
	t.Setenv("SECFETCH_ALLOW_SAME_SITE", "true")
	t.Setenv("SECFETCH_TRUSTED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("SECFETCH_PROTECTED_METHODS", "post,put")
	t.Setenv("SECFETCH_LOG_LEVEL", "warn")
	t.Setenv("SECFETCH_EXEMPT_ROUTES", "/hooks/stripe")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.AllowSameSite)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.TrustedOrigins)
	assert.Equal(t, []string{"post", "put"}, cfg.ProtectedMethods)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, []string{"/hooks/stripe"}, cfg.Exempt.Routes)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "policy.json", `{}`))
	assert.ErrorContains(t, err, "unsupported config file extension")

	_, err = Load(writeFile(t, "policy.toml", `trusted_origins = ["https://app.example.com/path"]`))
	var cerr *csrf.ConfigError
	assert.ErrorAs(t, err, &cerr)

	_, err = Load(writeFile(t, "policy.yaml", "trusted_origins: [unterminated"))
	assert.Error(t, err)
}

func TestCSRFAndExemptions(t *testing.T) {
	cfg := &Config{
		ProtectedMethods: []string{"POST"},
		AllowSameSite:    true,
		TrustedOrigins:   []string{"https://App.example.com"},
		Exempt:           ExemptConfig{Routes: []string{"/webhook"}, Groups: []string{"/api"}},
	}
	require.NoError(t, cfg.Validate())

	p, err := csrf.New(cfg.CSRF())
	require.NoError(t, err)
	require.NoError(t, cfg.ApplyExemptions(p.Registry()))

	assert.Equal(t, []string{"https://app.example.com"}, p.Policy().TrustedOrigins())
	assert.True(t, p.Registry().IsExempt("/webhook"))
	assert.True(t, p.Registry().IsExempt("/api/x", csrf.PathGroups("/api/x")...))

	p.Registry().Freeze()
	assert.ErrorIs(t, cfg.ApplyExemptions(p.Registry()), csrf.ErrRegistryFrozen)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "allow_same_site", envKey("SECFETCH_ALLOW_SAME_SITE"))
	assert.Equal(t, "log.level", envKey("SECFETCH_LOG_LEVEL"))
	assert.Equal(t, "exempt.groups", envKey("SECFETCH_EXEMPT_GROUPS"))
	assert.Equal(t, "trust_forwarded_host", envKey("SECFETCH_TRUST_FORWARDED_HOST"))
}

func TestLoadExamplePolicy(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "examples", "policy.toml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.TrustedOrigins)
	assert.Equal(t, []string{"/webhooks/{provider}"}, cfg.Exempt.Routes)
}
