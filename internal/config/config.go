// Package config loads the origin policy from a TOML or YAML file and
// SECFETCH_* environment variables.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	toml "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/JeanGrijp/go-secfetch/csrf"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "SECFETCH_"

// Config is the file/env representation of the policy.
type Config struct {
	ProtectedMethods   []string     `koanf:"protected_methods" yaml:"protected_methods"`
	AllowSameSite      bool         `koanf:"allow_same_site" yaml:"allow_same_site"`
	TrustedOrigins     []string     `koanf:"trusted_origins" yaml:"trusted_origins"`
	TrustForwardedHost bool         `koanf:"trust_forwarded_host" yaml:"trust_forwarded_host"`
	Exempt             ExemptConfig `koanf:"exempt" yaml:"exempt"`
	Log                LogConfig    `koanf:"log" yaml:"log"`
}

// ExemptConfig lists route identities and groups that bypass the check.
type ExemptConfig struct {
	Routes []string `koanf:"routes" yaml:"routes"`
	Groups []string `koanf:"groups" yaml:"groups"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// Load reads configuration in three layers: defaults, the file at path (if
// path is not empty) and SECFETCH_* environment variables. The file format
// follows its extension: .toml, .yaml or .yml.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	k := koanf.New(".")

	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// SECFETCH_ALLOW_SAME_SITE -> allow_same_site, SECFETCH_LOG_LEVEL -> log.level
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// fields from file/env overwrite defaults, unset fields keep defaults
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			TagName:          "koanf",
			WeaklyTypedInput: true,
			// replace default slices instead of merging into them
			ZeroFields: true,
			Result:     cfg,
			DecodeHook: mapstructure.StringToSliceHookFunc(","),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.trim()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		ProtectedMethods: append([]string(nil), csrf.DefaultProtectedMethods...),
		TrustedOrigins:   []string{},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config file extension %q (want .toml, .yaml or .yml)", filepath.Ext(path))
	}
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range []string{"log_", "exempt_"} {
		if strings.HasPrefix(s, section) {
			return strings.TrimSuffix(section, "_") + "." + strings.TrimPrefix(s, section)
		}
	}
	return s
}

func (c *Config) trim() {
	c.ProtectedMethods = trimAll(c.ProtectedMethods)
	c.TrustedOrigins = trimAll(c.TrustedOrigins)
	c.Exempt.Routes = trimAll(c.Exempt.Routes)
	c.Exempt.Groups = trimAll(c.Exempt.Groups)
}

// trimAll drops blank entries, which a trailing comma in an env var produces.
func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks methods and trusted origins the same way the protector
// will at startup.
func (c *Config) Validate() error {
	if _, err := csrf.NewPolicy(c.CSRF()); err != nil {
		return err
	}
	return nil
}

// CSRF maps the policy fields onto csrf.Config. Logger, metrics and
// exemptions are wired by the caller.
func (c *Config) CSRF() csrf.Config {
	return csrf.Config{
		ProtectedMethods:   c.ProtectedMethods,
		AllowSameSite:      c.AllowSameSite,
		TrustedOrigins:     c.TrustedOrigins,
		TrustForwardedHost: c.TrustForwardedHost,
	}
}

// ApplyExemptions registers the configured routes and groups on reg.
func (c *Config) ApplyExemptions(reg *csrf.Registry) error {
	for _, r := range c.Exempt.Routes {
		if err := reg.MarkExempt(r); err != nil {
			return fmt.Errorf("exempt route %q: %w", r, err)
		}
	}
	for _, g := range c.Exempt.Groups {
		if err := reg.MarkGroupExempt(g); err != nil {
			return fmt.Errorf("exempt group %q: %w", g, err)
		}
	}
	return nil
}
