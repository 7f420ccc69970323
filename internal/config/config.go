package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jeanpaul/cookbook/internal/codec"
	"github.com/jeanpaul/cookbook/internal/discovery"
	"github.com/jeanpaul/cookbook/internal/oracle"
)

type Config struct {
	Oracle     OracleConfig     `yaml:"oracle" mapstructure:"oracle"`
	Scan       ScanConfig       `yaml:"scan" mapstructure:"scan"`
	Collection CollectionConfig `yaml:"collection" mapstructure:"collection"`
}

type OracleConfig struct {
	BaseURL   string        `yaml:"base_url" mapstructure:"base_url"`
	Referer   string        `yaml:"referer" mapstructure:"referer"`
	UserAgent string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"` // zero means none
}

type ScanConfig struct {
	Cooldown        time.Duration `yaml:"cooldown" mapstructure:"cooldown"`
	SnapshotEvery   int           `yaml:"snapshot_every" mapstructure:"snapshot_every"`
	RememberNothing bool          `yaml:"remember_nothing" mapstructure:"remember_nothing"`
	Passes          int           `yaml:"passes" mapstructure:"passes"` // scan-all passes; 0 repeats until a pass finds nothing
	Policy          PolicyConfig  `yaml:"policy" mapstructure:"policy"`
}

// PolicyConfig holds "abort" or "skip" per failure kind.
type PolicyConfig struct {
	Forbidden   string `yaml:"forbidden" mapstructure:"forbidden"`
	RateLimited string `yaml:"rate_limited" mapstructure:"rate_limited"`
	Network     string `yaml:"network" mapstructure:"network"`
	Malformed   string `yaml:"malformed" mapstructure:"malformed"`
}

type CollectionConfig struct {
	Path            string `yaml:"path" mapstructure:"path"`
	DecompressRatio int    `yaml:"decompress_ratio" mapstructure:"decompress_ratio"`
	Level           int    `yaml:"level" mapstructure:"level"`
}

var envVarRe = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)

func expandEnv(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimPrefix(match, "$")
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

func DefaultConfig() *Config {
	return &Config{
		Oracle: OracleConfig{
			BaseURL:   oracle.DefaultBaseURL,
			Referer:   oracle.DefaultReferer,
			UserAgent: oracle.DefaultUserAgent,
		},
		Scan: ScanConfig{
			Cooldown:        discovery.DefaultCooldown,
			SnapshotEvery:   discovery.DefaultSnapshotEvery,
			RememberNothing: true,
			Policy: PolicyConfig{
				Forbidden:   "abort",
				RateLimited: "abort",
				Network:     "skip",
				Malformed:   "abort",
			},
		},
		Collection: CollectionConfig{
			Path:            codec.DefaultPath,
			DecompressRatio: codec.DefaultRatio,
			Level:           codec.DefaultLevel,
		},
	}
}

// Dir is the per-user config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cookbook")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cookbook")
}

// Load reads config.yaml from path when given, otherwise from the working
// directory or the user config directory. A missing file means defaults;
// COOKBOOK_* environment variables override either.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()

	// Every key needs a default for AutomaticEnv to see it on Unmarshal.
	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(Dir())
	}

	v.SetEnvPrefix("COOKBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.Oracle.BaseURL = expandEnv(cfg.Oracle.BaseURL)
	cfg.Oracle.UserAgent = expandEnv(cfg.Oracle.UserAgent)
	cfg.Collection.Path = expandEnv(cfg.Collection.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("oracle.base_url", cfg.Oracle.BaseURL)
	v.SetDefault("oracle.referer", cfg.Oracle.Referer)
	v.SetDefault("oracle.user_agent", cfg.Oracle.UserAgent)
	v.SetDefault("oracle.timeout", cfg.Oracle.Timeout)
	v.SetDefault("scan.cooldown", cfg.Scan.Cooldown)
	v.SetDefault("scan.snapshot_every", cfg.Scan.SnapshotEvery)
	v.SetDefault("scan.remember_nothing", cfg.Scan.RememberNothing)
	v.SetDefault("scan.passes", cfg.Scan.Passes)
	v.SetDefault("scan.policy.forbidden", cfg.Scan.Policy.Forbidden)
	v.SetDefault("scan.policy.rate_limited", cfg.Scan.Policy.RateLimited)
	v.SetDefault("scan.policy.network", cfg.Scan.Policy.Network)
	v.SetDefault("scan.policy.malformed", cfg.Scan.Policy.Malformed)
	v.SetDefault("collection.path", cfg.Collection.Path)
	v.SetDefault("collection.decompress_ratio", cfg.Collection.DecompressRatio)
	v.SetDefault("collection.level", cfg.Collection.Level)
}

// Policy converts the configured actions into a discovery policy.
func (p PolicyConfig) Policy() (discovery.Policy, error) {
	entries := map[oracle.FailureKind]string{
		oracle.Forbidden:         p.Forbidden,
		oracle.RateLimited:       p.RateLimited,
		oracle.Network:           p.Network,
		oracle.MalformedResponse: p.Malformed,
	}
	policy := discovery.DefaultPolicy()
	for kind, raw := range entries {
		if raw == "" {
			continue
		}
		a, err := discovery.ParseAction(raw)
		if err != nil {
			return nil, fmt.Errorf("config: scan.policy.%s: %w", kind, err)
		}
		policy[kind] = a
	}
	return policy, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Oracle.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: oracle.base_url %q must be an http(s) URL", c.Oracle.BaseURL)
	}
	if c.Oracle.Referer == "" {
		return fmt.Errorf("config: oracle.referer is required")
	}
	if c.Oracle.Timeout < 0 {
		return fmt.Errorf("config: oracle.timeout must not be negative")
	}
	if c.Scan.Cooldown < 0 {
		return fmt.Errorf("config: scan.cooldown must not be negative")
	}
	if c.Scan.SnapshotEvery < 0 {
		return fmt.Errorf("config: scan.snapshot_every must not be negative")
	}
	if c.Scan.Passes < 0 {
		return fmt.Errorf("config: scan.passes must not be negative")
	}
	if _, err := c.Scan.Policy.Policy(); err != nil {
		return err
	}
	if c.Collection.Path == "" {
		return fmt.Errorf("config: collection.path is required")
	}
	if c.Collection.DecompressRatio < 1 {
		return fmt.Errorf("config: collection.decompress_ratio must be at least 1")
	}
	if c.Collection.Level < 1 || c.Collection.Level > 22 {
		return fmt.Errorf("config: collection.level %d out of range (1-22)", c.Collection.Level)
	}
	return nil
}
