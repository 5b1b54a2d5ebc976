package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Victor-armando18/service-giftbuilder/pkg/giftbuilder"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Session  SessionConfig  `yaml:"session"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Cart     CartConfig     `yaml:"cart"`
	Rules    RulesConfig    `yaml:"rules"`
	Discount DiscountConfig `yaml:"discount"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	AllowOrigins    []string      `yaml:"allowOrigins"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
}

type CatalogConfig struct {
	Path string `yaml:"path"`
}

type CartConfig struct {
	Path string `yaml:"path"`
}

type RulesConfig struct {
	Dir     string `yaml:"dir"`
	Version string `yaml:"version"`
}

type DiscountConfig struct {
	Tiers giftbuilder.Tiers `yaml:"tiers"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			AllowOrigins:    []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Log:     LogConfig{Level: "info", Format: "json"},
		Session: SessionConfig{TTL: 2 * time.Hour, SweepInterval: 5 * time.Minute},
		Catalog: CatalogConfig{Path: "data/catalog.yaml"},
		Cart:    CartConfig{Path: "data/db/submissions.json"},
		Rules:   RulesConfig{Version: "v1"},
		Discount: DiscountConfig{
			Tiers: append(giftbuilder.Tiers(nil), giftbuilder.DefaultTiers...),
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to unmarshal config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"GIFTBUILDER_ADDR":          &c.Server.Addr,
		"GIFTBUILDER_LOG_LEVEL":     &c.Log.Level,
		"GIFTBUILDER_LOG_FORMAT":    &c.Log.Format,
		"GIFTBUILDER_CATALOG":       &c.Catalog.Path,
		"GIFTBUILDER_CART":          &c.Cart.Path,
		"GIFTBUILDER_RULES_DIR":     &c.Rules.Dir,
		"GIFTBUILDER_RULES_VERSION": &c.Rules.Version,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"GIFTBUILDER_SESSION_TTL":    &c.Session.TTL,
		"GIFTBUILDER_SWEEP_INTERVAL": &c.Session.SweepInterval,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if c.Session.SweepInterval <= 0 {
		errs = append(errs, errors.New("session.sweepInterval must be positive"))
	}
	if c.Catalog.Path == "" {
		errs = append(errs, errors.New("catalog.path is required"))
	}
	if c.Cart.Path == "" {
		errs = append(errs, errors.New("cart.path is required"))
	}
	if err := c.Discount.Tiers.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
