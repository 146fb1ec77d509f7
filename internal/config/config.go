package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix  = "CALLCOUNT_"
	defaultDir = ".callcountcli"
)

type Config struct {
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFile  string `koanf:"log_file"`
	DataDir  string `koanf:"data_dir" validate:"required"`

	Storage   StorageConfig   `koanf:"storage"`
	Dashboard DashboardConfig `koanf:"dashboard"`
	Trigger   TriggerConfig   `koanf:"trigger"`
}

type StorageConfig struct {
	Driver string      `koanf:"driver" validate:"oneof=file sqlite redis memory"`
	Path   string      `koanf:"path"`
	Redis  RedisConfig `koanf:"redis"`
}

type RedisConfig struct {
	Addr        string        `koanf:"addr"`
	Password    string        `koanf:"password"`
	DB          int           `koanf:"db" validate:"gte=0"`
	KeyPrefix   string        `koanf:"key_prefix"`
	DialTimeout time.Duration `koanf:"dial_timeout" validate:"gt=0"`
}

type DashboardConfig struct {
	TickInterval time.Duration `koanf:"tick_interval" validate:"gt=0"`
	DefaultGoal  int           `koanf:"default_goal" validate:"min=1"`
}

type TriggerConfig struct {
	SpoolDir string `koanf:"spool_dir"`
}

func Defaults() *Config {
	dir := defaultDir
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, defaultDir)
	}
	return &Config{
		LogLevel: "info",
		DataDir:  dir,
		Storage: StorageConfig{
			Driver: "file",
			Redis: RedisConfig{
				Addr:        "localhost:6379",
				KeyPrefix:   "callcount:",
				DialTimeout: 5 * time.Second,
			},
		},
		Dashboard: DashboardConfig{
			TickInterval: time.Second,
			DefaultGoal:  80,
		},
	}
}

// Load layers defaults, the optional YAML file at path and CALLCOUNT_*
// environment variables, then applies overrides in order. A double
// underscore in a variable name separates nesting levels:
// CALLCOUNT_STORAGE__DRIVER sets storage.driver.
func Load(path string, overrides ...func(*Config)) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	for _, o := range overrides {
		o(&cfg)
	}
	cfg.fillPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// fillPaths derives file locations left empty from the data directory.
func (c *Config) fillPaths() {
	if c.Storage.Path == "" {
		switch c.Storage.Driver {
		case "sqlite":
			c.Storage.Path = filepath.Join(c.DataDir, "calls.db")
		default:
			c.Storage.Path = filepath.Join(c.DataDir, "calls.json")
		}
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.DataDir, "callcountcli.log")
	}
	if c.Trigger.SpoolDir == "" {
		c.Trigger.SpoolDir = filepath.Join(c.DataDir, "triggers")
	}
}

func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Storage.Driver == "redis" && c.Storage.Redis.Addr == "" {
		return fmt.Errorf("invalid config: storage.redis.addr is required for the redis driver")
	}
	return nil
}
