package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageDriverBolt   = "bolt"
	StorageDriverMemory = "memory"
)

// Config holds all runtime configuration knobs for the broadcast service.
type Config struct {
	HTTP struct {
		Addr         string        `mapstructure:"addr"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"http"`
	Push struct {
		Endpoint       string        `mapstructure:"endpoint"`
		AccessToken    string        `mapstructure:"access_token"`
		RequestTimeout time.Duration `mapstructure:"request_timeout"`
		BatchSize      int           `mapstructure:"batch_size"`
		Concurrency    int           `mapstructure:"concurrency"`
		Sound          string        `mapstructure:"sound"`
	} `mapstructure:"push"`
	Broadcast struct {
		DefaultRadius float64 `mapstructure:"default_radius"`
		MaxRadius     float64 `mapstructure:"max_radius"`
		DefaultTitle  string  `mapstructure:"default_title"`
		DefaultBody   string  `mapstructure:"default_body"`
	} `mapstructure:"broadcast"`
	Registry struct {
		// MaxAge excludes devices whose last report is older; zero disables it.
		MaxAge time.Duration `mapstructure:"max_age"`
	} `mapstructure:"registry"`
	Storage struct {
		Driver string `mapstructure:"driver"`
		Path   string `mapstructure:"path"`
	} `mapstructure:"storage"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	Auth struct {
		Enabled   bool   `mapstructure:"enabled"`
		Username  string `mapstructure:"username"`
		Password  string `mapstructure:"password"`
		JWTSecret string `mapstructure:"jwt_secret"`
	} `mapstructure:"auth"`
}

// Load reads the configuration from disk/environment using Viper.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	}
	v.SetConfigType("yaml")
	v.SetEnvPrefix("sos_broadcast")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail at request time.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return errors.New("config: http.addr must be set")
	}
	if c.Push.RequestTimeout <= 0 {
		return errors.New("config: push.request_timeout must be positive")
	}
	if c.Push.BatchSize < 1 || c.Push.BatchSize > 100 {
		return errors.New("config: push.batch_size must be between 1 and 100")
	}
	if c.Push.Concurrency < 1 {
		return errors.New("config: push.concurrency must be positive")
	}
	if c.Broadcast.DefaultRadius <= 0 {
		return errors.New("config: broadcast.default_radius must be positive")
	}
	if c.Broadcast.MaxRadius < 0 {
		return errors.New("config: broadcast.max_radius must not be negative")
	}
	if c.Registry.MaxAge < 0 {
		return errors.New("config: registry.max_age must not be negative")
	}
	switch c.Storage.Driver {
	case StorageDriverBolt:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return errors.New("config: storage.path must be set for the bolt driver")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}
	return nil
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	// SetConfigFile with a missing path surfaces the os error instead
	return errors.Is(err, fs.ErrNotExist)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":3001")
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "30s")

	v.SetDefault("push.endpoint", "https://exp.host/--/api/v2/push/send")
	v.SetDefault("push.access_token", "")
	v.SetDefault("push.request_timeout", "10s")
	v.SetDefault("push.batch_size", 100)
	v.SetDefault("push.concurrency", 4)
	v.SetDefault("push.sound", "default")

	v.SetDefault("broadcast.default_radius", 500)
	v.SetDefault("broadcast.max_radius", 0)
	v.SetDefault("broadcast.default_title", "SOS Alert")
	v.SetDefault("broadcast.default_body", "A nearby user needs help")

	v.SetDefault("registry.max_age", "0s")

	v.SetDefault("storage.driver", StorageDriverBolt)
	v.SetDefault("storage.path", "./data/registry.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.username", "admin")
	v.SetDefault("auth.password", "admin123")
	v.SetDefault("auth.jwt_secret", "")
}
