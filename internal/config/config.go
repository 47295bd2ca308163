package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Seed      SeedConfig      `mapstructure:"seed"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port" default:"8000"`
	Mode         string        `mapstructure:"mode" default:"release"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" default:"10s"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" default:"30s"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host" default:"localhost"`
	Port     int    `mapstructure:"port" default:"5432"`
	User     string `mapstructure:"user" default:"medly"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name" default:"medly"`
	SSLMode  string `mapstructure:"sslmode" default:"disable"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" default:"50"`
	Burst             int     `mapstructure:"burst" default:"100"`
}

type SeedConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level" default:"info"`
}

// Load reads config.yaml and overlays MEDLY_* environment variables, so a
// container can run on env vars alone.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	var config Config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("medly", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	return &config, nil
}

// DSN builds the postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// SanitizedDSN is the DSN with the password masked, safe for debug output.
func (c DatabaseConfig) SanitizedDSN() string {
	dsn := c.DSN()
	if c.Password != "" {
		dsn = strings.ReplaceAll(dsn, "password="+c.Password, "password=***")
	}
	return dsn
}
