package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/lost-server/internal/pkg/validator"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
}

type ServerConfig struct {
	IP             string `validate:"required"`
	Port           int    `validate:"gte=1,lte=65535"`
	ServerID       string `validate:"required"`
	Authoritative  string
	Redirect       bool
	GeoTable       string `validate:"required"`
	CivicTable     string
	RequestTimeout time.Duration `validate:"gt=0"`
	PeerTimeout    time.Duration `validate:"gt=0"`
}

type DatabaseConfig struct {
	URL     string `validate:"required"`
	MinCons int    `validate:"gte=0"`
	MaxCons int    `validate:"gte=1"`
}

// RedisConfig is optional: an empty URL makes boundary references fall back
// to deterministic shape-id keys resolved from the shape store.
type RedisConfig struct {
	URL string
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			IP:             viper.GetString("IP"),
			Port:           viper.GetInt("PORT"),
			ServerID:       viper.GetString("SERVER_ID"),
			Authoritative:  viper.GetString("AUTHORITATIVE"),
			Redirect:       viper.GetBool("REDIRECT"),
			GeoTable:       viper.GetString("GEO_TABLE"),
			CivicTable:     viper.GetString("CIVIC_TABLE"),
			RequestTimeout: viper.GetDuration("REQUEST_TIMEOUT"),
			PeerTimeout:    viper.GetDuration("PEER_TIMEOUT"),
		},
		Database: DatabaseConfig{
			URL:     viper.GetString("DB_URL"),
			MinCons: viper.GetInt("MIN_CON"),
			MaxCons: viper.GetInt("MAX_CON"),
		},
		Redis: RedisConfig{
			URL: viper.GetString("REDIS_URL"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
	}

	// Set default values if not provided
	if cfg.Server.IP == "" {
		cfg.Server.IP = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.ServerID == "" {
		cfg.Server.ServerID = "lost-server"
	}
	if cfg.Server.GeoTable == "" {
		cfg.Server.GeoTable = "mapping"
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 15 * time.Second
	}
	if cfg.Server.PeerTimeout == 0 {
		cfg.Server.PeerTimeout = 10 * time.Second
	}
	if cfg.Database.MinCons == 0 {
		cfg.Database.MinCons = 1
	}
	if cfg.Database.MaxCons == 0 {
		cfg.Database.MaxCons = 16
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if err := validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.IP, c.Server.Port)
}
