package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Market MarketConfig `mapstructure:"market"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Logger LoggerConfig `mapstructure:"logger"`
}

type ServerConfig struct {
	Port       string `mapstructure:"port"`
	CORSOrigin string `mapstructure:"cors_origin"`
	Env        string `mapstructure:"env"` // e.g., "local", "prod"
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type MarketConfig struct {
	TickInterval    time.Duration `mapstructure:"tick_interval"`
	HistoryCapacity int           `mapstructure:"history_capacity"`
}

type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig reads configuration from .env file, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Load .env file into System Environment (if it exists)
	// This ensures variables like SERVER_PORT are available as real env vars
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}

	// 2. Set Defaults (12-Factor App: Dev/Prod Parity)
	v.SetDefault("server.port", ":3001")
	v.SetDefault("server.cors_origin", "http://localhost:5173")
	v.SetDefault("server.env", "local")

	v.SetDefault("auth.jwt_secret", "dev-only-insecure-secret")
	v.SetDefault("auth.token_ttl", "24h")

	v.SetDefault("market.tick_interval", "3s")
	v.SetDefault("market.history_capacity", 100)

	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.cleanup_interval", "10m")

	v.SetDefault("logger.level", "info")

	// 3. Configure Viper to read Environment Variables
	// This maps dot-notation to underscores (e.g., "server.port" -> "SERVER_PORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Explicitly Bind Env Vars to Keys
	// This is crucial for Viper to map flat Env Vars (SERVER_PORT) to nested structs (Server.Port)
	bindEnv(v, "server.port", "server.cors_origin", "server.env")
	bindEnv(v, "auth.jwt_secret", "auth.token_ttl")
	bindEnv(v, "market.tick_interval", "market.history_capacity")
	bindEnv(v, "cache.ttl", "cache.cleanup_interval")
	bindEnv(v, "logger.level")

	// 5. Unmarshal into Struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %v", err)
	}

	// 6. Basic Validation
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth jwt_secret cannot be empty")
	}
	if cfg.Market.TickInterval <= 0 {
		return nil, fmt.Errorf("market tick_interval must be positive")
	}
	if cfg.Market.HistoryCapacity <= 0 {
		return nil, fmt.Errorf("market history_capacity must be positive")
	}
	if cfg.Cache.TTL <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive")
	}

	return &cfg, nil
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}
