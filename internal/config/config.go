// Package config loads server configuration: YAML file defaults
// overlaid by environment variables, so deployments can run file-less.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// GameServer holds all configuration for the combat core.
type GameServer struct {
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	// Scheduling
	TickIntervalSec    float64 `yaml:"tick_interval_sec" env:"TICK_INTERVAL_SEC"`
	ChainEventMaxDepth int     `yaml:"chain_event_max_depth" env:"CHAIN_EVENT_MAX_DEPTH"`
	SessionTTLSec      int     `yaml:"session_ttl_sec" env:"SESSION_TTL_SEC"`

	// Upstream surface
	LogPageSize int `yaml:"log_page_size" env:"LOG_PAGE_SIZE"`

	// Global mitigation ceilings
	ResistanceCap float64 `yaml:"resistance_cap" env:"RESISTANCE_CAP"`
	DodgeCap      float64 `yaml:"dodge_cap" env:"DODGE_CAP"`
	BlockCap      float64 `yaml:"block_cap" env:"BLOCK_CAP"`
	ParryCap      float64 `yaml:"parry_cap" env:"PARRY_CAP"`

	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	DBName   string `yaml:"dbname" env:"DB_NAME"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// RedisConfig holds hot-cache connection parameters.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

// DefaultGameServer returns the stock configuration.
func DefaultGameServer() GameServer {
	return GameServer{
		LogLevel:           "info",
		TickIntervalSec:    1.0,
		ChainEventMaxDepth: 2,
		SessionTTLSec:      3600,
		LogPageSize:        20,
		ResistanceCap:      0.85,
		DodgeCap:           0.75,
		BlockCap:           0.75,
		ParryCap:           0.50,
		Database: DatabaseConfig{
			Host:    "127.0.0.1",
			Port:    5432,
			User:    "duskhall",
			DBName:  "duskhall",
			SSLMode: "disable",
		},
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
		},
	}
}

// LoadGameServer reads the YAML file at path (skipped when absent) and
// overlays environment variables on top of the defaults.
func LoadGameServer(path string) (GameServer, error) {
	cfg := DefaultGameServer()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// env-only deployment
		case err != nil:
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// TickInterval returns the scheduling interval as a duration.
func (c GameServer) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalSec * float64(time.Second))
}

// SessionTTL returns the inactive-session eviction window.
func (c GameServer) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSec) * time.Second
}
