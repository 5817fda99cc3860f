package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Backend identifiers accepted in TODO_BACKEND.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendDynamo   = "dynamodb"
)

// Config holds application configuration from environment.
type Config struct {
	HTTPPort      string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	Backend       string `env:"TODO_BACKEND" envDefault:"memory"`
	DatabaseURL   string `env:"DATABASE_URL"`
	DBPoolSize    int    `env:"DB_POOL_SIZE" envDefault:"25"`
	RedisURL      string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"50"`
	TodosTable    string `env:"TODOS_TABLE" envDefault:"todos"`
	AWSRegion     string `env:"AWS_REGION"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	switch cfg.Backend {
	case BackendMemory, BackendRedis, BackendPostgres, BackendDynamo:
	default:
		return nil, fmt.Errorf("unsupported TODO_BACKEND %q", cfg.Backend)
	}
	return &cfg, nil
}
