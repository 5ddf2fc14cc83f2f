package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is read from the environment.
type Config struct {
	Addr            string        `env:"BLACKJACK_ADDR" envDefault:":8080"`
	DBPath          string        `env:"BLACKJACK_DB_PATH" envDefault:"blackjack.db"`
	TokenSecret     string        `env:"BLACKJACK_TOKEN_SECRET"`
	TokenIssuer     string        `env:"BLACKJACK_TOKEN_ISSUER" envDefault:"blackjack"`
	ClientDir       string        `env:"BLACKJACK_CLIENT_DIR"`
	WriteTimeout    time.Duration `env:"BLACKJACK_WS_WRITE_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout time.Duration `env:"BLACKJACK_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.TokenSecret == "" {
		return Config{}, errors.New("BLACKJACK_TOKEN_SECRET is required")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "blackjack.db"
	}
	return cfg, nil
}
