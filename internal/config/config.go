// Package config loads typed configuration structs from environment
// variables, with an optional .env file picked up on first use.
package config

import (
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var loadDotEnv sync.Once

// Load populates cfg from the environment using `env` struct tags.
// A .env file in the working directory is loaded once, if present;
// real environment variables take precedence over file values.
func Load(cfg any) error {
	loadDotEnv.Do(func() {
		// Missing file is fine; explicit env vars are enough.
		_ = godotenv.Load()
	})

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// MustLoad is Load for startup paths where a broken environment should
// stop the process immediately.
func MustLoad(cfg any) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
