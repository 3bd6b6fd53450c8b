package main

import (
	"garage/internal/postgres"
	"garage/internal/server"
	"garage/internal/session"
)

// Config is the full application configuration, assembled from the
// environment at startup.
type Config struct {
	AppName string `env:"APP_NAME" envDefault:"garage"`
	Debug   bool   `env:"APP_DEBUG" envDefault:"false"`

	// RedisURL selects the Redis session store when set; otherwise
	// sessions live in process memory.
	RedisURL string `env:"REDIS_URL" envDefault:""`

	Session session.Config
	DB      postgres.Config
	Server  server.Config
}
