package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"garage/internal/auth"
	"garage/internal/car"
	"garage/internal/config"
	"garage/internal/logger"
	"garage/internal/postgres"
	"garage/internal/server"
	"garage/internal/session"
	"garage/internal/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg Config
	config.MustLoad(&cfg)

	var log = logger.New(logger.WithProduction(cfg.AppName))
	if cfg.Debug {
		log = logger.New(logger.WithDevelopment(cfg.AppName))
	}

	db, err := postgres.Connect(ctx, cfg.DB)
	if err != nil {
		log.Error("failed to connect to database", logger.Component("postgres"), logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db, cfg.DB, log); err != nil {
		log.Error("failed to migrate database", logger.Component("postgres"), logger.Error(err))
		os.Exit(1)
	}

	sessionStore, err := newSessionStore(ctx, cfg)
	if err != nil {
		log.Error("failed to set up session store", logger.Component("session"), logger.Error(err))
		os.Exit(1)
	}
	sessions := session.NewManager(sessionStore, cfg.Session)

	tmpl, err := web.LoadTemplates()
	if err != nil {
		log.Error("failed to parse templates", logger.Component("templates"), logger.Error(err))
		os.Exit(1)
	}

	handlers := web.NewHandlers(
		auth.NewRepository(db),
		car.NewRepository(db),
		tmpl,
		log,
	)
	rt := web.NewRouter(handlers, sessions, log, cfg.Debug, postgres.Healthcheck(db))

	srv, err := server.New(cfg.Server, server.WithLogger(log))
	if err != nil {
		log.Error("failed to create server", logger.Component("server"), logger.Error(err))
		os.Exit(1)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(srv.Run(ctx, rt))

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server stopped with error", logger.Component("server"), logger.Error(err))
		os.Exit(1)
	}
	log.Info("application stopped")
}

// newSessionStore picks the session backend: Redis when configured,
// process memory otherwise.
func newSessionStore(ctx context.Context, cfg Config) (session.Store, error) {
	if cfg.RedisURL == "" {
		return session.NewMemoryStore(), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return session.NewRedisStore(client), nil
}
