package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/liberta-app/liberta/db"
	"github.com/liberta-app/liberta/pkg/billing"
	"github.com/liberta-app/liberta/pkg/config"
	"github.com/liberta-app/liberta/pkg/environment"
	"github.com/liberta-app/liberta/pkg/logger"
	"github.com/liberta-app/liberta/pkg/pg"
	"github.com/liberta-app/liberta/pkg/redis"
	"github.com/liberta-app/liberta/pkg/requestid"
)

func newLogger(app config.App) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(environment.Parse(app.Env), app.ServiceName),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	}
	if app.LogLevel != "" {
		opts = append(opts, logger.WithLevelString(app.LogLevel))
	}
	return logger.New(opts...)
}

// openPostgres connects and, when asked to, applies pending migrations.
func openPostgres(ctx context.Context, cfg pg.Config, migrate bool, log *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := pg.Migrate(ctx, pool, db.Migrations, db.MigrationsDir, cfg, log); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return pool, nil
}

// openRedis returns nil when no REDIS_URL is configured.
func openRedis(ctx context.Context, cfg redis.Config, log *slog.Logger) (*goredis.Client, error) {
	if !cfg.Enabled() {
		log.Info("redis not configured, entitlement cache disabled")
		return nil, nil
	}
	return redis.Connect(ctx, cfg)
}

// newProvider builds the configured payment provider and returns the price
// to sell with it.
func newProvider() (billing.Provider, string, error) {
	sel, err := config.Load[billing.Config]()
	if err != nil {
		return nil, "", err
	}
	name, err := sel.Normalize()
	if err != nil {
		return nil, "", err
	}

	switch name {
	case billing.ProviderPaddle:
		cfg, err := config.Load[billing.PaddleConfig]()
		if err != nil {
			return nil, "", err
		}
		p, err := billing.NewPaddleProvider(cfg)
		return p, cfg.PriceID, err
	default:
		cfg, err := config.Load[billing.StripeConfig]()
		if err != nil {
			return nil, "", err
		}
		p, err := billing.NewStripeProvider(cfg)
		return p, cfg.PriceID, err
	}
}

func loadConfigs[A, B any]() (A, B, error) {
	a, errA := config.Load[A]()
	b, errB := config.Load[B]()
	if err := errors.Join(errA, errB); err != nil {
		return a, b, fmt.Errorf("load configuration: %w", err)
	}
	return a, b, nil
}
