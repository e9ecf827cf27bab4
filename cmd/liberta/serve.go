package main

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/liberta-app/liberta/modules/billing"
	"github.com/liberta-app/liberta/modules/transactions"
	"github.com/liberta-app/liberta/pkg/config"
	"github.com/liberta-app/liberta/pkg/entitlement"
	"github.com/liberta-app/liberta/pkg/entitlement/cache"
	"github.com/liberta-app/liberta/pkg/entitlement/pgstore"
	"github.com/liberta-app/liberta/pkg/environment"
	"github.com/liberta-app/liberta/pkg/httpserver"
	"github.com/liberta-app/liberta/pkg/logger"
	"github.com/liberta-app/liberta/pkg/metrics"
	"github.com/liberta-app/liberta/pkg/pg"
	"github.com/liberta-app/liberta/pkg/ratelimiter"
	"github.com/liberta-app/liberta/pkg/redis"
	"github.com/liberta-app/liberta/pkg/requestid"
	"github.com/liberta-app/liberta/pkg/session"
	svcbilling "github.com/liberta-app/liberta/svc/billing"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	app, err := config.Load[config.App]()
	if err != nil {
		return err
	}
	log := newLogger(app)

	pgCfg, redisCfg, err := loadConfigs[pg.Config, redis.Config]()
	if err != nil {
		return err
	}
	sessionCfg, httpCfg, err := loadConfigs[session.Config, httpserver.Config]()
	if err != nil {
		return err
	}
	cacheCfg, limitCfg, err := loadConfigs[cache.Config, ratelimiter.Config]()
	if err != nil {
		return err
	}

	provider, priceID, err := newProvider()
	if err != nil {
		return err
	}
	verifier, err := session.NewVerifier(sessionCfg)
	if err != nil {
		return err
	}

	pool, err := openPostgres(ctx, pgCfg, pgCfg.AutoMigrate, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	rdb, err := openRedis(ctx, redisCfg, log)
	if err != nil {
		return err
	}
	checks := []httpserver.Check{{Name: "postgres", Fn: pg.Healthcheck(pool)}}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(rdb)})
	}

	m := metrics.New()
	gate := entitlement.NewGate(entitlement.WithLoginPath(app.LoginPath), entitlement.WithPaywallPath(app.PaywallPath))
	store := pgstore.New(pool)

	limitStore := ratelimiter.Store(ratelimiter.NewMemoryStore())
	if rdb != nil {
		limitStore = ratelimiter.NewRedisStore(rdb, limitCfg.Prefix)
	}
	limiter, err := ratelimiter.New(limitStore, limitCfg)
	if err != nil {
		return err
	}

	var reader entitlement.Reader = entitlement.NewService(store, entitlement.WithGate(gate))
	reconcilerOpts := []svcbilling.ReconcilerOption{
		svcbilling.WithReconcilerLogger(log),
		svcbilling.WithReconcilerMetrics(m),
	}
	if rdb != nil {
		cached := cache.New(reader, rdb, cache.WithConfig(cacheCfg), cache.WithLogger(log))
		reader = cached
		reconcilerOpts = append(reconcilerOpts, svcbilling.WithInvalidator(cached))
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestid.Middleware)
	r.Use(environment.Middleware(environment.Parse(app.Env)))
	r.Use(middleware.Recoverer)

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, 3*time.Second, checks...))
	r.Handle("/metrics", m.Handler())

	r.Mount("/api/transactions", transactions.Router(transactions.Options{
		Service:      transactions.NewService(transactions.NewPGStore(pool)),
		Verifier:     verifier,
		Entitlements: reader,
		Gate:         gate,
		Logger:       log,
		Metrics:      m,
	}))
	r.Mount("/", billing.Router(billing.Options{
		Bridge: svcbilling.NewBridge(provider, store, priceID, app,
			svcbilling.WithBridgeLogger(log),
			svcbilling.WithBridgeMetrics(m),
		),
		Reconciler:     svcbilling.NewReconciler(provider, store, reconcilerOpts...),
		Entitlements:   reader,
		Verifier:       verifier,
		Gate:           gate,
		AllowedOrigins: app.AllowedOrigins,
		Logger:         log,
		Metrics:        m,
		Limiter:        limiter,
	}))

	log.InfoContext(ctx, "starting liberta",
		slog.String("version", Version),
		logger.Provider(provider.Name()),
		slog.Bool("cache", rdb != nil),
	)
	return httpserver.New(httpCfg, httpserver.WithLogger(log)).Run(ctx, r)
}
