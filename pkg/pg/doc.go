// Package pg bootstraps the Postgres pool (pgx/v5) and applies goose
// migrations from an embedded filesystem.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, db.Migrations, db.MigrationsDir, cfg, log); err != nil {
//		return err
//	}
//
// Healthcheck adapts the pool to the readiness endpoint. IsNotFoundError and
// IsDuplicateKeyError classify driver errors for stores.
package pg
