package main

import (
	"github.com/spf13/cobra"

	"github.com/liberta-app/liberta/pkg/config"
	"github.com/liberta-app/liberta/pkg/pg"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := config.Load[config.App]()
			if err != nil {
				return err
			}
			cfg, err := config.Load[pg.Config]()
			if err != nil {
				return err
			}
			log := newLogger(app)

			pool, err := openPostgres(cmd.Context(), cfg, true, log)
			if err != nil {
				return err
			}
			pool.Close()
			log.Info("migrations applied")
			return nil
		},
	}
}
