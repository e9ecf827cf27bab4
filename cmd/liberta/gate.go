package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/liberta-app/liberta/pkg/config"
	"github.com/liberta-app/liberta/pkg/entitlement"
	"github.com/liberta-app/liberta/pkg/entitlement/pgstore"
	"github.com/liberta-app/liberta/pkg/pg"
)

func newGateCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "gate <user-id>",
		Short: "Print the gate decision for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q: %w", args[0], err)
			}
			app, err := config.Load[config.App]()
			if err != nil {
				return err
			}
			cfg, err := config.Load[pg.Config]()
			if err != nil {
				return err
			}
			pool, err := openPostgres(cmd.Context(), cfg, false, newLogger(app))
			if err != nil {
				return err
			}
			defer pool.Close()

			gate := entitlement.NewGate(entitlement.WithLoginPath(app.LoginPath), entitlement.WithPaywallPath(app.PaywallPath))
			svc := entitlement.NewService(pgstore.New(pool), entitlement.WithGate(gate))
			return printGate(cmd.Context(), cmd.OutOrStdout(), svc, gate, time.Now(), userID, path)
		},
	}
	cmd.Flags().StringVar(&path, "path", "/app", "requested path to evaluate")
	return cmd
}

type gateReport struct {
	UserID             uuid.UUID            `json:"user_id"`
	Decision           entitlement.Decision `json:"decision"`
	TrialEndsAt        *time.Time           `json:"trial_ends_at"`
	SubscriptionStatus string               `json:"subscription_status,omitempty"`
	Trial              *entitlement.Trial   `json:"trial"`
}

func printGate(ctx context.Context, w io.Writer, r entitlement.Reader, g entitlement.Gate, now time.Time, userID uuid.UUID, path string) error {
	d, snap, err := entitlement.Evaluate(ctx, r, g, now, &userID, path)
	if err != nil {
		return err
	}
	report := gateReport{UserID: userID, Decision: d, Trial: entitlement.TrialInfo(snap, now)}
	if snap != nil {
		report.TrialEndsAt = snap.TrialEndsAt
		report.SubscriptionStatus = snap.SubscriptionStatus
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
