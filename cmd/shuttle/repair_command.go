package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shuttle/internal/config"
	"shuttle/internal/ledger"
	"shuttle/internal/logging"
	"shuttle/internal/repair"
)

func newRepairCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Run one repair pass over stale completion records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *ledger.Store) error {
				logger, err := logging.NewFromConfig(cfg, "shuttle.log")
				if err != nil {
					return err
				}
				pass := repair.NewPass(cfg, store, store, logger)
				purged, err := pass.Run(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !cfg.General.SelfHeal {
					fmt.Fprintln(out, "Self-heal is disabled; the pass detected stale rows but purged nothing.")
				}
				fmt.Fprintf(out, "Repair pass purged %d stale completion(s)\n", purged)
				return nil
			})
		},
	}
}
