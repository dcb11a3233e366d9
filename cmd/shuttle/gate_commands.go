package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"shuttle/internal/config"
	"shuttle/internal/ledger"
)

func newGateCommand(ctx *commandContext) *cobra.Command {
	gateCmd := &cobra.Command{
		Use:   "gate",
		Short: "Inspect and manage gated candidates",
	}
	gateCmd.AddCommand(newGateListCommand(ctx))
	gateCmd.AddCommand(newGateRemoveCommand(ctx))
	return gateCmd
}

func newGateListCommand(ctx *commandContext) *cobra.Command {
	var stage string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List gated candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *ledger.Store) error {
				exclusions, err := store.ListExclusions(cmd.Context(), stage)
				if err != nil {
					return err
				}
				if len(exclusions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No gated candidates.")
					return nil
				}
				rows := make([]table.Row, 0, len(exclusions))
				for _, exclusion := range exclusions {
					rows = append(rows, table.Row{
						exclusion.Stage,
						exclusion.CandidateKey,
						exclusion.Reason,
						exclusion.CreatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(table.Row{"Stage", "Candidate", "Reason", "Gated"}, rows))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&stage, "stage", "s", "", "Filter by stage name")
	return cmd
}

func newGateRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <stage> <candidate>",
		Short: "Remove a gating marker, re-admitting the candidate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *ledger.Store) error {
				removed, err := store.RemoveExclusion(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !removed {
					fmt.Fprintf(out, "No gating marker found for %s/%s\n", args[0], args[1])
					return nil
				}
				fmt.Fprintf(out, "Removed gating marker for %s/%s; the candidate is eligible again\n", args[0], args[1])
				return nil
			})
		},
	}
}
