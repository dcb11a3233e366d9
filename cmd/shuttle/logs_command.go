package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"shuttle/internal/config"
	"shuttle/internal/ledger"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent pipeline audit entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *ledger.Store) error {
				entries, err := store.RecentLogs(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No audit entries recorded.")
					return nil
				}
				rows := make([]table.Row, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, table.Row{
						entry.LoggedAt.Local().Format(time.DateTime),
						entry.Module,
						entry.Message,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(table.Row{"Logged", "Module", "Message"}, rows))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show")
	return cmd
}
