package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"shuttle/internal/config"
	"shuttle/internal/ledger"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and ledger status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *ledger.Store) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(out, line)
				}
				pidPath := filepath.Join(cfg.Paths.LogDir, "shuttle.pid")
				if pid, ok := readPID(pidPath); ok {
					fmt.Fprintln(out, renderStatusLine("Process", statusOK, fmt.Sprintf("pid %d", pid), colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine("Process", statusWarn, "not running", colorize))
				}
				fmt.Fprintln(out, renderStatusLine("Self-heal", healStyle(cfg.General.SelfHeal), healLabel(cfg.General.SelfHeal), colorize))

				registered, err := store.Studies(cmd.Context())
				if err != nil {
					return err
				}
				style, message := studiesStatus(cfg.General.Studies, registered)
				fmt.Fprintln(out, renderStatusLine("Studies", style, message, colorize))

				health, err := store.CheckHealth(cmd.Context())
				if err != nil {
					fmt.Fprintln(out, renderStatusLine("Ledger", statusError, err.Error(), colorize))
				} else if health.IntegrityCheck {
					fmt.Fprintln(out, renderStatusLine("Ledger", statusOK, health.DBPath, colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine("Ledger", statusWarn, "integrity check failed", colorize))
				}
				fmt.Fprintln(out)

				counts, err := store.Counts(cmd.Context())
				if err != nil {
					return err
				}
				for _, line := range renderSectionHeader("Ledger", colorize) {
					fmt.Fprintln(out, line)
				}
				rows := []table.Row{
					{"Studies", counts.Studies},
					{"Interview files", counts.InterviewFiles},
					{"Probed", counts.Probed},
					{"QC checked", counts.Checked},
					{"Reports", counts.Reports},
					{"Gated", counts.Exclusions},
				}
				fmt.Fprintln(out, renderTable(table.Row{"Table", "Rows"}, rows, 2))
				return nil
			})
		},
	}
}

func healStyle(enabled bool) statusStyle {
	if enabled {
		return statusOK
	}
	return statusWarn
}

func healLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

// studiesStatus flags configured studies the ledger has never seen; they have
// no rows, so workers sweep them without ever finding work.
func studiesStatus(configured, registered []string) (statusStyle, string) {
	known := make(map[string]struct{}, len(registered))
	for _, study := range registered {
		known[study] = struct{}{}
	}
	var missing []string
	for _, study := range configured {
		if _, ok := known[study]; !ok {
			missing = append(missing, study)
		}
	}
	if len(missing) > 0 {
		return statusWarn, fmt.Sprintf("%s (no files registered: %s)", strings.Join(configured, ", "), strings.Join(missing, ", "))
	}
	return statusInfo, strings.Join(configured, ", ")
}

func readPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	// May report a stale pid file left by an unclean shutdown.
	return pid, true
}
