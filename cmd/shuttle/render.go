package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

const ansiReset = "\x1b[0m"

// statusStyle pairs a bracketed status label with its terminal color.
type statusStyle struct {
	label string
	color string
}

var (
	statusInfo  = statusStyle{label: "INFO", color: "\x1b[34m"}
	statusOK    = statusStyle{label: "OK", color: "\x1b[32m"}
	statusWarn  = statusStyle{label: "WARN", color: "\x1b[33m"}
	statusError = statusStyle{label: "ERROR", color: "\x1b[31m"}
)

const statusLabelWidth = 18

func renderStatusLine(label string, style statusStyle, message string, colorize bool) string {
	cell := "[" + style.label + "]"
	if message != "" {
		cell += " " + message
	}
	line := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", cell)
	if colorize && style.color != "" {
		return style.color + line + ansiReset
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	line := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = statusInfo.color + line + ansiReset
		rule = statusInfo.color + rule + ansiReset
	}
	return []string{line, rule}
}

// renderTable draws a rounded table. Columns listed in rightAligned are
// numbered from 1 and right-justified, for counts.
func renderTable(headers table.Row, rows []table.Row, rightAligned ...int) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(headers)
	tw.AppendRows(rows)

	if len(rightAligned) > 0 {
		configs := make([]table.ColumnConfig, 0, len(rightAligned))
		for _, column := range rightAligned {
			configs = append(configs, table.ColumnConfig{
				Number:      column,
				Align:       text.AlignRight,
				AlignHeader: text.AlignLeft,
			})
		}
		tw.SetColumnConfigs(configs)
	}

	return tw.Render()
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
