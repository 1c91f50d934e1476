package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pityka/tilth/internal/dirmap"
	"github.com/pityka/tilth/internal/outlinecache"
)

// NewMapCommand creates the one-shot directory map command, for shell use
// outside the MCP loop.
func NewMapCommand() *cobra.Command {
	var (
		depth    int
		budget   int
		noColor  bool
		withStat bool
	)

	cmd := &cobra.Command{
		Use:   "map [scope]",
		Short: "Print a directory map with outline summaries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			scope := "."
			if len(args) == 1 {
				scope = args[0]
			}

			color.NoColor = noColor //nolint:reassign // CLI-controlled override of library global

			text := dirmap.Build(dirmap.Request{Scope: scope, Depth: depth, Budget: budget}, outlinecache.New())

			fmt.Fprintln(os.Stdout, colorizeTree(text))

			if withStat {
				fmt.Fprintln(os.Stdout, renderMapStats(text))
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&depth, "depth", dirmap.DefaultDepth, "recursion depth")
	cmd.Flags().IntVar(&budget, "budget", 0, "token budget; 0 means unbounded")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colorized output")
	cmd.Flags().BoolVar(&withStat, "stat", false, "print a directory/file count table after the map")

	return cmd
}

// colorizeTree colors directory entries blue and declaration summaries dim,
// leaving the tree-drawing characters and file names uncolored.
func colorizeTree(text string) string {
	dirColor := color.New(color.FgBlue, color.Bold)
	summaryColor := color.New(color.FgHiBlack)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimRight(line, " ")

		if idx := strings.Index(trimmed, " — "); idx != -1 {
			lines[i] = trimmed[:idx] + summaryColor.Sprint(trimmed[idx:])

			continue
		}

		if strings.HasSuffix(trimmed, "/") {
			lines[i] = dirColor.Sprint(trimmed)
		}
	}

	return strings.Join(lines, "\n")
}

// renderMapStats renders a small directory/file count summary for --stat,
// grounded on the teacher's go-pretty table conventions.
func renderMapStats(text string) string {
	dirs, files := 0, 0

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimRight(line, " ")
		if trimmed == "" || strings.HasPrefix(trimmed, "# ") {
			continue
		}

		if strings.HasSuffix(trimmed, "/") {
			dirs++
		} else {
			files++
		}
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"directories", "files"})
	tbl.AppendRow(table.Row{dirs, files})

	return tbl.Render()
}
