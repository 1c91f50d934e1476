// Package main provides the entry point for the tilth CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pityka/tilth/cmd/tilth/commands"
	"github.com/pityka/tilth/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tilth",
		Short: "Tilth code intelligence engine",
		Long: `Tilth exposes structural outlines, symbol/content search, and a
hashline edit protocol to AI coding agents over an MCP stdio server, plus a
one-shot directory map for shell use outside the MCP loop.

Commands:
  mcp       Start the MCP JSON-RPC/stdio server
  map       Print a directory map to stdout
  version   Show version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewMCPCommand())
	rootCmd.AddCommand(commands.NewMapCommand())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "tilth %s\n", version.String())
		},
	}
}
