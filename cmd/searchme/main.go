// SearchME - Teams messaging extension search and dialog service
package main

import (
	"fmt"
	"os"

	"github.com/AE-MS/AE-SearchME/internal/config"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

var (
	configPath string
	output     string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "searchme",
		Short:         "SearchME - Teams messaging extension for package search",
		Version:       fmt.Sprintf("%s (built %s)", Version, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to configuration file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot endpoint and diagnostics API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	searchCmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Run one messaging extension search and print the cards",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}
	searchCmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")

	dialogCmd := &cobra.Command{
		Use:   "dialog [trigger]",
		Short: "Resolve a dialog trigger code (name, integer or JSON payload)",
		Args:  cobra.ExactArgs(1),
		RunE:  runDialog,
	}
	dialogCmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")
	dialogCmd.Flags().String("phase", "fetch", "Dispatch phase (fetch, submit)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "SearchME %s (built %s)\n", Version, BuildTime)
		},
	}

	rootCmd.AddCommand(serveCmd, searchCmd, dialogCmd, versionCmd)
	return rootCmd
}
