package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	jsonOutput bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Call credit spread screener",
	Long: `Call credit spread screener

Fetches call option chains from Polygon and Yahoo Finance, pairs strikes
into call credit spreads, filters them through the screening funnel and
tracks executed trades.

Usage:
  go run ./cmd/screener [command]

Examples:
  go run ./cmd/screener screen AAPL MSFT --preset "Weekly Stock Options"
  go run ./cmd/screener spread AAPL AAPL240119C00200000 AAPL240119C00205000
  go run ./cmd/screener trades list
  go run ./cmd/screener api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Ctrl+C cancels the command context (api, scheduler start, in-flight fetches).
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of tables")
}
