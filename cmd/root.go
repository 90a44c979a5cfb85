package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "polymarket-trader",
	Short: "Polymarket automated trading bot",
	Long: `Polymarket automated trading bot that subscribes to market price
streams, evaluates a pluggable strategy on every tick, and executes
trades through a simulated fill engine guarded by risk limits.

All execution is simulated; no live orders are ever placed. Recorded
price streams can be replayed against a strategy with the backtest
command.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
