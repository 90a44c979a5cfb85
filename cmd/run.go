package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/mselser95/polymarket-trader/internal/app"
	"github.com/mselser95/polymarket-trader/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the trading bot",
	Long: `Starts the trading bot, which will:
1. Subscribe to the watchlist's asset price streams via WebSocket
2. Evaluate the configured strategy on every price change
3. Simulate fills for approved signals and track positions
4. Record every tick to daily JSONL files for later backtesting

Use --watchlist to point at a different markets file.`,
	RunE: runBot,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("watchlist", "w", "", "Path to the markets watchlist YAML (overrides WATCHLIST_PATH)")
}

func runBot(cmd *cobra.Command, args []string) error {
	// .env is optional; real deployments use the environment directly
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	watchlistPath, _ := cmd.Flags().GetString("watchlist")

	application, err := app.New(cfg, logger, &app.Options{
		WatchlistPath: watchlistPath,
	})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
