package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/mselser95/polymarket-trader/internal/storage"
	"github.com/mselser95/polymarket-trader/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Display open simulated positions from storage",
	Long: `Reads the positions table and prints every open simulated position.

Examples:
  # Default table format
  polymarket-trader positions

  # Export to JSON
  polymarket-trader positions --format json > positions.json

  # Largest positions first
  polymarket-trader positions --sort-by-size`,
	RunE: runPositionsCommand,
}

//nolint:gochecknoglobals // Cobra flags
var (
	positionsFormat     string
	positionsSortBySize bool
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(positionsCmd)

	positionsCmd.Flags().StringVar(&positionsFormat, "format", "table", "Output format: table, json")
	positionsCmd.Flags().BoolVar(&positionsSortBySize, "sort-by-size", false, "Sort positions by size (largest first)")
}

func runPositionsCommand(cmd *cobra.Command, args []string) error {
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

	store, err := storage.NewPostgresStorage(&storage.PostgresConfig{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPass,
		Database: cfg.PostgresDB,
		SSLMode:  cfg.PostgresSSL,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	positions, err := store.OpenPositions(cmd.Context())
	if err != nil {
		return fmt.Errorf("load positions: %w", err)
	}

	if positionsSortBySize {
		sort.SliceStable(positions, func(i, j int) bool {
			return positions[i].Size > positions[j].Size
		})
	}

	if positionsFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(positions)
	}

	if len(positions) == 0 {
		fmt.Println("no open positions")
		return nil
	}

	total := 0.0
	fmt.Printf("%-30s %-24s %-6s %12s %12s %12s\n",
		"ASSET", "MARKET", "SIDE", "SIZE", "AVG PRICE", "REALIZED")
	for _, pos := range positions {
		total += pos.Size
		fmt.Printf("%-30s %-24s %-6s %12.6f %12.6f %12.6f\n",
			pos.AssetID, pos.Market, pos.Side, pos.Size, pos.AveragePrice, pos.RealizedPnL)
	}
	fmt.Printf("\n%d open position(s), total exposure %.6f USDC\n", len(positions), total)

	return nil
}
