package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mselser95/polymarket-trader/internal/backtest"
	"github.com/mselser95/polymarket-trader/internal/execution"
	"github.com/mselser95/polymarket-trader/internal/perf"
	"github.com/mselser95/polymarket-trader/internal/storage"
	"github.com/mselser95/polymarket-trader/internal/strategy"
	"github.com/mselser95/polymarket-trader/pkg/config"
	"github.com/mselser95/polymarket-trader/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay recorded price history against a strategy",
	Long: `Replays recorded price ticks through the strategy and the same
simulated fill engine the live bot uses, then prints a performance
report.

Ticks come from the recorder's daily JSONL files by default, or from
the Postgres price_history table with --from-db.

Examples:
  # Replay everything recorded under data/
  polymarket-trader backtest

  # One market, one week, momentum strategy
  polymarket-trader backtest --market will-it-rain --start 2026-08-01 --end 2026-08-07 --strategy momentum

  # Replay from Postgres and save the report
  polymarket-trader backtest --from-db --market will-it-rain --start 2026-08-01 --end 2026-08-07 --report-dir reports/`,
	RunE: runBacktest,
}

//nolint:gochecknoglobals // Cobra flags
var (
	btDataDir      string
	btMarket       string
	btAsset        string
	btStart        string
	btEnd          string
	btStrategy     string
	btCapital      float64
	btSlippageBPS  float64
	btUseBookPrice bool
	btFromDB       bool
	btReportDir    string
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVar(&btDataDir, "data-dir", "", "Directory of recorded JSONL files (default DATA_DIR)")
	backtestCmd.Flags().StringVar(&btMarket, "market", "", "Filter ticks to a single market slug")
	backtestCmd.Flags().StringVar(&btAsset, "asset", "", "Filter ticks to a single asset ID")
	backtestCmd.Flags().StringVar(&btStart, "start", "", "Start date, inclusive (YYYY-MM-DD)")
	backtestCmd.Flags().StringVar(&btEnd, "end", "", "End date, inclusive (YYYY-MM-DD)")
	backtestCmd.Flags().StringVar(&btStrategy, "strategy", "", "Strategy name (default STRATEGY_NAME)")
	backtestCmd.Flags().Float64Var(&btCapital, "capital", 1000.0, "Initial capital in USDC")
	backtestCmd.Flags().Float64Var(&btSlippageBPS, "slippage-bps", -1, "Slippage in basis points (default SLIPPAGE_BPS)")
	backtestCmd.Flags().BoolVar(&btUseBookPrice, "use-book-price", true, "Fill at best bid/ask when the tick carries them")
	backtestCmd.Flags().BoolVar(&btFromDB, "from-db", false, "Load ticks from Postgres instead of JSONL files")
	backtestCmd.Flags().StringVar(&btReportDir, "report-dir", "", "Directory to save the report summary into")
}

func runBacktest(cmd *cobra.Command, args []string) error {
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

	ticks, err := loadBacktestTicks(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	if len(ticks) == 0 {
		return fmt.Errorf("no ticks matched the given filters")
	}

	strategyName := btStrategy
	if strategyName == "" {
		strategyName = cfg.StrategyName
	}
	strat, err := strategy.New(strategyName, strategy.Params{
		"buy_size":   cfg.TradeAmount,
		"buy_below":  cfg.BuyThreshold,
		"sell_above": cfg.SellThreshold,
		"lookback":   float64(cfg.MomentumLookback),
		"entry_move": cfg.MomentumEntryMove,
		"exit_move":  cfg.MomentumExitMove,
	})
	if err != nil {
		return fmt.Errorf("create strategy: %w", err)
	}

	slippage := btSlippageBPS
	if slippage < 0 {
		slippage = cfg.SlippageBPS
	}

	engine, err := backtest.New(&backtest.Config{
		Strategy: strat,
		Pricing: execution.Pricing{
			UseBookPrice: btUseBookPrice,
			SlippageBPS:  slippage,
		},
		InitialCapital: btCapital,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("create backtest engine: %w", err)
	}

	logger.Info("backtest-starting",
		zap.Int("ticks", len(ticks)),
		zap.String("strategy", strategyName),
		zap.Float64("capital", btCapital))

	result := engine.Run(ticks)
	report := perf.Analyze(result)

	err = perf.WriteSummary(os.Stdout, report)
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if btReportDir != "" {
		path, err := perf.SaveSummary(btReportDir, report)
		if err != nil {
			return fmt.Errorf("save summary: %w", err)
		}
		logger.Info("report-saved", zap.String("path", path))
	}

	return nil
}

func loadBacktestTicks(ctx context.Context, cfg *config.Config, logger *zap.Logger) ([]types.Tick, error) {
	dataDir := btDataDir
	if dataDir == "" {
		dataDir = cfg.DataDir
	}

	if !btFromDB {
		loader, err := backtest.NewLoader(&backtest.LoaderConfig{
			DataDir: dataDir,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create loader: %w", err)
		}

		ticks, err := loader.LoadJSONL(backtest.Filter{
			MarketID:  btMarket,
			AssetID:   btAsset,
			StartDate: btStart,
			EndDate:   btEnd,
		})
		if err != nil {
			return nil, fmt.Errorf("load ticks: %w", err)
		}
		return ticks, nil
	}

	since, until, err := parseDateRange(btStart, btEnd)
	if err != nil {
		return nil, err
	}

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
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	loader, err := backtest.NewLoader(&backtest.LoaderConfig{
		DataDir: dataDir,
		Store:   store,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create loader: %w", err)
	}

	ticks, err := loader.LoadFromStore(ctx, btMarket, since, until)
	if err != nil {
		return nil, fmt.Errorf("load ticks from store: %w", err)
	}
	return ticks, nil
}

func parseDateRange(start, end string) (time.Time, time.Time, error) {
	since := time.Time{}
	until := time.Now().UTC()

	if start != "" {
		parsed, err := time.Parse("2006-01-02", start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse start date: %w", err)
		}
		since = parsed
	}

	if end != "" {
		parsed, err := time.Parse("2006-01-02", end)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse end date: %w", err)
		}
		// End date is inclusive
		until = parsed.Add(24*time.Hour - time.Nanosecond)
	}

	return since, until, nil
}
