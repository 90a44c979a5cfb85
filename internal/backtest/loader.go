package backtest

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mselser95/polymarket-trader/pkg/types"
	"go.uber.org/zap"
)

// PriceHistoryReader provides recorded ticks from persistent storage,
// already ordered by ascending timestamp.
type PriceHistoryReader interface {
	PriceHistoryRange(ctx context.Context, market string, since, until time.Time) ([]types.Tick, error)
}

// Filter narrows which recorded ticks a load returns. Dates are
// "YYYY-MM-DD" and filter by the recorder's daily file names.
type Filter struct {
	MarketID  string
	AssetID   string
	StartDate string
	EndDate   string
}

// Loader reads backtest ticks from the recorder's JSONL files, with a
// storage fallback. It owns numeric coercion and ordering so the
// engine can trust its input.
type Loader struct {
	dataDir string
	store   PriceHistoryReader
	logger  *zap.Logger
}

// LoaderConfig holds loader configuration.
type LoaderConfig struct {
	DataDir string
	Store   PriceHistoryReader // optional
	Logger  *zap.Logger
}

// NewLoader creates a tick loader.
func NewLoader(cfg *LoaderConfig) (*Loader, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data dir cannot be empty")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Loader{
		dataDir: cfg.DataDir,
		store:   cfg.Store,
		logger:  cfg.Logger,
	}, nil
}

// rawTick tolerates the loose shapes found in recorded files: numeric
// fields may be JSON numbers or strings, and any of them may be absent.
type rawTick struct {
	AssetID   string           `json:"asset_id"`
	Market    string           `json:"market"`
	Price     *types.FlexFloat `json:"price"`
	Size      *types.FlexFloat `json:"size"`
	Side      string           `json:"side"`
	BestBid   *types.FlexFloat `json:"best_bid"`
	BestAsk   *types.FlexFloat `json:"best_ask"`
	Timestamp time.Time        `json:"timestamp"`
}

// LoadJSONL loads ticks from price_changes_*.jsonl files under the data
// directory, filtered and sorted by ascending timestamp. Malformed
// lines are skipped with a warning, never fatal.
func (l *Loader) LoadJSONL(filter Filter) ([]types.Tick, error) {
	pattern := filepath.Join(l.dataDir, "price_changes_*.jsonl")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob tick files: %w", err)
	}
	sort.Strings(files)

	if len(files) == 0 {
		l.logger.Warn("no-tick-files-found", zap.String("pattern", pattern))
		return nil, nil
	}

	files = filterFilesByDate(files, filter.StartDate, filter.EndDate)

	var ticks []types.Tick
	for _, path := range files {
		fileTicks, err := l.parseFile(path, filter)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		ticks = append(ticks, fileTicks...)
	}

	sort.SliceStable(ticks, func(i, j int) bool {
		return ticks[i].Timestamp.Before(ticks[j].Timestamp)
	})

	l.logger.Info("ticks-loaded-from-jsonl",
		zap.Int("files", len(files)),
		zap.Int("ticks", len(ticks)))

	return ticks, nil
}

// LoadFromStore loads a tick range from persistent storage.
func (l *Loader) LoadFromStore(ctx context.Context, market string, since, until time.Time) ([]types.Tick, error) {
	if l.store == nil {
		return nil, fmt.Errorf("no storage configured")
	}

	ticks, err := l.store.PriceHistoryRange(ctx, market, since, until)
	if err != nil {
		return nil, fmt.Errorf("load price history: %w", err)
	}

	l.logger.Info("ticks-loaded-from-store",
		zap.String("market", market),
		zap.Int("ticks", len(ticks)))

	return ticks, nil
}

func (l *Loader) parseFile(path string, filter Filter) ([]types.Tick, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var ticks []types.Tick
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var raw rawTick
		err := json.Unmarshal([]byte(line), &raw)
		if err != nil {
			l.logger.Warn("skipping-malformed-tick-line",
				zap.String("file", path),
				zap.Int("line", lineNum),
				zap.Error(err))
			continue
		}

		if filter.MarketID != "" && raw.Market != filter.MarketID {
			continue
		}
		if filter.AssetID != "" && raw.AssetID != filter.AssetID {
			continue
		}

		ticks = append(ticks, raw.toTick())
	}

	err = scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	return ticks, nil
}

func (r rawTick) toTick() types.Tick {
	tick := types.Tick{
		AssetID:   r.AssetID,
		Market:    r.Market,
		Side:      r.Side,
		Timestamp: r.Timestamp,
	}
	if r.Price != nil {
		tick.Price = float64(*r.Price)
	}
	if r.Size != nil {
		tick.Size = types.Float64Ptr(float64(*r.Size))
	}
	if r.BestBid != nil {
		tick.BestBid = types.Float64Ptr(float64(*r.BestBid))
	}
	if r.BestAsk != nil {
		tick.BestAsk = types.Float64Ptr(float64(*r.BestAsk))
	}
	return tick
}

// filterFilesByDate keeps files whose price_changes_YYYY-MM-DD name
// falls inside the inclusive date range. Files without a parseable
// date are kept.
func filterFilesByDate(files []string, startDate, endDate string) []string {
	if startDate == "" && endDate == "" {
		return files
	}

	var kept []string
	for _, path := range files {
		name := strings.TrimSuffix(filepath.Base(path), ".jsonl")
		parts := strings.Split(name, "_")
		if len(parts) < 3 {
			kept = append(kept, path)
			continue
		}
		fileDate := parts[len(parts)-1]

		if startDate != "" && fileDate < startDate {
			continue
		}
		if endDate != "" && fileDate > endDate {
			continue
		}
		kept = append(kept, path)
	}

	return kept
}
