// Package recorder appends ticks to daily JSONL files. The files feed
// the backtest loader, so the field layout must stay loadable by it.
package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mselser95/polymarket-trader/pkg/types"
	"go.uber.org/zap"
)

// Recorder writes one JSON line per tick to
// data/price_changes_YYYY-MM-DD.jsonl, rotating at UTC midnight.
type Recorder struct {
	dataDir string
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	file     *os.File
	fileDate string
}

// Config holds recorder configuration.
type Config struct {
	DataDir string
	Logger  *zap.Logger
}

// New creates a tick recorder and ensures the data directory exists.
func New(cfg *Config) (*Recorder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data dir cannot be empty")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	err := os.MkdirAll(cfg.DataDir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	cfg.Logger.Info("recorder-initialized", zap.String("data-dir", cfg.DataDir))

	return &Recorder{
		dataDir: cfg.DataDir,
		logger:  cfg.Logger,
		now:     time.Now,
	}, nil
}

// Name implements the tick observer interface.
func (r *Recorder) Name() string { return "recorder" }

// record is the persisted line shape: the tick fields plus the wall
// clock time the line was written.
type record struct {
	AssetID    string    `json:"asset_id"`
	Market     string    `json:"market,omitempty"`
	Price      float64   `json:"price"`
	Size       *float64  `json:"size,omitempty"`
	Side       string    `json:"side,omitempty"`
	BestBid    *float64  `json:"best_bid,omitempty"`
	BestAsk    *float64  `json:"best_ask,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	RecordedAt time.Time `json:"recorded_at"`
}

// OnTick appends the tick to the current day's file.
func (r *Recorder) OnTick(_ context.Context, tick types.Tick) error {
	line, err := json.Marshal(record{
		AssetID:    tick.AssetID,
		Market:     tick.Market,
		Price:      tick.Price,
		Size:       tick.Size,
		Side:       tick.Side,
		BestBid:    tick.BestBid,
		BestAsk:    tick.BestAsk,
		Timestamp:  tick.Timestamp,
		RecordedAt: r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal tick: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.currentFile()
	if err != nil {
		return err
	}

	_, err = f.Write(append(line, '\n'))
	if err != nil {
		return fmt.Errorf("write tick line: %w", err)
	}

	return nil
}

// currentFile returns the open handle for today's file, rotating when
// the UTC date has changed. Caller holds the lock.
func (r *Recorder) currentFile() (*os.File, error) {
	date := r.now().UTC().Format("2006-01-02")
	if r.file != nil && r.fileDate == date {
		return r.file, nil
	}

	if r.file != nil {
		_ = r.file.Close()
		r.logger.Info("recorder-file-rotated", zap.String("date", date))
	}

	path := filepath.Join(r.dataDir, fmt.Sprintf("price_changes_%s.jsonl", date))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open tick file: %w", err)
	}

	r.file = f
	r.fileDate = date
	return f, nil
}

// Close flushes and closes the current file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}

	err := r.file.Close()
	r.file = nil
	if err != nil {
		return fmt.Errorf("close tick file: %w", err)
	}
	return nil
}
