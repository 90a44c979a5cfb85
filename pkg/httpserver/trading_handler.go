package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mselser95/polymarket-trader/internal/ledger"
	"github.com/mselser95/polymarket-trader/internal/risk"
	"github.com/mselser95/polymarket-trader/internal/storage"
	"github.com/mselser95/polymarket-trader/pkg/cache"
	"github.com/mselser95/polymarket-trader/pkg/types"
	"go.uber.org/zap"
)

const defaultTradeLimit = 50

// TradingHandler handles HTTP requests for positions, trades and
// trading status.
type TradingHandler struct {
	ledger  *ledger.Manager
	gate    *risk.Gate
	storage storage.Storage
	cache   *cache.TickCache
	logger  *zap.Logger
}

// NewTradingHandler creates a new trading handler.
func NewTradingHandler(lm *ledger.Manager, gate *risk.Gate, store storage.Storage, tickCache *cache.TickCache, logger *zap.Logger) *TradingHandler {
	return &TradingHandler{
		ledger:  lm,
		gate:    gate,
		storage: store,
		cache:   tickCache,
		logger:  logger,
	}
}

// PositionsResponse represents the HTTP response for open positions.
type PositionsResponse struct {
	Positions     []types.Position `json:"positions"`
	TotalExposure float64          `json:"total_exposure"`
}

// TradesResponse represents the HTTP response for recent trades.
type TradesResponse struct {
	Trades []types.Trade `json:"trades"`
}

// StatusResponse represents the HTTP response for trading status.
type StatusResponse struct {
	Risk          risk.Status `json:"risk"`
	OpenPositions int         `json:"open_positions"`
	TotalExposure float64     `json:"total_exposure"`
	DailyPnL      *float64    `json:"daily_pnl,omitempty"`
}

// PriceResponse represents the HTTP response for the latest price of an
// asset.
type PriceResponse struct {
	Tick types.Tick `json:"tick"`
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandlePositions handles GET /api/positions requests.
func (h *TradingHandler) HandlePositions(w http.ResponseWriter, r *http.Request) {
	positions := h.ledger.Positions()
	if positions == nil {
		positions = []types.Position{}
	}

	h.writeJSON(w, PositionsResponse{
		Positions:     positions,
		TotalExposure: h.ledger.TotalExposure(),
	})
}

// HandleTrades handles GET /api/trades?limit=<n> requests.
func (h *TradingHandler) HandleTrades(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		h.writeError(w, "trade history not available", http.StatusServiceUnavailable)
		return
	}

	limit := defaultTradeLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	trades, err := h.storage.RecentTrades(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed-to-load-trades", zap.Error(err))
		h.writeError(w, "failed to load trades", http.StatusInternalServerError)
		return
	}
	if trades == nil {
		trades = []types.Trade{}
	}

	h.writeJSON(w, TradesResponse{Trades: trades})
}

// HandleStatus handles GET /api/status requests.
func (h *TradingHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Risk:          h.gate.GetStatus(),
		OpenPositions: len(h.ledger.Positions()),
		TotalExposure: h.ledger.TotalExposure(),
	}

	if h.storage != nil {
		dayStart := time.Now().UTC().Truncate(24 * time.Hour)
		pnl, err := h.storage.RealizedPnLSince(r.Context(), dayStart)
		if err != nil {
			h.logger.Error("failed-to-load-daily-pnl", zap.Error(err))
		} else {
			resp.DailyPnL = &pnl
		}
	}

	h.writeJSON(w, resp)
}

// HandlePrice handles GET /api/price?asset_id=<id> requests.
func (h *TradingHandler) HandlePrice(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, "price cache not available", http.StatusServiceUnavailable)
		return
	}

	assetID := r.URL.Query().Get("asset_id")
	if assetID == "" {
		h.writeError(w, "missing required query parameter: asset_id", http.StatusBadRequest)
		return
	}

	tick, found := h.cache.Latest(assetID)
	if !found {
		h.writeError(w, "no price observed for asset", http.StatusNotFound)
		return
	}

	h.writeJSON(w, PriceResponse{Tick: tick})
}

func (h *TradingHandler) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (h *TradingHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	err := json.NewEncoder(w).Encode(ErrorResponse{Error: message})
	if err != nil {
		h.logger.Error("failed-to-encode-error-response", zap.Error(err))
	}
}
