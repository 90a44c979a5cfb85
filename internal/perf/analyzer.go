// Package perf derives summary statistics from a completed backtest:
// win rate, payoff ratio, annualized Sharpe ratio and max drawdown.
// All functions are pure so reports are reproducible from stored runs.
package perf

import (
	"math"

	"github.com/mselser95/polymarket-trader/internal/backtest"
	"github.com/mselser95/polymarket-trader/pkg/types"
)

// annualizationCap bounds the Sharpe annualization factor to one
// trading year of steps. Tick cadence is irregular, so treating each
// step as at most a trading day is an approximation, not a claim.
const annualizationCap = 252

// Report holds the derived statistics for one backtest run.
type Report struct {
	TotalPnL       float64 `json:"total_pnl"`
	TotalReturnPct float64 `json:"total_return_pct"`
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	WinRatePct     float64 `json:"win_rate_pct"`
	AvgWin         float64 `json:"avg_win"`
	AvgLoss        float64 `json:"avg_loss"`
	PayoffRatio    float64 `json:"payoff_ratio"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	InitialCapital float64 `json:"initial_capital"`
	FinalCapital   float64 `json:"final_capital"`
}

// Analyze derives a report from a backtest result. Only SELL trades
// carry realized P&L, so only they count toward trade statistics.
func Analyze(result *backtest.Result) Report {
	totalPnL := result.FinalCapital - result.InitialCapital

	returnPct := 0.0
	if result.InitialCapital > 0 {
		returnPct = totalPnL / result.InitialCapital * 100
	}

	var (
		sells           int
		wins, losses    int
		winSum, lossSum float64
	)
	for _, trade := range result.Trades {
		if trade.Action != types.ActionSell {
			continue
		}
		sells++
		pnl := 0.0
		if trade.RealizedPnL != nil {
			pnl = *trade.RealizedPnL
		}
		switch {
		case pnl > 0:
			wins++
			winSum += pnl
		case pnl < 0:
			losses++
			lossSum += pnl
		}
	}

	winRate := 0.0
	if sells > 0 {
		winRate = float64(wins) / float64(sells) * 100
	}

	avgWin := 0.0
	if wins > 0 {
		avgWin = winSum / float64(wins)
	}
	avgLoss := 0.0
	if losses > 0 {
		avgLoss = lossSum / float64(losses)
	}
	payoff := 0.0
	if avgLoss != 0 {
		payoff = math.Abs(avgWin / avgLoss)
	}

	return Report{
		TotalPnL:       roundTo(totalPnL, 6),
		TotalReturnPct: roundTo(returnPct, 4),
		TotalTrades:    sells,
		WinningTrades:  wins,
		LosingTrades:   losses,
		WinRatePct:     roundTo(winRate, 2),
		AvgWin:         roundTo(avgWin, 6),
		AvgLoss:        roundTo(avgLoss, 6),
		PayoffRatio:    roundTo(payoff, 4),
		SharpeRatio:    roundTo(sharpeRatio(result.EquityCurve), 4),
		MaxDrawdownPct: roundTo(maxDrawdown(result.EquityCurve), 4),
		InitialCapital: result.InitialCapital,
		FinalCapital:   roundTo(result.FinalCapital, 6),
	}
}

// sharpeRatio computes an annualized Sharpe over per-step equity
// returns. Steps with non-positive prior equity are skipped; fewer
// than 2 points or zero variance yields 0. Population standard
// deviation, matching recorded reports.
func sharpeRatio(curve []backtest.EquityPoint) float64 {
	if len(curve) < 2 {
		return 0
	}

	var returns []float64
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev > 0 {
			returns = append(returns, (curve[i].Equity-prev)/prev)
		}
	}
	if len(returns) == 0 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}

	annualize := math.Sqrt(math.Min(float64(len(returns)), annualizationCap))
	return mean / std * annualize
}

// maxDrawdown is the largest peak-to-trough equity decline in percent.
// The denominator is floored to 1.0 when the running max is not
// positive, to avoid division by zero without inflating the result.
func maxDrawdown(curve []backtest.EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}

	runningMax := curve[0].Equity
	worst := 0.0
	for _, pt := range curve {
		if pt.Equity > runningMax {
			runningMax = pt.Equity
		}
		denom := runningMax
		if denom <= 0 {
			denom = 1.0
		}
		dd := (runningMax - pt.Equity) / denom * 100
		if dd > worst {
			worst = dd
		}
	}

	return worst
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
