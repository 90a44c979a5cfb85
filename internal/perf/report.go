package perf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriteSummary renders a fixed-width text summary of a report.
func WriteSummary(w io.Writer, report Report) error {
	rule := strings.Repeat("=", 50)

	lines := []string{
		rule,
		"  Backtest Performance Summary",
		rule,
		"",
		fmt.Sprintf("Initial capital: %12.2f USDC", report.InitialCapital),
		fmt.Sprintf("Final capital:   %12.2f USDC", report.FinalCapital),
		fmt.Sprintf("Total P&L:       %12.2f USDC", report.TotalPnL),
		fmt.Sprintf("Return:          %11.2f%%", report.TotalReturnPct),
		"",
		fmt.Sprintf("Total trades:    %12d", report.TotalTrades),
		fmt.Sprintf("Winning trades:  %12d", report.WinningTrades),
		fmt.Sprintf("Losing trades:   %12d", report.LosingTrades),
		fmt.Sprintf("Win rate:        %11.2f%%", report.WinRatePct),
		"",
		fmt.Sprintf("Avg win:         %12.4f USDC", report.AvgWin),
		fmt.Sprintf("Avg loss:        %12.4f USDC", report.AvgLoss),
		fmt.Sprintf("Payoff ratio:    %12.4f", report.PayoffRatio),
		"",
		fmt.Sprintf("Sharpe ratio:    %12.4f", report.SharpeRatio),
		fmt.Sprintf("Max drawdown:    %11.4f%%", report.MaxDrawdownPct),
		"",
		rule,
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// SaveSummary writes the summary to <dir>/summary.txt, creating the
// directory if needed, and returns the written path.
func SaveSummary(dir string, report Report) (string, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(dir, "summary.txt")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create summary file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	err = WriteSummary(f, report)
	if err != nil {
		return "", err
	}

	return path, nil
}
