package backtest

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Alias1177/volswitch/internal/model"
)

// notAvailable is shown in place of a value that is not a finite number.
const notAvailable = "n/a"

var displayPrinter = message.NewPrinter(language.English)

// FormatMoney renders v as $1,234.56.
func FormatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return notAvailable
	}
	rounded := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign, rounded = "-", rounded.Abs()
	}
	f, _ := rounded.Float64()
	return sign + "$" + displayPrinter.Sprintf("%.2f", f)
}

// FormatPercent renders v as 21.00%.
func FormatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return notAvailable
	}
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

// FormatSummary produces the four labeled display values.
func FormatSummary(s *model.Summary) model.DisplaySummary {
	return model.DisplaySummary{
		StrategyFinalValue:   FormatMoney(s.StrategyFinalValue),
		BenchmarkFinalValue:  FormatMoney(s.BenchmarkFinalValue),
		StrategyTotalReturn:  FormatPercent(s.StrategyReturnPercent),
		BenchmarkTotalReturn: FormatPercent(s.BenchmarkReturnPercent),
	}
}

// FormatResults creates a human-readable summary of backtest results
func FormatResults(cfg model.BacktestConfig, result *model.BacktestResult, s *model.Summary) string {
	if result == nil || s == nil {
		return "No backtest results available"
	}

	display := FormatSummary(s)
	output := "\n===== VOLATILITY SWITCH BACKTEST =====\n"
	output += fmt.Sprintf("Trade: %s | Signal: %s <= %.2f | Benchmark: %s\n",
		cfg.TradeSymbol, cfg.VolatilitySymbol, cfg.VolatilityThreshold, cfg.BenchmarkSymbol)
	output += fmt.Sprintf("Period: %s to %s (%d days, %d invested, %d held flat on bad data)\n",
		result.Points[0].Date.Format(model.DateLayout),
		result.Points[len(result.Points)-1].Date.Format(model.DateLayout),
		s.TradingDays, s.InvestedDays, s.DegenerateDays)

	output += fmt.Sprintf("\nStrategy Final Value: %s\n", display.StrategyFinalValue)
	output += fmt.Sprintf("Benchmark Final Value: %s\n", display.BenchmarkFinalValue)
	output += fmt.Sprintf("Strategy Total Return: %s\n", display.StrategyTotalReturn)
	output += fmt.Sprintf("Benchmark Total Return: %s\n", display.BenchmarkTotalReturn)

	output += fmt.Sprintf("\nMaximum drawdown: strategy %s, benchmark %s\n",
		FormatPercent(s.StrategyMaxDrawdown), FormatPercent(s.BenchmarkMaxDrawdown))
	output += fmt.Sprintf("Sharpe ratio: strategy %.2f, benchmark %.2f\n",
		s.StrategySharpeRatio, s.BenchmarkSharpeRatio)

	return output
}
