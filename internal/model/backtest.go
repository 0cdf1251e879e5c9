package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// BacktestConfig describes one volatility switch run.
type BacktestConfig struct {
	TradeSymbol         string    `json:"trade_symbol"`
	VolatilitySymbol    string    `json:"volatility_symbol"`
	BenchmarkSymbol     string    `json:"benchmark_symbol"`
	VolatilityThreshold float64   `json:"volatility_threshold"`
	InitialCapital      float64   `json:"initial_capital"`
	StartDate           time.Time `json:"start_date"`
	// EndDate is zero when the caller wants "today".
	EndDate time.Time `json:"end_date"`
}

// Validate checks the fields the engine relies on.
func (c BacktestConfig) Validate() error {
	var problems []string
	if strings.TrimSpace(c.TradeSymbol) == "" {
		problems = append(problems, "trade symbol is required")
	}
	if strings.TrimSpace(c.VolatilitySymbol) == "" {
		problems = append(problems, "volatility symbol is required")
	}
	if strings.TrimSpace(c.BenchmarkSymbol) == "" {
		problems = append(problems, "benchmark symbol is required")
	}
	if math.IsNaN(c.VolatilityThreshold) || math.IsInf(c.VolatilityThreshold, 0) {
		problems = append(problems, "volatility threshold must be a finite number")
	}
	if !(c.InitialCapital > 0) || math.IsInf(c.InitialCapital, 0) {
		problems = append(problems, "initial capital must be greater than zero")
	}
	if !c.StartDate.IsZero() && !c.EndDate.IsZero() && !Day(c.StartDate).Before(Day(c.EndDate)) {
		problems = append(problems, "start date must be before end date")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// ValuePoint is one row of a backtest result.
type ValuePoint struct {
	Date      time.Time `json:"date"`
	Strategy  float64   `json:"strategy"`
	Benchmark float64   `json:"benchmark"`
	// Invested is true when the strategy held the trade symbol over this day.
	Invested bool `json:"invested"`
	// Degenerate marks a day whose inputs were missing or unusable.
	Degenerate bool `json:"degenerate"`
}

// BacktestResult holds both value series over the price table's dates.
type BacktestResult struct {
	InitialCapital float64      `json:"initial_capital"`
	Points         []ValuePoint `json:"points"`
}

// StrategyValues returns the strategy series in date order.
func (r *BacktestResult) StrategyValues() []float64 {
	values := make([]float64, len(r.Points))
	for i, p := range r.Points {
		values[i] = p.Strategy
	}
	return values
}

// BenchmarkValues returns the benchmark series in date order.
func (r *BacktestResult) BenchmarkValues() []float64 {
	values := make([]float64, len(r.Points))
	for i, p := range r.Points {
		values[i] = p.Benchmark
	}
	return values
}

// Summary is computed once from a BacktestResult.
type Summary struct {
	StrategyFinalValue     float64 `json:"strategy_final_value"`
	BenchmarkFinalValue    float64 `json:"benchmark_final_value"`
	StrategyReturnPercent  float64 `json:"strategy_return_percent"`
	BenchmarkReturnPercent float64 `json:"benchmark_return_percent"`
	StrategyMaxDrawdown    float64 `json:"strategy_max_drawdown"`
	BenchmarkMaxDrawdown   float64 `json:"benchmark_max_drawdown"`
	StrategySharpeRatio    float64 `json:"strategy_sharpe_ratio"`
	BenchmarkSharpeRatio   float64 `json:"benchmark_sharpe_ratio"`
	TradingDays            int     `json:"trading_days"`
	InvestedDays           int     `json:"invested_days"`
	DegenerateDays         int     `json:"degenerate_days"`
}

// DisplaySummary is the labeled, formatted view of a Summary.
type DisplaySummary struct {
	StrategyFinalValue   string `json:"Strategy Final Value"`
	BenchmarkFinalValue  string `json:"Benchmark Final Value"`
	StrategyTotalReturn  string `json:"Strategy Total Return"`
	BenchmarkTotalReturn string `json:"Benchmark Total Return"`
}
