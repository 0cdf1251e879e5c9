package backtest

import (
	"fmt"
	"math"

	"github.com/Alias1177/volswitch/internal/model"
)

const tradingDaysPerYear = 252.0

// Summarize computes the summary statistics of a finished run.
func Summarize(result *model.BacktestResult) (*model.Summary, error) {
	if result == nil || len(result.Points) == 0 {
		return nil, fmt.Errorf("%w: empty backtest result", model.ErrDataUnavailable)
	}

	strategy := result.StrategyValues()
	benchmark := result.BenchmarkValues()

	summary := &model.Summary{
		StrategyFinalValue:     strategy[len(strategy)-1],
		BenchmarkFinalValue:    benchmark[len(benchmark)-1],
		StrategyReturnPercent:  totalReturnPercent(strategy),
		BenchmarkReturnPercent: totalReturnPercent(benchmark),
		StrategyMaxDrawdown:    maxDrawdownPercent(strategy),
		BenchmarkMaxDrawdown:   maxDrawdownPercent(benchmark),
		StrategySharpeRatio:    sharpeRatio(strategy),
		BenchmarkSharpeRatio:   sharpeRatio(benchmark),
		TradingDays:            len(result.Points),
	}
	for _, p := range result.Points {
		if p.Invested {
			summary.InvestedDays++
		}
		if p.Degenerate {
			summary.DegenerateDays++
		}
	}
	return summary, nil
}

// totalReturnPercent is (last / first - 1) * 100.
func totalReturnPercent(values []float64) float64 {
	first := values[0]
	if first == 0 {
		return 0
	}
	return (values[len(values)-1]/first - 1) * 100
}

// maxDrawdownPercent is the largest peak to trough fall, in percent.
func maxDrawdownPercent(values []float64) float64 {
	maxDrawdown := 0.0
	peak := values[0]

	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - v) / peak
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	return maxDrawdown * 100
}

// sharpeRatio is the annualized Sharpe of daily value changes with a zero
// risk-free rate.
func sharpeRatio(values []float64) float64 {
	if len(values) < 3 {
		return 0
	}

	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		returns = append(returns, values[i]/values[i-1]-1)
	}

	mean := calculateMean(returns)
	stdDev := calculateStdDev(returns, mean)
	if stdDev == 0 {
		return 0
	}
	return mean / stdDev * math.Sqrt(tradingDaysPerYear)
}

// Helper functions
func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

func calculateStdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}

	var sumSquaredDiff float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}

	return math.Sqrt(sumSquaredDiff / float64(len(values)-1))
}
