package backtest

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/volswitch/internal/model"
)

// Engine simulates the volatility switch strategy against a benchmark.
// It holds no per-run state and is safe to share.
type Engine struct {
	logger zerolog.Logger
}

// NewEngine creates a new backtesting engine
func NewEngine() *Engine {
	return &Engine{
		logger: log.With().Str("component", "backtest_engine").Logger(),
	}
}

// portfolio is the state carried from one day to the next.
type portfolio struct {
	strategy  float64
	benchmark float64
}

// dayInputs are the values a single transition reads.
type dayInputs struct {
	volatility     float64
	tradePrev      float64
	tradeToday     float64
	benchmarkPrev  float64
	benchmarkToday float64
}

// Run walks the table in date order. The first row starts both series at
// the initial capital; each later row either applies the day's returns or,
// when its inputs are unusable, carries both values forward unchanged.
func (e *Engine) Run(prices *model.PriceTable, cfg model.BacktestConfig) (*model.BacktestResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if prices.Len() == 0 {
		return nil, fmt.Errorf("%w: price table is empty", model.ErrDataUnavailable)
	}

	for _, symbol := range []string{cfg.TradeSymbol, cfg.VolatilitySymbol, cfg.BenchmarkSymbol} {
		if !prices.Has(symbol) {
			e.logger.Warn().Str("symbol", symbol).Msg("Symbol missing from price table, every day will be held flat")
		}
	}

	result := &model.BacktestResult{
		InitialCapital: cfg.InitialCapital,
		Points:         make([]model.ValuePoint, 0, prices.Len()),
	}

	state := portfolio{strategy: cfg.InitialCapital, benchmark: cfg.InitialCapital}
	result.Points = append(result.Points, model.ValuePoint{
		Date:      prices.Dates[0],
		Strategy:  state.strategy,
		Benchmark: state.benchmark,
	})

	degenerate := 0
	for i := 1; i < prices.Len(); i++ {
		point := model.ValuePoint{Date: prices.Dates[i]}

		in, reason, ok := readDay(prices, cfg, i)
		if ok {
			var next portfolio
			var invested bool
			next, invested, ok = step(state, in, cfg.VolatilityThreshold)
			if ok {
				state, point.Invested = next, invested
			} else {
				reason = "portfolio value not finite"
			}
		}
		if !ok {
			degenerate++
			point.Degenerate = true
			e.logger.Debug().
				Str("date", prices.Dates[i].Format(model.DateLayout)).
				Str("reason", reason).
				Msg("Holding flat")
		}

		point.Strategy = state.strategy
		point.Benchmark = state.benchmark
		result.Points = append(result.Points, point)
	}

	e.logger.Info().
		Int("days", len(result.Points)).
		Int("degenerate_days", degenerate).
		Msg("Backtest complete")
	return result, nil
}

// readDay gathers row i's inputs and reports whether they are usable.
// Every input, the signal included, must be a finite positive number, the
// same rule model.NewPriceSeries applies when a series is loaded.
func readDay(prices *model.PriceTable, cfg model.BacktestConfig, i int) (dayInputs, string, bool) {
	cells := []struct {
		name string
		cell model.NullPrice
	}{
		{"volatility", prices.At(cfg.VolatilitySymbol, i)},
		{"previous trade price", prices.At(cfg.TradeSymbol, i-1)},
		{"trade price", prices.At(cfg.TradeSymbol, i)},
		{"previous benchmark price", prices.At(cfg.BenchmarkSymbol, i-1)},
		{"benchmark price", prices.At(cfg.BenchmarkSymbol, i)},
	}

	for _, c := range cells {
		if !c.cell.Valid {
			return dayInputs{}, c.name + " missing", false
		}
		v := c.cell.Value
		if !isFinite(v) {
			return dayInputs{}, c.name + " not finite", false
		}
		if v <= 0 {
			return dayInputs{}, c.name + " not positive", false
		}
	}

	return dayInputs{
		volatility:     cells[0].cell.Value,
		tradePrev:      cells[1].cell.Value,
		tradeToday:     cells[2].cell.Value,
		benchmarkPrev:  cells[3].cell.Value,
		benchmarkToday: cells[4].cell.Value,
	}, "", true
}

// step is the pure transition for a usable day. The strategy is invested
// only while the signal is at or below the threshold; the benchmark always is.
// ok is false when either new value is not finite, in which case the caller
// holds the day flat.
func step(state portfolio, in dayInputs, threshold float64) (next portfolio, invested bool, ok bool) {
	tradeReturn := in.tradeToday / in.tradePrev
	benchReturn := in.benchmarkToday / in.benchmarkPrev

	invested = in.volatility <= threshold
	next = portfolio{
		strategy:  state.strategy,
		benchmark: state.benchmark * benchReturn,
	}
	if invested {
		next.strategy = state.strategy * tradeReturn
	}
	if !isFinite(next.strategy) || !isFinite(next.benchmark) {
		return state, false, false
	}
	return next, invested, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
