package backtest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/volswitch/internal/model"
)

// PriceLoader produces the aligned price table for a run.
type PriceLoader interface {
	Load(ctx context.Context, symbols []string, start, end time.Time) (*model.PriceTable, error)
}

// Request is the validated-at-the-edge input of one backtest.
type Request struct {
	Symbols             []string `json:"symbols"`
	TradeSymbol         string   `json:"trade_symbol"`
	VolatilitySymbol    string   `json:"volatility_symbol"`
	BenchmarkSymbol     string   `json:"benchmark_symbol"`
	StartDate           string   `json:"start_date"`
	EndDate             string   `json:"end_date,omitempty"`
	VolatilityThreshold float64  `json:"volatility_threshold"`
	InitialCapital      float64  `json:"initial_capital"`
}

// Report is everything one run produces. Each call to Service.Run returns
// a new Report.
type Report struct {
	Config     model.BacktestConfig        `json:"config"`
	Symbols    []string                    `json:"symbols"`
	Result     *model.BacktestResult       `json:"result"`
	Summary    *model.Summary              `json:"summary"`
	Display    model.DisplaySummary        `json:"display"`
	Provenance map[string]model.Provenance `json:"provenance"`
	// Skipped lists requested symbols that produced no data.
	Skipped []string `json:"skipped,omitempty"`
}

// Service runs load, simulate and summarize for one request.
type Service struct {
	loader PriceLoader
	engine *Engine
	now    func() time.Time
	logger zerolog.Logger
}

// NewService creates a Service. now supplies the end date for requests that
// omit one; nil means time.Now.
func NewService(loader PriceLoader, engine *Engine, now func() time.Time) *Service {
	if engine == nil {
		engine = NewEngine()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		loader: loader,
		engine: engine,
		now:    now,
		logger: log.With().Str("component", "backtest_service").Logger(),
	}
}

// Config parses the request into a BacktestConfig and validates it.
func (r Request) Config() (model.BacktestConfig, error) {
	cfg := model.BacktestConfig{
		TradeSymbol:         strings.TrimSpace(r.TradeSymbol),
		VolatilitySymbol:    strings.TrimSpace(r.VolatilitySymbol),
		BenchmarkSymbol:     strings.TrimSpace(r.BenchmarkSymbol),
		VolatilityThreshold: r.VolatilityThreshold,
		InitialCapital:      r.InitialCapital,
	}

	start, err := time.Parse(model.DateLayout, strings.TrimSpace(r.StartDate))
	if err != nil {
		return cfg, fmt.Errorf("%w: start date %q is not YYYY-MM-DD", model.ErrInvalidConfig, r.StartDate)
	}
	cfg.StartDate = start

	if end := strings.TrimSpace(r.EndDate); end != "" {
		parsed, err := time.Parse(model.DateLayout, end)
		if err != nil {
			return cfg, fmt.Errorf("%w: end date %q is not YYYY-MM-DD", model.ErrInvalidConfig, r.EndDate)
		}
		cfg.EndDate = parsed
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// symbolsToLoad is the requested list plus the three role symbols.
func (r Request) symbolsToLoad(cfg model.BacktestConfig) []string {
	out := make([]string, 0, len(r.Symbols)+3)
	seen := make(map[string]struct{})
	for _, s := range append(append([]string{}, r.Symbols...), cfg.TradeSymbol, cfg.VolatilitySymbol, cfg.BenchmarkSymbol) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Run executes one backtest. Invalid configuration is rejected before any
// price is fetched.
func (s *Service) Run(ctx context.Context, req Request) (*Report, error) {
	cfg, err := req.Config()
	if err != nil {
		return nil, err
	}
	if cfg.EndDate.IsZero() {
		cfg.EndDate = model.Day(s.now())
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	symbols := req.symbolsToLoad(cfg)
	s.logger.Info().
		Strs("symbols", symbols).
		Str("trade", cfg.TradeSymbol).
		Str("volatility", cfg.VolatilitySymbol).
		Str("benchmark", cfg.BenchmarkSymbol).
		Float64("threshold", cfg.VolatilityThreshold).
		Msg("Running backtest")

	table, err := s.loader.Load(ctx, symbols, cfg.StartDate, cfg.EndDate)
	if err != nil {
		return nil, fmt.Errorf("loading prices: %w", err)
	}

	result, err := s.engine.Run(table, cfg)
	if err != nil {
		return nil, fmt.Errorf("running backtest: %w", err)
	}

	summary, err := Summarize(result)
	if err != nil {
		return nil, fmt.Errorf("summarizing backtest: %w", err)
	}

	report := &Report{
		Config:     cfg,
		Symbols:    table.Symbols,
		Result:     result,
		Summary:    summary,
		Display:    FormatSummary(summary),
		Provenance: table.Provenance,
	}
	for _, sym := range symbols {
		if !table.Has(sym) {
			report.Skipped = append(report.Skipped, sym)
		}
	}
	return report, nil
}
