// Package prices builds an aligned PriceTable from remote daily price
// sources, falling back from a primary to a secondary source per symbol.
package prices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/volswitch/internal/model"
)

// Source returns raw daily prices for one symbol.
type Source interface {
	Name() string
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) (*model.SourceSeries, error)
}

// Loader fetches and aligns prices for a set of symbols.
type Loader struct {
	primary      Source
	secondary    Source
	now          func() time.Time
	fetchTimeout time.Duration
	logger       zerolog.Logger
}

// LoaderOptions configures a Loader. Secondary may be nil.
type LoaderOptions struct {
	Primary      Source
	Secondary    Source
	Now          func() time.Time
	FetchTimeout time.Duration
}

// NewLoader creates a Loader
func NewLoader(opts LoaderOptions) *Loader {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FetchTimeout == 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	return &Loader{
		primary:      opts.Primary,
		secondary:    opts.Secondary,
		now:          opts.Now,
		fetchTimeout: opts.FetchTimeout,
		logger:       log.With().Str("component", "price_loader").Logger(),
	}
}

// Load fetches symbols over [start, end] and aligns them on the union of
// their dates. A zero end means today, and start must fall before end. Symbols with no usable data from
// either source are dropped; if all are dropped Load returns
// model.ErrDataUnavailable.
func (l *Loader) Load(ctx context.Context, symbols []string, start, end time.Time) (*model.PriceTable, error) {
	symbols = uniqueSymbols(symbols)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: no symbols requested", model.ErrInvalidConfig)
	}
	if end.IsZero() {
		end = l.now()
	}
	start, end = model.Day(start), model.Day(end)
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start date %s is not before end date %s",
			model.ErrInvalidConfig, start.Format(model.DateLayout), end.Format(model.DateLayout))
	}

	series := make(map[string]model.PriceSeries, len(symbols))
	provenance := make(map[string]model.Provenance, len(symbols))
	for _, symbol := range symbols {
		s, prov, ok := l.loadSymbol(ctx, symbol, start, end)
		if !ok {
			l.logger.Warn().Str("symbol", symbol).Msg("No usable data from any source, skipping symbol")
			continue
		}
		series[symbol] = s
		provenance[symbol] = prov
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("%w: tried %s", model.ErrDataUnavailable, strings.Join(symbols, ", "))
	}

	table := model.AlignSeries(series, symbols)
	table.Provenance = provenance

	l.logger.Info().
		Int("symbols", len(table.Symbols)).
		Int("dates", table.Len()).
		Msg("Prices loaded")
	return table, nil
}

// loadSymbol applies the fallback policy for one symbol: the primary source
// counts only with adjusted closes, the secondary may fall back to closes.
func (l *Loader) loadSymbol(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, model.Provenance, bool) {
	if l.primary != nil {
		if raw := l.fetch(ctx, l.primary, symbol, start, end); raw != nil {
			if s := raw.Column(model.FieldAdjClose).Between(start, end); len(s) > 0 {
				l.logger.Debug().Str("symbol", symbol).Str("source", l.primary.Name()).Msg("Using adjusted close")
				return s, model.Provenance{Source: l.primary.Name(), Field: model.FieldAdjClose}, true
			}
			l.logger.Warn().Str("symbol", symbol).Str("source", l.primary.Name()).Msg("Response missing adjusted close")
		}
	}

	if l.secondary == nil {
		l.logger.Warn().Str("symbol", symbol).Msg("No fallback source configured")
		return nil, model.Provenance{}, false
	}

	raw := l.fetch(ctx, l.secondary, symbol, start, end)
	if raw == nil {
		return nil, model.Provenance{}, false
	}
	for _, field := range []model.PriceField{model.FieldAdjClose, model.FieldClose} {
		if s := raw.Column(field).Between(start, end); len(s) > 0 {
			l.logger.Debug().Str("symbol", symbol).Str("source", l.secondary.Name()).Str("field", string(field)).Msg("Using fallback source")
			return s, model.Provenance{Source: l.secondary.Name(), Field: field}, true
		}
	}
	l.logger.Warn().Str("symbol", symbol).Str("source", l.secondary.Name()).Msg("Response missing both adjusted close and close")
	return nil, model.Provenance{}, false
}

// fetch runs one bounded call. Errors are logged and reported as nil.
func (l *Loader) fetch(ctx context.Context, src Source, symbol string, start, end time.Time) *model.SourceSeries {
	fetchCtx, cancel := context.WithTimeout(ctx, l.fetchTimeout)
	defer cancel()

	raw, err := src.FetchDaily(fetchCtx, symbol, start, end)
	if err != nil {
		l.logger.Warn().Err(err).Str("symbol", symbol).Str("source", src.Name()).Msg("Fetch failed")
		return nil
	}
	return raw
}

func uniqueSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
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
