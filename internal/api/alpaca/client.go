// Package alpaca adapts the Alpaca market data SDK to the daily price source
// used by the loader.
package alpaca

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/volswitch/internal/model"
)

// SourceName identifies this client in provenance records and logs.
const SourceName = "alpaca"

// barsGetter is the part of marketdata.Client we use.
type barsGetter interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// Client fetches split and dividend adjusted daily bars.
type Client struct {
	bars   barsGetter
	logger zerolog.Logger
}

// ClientOptions holds options for creating a new Alpaca client
type ClientOptions struct {
	APIKey         string
	APISecret      string
	BaseURL        string
	RequestTimeout time.Duration
}

// NewClient creates a new Alpaca market data client
func NewClient(options ClientOptions) *Client {
	if options.RequestTimeout == 0 {
		options.RequestTimeout = 30 * time.Second
	}

	return &Client{
		bars: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:     options.APIKey,
			APISecret:  options.APISecret,
			BaseURL:    options.BaseURL,
			HTTPClient: &http.Client{Timeout: options.RequestTimeout},
		}),
		logger: log.With().Str("component", "alpaca_client").Logger(),
	}
}

// Name implements the price source interface.
func (c *Client) Name() string { return SourceName }

// FetchDaily fetches daily bars for symbol over [start, end]. Bars are
// requested fully adjusted, so the close lands in AdjClose.
func (c *Client) FetchDaily(ctx context.Context, symbol string, start, end time.Time) (*model.SourceSeries, error) {
	// the SDK takes no context; bail out early and rely on the HTTP timeout
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.logger.Debug().Str("symbol", symbol).Msg("Fetching daily bars")

	bars, err := c.bars.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.All,
		Start:      model.Day(start),
		End:        model.Day(end).AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("getting bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("empty data returned")
	}

	series := &model.SourceSeries{Symbol: symbol, Source: SourceName}
	for _, bar := range bars {
		series.Points = append(series.Points, model.SourcePoint{
			Date:     model.Day(bar.Timestamp),
			AdjClose: model.Some(bar.Close),
		})
	}

	c.logger.Debug().Int("count", len(series.Points)).Msg("Fetched daily bars")
	return series, nil
}
