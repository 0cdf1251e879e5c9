package tiingo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/volswitch/internal/model"
	httpClient "github.com/Alias1177/volswitch/internal/platform/http"
)

// SourceName identifies this client in provenance records and logs.
const SourceName = "tiingo"

// Client is the Tiingo end-of-day API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Tiingo client
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
}

// eodPrice is one row of /tiingo/daily/<ticker>/prices
type eodPrice struct {
	Date     string   `json:"date"`
	Close    *float64 `json:"close"`
	AdjClose *float64 `json:"adjClose"`
}

// NewClient creates a new Tiingo API client
func NewClient(options ClientOptions) *Client {
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = "https://api.tiingo.com"
	}

	return &Client{
		apiKey:  options.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:         options.RequestTimeout,
			RequestsPerSec:  options.RequestsPerSec,
			MaxRetryTimeout: options.MaxRetryTimeout,
		}),
		logger: log.With().Str("component", "tiingo_client").Logger(),
	}
}

// Name implements the price source interface.
func (c *Client) Name() string { return SourceName }

// FetchDaily fetches end-of-day prices for symbol over [start, end].
func (c *Client) FetchDaily(ctx context.Context, symbol string, start, end time.Time) (*model.SourceSeries, error) {
	q := url.Values{}
	q.Set("startDate", start.Format(model.DateLayout))
	q.Set("endDate", end.Format(model.DateLayout))
	q.Set("format", "json")

	endpoint := fmt.Sprintf("%s/tiingo/daily/%s/prices?%s", c.baseURL, url.PathEscape(strings.ToLower(symbol)), q.Encode())
	c.logger.Debug().Str("symbol", symbol).Msg("Fetching EOD prices")

	header := http.Header{
		"Content-Type":  []string{"application/json"},
		"Authorization": []string{"Token " + c.apiKey},
	}
	body, err := c.httpClient.Get(ctx, endpoint, header)
	if err != nil {
		return nil, err
	}

	var prices []eodPrice
	if err := json.Unmarshal(body, &prices); err != nil {
		return nil, fmt.Errorf("error parsing EOD response: %w", err)
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("empty data returned")
	}

	series := &model.SourceSeries{Symbol: symbol, Source: SourceName}
	for _, p := range prices {
		date, err := time.Parse(time.RFC3339, p.Date)
		if err != nil {
			date, err = time.Parse(model.DateLayout, p.Date)
		}
		if err != nil {
			c.logger.Debug().Str("date", p.Date).Msg("Skipping row with bad date")
			continue
		}
		point := model.SourcePoint{Date: model.Day(date)}
		if p.Close != nil {
			point.Close = model.Some(*p.Close)
		}
		if p.AdjClose != nil {
			point.AdjClose = model.Some(*p.AdjClose)
		}
		series.Points = append(series.Points, point)
	}

	c.logger.Debug().Int("count", len(series.Points)).Msg("Fetched EOD prices")
	return series, nil
}
