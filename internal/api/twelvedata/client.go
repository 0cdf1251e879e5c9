package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/volswitch/internal/model"
	httpClient "github.com/Alias1177/volswitch/internal/platform/http"
)

// SourceName identifies this client in provenance records and logs.
const SourceName = "twelvedata"

// Client is the TwelveData API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new TwelveData client
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
}

// timeSeriesResponse represents the time_series response from Twelve Data
type timeSeriesResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values []struct {
		Datetime string `json:"datetime"`
		Close    string `json:"close"`
	} `json:"values"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewClient creates a new TwelveData API client
func NewClient(options ClientOptions) *Client {
	httpOpts := httpClient.ClientOptions{
		Timeout:         options.RequestTimeout,
		RequestsPerSec:  options.RequestsPerSec,
		MaxRetryTimeout: options.MaxRetryTimeout,
	}

	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = "https://api.twelvedata.com"
	}

	return &Client{
		apiKey:     options.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient.NewClient(httpOpts),
		logger:     log.With().Str("component", "twelvedata_client").Logger(),
	}
}

// Name implements the price source interface.
func (c *Client) Name() string { return SourceName }

// FetchDaily fetches daily closes for symbol over [start, end].
// Twelve Data has no adjusted close, so only Close is populated.
func (c *Client) FetchDaily(ctx context.Context, symbol string, start, end time.Time) (*model.SourceSeries, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", "1day")
	q.Set("start_date", start.Format(model.DateLayout))
	// end_date is exclusive on this API
	q.Set("end_date", end.AddDate(0, 0, 1).Format(model.DateLayout))
	q.Set("outputsize", "5000")
	q.Set("order", "ASC")
	q.Set("apikey", c.apiKey)

	c.logger.Debug().Str("symbol", symbol).Msg("Fetching daily series")

	body, err := c.httpClient.Get(ctx, c.baseURL+"/time_series?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	if strings.Contains(string(body), `"status":"error"`) {
		c.logger.Error().Str("response", string(body)).Msg("Twelve Data API error")
		return nil, fmt.Errorf("Twelve Data API error: %s", string(body))
	}

	var data timeSeriesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	if len(data.Values) == 0 {
		c.logger.Warn().Str("symbol", symbol).Msg("No values in response")
		return nil, fmt.Errorf("empty data returned")
	}

	series := &model.SourceSeries{Symbol: symbol, Source: SourceName}
	for _, v := range data.Values {
		date, err := time.Parse(model.DateLayout, firstN(v.Datetime, len(model.DateLayout)))
		if err != nil {
			c.logger.Debug().Str("datetime", v.Datetime).Msg("Skipping row with bad date")
			continue
		}
		point := model.SourcePoint{Date: date}
		if closePrice, err := strconv.ParseFloat(v.Close, 64); err == nil {
			point.Close = model.Some(closePrice)
		}
		series.Points = append(series.Points, point)
	}

	c.logger.Debug().Int("count", len(series.Points)).Msg("Fetched daily series")
	return series, nil
}

func firstN(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}
