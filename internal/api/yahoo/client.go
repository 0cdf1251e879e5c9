// Package yahoo reads daily bars from the Yahoo Finance chart endpoint.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
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
const SourceName = "yahoo"

const defaultUserAgent = "Mozilla/5.0 (compatible; volswitch/1.0)"

// Client is the Yahoo chart API client
type Client struct {
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Yahoo client
type ClientOptions struct {
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// NewClient creates a new Yahoo chart API client
func NewClient(options ClientOptions) *Client {
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:         options.RequestTimeout,
			RequestsPerSec:  options.RequestsPerSec,
			MaxRetryTimeout: options.MaxRetryTimeout,
			UserAgent:       defaultUserAgent,
		}),
		logger: log.With().Str("component", "yahoo_client").Logger(),
	}
}

// Name implements the price source interface.
func (c *Client) Name() string { return SourceName }

// FetchDaily fetches daily close and adjusted close for symbol over [start, end].
func (c *Client) FetchDaily(ctx context.Context, symbol string, start, end time.Time) (*model.SourceSeries, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(model.Day(start).Unix(), 10))
	// period2 is exclusive
	q.Set("period2", strconv.FormatInt(model.Day(end).AddDate(0, 0, 1).Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "div,split")
	q.Set("includeAdjustedClose", "true")

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), q.Encode())
	c.logger.Debug().Str("symbol", symbol).Msg("Fetching chart")

	body, err := c.httpClient.Get(ctx, endpoint, http.Header{"Accept": []string{"application/json"}})
	if err != nil {
		return nil, err
	}

	var data chartResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if data.Chart.Error != nil {
		return nil, fmt.Errorf("Yahoo chart error %s: %s", data.Chart.Error.Code, data.Chart.Error.Description)
	}
	if len(data.Chart.Result) == 0 {
		return nil, fmt.Errorf("empty data returned")
	}

	return parseChart(symbol, data.Chart.Result[0]), nil
}

func parseChart(symbol string, result chartResult) *model.SourceSeries {
	var closes, adjCloses []*float64
	if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}
	if len(result.Indicators.AdjClose) > 0 {
		adjCloses = result.Indicators.AdjClose[0].AdjClose
	}

	offset := time.Duration(result.Meta.GMTOffset) * time.Second
	series := &model.SourceSeries{Symbol: symbol, Source: SourceName}
	for i, ts := range result.Timestamp {
		point := model.SourcePoint{
			Date: model.Day(time.Unix(ts, 0).UTC().Add(offset)),
		}
		if v := cell(closes, i); v != nil {
			point.Close = model.Some(*v)
		}
		if v := cell(adjCloses, i); v != nil {
			point.AdjClose = model.Some(*v)
		}
		series.Points = append(series.Points, point)
	}
	return series
}

func cell(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
