package prices

import (
	"fmt"
	"strings"

	"github.com/Alias1177/volswitch/internal/api/alpaca"
	"github.com/Alias1177/volswitch/internal/api/tiingo"
	"github.com/Alias1177/volswitch/internal/api/twelvedata"
	"github.com/Alias1177/volswitch/internal/api/yahoo"
	"github.com/Alias1177/volswitch/internal/config"
)

// NewSource builds the named source from cfg. An empty name or "none"
// yields a nil Source.
func NewSource(name string, cfg *config.Config) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return nil, nil
	case yahoo.SourceName:
		return yahoo.NewClient(yahoo.ClientOptions{
			BaseURL:         cfg.YahooBaseURL,
			RequestTimeout:  cfg.FetchTimeout(),
			RequestsPerSec:  cfg.RequestsPerSec,
			MaxRetryTimeout: cfg.RetryWindow(),
		}), nil
	case tiingo.SourceName:
		return tiingo.NewClient(tiingo.ClientOptions{
			APIKey:          cfg.TiingoAPIKey,
			BaseURL:         cfg.TiingoBaseURL,
			RequestTimeout:  cfg.FetchTimeout(),
			RequestsPerSec:  cfg.RequestsPerSec,
			MaxRetryTimeout: cfg.RetryWindow(),
		}), nil
	case twelvedata.SourceName:
		return twelvedata.NewClient(twelvedata.ClientOptions{
			APIKey:          cfg.TwelveAPIKey,
			BaseURL:         cfg.TwelveBaseURL,
			RequestTimeout:  cfg.FetchTimeout(),
			RequestsPerSec:  cfg.RequestsPerSec,
			MaxRetryTimeout: cfg.RetryWindow(),
		}), nil
	case alpaca.SourceName:
		return alpaca.NewClient(alpaca.ClientOptions{
			APIKey:         cfg.AlpacaAPIKey,
			APISecret:      cfg.AlpacaSecretKey,
			BaseURL:        cfg.AlpacaBaseURL,
			RequestTimeout: cfg.FetchTimeout(),
		}), nil
	default:
		return nil, fmt.Errorf("unknown price source %q", name)
	}
}

// NewLoaderFromConfig wires the configured primary and secondary sources.
func NewLoaderFromConfig(cfg *config.Config) (*Loader, error) {
	primary, err := NewSource(cfg.PrimarySource, cfg)
	if err != nil {
		return nil, fmt.Errorf("primary source: %w", err)
	}
	secondary, err := NewSource(cfg.SecondarySource, cfg)
	if err != nil {
		return nil, fmt.Errorf("secondary source: %w", err)
	}
	if primary == nil && secondary == nil {
		return nil, fmt.Errorf("at least one price source must be configured")
	}

	return NewLoader(LoaderOptions{
		Primary:      primary,
		Secondary:    secondary,
		FetchTimeout: cfg.FetchTimeout(),
	}), nil
}
