package model

import "errors"

var (
	// ErrDataUnavailable means no requested symbol produced usable prices.
	ErrDataUnavailable = errors.New("no valid data fetched for any symbols")
	// ErrInvalidConfig means the request was rejected before any fetch.
	ErrInvalidConfig = errors.New("invalid backtest configuration")
)
