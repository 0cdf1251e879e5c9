package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/volswitch/internal/model"
	"github.com/Alias1177/volswitch/internal/trading/backtest"
)

// Runner executes one backtest request.
type Runner interface {
	Run(ctx context.Context, req backtest.Request) (*backtest.Report, error)
}

// Defaults fill in numeric fields a request leaves out.
type Defaults struct {
	VolatilityThreshold float64
	InitialCapital      float64
}

// BacktestHandler serves backtest runs over HTTP.
type BacktestHandler struct {
	runner   Runner
	defaults Defaults
	logger   zerolog.Logger
}

// NewBacktestHandler creates a handler that fills omitted numbers from defaults.
func NewBacktestHandler(runner Runner, defaults Defaults) *BacktestHandler {
	return &BacktestHandler{
		runner:   runner,
		defaults: defaults,
		logger:   log.With().Str("component", "http_handler").Logger(),
	}
}

// RegisterRoutes mounts /health and /api/v1/backtest on r.
func (h *BacktestHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/health", h.Health)
	v1 := r.Group("/api/v1")
	{
		v1.POST("/backtest", h.RunBacktest)
	}
}

// Health reports liveness.
func (h *BacktestHandler) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// backtestBody uses pointers so omitted numbers pick up defaults.
type backtestBody struct {
	Symbols             []string `json:"symbols"`
	TradeSymbol         string   `json:"trade_symbol"`
	VolatilitySymbol    string   `json:"volatility_symbol"`
	BenchmarkSymbol     string   `json:"benchmark_symbol"`
	StartDate           string   `json:"start_date"`
	EndDate             string   `json:"end_date"`
	VolatilityThreshold *float64 `json:"volatility_threshold"`
	InitialCapital      *float64 `json:"initial_capital"`
}

// RunBacktest runs one backtest. Invalid input is 400, missing data 422.
func (h *BacktestHandler) RunBacktest(c *gin.Context) {
	var body backtestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	req := backtest.Request{
		Symbols:             body.Symbols,
		TradeSymbol:         body.TradeSymbol,
		VolatilitySymbol:    body.VolatilitySymbol,
		BenchmarkSymbol:     body.BenchmarkSymbol,
		StartDate:           body.StartDate,
		EndDate:             body.EndDate,
		VolatilityThreshold: h.defaults.VolatilityThreshold,
		InitialCapital:      h.defaults.InitialCapital,
	}
	if body.VolatilityThreshold != nil {
		req.VolatilityThreshold = *body.VolatilityThreshold
	}
	if body.InitialCapital != nil {
		req.InitialCapital = *body.InitialCapital
	}

	report, err := h.runner.Run(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, report)
	case errors.Is(err, model.ErrInvalidConfig):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrDataUnavailable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.Error().Err(err).Msg("Backtest failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected error: " + err.Error()})
	}
}

// NewRouter builds the gin engine serving the handler.
func NewRouter(h *BacktestHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	h.RegisterRoutes(&r.RouterGroup)
	return r
}

func requestLogger() gin.HandlerFunc {
	logger := log.With().Str("component", "http").Logger()
	return func(c *gin.Context) {
		c.Next()
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Msg("Request handled")
	}
}
