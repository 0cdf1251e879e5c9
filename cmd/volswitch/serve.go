package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/volswitch/internal/prices"
	"github.com/Alias1177/volswitch/internal/server"
	"github.com/Alias1177/volswitch/internal/trading/backtest"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve backtests over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader, err := prices.NewLoaderFromConfig(cfg)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	handler := server.NewBacktestHandler(
		backtest.NewService(loader, backtest.NewEngine(), time.Now),
		server.Defaults{VolatilityThreshold: cfg.DefaultThreshold, InitialCapital: cfg.DefaultCapital},
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutdown signal received, exiting...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
