package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alias1177/volswitch/internal/model"
	"github.com/Alias1177/volswitch/internal/prices"
	"github.com/Alias1177/volswitch/internal/trading/backtest"
)

var (
	btSymbols    []string
	btTrade      string
	btVolatility string
	btBenchmark  string
	btFrom       string
	btTo         string
	btThreshold  float64
	btCapital    float64
	btTail       int
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run one backtest and print the summary",
	Long: "Fetch daily prices, hold the trade symbol while the volatility symbol is at or " +
		"below the threshold, and compare against an always invested benchmark.",
	RunE: runBacktest,
}

func init() {
	backtestCmd.Flags().StringSliceVar(&btSymbols, "symbols", nil, "Extra symbols to load alongside the three roles")
	backtestCmd.Flags().StringVar(&btTrade, "trade", "SPY", "Symbol traded by the strategy")
	backtestCmd.Flags().StringVar(&btVolatility, "volatility", "^VIX", "Symbol used as the volatility signal")
	backtestCmd.Flags().StringVar(&btBenchmark, "benchmark", "^GSPC", "Always invested benchmark symbol")
	backtestCmd.Flags().StringVar(&btFrom, "from", "2000-01-01", "Start date YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&btTo, "to", "", "End date YYYY-MM-DD (default today)")
	backtestCmd.Flags().Float64Var(&btThreshold, "threshold", 0, "Volatility threshold (default DEFAULT_THRESHOLD)")
	backtestCmd.Flags().Float64Var(&btCapital, "capital", 0, "Initial capital (default DEFAULT_CAPITAL)")
	backtestCmd.Flags().IntVar(&btTail, "tail", 5, "Number of final rows of the value series to print")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	loader, err := prices.NewLoaderFromConfig(cfg)
	if err != nil {
		return err
	}

	req := backtest.Request{
		Symbols:             btSymbols,
		TradeSymbol:         btTrade,
		VolatilitySymbol:    btVolatility,
		BenchmarkSymbol:     btBenchmark,
		StartDate:           btFrom,
		EndDate:             btTo,
		VolatilityThreshold: cfg.DefaultThreshold,
		InitialCapital:      cfg.DefaultCapital,
	}
	if cmd.Flags().Changed("threshold") {
		req.VolatilityThreshold = btThreshold
	}
	if cmd.Flags().Changed("capital") {
		req.InitialCapital = btCapital
	}

	report, err := backtest.NewService(loader, backtest.NewEngine(), time.Now).Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, backtest.FormatResults(report.Config, report.Result, report.Summary))
	if len(report.Skipped) > 0 {
		fmt.Fprintf(out, "Skipped symbols with no data: %s\n", strings.Join(report.Skipped, ", "))
	}
	printTail(cmd, report.Result, btTail)
	return nil
}

func printTail(cmd *cobra.Command, result *model.BacktestResult, n int) {
	if n <= 0 {
		return
	}
	points := result.Points
	if len(points) > n {
		points = points[len(points)-n:]
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%-12s %14s %14s\n", "Date", "Strategy", "Benchmark")
	for _, p := range points {
		fmt.Fprintf(out, "%-12s %14.2f %14.2f\n", p.Date.Format(model.DateLayout), p.Strategy, p.Benchmark)
	}
}
