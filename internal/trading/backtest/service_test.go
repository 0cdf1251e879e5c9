package backtest

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Alias1177/volswitch/internal/model"
)

type fakeLoader struct {
	table *model.PriceTable
	err   error

	calls   int
	symbols []string
	start   time.Time
	end     time.Time
}

func (f *fakeLoader) Load(ctx context.Context, symbols []string, start, end time.Time) (*model.PriceTable, error) {
	f.calls++
	f.symbols, f.start, f.end = symbols, start, end
	return f.table, f.err
}

func serviceNow() time.Time { return time.Date(2024, 2, 1, 18, 45, 0, 0, time.UTC) }

func validRequest() Request {
	return Request{
		Symbols:             []string{"SPY", "QQQ"},
		TradeSymbol:         "SPY",
		VolatilitySymbol:    "^VIX",
		BenchmarkSymbol:     "^GSPC",
		StartDate:           "2024-01-01",
		VolatilityThreshold: 20,
		InitialCapital:      10000,
	}
}

func TestServiceRun(t *testing.T) {
	table := newTable(map[string][]model.NullPrice{
		"SPY":   cells(100, 110, 121),
		"^VIX":  cells(15, 15, 15),
		"^GSPC": cells(1000, 1050, 1102.5),
	})
	table.Symbols = []string{"SPY", "^VIX", "^GSPC"}
	table.Provenance = map[string]model.Provenance{
		"SPY": {Source: "yahoo", Field: model.FieldAdjClose},
	}
	loader := &fakeLoader{table: table}

	report, err := NewService(loader, nil, serviceNow).Run(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !reflect.DeepEqual(loader.symbols, []string{"SPY", "QQQ", "^VIX", "^GSPC"}) {
		t.Errorf("loaded symbols = %v", loader.symbols)
	}
	wantEnd := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if !loader.end.Equal(wantEnd) {
		t.Errorf("loader end = %v, want %v", loader.end, wantEnd)
	}
	if !report.Config.EndDate.Equal(wantEnd) {
		t.Errorf("report end date = %v, want %v", report.Config.EndDate, wantEnd)
	}
	if !reflect.DeepEqual(report.Skipped, []string{"QQQ"}) {
		t.Errorf("Skipped = %v", report.Skipped)
	}
	if report.Display.StrategyFinalValue != "$12,100.00" || report.Display.StrategyTotalReturn != "21.00%" {
		t.Errorf("Display = %+v", report.Display)
	}
	if report.Display.BenchmarkTotalReturn != "10.25%" {
		t.Errorf("BenchmarkTotalReturn = %q", report.Display.BenchmarkTotalReturn)
	}
	if report.Provenance["SPY"].Source != "yahoo" {
		t.Errorf("Provenance = %v", report.Provenance)
	}
}

func TestServiceRunReturnsFreshReports(t *testing.T) {
	table := newTable(map[string][]model.NullPrice{
		"SPY":   cells(100, 110),
		"^VIX":  cells(15, 15),
		"^GSPC": cells(1000, 1100),
	})
	svc := NewService(&fakeLoader{table: table}, nil, serviceNow)

	first, err := svc.Run(context.Background(), validRequest())
	if err != nil {
		t.Fatal(err)
	}
	req := validRequest()
	req.VolatilityThreshold = 10
	second, err := svc.Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if first == second || first.Result == second.Result {
		t.Fatal("reports must not be shared between runs")
	}
	if first.Summary.StrategyFinalValue == second.Summary.StrategyFinalValue {
		t.Errorf("second run leaked into first: %v / %v",
			first.Summary.StrategyFinalValue, second.Summary.StrategyFinalValue)
	}
}

func TestServiceRunErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Request)
		loaderErr error
		want      error
		wantLoads int
	}{
		{name: "bad capital", mutate: func(r *Request) { r.InitialCapital = 0 }, want: model.ErrInvalidConfig},
		{name: "missing benchmark", mutate: func(r *Request) { r.BenchmarkSymbol = "" }, want: model.ErrInvalidConfig},
		{name: "bad start date", mutate: func(r *Request) { r.StartDate = "01/02/2024" }, want: model.ErrInvalidConfig},
		{name: "bad end date", mutate: func(r *Request) { r.EndDate = "tomorrow" }, want: model.ErrInvalidConfig},
		{name: "end before start", mutate: func(r *Request) { r.EndDate = "2023-12-01" }, want: model.ErrInvalidConfig},
		{name: "start is today", mutate: func(r *Request) { r.StartDate = "2024-02-01" }, want: model.ErrInvalidConfig},
		{
			name:      "no data",
			mutate:    func(*Request) {},
			loaderErr: model.ErrDataUnavailable,
			want:      model.ErrDataUnavailable,
			wantLoads: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := &fakeLoader{err: tt.loaderErr}
			req := validRequest()
			tt.mutate(&req)

			_, err := NewService(loader, nil, serviceNow).Run(context.Background(), req)
			if !errors.Is(err, tt.want) {
				t.Errorf("Run() error = %v, want %v", err, tt.want)
			}
			if loader.calls != tt.wantLoads {
				t.Errorf("loader calls = %d, want %d", loader.calls, tt.wantLoads)
			}
		})
	}
}
