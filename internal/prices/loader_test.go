package prices

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Alias1177/volswitch/internal/config"
	"github.com/Alias1177/volswitch/internal/model"
)

type fakeSource struct {
	name  string
	data  map[string]*model.SourceSeries
	errs  map[string]error
	calls []string

	gotStart, gotEnd time.Time
	gotDeadline      bool
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) FetchDaily(ctx context.Context, symbol string, start, end time.Time) (*model.SourceSeries, error) {
	f.calls = append(f.calls, symbol)
	f.gotStart, f.gotEnd = start, end
	_, f.gotDeadline = ctx.Deadline()
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	s, ok := f.data[symbol]
	if !ok {
		return nil, errors.New("unknown symbol")
	}
	return s, nil
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func rows(adj, closes map[int]float64) *model.SourceSeries {
	s := &model.SourceSeries{}
	days := map[int]struct{}{}
	for d := range adj {
		days[d] = struct{}{}
	}
	for d := range closes {
		days[d] = struct{}{}
	}
	for d := range days {
		p := model.SourcePoint{Date: day(d)}
		if v, ok := adj[d]; ok {
			p.AdjClose = model.Some(v)
		}
		if v, ok := closes[d]; ok {
			p.Close = model.Some(v)
		}
		s.Points = append(s.Points, p)
	}
	return s
}

func fixedNow() time.Time { return time.Date(2024, 1, 5, 15, 30, 0, 0, time.UTC) }

func TestLoadFallbackPolicy(t *testing.T) {
	primary := &fakeSource{
		name: "primary",
		data: map[string]*model.SourceSeries{
			"SPY":  rows(map[int]float64{2: 100, 3: 101}, map[int]float64{2: 110, 3: 111}),
			"^VIX": rows(nil, map[int]float64{2: 15, 3: 16}),
		},
		errs: map[string]error{"^GSPC": errors.New("timeout")},
	}
	secondary := &fakeSource{
		name: "secondary",
		data: map[string]*model.SourceSeries{
			"^VIX":  rows(nil, map[int]float64{2: 15, 3: 16, 4: 17}),
			"^GSPC": rows(map[int]float64{2: 4700, 4: 4750}, map[int]float64{2: 4800}),
		},
	}

	l := NewLoader(LoaderOptions{Primary: primary, Secondary: secondary, Now: fixedNow})
	table, err := l.Load(context.Background(), []string{"SPY", "^VIX", "^GSPC", "DEAD"}, day(1), time.Time{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !reflect.DeepEqual(table.Symbols, []string{"SPY", "^VIX", "^GSPC"}) {
		t.Errorf("Symbols = %v", table.Symbols)
	}
	if !reflect.DeepEqual(secondary.calls, []string{"^VIX", "^GSPC", "DEAD"}) {
		t.Errorf("secondary calls = %v, SPY must not fall back", secondary.calls)
	}

	wantProv := map[string]model.Provenance{
		"SPY":   {Source: "primary", Field: model.FieldAdjClose},
		"^VIX":  {Source: "secondary", Field: model.FieldClose},
		"^GSPC": {Source: "secondary", Field: model.FieldAdjClose},
	}
	if !reflect.DeepEqual(table.Provenance, wantProv) {
		t.Errorf("Provenance = %v", table.Provenance)
	}

	if table.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 (union of dates)", table.Len())
	}
	if got := table.At("SPY", 2); got.Valid {
		t.Errorf("SPY on 2024-01-04 should be missing, got %+v", got)
	}
	if got := table.At("SPY", 0); got != model.Some(100) {
		t.Errorf("SPY on 2024-01-02 = %+v, want adjusted 100", got)
	}
	if got := table.At("^GSPC", 1); got.Valid {
		t.Errorf("^GSPC on 2024-01-03 should be missing, got %+v", got)
	}
}

func TestLoadDefaultsEndToNow(t *testing.T) {
	primary := &fakeSource{
		name: "primary",
		data: map[string]*model.SourceSeries{"SPY": rows(map[int]float64{2: 1, 3: 2}, nil)},
	}
	l := NewLoader(LoaderOptions{Primary: primary, Now: fixedNow, FetchTimeout: time.Second})

	if _, err := l.Load(context.Background(), []string{"SPY"}, day(2), time.Time{}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !primary.gotEnd.Equal(day(5)) {
		t.Errorf("end = %v, want injected now truncated to the day", primary.gotEnd)
	}
	if !primary.gotDeadline {
		t.Error("fetch context should carry a deadline")
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	newLoader := func() *Loader {
		return NewLoader(LoaderOptions{
			Primary: &fakeSource{
				name: "primary",
				data: map[string]*model.SourceSeries{
					"SPY":  rows(map[int]float64{2: 1, 3: 2}, nil),
					"^VIX": rows(map[int]float64{3: 12, 4: 13}, nil),
				},
			},
			Now: fixedNow,
		})
	}

	first, err := newLoader().Load(context.Background(), []string{"SPY", "^VIX"}, day(1), time.Time{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	second, err := newLoader().Load(context.Background(), []string{"SPY", "^VIX"}, day(1), time.Time{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("tables differ:\n%+v\n%+v", first, second)
	}
}

func TestLoadErrors(t *testing.T) {
	failing := &fakeSource{name: "down", errs: map[string]error{
		"SPY": errors.New("boom"), "^VIX": errors.New("boom"),
	}}

	tests := []struct {
		name    string
		loader  *Loader
		symbols []string
		start   time.Time
		end     time.Time
		want    error
	}{
		{
			name:    "every symbol fails on both sources",
			loader:  NewLoader(LoaderOptions{Primary: failing, Secondary: failing, Now: fixedNow}),
			symbols: []string{"SPY", "^VIX"},
			start:   day(1),
			want:    model.ErrDataUnavailable,
		},
		{
			name: "data outside the range is not usable",
			loader: NewLoader(LoaderOptions{
				Primary: &fakeSource{name: "p", data: map[string]*model.SourceSeries{
					"SPY": rows(map[int]float64{20: 1}, nil),
				}},
				Now: fixedNow,
			}),
			symbols: []string{"SPY"},
			start:   day(1),
			end:     day(3),
			want:    model.ErrDataUnavailable,
		},
		{
			name:    "no symbols",
			loader:  NewLoader(LoaderOptions{Primary: failing, Now: fixedNow}),
			symbols: []string{" ", ""},
			start:   day(1),
			want:    model.ErrInvalidConfig,
		},
		{
			name:    "start after end",
			loader:  NewLoader(LoaderOptions{Primary: failing, Now: fixedNow}),
			symbols: []string{"SPY"},
			start:   day(10),
			end:     day(3),
			want:    model.ErrInvalidConfig,
		},
		{
			name:    "start equal to end",
			loader:  NewLoader(LoaderOptions{Primary: failing, Now: fixedNow}),
			symbols: []string{"SPY"},
			start:   day(3),
			end:     day(3),
			want:    model.ErrInvalidConfig,
		},
		{
			name:    "start equal to defaulted end",
			loader:  NewLoader(LoaderOptions{Primary: failing, Now: fixedNow}),
			symbols: []string{"SPY"},
			start:   day(5),
			want:    model.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.loader.Load(context.Background(), tt.symbols, tt.start, tt.end)
			if !errors.Is(err, tt.want) {
				t.Errorf("Load() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewSource(t *testing.T) {
	cfg := config.FromEnv()
	for _, name := range []string{"yahoo", "tiingo", "twelvedata", "alpaca"} {
		src, err := NewSource(name, cfg)
		if err != nil {
			t.Fatalf("NewSource(%q) error = %v", name, err)
		}
		if src.Name() != name {
			t.Errorf("Name() = %q, want %q", src.Name(), name)
		}
	}

	if src, err := NewSource("none", cfg); err != nil || src != nil {
		t.Errorf("NewSource(none) = %v, %v", src, err)
	}
	if _, err := NewSource("bloomberg", cfg); err == nil {
		t.Error("NewSource(bloomberg) expected an error")
	}
}
