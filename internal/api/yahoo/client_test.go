package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Alias1177/volswitch/internal/model"
)

const chartFixture = `{"chart":{"result":[{"meta":{"symbol":"^VIX","gmtoffset":-18000},
"timestamp":[1704205800,1704292200,1704378600],
"indicators":{"quote":[{"close":[13.2,null,14.1]}],"adjclose":[{"adjclose":[13.2,null,14.1]}]}}],"error":null}}`

func TestFetchDaily(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		if r.URL.Query().Get("interval") != "1d" {
			t.Errorf("interval = %q", r.URL.Query().Get("interval"))
		}
		_, _ = w.Write([]byte(chartFixture))
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{BaseURL: srv.URL, MaxRetryTimeout: 10 * time.Millisecond})
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)

	series, err := c.FetchDaily(context.Background(), "^VIX", start, end)
	if err != nil {
		t.Fatalf("FetchDaily() error = %v", err)
	}
	if !strings.HasSuffix(gotPath, "/v8/finance/chart/%5EVIX") {
		t.Errorf("path = %q", gotPath)
	}
	if len(series.Points) != 3 {
		t.Fatalf("len(Points) = %d, want 3", len(series.Points))
	}

	wantDates := []string{"2024-01-02", "2024-01-03", "2024-01-04"}
	for i, p := range series.Points {
		if got := p.Date.Format(model.DateLayout); got != wantDates[i] {
			t.Errorf("Points[%d].Date = %s, want %s", i, got, wantDates[i])
		}
	}
	if series.Points[1].AdjClose.Valid || series.Points[1].Close.Valid {
		t.Errorf("null cells should be invalid, got %+v", series.Points[1])
	}
	if got := series.Column(model.FieldAdjClose); len(got) != 2 || got[1].Value != 14.1 {
		t.Errorf("adj close column = %+v", got)
	}
}

func TestFetchDailyChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{BaseURL: srv.URL})
	_, err := c.FetchDaily(context.Background(), "NOPE", time.Now().AddDate(0, 0, -5), time.Now())
	if err == nil || !strings.Contains(err.Error(), "delisted") {
		t.Fatalf("FetchDaily() error = %v, want chart error", err)
	}
}
