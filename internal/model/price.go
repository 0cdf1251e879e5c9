package model

import (
	"math"
	"sort"
	"time"
)

// DateLayout is the calendar date format used on every boundary.
const DateLayout = "2006-01-02"

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NullPrice is a price cell that may be absent.
type NullPrice struct {
	Value float64
	Valid bool
}

// Some wraps a present value.
func Some(v float64) NullPrice {
	return NullPrice{Value: v, Valid: true}
}

// PriceField names the column a source series was read from.
type PriceField string

const (
	FieldAdjClose PriceField = "adj_close"
	FieldClose    PriceField = "close"
)

// SourcePoint is one row of a raw daily response.
type SourcePoint struct {
	Date     time.Time
	AdjClose NullPrice
	Close    NullPrice
}

// SourceSeries is what a price source returns for a single symbol.
type SourceSeries struct {
	Symbol string
	Source string
	Points []SourcePoint
}

// Column extracts one field as a normalized PriceSeries.
func (s *SourceSeries) Column(field PriceField) PriceSeries {
	if s == nil {
		return nil
	}
	points := make([]DatedPrice, 0, len(s.Points))
	for _, p := range s.Points {
		cell := p.Close
		if field == FieldAdjClose {
			cell = p.AdjClose
		}
		if cell.Valid {
			points = append(points, DatedPrice{Date: p.Date, Value: cell.Value})
		}
	}
	return NewPriceSeries(points)
}

// DatedPrice is a single (date, price) pair.
type DatedPrice struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// PriceSeries is ordered by strictly increasing date.
type PriceSeries []DatedPrice

// NewPriceSeries sorts points by date, keeps the last value seen for a
// repeated date and drops non-positive or non-finite prices.
func NewPriceSeries(points []DatedPrice) PriceSeries {
	byDay := make(map[time.Time]float64, len(points))
	for _, p := range points {
		if p.Value <= 0 || math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		byDay[Day(p.Date)] = p.Value
	}

	series := make(PriceSeries, 0, len(byDay))
	for d, v := range byDay {
		series = append(series, DatedPrice{Date: d, Value: v})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	return series
}

// Between returns the points falling inside [start, end] by calendar date.
func (s PriceSeries) Between(start, end time.Time) PriceSeries {
	start, end = Day(start), Day(end)
	out := make(PriceSeries, 0, len(s))
	for _, p := range s {
		if p.Date.Before(start) || p.Date.After(end) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Provenance records where a symbol's column came from.
type Provenance struct {
	Source string     `json:"source"`
	Field  PriceField `json:"field"`
}

// PriceTable is a set of price columns sharing one date index.
type PriceTable struct {
	Dates      []time.Time
	Symbols    []string
	Columns    map[string][]NullPrice
	Provenance map[string]Provenance
}

// AlignSeries outer-joins the series on the union of their dates.
// Symbols keeps the order given in order; names missing from series are skipped.
func AlignSeries(series map[string]PriceSeries, order []string) *PriceTable {
	seen := make(map[time.Time]struct{})
	for _, s := range series {
		for _, p := range s {
			seen[p.Date] = struct{}{}
		}
	}

	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	index := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		index[d] = i
	}

	table := &PriceTable{
		Dates:      dates,
		Columns:    make(map[string][]NullPrice, len(series)),
		Provenance: make(map[string]Provenance, len(series)),
	}
	for _, symbol := range order {
		s, ok := series[symbol]
		if !ok {
			continue
		}
		if _, dup := table.Columns[symbol]; dup {
			continue
		}
		column := make([]NullPrice, len(dates))
		for _, p := range s {
			column[index[p.Date]] = Some(p.Value)
		}
		table.Columns[symbol] = column
		table.Symbols = append(table.Symbols, symbol)
	}
	return table
}

// Len returns the number of dates in the table.
func (t *PriceTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Dates)
}

// Has reports whether the table carries a column for symbol.
func (t *PriceTable) Has(symbol string) bool {
	if t == nil {
		return false
	}
	_, ok := t.Columns[symbol]
	return ok
}

// At returns the cell for symbol on row i. Unknown symbols and out of range
// rows read as missing.
func (t *PriceTable) At(symbol string, i int) NullPrice {
	if t == nil || i < 0 || i >= len(t.Dates) {
		return NullPrice{}
	}
	column, ok := t.Columns[symbol]
	if !ok || i >= len(column) {
		return NullPrice{}
	}
	return column[i]
}
