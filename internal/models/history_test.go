package models

import (
	"testing"
	"time"
)

func TestTimeRange_String(t *testing.T) {
	tests := []struct {
		name string
		tr   TimeRange
		want string
	}{
		{"24Hours", TimeRange24Hours, "24 Hours"},
		{"7Days", TimeRange7Days, "7 Days"},
		{"30Days", TimeRange30Days, "30 Days"},
		{"AllTime", TimeRangeAllTime, "All Time"},
		{"Unknown", TimeRange(999), "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.String(); got != tt.want {
				t.Errorf("TimeRange.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeRange_Days(t *testing.T) {
	tests := []struct {
		name string
		tr   TimeRange
		want int
	}{
		{"24Hours", TimeRange24Hours, 1},
		{"7Days", TimeRange7Days, 7},
		{"30Days", TimeRange30Days, 30},
		{"AllTime", TimeRangeAllTime, 0},
		{"Unknown", TimeRange(999), 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.Days(); got != tt.want {
				t.Errorf("TimeRange.Days() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeRange_Next(t *testing.T) {
	tests := []struct {
		name string
		tr   TimeRange
		want TimeRange
	}{
		{"24Hours -> 7Days", TimeRange24Hours, TimeRange7Days},
		{"7Days -> 30Days", TimeRange7Days, TimeRange30Days},
		{"30Days -> AllTime", TimeRange30Days, TimeRangeAllTime},
		{"AllTime -> 24Hours", TimeRangeAllTime, TimeRange24Hours},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.Next(); got != tt.want {
				t.Errorf("TimeRange.Next() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeRange_Since(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	if got := TimeRange7Days.Since(now); !got.Equal(now.AddDate(0, 0, -7)) {
		t.Errorf("Since(7d) = %v", got)
	}
	if got := TimeRangeAllTime.Since(now); !got.IsZero() {
		t.Errorf("Since(all) = %v, want zero time", got)
	}
}

func ptr(f float64) *float64 { return &f }

func TestSnapshotFrom(t *testing.T) {
	stats := &PriceStats{Count: 3, Min: ptr(10), Max: ptr(50), Average: ptr(25)}
	avail := &AvailabilityReport{
		Total: 5,
		Buckets: []AvailabilityBucket{
			{Label: "In stock", Count: 2},
			{Label: "In stock (22 available)", Count: 1},
			{Label: "Out of stock", Count: 2},
		},
	}
	at := time.Now()

	s := SnapshotFrom(stats, avail, at)
	if s.TotalBooks != 5 || s.PricedBooks != 3 {
		t.Errorf("totals = %d/%d, want 5/3", s.TotalBooks, s.PricedBooks)
	}
	if s.InStock != 3 || s.OutOfStock != 2 {
		t.Errorf("stock = %d/%d, want 3/2", s.InStock, s.OutOfStock)
	}
	if *s.AvgPrice != 25 {
		t.Errorf("AvgPrice = %v, want 25", *s.AvgPrice)
	}
	if got := s.InStockRatio(); got != 0.6 {
		t.Errorf("InStockRatio() = %v, want 0.6", got)
	}
}

func TestSnapshotFrom_Nil(t *testing.T) {
	s := SnapshotFrom(nil, nil, time.Now())
	if s.TotalBooks != 0 || s.AvgPrice != nil {
		t.Errorf("empty snapshot = %+v", s)
	}
	if s.InStockRatio() != 0 {
		t.Error("InStockRatio() of empty snapshot should be 0")
	}
}

func TestCatalogChanged(t *testing.T) {
	base := &Snapshot{TotalBooks: 10, InStock: 8}

	tests := []struct {
		name string
		prev *Snapshot
		next *Snapshot
		want bool
	}{
		{"NoPrevious", nil, base, false},
		{"Same", base, &Snapshot{TotalBooks: 10, InStock: 8, PricedBooks: 2}, false},
		{"TotalChanged", base, &Snapshot{TotalBooks: 11, InStock: 8}, true},
		{"StockChanged", base, &Snapshot{TotalBooks: 10, InStock: 7}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CatalogChanged(tt.prev, tt.next); got != tt.want {
				t.Errorf("CatalogChanged() = %v, want %v", got, tt.want)
			}
		})
	}
}
