// Package models defines data structures and domain types.
package models

import "time"

// TimeRange represents the selected history time range.
type TimeRange int

const (
	// TimeRange24Hours shows data from the last 24 hours.
	TimeRange24Hours TimeRange = iota
	// TimeRange7Days shows data from the last 7 days.
	TimeRange7Days
	// TimeRange30Days shows data from the last 30 days.
	TimeRange30Days
	// TimeRangeAllTime shows all available historical data.
	TimeRangeAllTime
)

// String returns the display name for a time range.
func (t TimeRange) String() string {
	switch t {
	case TimeRange24Hours:
		return "24 Hours"
	case TimeRange7Days:
		return "7 Days"
	case TimeRange30Days:
		return "30 Days"
	case TimeRangeAllTime:
		return "All Time"
	default:
		return "Unknown"
	}
}

// Days returns the number of days for the time range (0 = unlimited).
func (t TimeRange) Days() int {
	switch t {
	case TimeRange24Hours:
		return 1
	case TimeRange7Days:
		return 7
	case TimeRange30Days:
		return 30
	case TimeRangeAllTime:
		return 0
	default:
		return 30
	}
}

// Since returns the lower time bound of the range relative to now.
// A zero time means no lower bound.
func (t TimeRange) Since(now time.Time) time.Time {
	days := t.Days()
	if days == 0 {
		return time.Time{}
	}
	return now.AddDate(0, 0, -days)
}

// Next cycles to the next time range.
func (t TimeRange) Next() TimeRange {
	return (t + 1) % 4
}

// Snapshot is a point-in-time copy of the catalog summary.
type Snapshot struct {
	RecordedAt  time.Time
	MinPrice    *float64
	MaxPrice    *float64
	AvgPrice    *float64
	ID          int64
	TotalBooks  int
	PricedBooks int
	InStock     int
	OutOfStock  int
}

// InStockRatio returns the in-stock fraction in [0, 1].
func (s *Snapshot) InStockRatio() float64 {
	if s.TotalBooks <= 0 {
		return 0
	}
	return float64(s.InStock) / float64(s.TotalBooks)
}

// SnapshotFrom builds a snapshot from the two analytics responses.
func SnapshotFrom(stats *PriceStats, avail *AvailabilityReport, at time.Time) *Snapshot {
	s := &Snapshot{RecordedAt: at}
	if stats != nil {
		s.PricedBooks = stats.Count
		s.MinPrice = stats.Min
		s.MaxPrice = stats.Max
		s.AvgPrice = stats.Average
	}
	if avail != nil {
		s.TotalBooks = avail.Total
		s.InStock = avail.InStock()
		s.OutOfStock = avail.Total - s.InStock
	}
	return s
}

// CatalogChanged reports whether the catalog size or stock level differs between snapshots.
func CatalogChanged(prev, next *Snapshot) bool {
	if prev == nil || next == nil {
		return false
	}
	return prev.TotalBooks != next.TotalBooks || prev.InStock != next.InStock
}
