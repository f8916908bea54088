package models

import (
	"fmt"
	"math"
)

// AvailabilityBucket counts books sharing one availability label.
type AvailabilityBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// AvailabilityReport is the availability breakdown of the whole catalog.
type AvailabilityReport struct {
	Buckets []AvailabilityBucket `json:"buckets"`
	Total   int                  `json:"total"`
}

// InStock sums the buckets whose label counts as in stock.
func (r *AvailabilityReport) InStock() int {
	n := 0
	for _, b := range r.Buckets {
		if IsInStock(b.Label) {
			n += b.Count
		}
	}
	return n
}

// PriceStats summarizes prices over priced books. Min, Max and Average
// are nil when no book carries a price.
type PriceStats struct {
	Min     *float64 `json:"min"`
	Max     *float64 `json:"max"`
	Average *float64 `json:"average"`
	Count   int      `json:"count"`
}

// PriceBucket is one histogram bar.
type PriceBucket struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Label renders the bucket bounds rounded to whole pounds.
func (b PriceBucket) Label() string {
	return fmt.Sprintf("£%d–£%d", int(math.Round(b.Lower)), int(math.Round(b.Upper)))
}

// PriceBuckets is the histogram response.
type PriceBuckets struct {
	Buckets []PriceBucket `json:"buckets"`
}

// WordCount is a title word and its frequency.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// TitleWords is the top-words response.
type TitleWords struct {
	Top []WordCount `json:"top"`
}
