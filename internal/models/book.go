package models

import (
	"fmt"
	"strings"
)

// Book is a single catalog record as served by the API.
type Book struct {
	Price        *float64 `json:"price"`
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	Availability string   `json:"availability"`
}

// BooksPage is one window of a filtered book listing.
type BooksPage struct {
	Items []Book `json:"items"`
	Total int    `json:"total"`
}

// Availability is the stock filter applied to the listing.
type Availability string

const (
	// AvailabilityAny disables the stock filter.
	AvailabilityAny Availability = ""
	// AvailabilityInStock keeps books that can be ordered.
	AvailabilityInStock Availability = "in stock"
	// AvailabilityOutOfStock keeps books that cannot be ordered.
	AvailabilityOutOfStock Availability = "out of stock"
)

// String returns the display name of the filter.
func (a Availability) String() string {
	if a == AvailabilityAny {
		return "Any"
	}
	return string(a)
}

// Next cycles any -> in stock -> out of stock -> any.
func (a Availability) Next() Availability {
	switch a {
	case AvailabilityAny:
		return AvailabilityInStock
	case AvailabilityInStock:
		return AvailabilityOutOfStock
	default:
		return AvailabilityAny
	}
}

// FormatPrice renders a price in pounds, or missing when absent.
func FormatPrice(p *float64, missing string) string {
	if p == nil {
		return missing
	}
	return fmt.Sprintf("£%.2f", *p)
}

// IsInStock reports whether an availability label counts as in stock.
func IsInStock(label string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(label)), string(AvailabilityInStock))
}
