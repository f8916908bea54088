package models

// SortField is a sortable listing column.
type SortField string

const (
	// SortByPrice orders by price.
	SortByPrice SortField = "price"
	// SortByTitle orders by title.
	SortByTitle SortField = "title"
)

// SortKey is the sort parameter sent to the API. The zero value means unsorted.
type SortKey string

// Sort keys understood by the API.
const (
	SortNone      SortKey = ""
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortTitleAsc  SortKey = "title_asc"
	SortTitleDesc SortKey = "title_desc"
)

// Valid reports whether k is unsorted or one of the known keys.
func (k SortKey) Valid() bool {
	switch k {
	case SortNone, SortPriceAsc, SortPriceDesc, SortTitleAsc, SortTitleDesc:
		return true
	}
	return false
}

// Field returns the column k sorts by, or "" when unsorted.
func (k SortKey) Field() SortField {
	switch k {
	case SortPriceAsc, SortPriceDesc:
		return SortByPrice
	case SortTitleAsc, SortTitleDesc:
		return SortByTitle
	}
	return ""
}

// Cycle returns the next key after the field's column header is activated:
// none -> asc -> desc -> none. Activating another column restarts at asc.
func (k SortKey) Cycle(field SortField) SortKey {
	asc := SortKey(string(field) + "_asc")
	desc := SortKey(string(field) + "_desc")
	switch k {
	case asc:
		return desc
	case desc:
		return SortNone
	default:
		return asc
	}
}

// Indicator returns the header suffix for field under key k.
func (k SortKey) Indicator(field SortField) string {
	switch k {
	case SortKey(string(field) + "_asc"):
		return " ▲"
	case SortKey(string(field) + "_desc"):
		return " ▼"
	}
	return ""
}

// String returns a readable name.
func (k SortKey) String() string {
	switch k {
	case SortPriceAsc:
		return "price ascending"
	case SortPriceDesc:
		return "price descending"
	case SortTitleAsc:
		return "title ascending"
	case SortTitleDesc:
		return "title descending"
	}
	return "none"
}
