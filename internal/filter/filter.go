// Package filter holds the books view state and its link encoding.
package filter

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/j-veylop/bookdash-tui/internal/models"
)

// Defaults used when a link omits a value.
const (
	DefaultLimit      = 10
	DefaultBucketSize = 10.0
)

// Link query keys.
const (
	KeyQuery        = "q"
	KeyPriceMin     = "price_min"
	KeyPriceMax     = "price_max"
	KeyAvailability = "availability"
	KeySort         = "sort"
	KeyLimit        = "limit"
	KeyOffset       = "offset"
	KeyBucketSize   = "bucket_size"
)

var (
	// PageSizes are the selectable page sizes.
	PageSizes = []int{5, 10, 20, 50}
	// BucketSizes are the selectable histogram bucket widths.
	BucketSizes = []float64{5, 10, 20, 50}
)

// State is the filter, sort and pagination state of the books listing,
// plus the histogram bucket width.
type State struct {
	PriceMin     *float64
	PriceMax     *float64
	Query        string
	Availability models.Availability
	Sort         models.SortKey
	BucketSize   float64
	Limit        int
	Offset       int
}

// SetQuery applies a search query and rewinds to the first page.
func (s *State) SetQuery(q string) {
	s.Query = q
	s.Offset = 0
}

// SetPriceMin applies the lower price bound and rewinds to the first page.
func (s *State) SetPriceMin(v *float64) {
	s.PriceMin = v
	s.Offset = 0
}

// SetPriceMax applies the upper price bound and rewinds to the first page.
func (s *State) SetPriceMax(v *float64) {
	s.PriceMax = v
	s.Offset = 0
}

// SetAvailability applies the stock filter and rewinds to the first page.
func (s *State) SetAvailability(a models.Availability) {
	s.Availability = a
	s.Offset = 0
}

// SetSort applies a sort key and rewinds to the first page.
func (s *State) SetSort(k models.SortKey) {
	s.Sort = k
	s.Offset = 0
}

// CycleSort advances the sort for a column header.
func (s *State) CycleSort(field models.SortField) {
	s.SetSort(s.Sort.Cycle(field))
}

// SetLimit changes the page size and rewinds to the first page.
func (s *State) SetLimit(n int) {
	if n < 1 {
		n = DefaultLimit
	}
	s.Limit = n
	s.Offset = 0
}

// CycleLimit moves to the next entry of PageSizes.
func (s *State) CycleLimit() {
	s.SetLimit(nextInt(PageSizes, s.Limit))
}

// SetBucketSize changes the histogram width. The listing offset is untouched.
func (s *State) SetBucketSize(size float64) {
	if size > 0 {
		s.BucketSize = size
	}
}

// CycleBucket moves forward (dir > 0) or backward through BucketSizes.
func (s *State) CycleBucket(dir int) {
	s.SetBucketSize(stepFloat(BucketSizes, s.BucketSize, dir))
}

// NextPage advances one page while rows remain beyond the current window.
// It reports whether the offset moved.
func (s *State) NextPage(total int) bool {
	if !s.CanNext(total) {
		return false
	}
	s.Offset += s.Limit
	return true
}

// PrevPage steps back one page, clamping at the start. It reports whether the offset moved.
func (s *State) PrevPage() bool {
	if !s.CanPrev() {
		return false
	}
	s.Offset = max(0, s.Offset-s.Limit)
	return true
}

// CanNext reports whether rows remain after the current window.
func (s *State) CanNext(total int) bool {
	return s.Offset+s.Limit < total
}

// CanPrev reports whether the window is past the first row.
func (s *State) CanPrev() bool {
	return s.Offset > 0
}

// Window returns the 1-based first and last row shown for total rows.
func (s *State) Window(total int) (from, to int) {
	return min(s.Offset+1, total), min(s.Offset+s.Limit, total)
}

// HasActiveFilters reports whether any filter or sort is set.
func (s *State) HasActiveFilters() bool {
	return s.Query != "" || s.PriceMin != nil || s.PriceMax != nil ||
		s.Availability != models.AvailabilityAny || s.Sort != models.SortNone
}

// Clear drops filters and sort and rewinds, keeping page size and bucket width.
func (s *State) Clear() {
	s.Query = ""
	s.PriceMin = nil
	s.PriceMax = nil
	s.Availability = models.AvailabilityAny
	s.Sort = models.SortNone
	s.Offset = 0
}

// Params builds the /books query. Unset optional values are omitted.
func (s *State) Params() url.Values {
	v := url.Values{}
	v.Set(KeyLimit, strconv.Itoa(s.Limit))
	v.Set(KeyOffset, strconv.Itoa(s.Offset))
	if s.Query != "" {
		v.Set(KeyQuery, s.Query)
	}
	if s.PriceMin != nil {
		v.Set(KeyPriceMin, formatFloat(*s.PriceMin))
	}
	if s.PriceMax != nil {
		v.Set(KeyPriceMax, formatFloat(*s.PriceMax))
	}
	if s.Availability != models.AvailabilityAny {
		v.Set(KeyAvailability, string(s.Availability))
	}
	if s.Sort != models.SortNone {
		v.Set(KeySort, string(s.Sort))
	}
	return v
}

// Codec converts between State and its link form.
type Codec struct {
	DefaultLimit      int
	DefaultBucketSize float64
}

// NewCodec returns a codec with the given bucket default and the standard page size.
func NewCodec(bucketSize float64) Codec {
	if bucketSize <= 0 {
		bucketSize = DefaultBucketSize
	}
	return Codec{DefaultLimit: DefaultLimit, DefaultBucketSize: bucketSize}
}

// Default returns the state of an empty link.
func (c Codec) Default() State {
	return State{Limit: c.limit(), BucketSize: c.bucket()}
}

// Encode renders s as a query string. Default values are omitted and keys are sorted.
func (c Codec) Encode(s State) string {
	v := s.Params()
	if s.Limit == c.limit() {
		v.Del(KeyLimit)
	}
	if s.Offset == 0 {
		v.Del(KeyOffset)
	}
	if s.BucketSize > 0 && s.BucketSize != c.bucket() {
		v.Set(KeyBucketSize, formatFloat(s.BucketSize))
	}
	return v.Encode()
}

// Decode parses a bare query string, "?query" or a full URL.
// Malformed values fall back to their defaults.
func (c Codec) Decode(link string) State {
	s := c.Default()

	raw := strings.TrimSpace(link)
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	if before, after, ok := strings.Cut(raw, "?"); ok {
		raw = after
	} else if strings.Contains(before, "://") {
		return s
	}

	v, err := url.ParseQuery(raw)
	if err != nil && len(v) == 0 {
		return s
	}

	s.Query = v.Get(KeyQuery)
	s.PriceMin = parseNumber(v.Get(KeyPriceMin))
	s.PriceMax = parseNumber(v.Get(KeyPriceMax))

	switch a := models.Availability(v.Get(KeyAvailability)); a {
	case models.AvailabilityInStock, models.AvailabilityOutOfStock:
		s.Availability = a
	}

	if k := models.SortKey(v.Get(KeySort)); k.Valid() {
		s.Sort = k
	}

	if n, err := strconv.Atoi(v.Get(KeyLimit)); err == nil && n >= 1 {
		s.Limit = n
	}
	if n, err := strconv.Atoi(v.Get(KeyOffset)); err == nil && n >= 0 {
		s.Offset = n
	}
	if b := parseNumber(v.Get(KeyBucketSize)); b != nil && *b > 0 {
		s.BucketSize = *b
	}

	return s
}

func (c Codec) limit() int {
	if c.DefaultLimit < 1 {
		return DefaultLimit
	}
	return c.DefaultLimit
}

func (c Codec) bucket() float64 {
	if c.DefaultBucketSize <= 0 {
		return DefaultBucketSize
	}
	return c.DefaultBucketSize
}

// parseNumber returns nil for empty, malformed or non-finite input.
func parseNumber(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// ParsePrice parses a price bound typed by the user.
func ParsePrice(raw string) *float64 {
	p := parseNumber(strings.TrimPrefix(strings.TrimSpace(raw), "£"))
	if p == nil || *p < 0 {
		return nil
	}
	return p
}

// FormatPrice renders a price bound for editing; nil renders empty.
func FormatPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return formatFloat(*p)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func nextInt(values []int, cur int) int {
	for i, v := range values {
		if v == cur {
			return values[(i+1)%len(values)]
		}
	}
	for _, v := range values {
		if v > cur {
			return v
		}
	}
	return values[0]
}

func stepFloat(values []float64, cur float64, dir int) float64 {
	n := len(values)
	for i, v := range values {
		if v == cur {
			if dir < 0 {
				return values[(i-1+n)%n]
			}
			return values[(i+1)%n]
		}
	}
	if dir < 0 {
		for i := n - 1; i >= 0; i-- {
			if values[i] < cur {
				return values[i]
			}
		}
		return values[n-1]
	}
	for _, v := range values {
		if v > cur {
			return v
		}
	}
	return values[0]
}
