package catalog

import (
	"strings"
	"time"
)

// monthNames is the closed, order-preserving table from calendar month
// number to the canonical lowercase token used everywhere in the system.
var monthNames = [12]string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// fallbackMonth is returned for out-of-range month numbers. Callers must
// not be able to crash the resolver with bad input.
const fallbackMonth = "january"

// CurrentMonth describes "now" as the catalog sees it.
type CurrentMonth struct {
	Year        int    `json:"year"`
	Month       string `json:"month"`
	MonthNumber int    `json:"month_number"`
}

// MonthResolver maps dates to canonical month tokens. The clock is a
// field so tests can pin the invocation instant.
type MonthResolver struct {
	now func() time.Time
}

// NewMonthResolver returns a resolver on the system clock.
func NewMonthResolver() *MonthResolver {
	return &MonthResolver{now: time.Now}
}

// NewMonthResolverWithClock returns a resolver on an arbitrary clock.
func NewMonthResolverWithClock(now func() time.Time) *MonthResolver {
	return &MonthResolver{now: now}
}

// CanonicalMonth returns the token for a 1-based month number, or the
// fallback token when n is out of range.
func (r *MonthResolver) CanonicalMonth(n int) string {
	if n < 1 || n > 12 {
		return fallbackMonth
	}
	return monthNames[n-1]
}

// Current reports the year, month token and month number at this instant.
func (r *MonthResolver) Current() CurrentMonth {
	t := r.now()
	return CurrentMonth{
		Year:        t.Year(),
		Month:       r.CanonicalMonth(int(t.Month())),
		MonthNumber: int(t.Month()),
	}
}

// IsCurrent reports whether (year, month) equals Current(). Composite
// folder tokens like "12-december" are decomposed first; canonical
// tokens never carry an ordinal prefix.
func (r *MonthResolver) IsCurrent(year int, month string) bool {
	cur := r.Current()
	return year == cur.Year && BareMonth(month) == cur.Month
}

// BareMonth strips the ordinal prefix from a composite month token:
// "12-december" becomes "december". Tokens without a dash pass through.
func BareMonth(month string) string {
	if i := strings.Index(month, "-"); i >= 0 {
		return month[i+1:]
	}
	return month
}
