package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock(year int, month time.Month) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, 15, 12, 0, 0, 0, time.UTC)
	}
}

func TestMonthResolver_CanonicalMonth_Totality(t *testing.T) {
	r := NewMonthResolver()

	seen := make(map[string]bool)
	for n := 1; n <= 12; n++ {
		token := r.CanonicalMonth(n)
		assert.NotEmpty(t, token, "month %d has no token", n)
		assert.False(t, seen[token], "token %q returned for more than one month", token)
		seen[token] = true
	}

	for _, n := range []int{0, -1, 13, 99} {
		assert.Equal(t, "january", r.CanonicalMonth(n), "out-of-range %d must fall back", n)
	}
}

func TestMonthResolver_Current(t *testing.T) {
	r := NewMonthResolverWithClock(fixedClock(2025, time.November))

	cur := r.Current()
	assert.Equal(t, 2025, cur.Year)
	assert.Equal(t, "november", cur.Month)
	assert.Equal(t, 11, cur.MonthNumber)
}

func TestMonthResolver_IsCurrent(t *testing.T) {
	r := NewMonthResolverWithClock(fixedClock(2025, time.November))

	assert.True(t, r.IsCurrent(2025, "november"))
	assert.True(t, r.IsCurrent(2025, "11-november"), "composite tokens are decomposed before comparison")
	assert.False(t, r.IsCurrent(2025, "december"))
	assert.False(t, r.IsCurrent(2024, "november"), "same month of another year is not current")
}

func TestBareMonth(t *testing.T) {
	assert.Equal(t, "december", BareMonth("12-december"))
	assert.Equal(t, "december", BareMonth("december"))
	assert.Equal(t, "", BareMonth(""))
}
