package valueobject

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, start, end time.Time) DateRange {
	t.Helper()
	r, err := NewDateRange(start, end)
	require.NoError(t, err)
	return r
}

func TestNewDateRange(t *testing.T) {
	t.Run("start equal to end is allowed", func(t *testing.T) {
		r, err := NewDateRange(day(10), day(10))
		require.NoError(t, err)
		assert.Equal(t, 1, r.Days())
	})

	t.Run("end before start is rejected", func(t *testing.T) {
		_, err := NewDateRange(day(10), day(9))
		assert.Error(t, err)
	})

	t.Run("time component is truncated", func(t *testing.T) {
		r, err := NewDateRange(
			time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC),
			time.Date(2026, 3, 12, 0, 1, 0, 0, time.UTC),
		)
		require.NoError(t, err)
		assert.Equal(t, day(10), r.Start())
		assert.Equal(t, 3, r.Days())
	})
}

func TestNewStrictDateRange(t *testing.T) {
	_, err := NewStrictDateRange(day(10), day(10))
	assert.Error(t, err)

	r, err := NewStrictDateRange(day(10), day(11))
	require.NoError(t, err)
	assert.Equal(t, 2, r.Days())
}

func TestDateRange_Contains(t *testing.T) {
	r := mustRange(t, day(10), day(15))

	assert.True(t, r.Contains(day(10)))
	assert.True(t, r.Contains(day(15)))
	assert.True(t, r.Contains(day(12)))
	assert.False(t, r.Contains(day(9)))
	assert.False(t, r.Contains(day(16)))
}

func TestDateRange_Overlaps(t *testing.T) {
	tests := []struct {
		name   string
		a, b   DateRange
		expect bool
	}{
		{"disjoint before", mustRange(t, day(1), day(5)), mustRange(t, day(6), day(10)), false},
		{"disjoint after", mustRange(t, day(6), day(10)), mustRange(t, day(1), day(5)), false},
		{"touching at the boundary day", mustRange(t, day(1), day(5)), mustRange(t, day(5), day(10)), true},
		{"partial overlap", mustRange(t, day(1), day(7)), mustRange(t, day(5), day(10)), true},
		{"fully contained", mustRange(t, day(1), day(10)), mustRange(t, day(4), day(6)), true},
		{"identical", mustRange(t, day(3), day(8)), mustRange(t, day(3), day(8)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.expect, tt.b.Overlaps(tt.a))
		})
	}
}
