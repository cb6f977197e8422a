package statistics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestPeriod_ClosedRanges(t *testing.T) {
	t.Run("daily", func(t *testing.T) {
		p := Daily(time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC))
		assert.True(t, p.Contains(day("2024-03-15")))
		assert.False(t, p.Contains(day("2024-03-14")))
		assert.False(t, p.Contains(day("2024-03-16")))
	})

	t.Run("monthly includes first and last day", func(t *testing.T) {
		p := Monthly(2024, time.February)
		from, to := p.Bounds()
		assert.Equal(t, "2024-02-01", from)
		assert.Equal(t, "2024-02-29", to)
		assert.True(t, p.Contains(day("2024-02-01")))
		assert.True(t, p.Contains(day("2024-02-29")))
		assert.False(t, p.Contains(day("2024-03-01")))
		assert.False(t, p.Contains(day("2024-01-31")))
	})

	t.Run("yearly", func(t *testing.T) {
		p := Yearly(2023)
		assert.True(t, p.Contains(day("2023-01-01")))
		assert.True(t, p.Contains(day("2023-12-31")))
		assert.False(t, p.Contains(day("2024-01-01")))
	})
}

func TestPeriod_Previous(t *testing.T) {
	assert.Equal(t, Monthly(2023, time.December), Monthly(2024, time.January).Previous())
	assert.Equal(t, Yearly(2022), Yearly(2023).Previous())
	assert.Equal(t, Daily(day("2024-02-29")), Daily(day("2024-03-01")).Previous())
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("monthly", "", 2024, 5)
	require.NoError(t, err)
	assert.Equal(t, Monthly(2024, time.May), p)

	p, err = ParsePeriod("daily", "2024-05-07", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, GranularityDaily, p.Granularity)

	for _, tc := range []struct {
		name        string
		kind, date  string
		year, month int
	}{
		{"unknown kind", "weekly", "", 2024, 1},
		{"bad date", "daily", "2024/05/07", 0, 0},
		{"month out of range", "monthly", "", 2024, 13},
		{"missing year", "yearly", "", 0, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePeriod(tc.kind, tc.date, tc.year, tc.month)
			assert.ErrorIs(t, err, ErrInvalidPeriod)
		})
	}
}
