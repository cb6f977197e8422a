package statistics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"telecom-erp-backend/internal/settlement"
)

type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityMonthly Granularity = "monthly"
	GranularityYearly  Granularity = "yearly"
)

var ErrInvalidPeriod = errors.New("invalid period")

// Period is a closed calendar range. From and To are dates at midnight UTC
// and both are inside the period.
type Period struct {
	Granularity Granularity
	From        time.Time
	To          time.Time
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Daily is the single day containing date.
func Daily(date time.Time) Period {
	d := dateOf(date)
	return Period{Granularity: GranularityDaily, From: d, To: d}
}

// Monthly spans the first through the last calendar day of the month.
func Monthly(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{Granularity: GranularityMonthly, From: start, To: start.AddDate(0, 1, -1)}
}

// Yearly spans Jan 1 through Dec 31.
func Yearly(year int) Period {
	return Period{
		Granularity: GranularityYearly,
		From:        time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:          time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

// ParsePeriod builds a period from request parameters. date is used for
// daily periods, year and month for the others.
func ParsePeriod(kind, date string, year, month int) (Period, error) {
	switch Granularity(kind) {
	case GranularityDaily:
		d, err := settlement.ParseSaleDate(date)
		if err != nil {
			return Period{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidPeriod)
		}
		return Daily(d), nil
	case GranularityMonthly:
		if year < 1 || month < 1 || month > 12 {
			return Period{}, fmt.Errorf("%w: year and month (1-12) are required", ErrInvalidPeriod)
		}
		return Monthly(year, time.Month(month)), nil
	case GranularityYearly:
		if year < 1 {
			return Period{}, fmt.Errorf("%w: year is required", ErrInvalidPeriod)
		}
		return Yearly(year), nil
	default:
		return Period{}, fmt.Errorf("%w: unknown period %q", ErrInvalidPeriod, kind)
	}
}

// Contains reports whether the calendar day of t lies in the period.
func (p Period) Contains(t time.Time) bool {
	d := dateOf(t)
	return !d.Before(p.From) && !d.After(p.To)
}

// containsText reports whether an unparseable sale date falls inside the
// period by text order, the same comparison the repositories run on the
// sale_date column. An undated record is thus skipped only in the period
// it was loaded for.
func (p Period) containsText(date string) bool {
	date = strings.TrimSpace(date)
	return date >= p.From.Format(settlement.DateLayout) && date <= p.To.Format(settlement.DateLayout)
}

// Previous is the period of the same granularity right before p.
func (p Period) Previous() Period {
	switch p.Granularity {
	case GranularityMonthly:
		prev := p.From.AddDate(0, -1, 0)
		return Monthly(prev.Year(), prev.Month())
	case GranularityYearly:
		return Yearly(p.From.Year() - 1)
	default:
		return Daily(p.From.AddDate(0, 0, -1))
	}
}

// Bounds returns From and To as YYYY-MM-DD, the format sale dates are
// stored in. Lexical comparison on that format matches date order.
func (p Period) Bounds() (from, to string) {
	return p.From.Format(settlement.DateLayout), p.To.Format(settlement.DateLayout)
}

func (p Period) String() string {
	from, to := p.Bounds()
	return fmt.Sprintf("%s[%s..%s]", p.Granularity, from, to)
}
