package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	Q1 Quarter = "Q1" // Jul-Sep
	Q2 Quarter = "Q2" // Oct-Dec
	Q3 Quarter = "Q3" // Jan-Mar
	Q4 Quarter = "Q4" // Apr-Jun
)

// Quarter is one of the four BAS quarters of an Australian financial year.
type Quarter string

// DateRange is an inclusive calendar date range.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether d falls within the range, inclusive of both ends.
func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// ParseQuarter normalizes a quarter string to uppercase and validates it.
func ParseQuarter(s string) (Quarter, error) {
	switch Quarter(strings.ToUpper(strings.TrimSpace(s))) {
	case Q1:
		return Q1, nil
	case Q2:
		return Q2, nil
	case Q3:
		return Q3, nil
	case Q4:
		return Q4, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidQuarter, s)
	}
}

// FinancialYearOf returns the financial year a date belongs to. The
// Australian financial year runs 1 July to 30 June and is named for the
// calendar year in which it ends, so July onwards maps to the next year.
func FinancialYearOf(d time.Time) int {
	if d.Month() >= time.July {
		return d.Year() + 1
	}
	return d.Year()
}

// QuarterOf returns the BAS quarter a date falls in.
func QuarterOf(d time.Time) Quarter {
	switch d.Month() {
	case time.July, time.August, time.September:
		return Q1
	case time.October, time.November, time.December:
		return Q2
	case time.January, time.February, time.March:
		return Q3
	default:
		return Q4
	}
}

// QuarterRange returns the inclusive date range of a quarter within a
// financial year. Q1 and Q2 fall in calendar year financialYear-1; Q3 and Q4
// in financialYear itself.
func QuarterRange(q Quarter, financialYear int) (DateRange, error) {
	switch q {
	case Q1:
		return DateRange{
			Start: time.Date(financialYear-1, time.July, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(financialYear-1, time.September, 30, 0, 0, 0, 0, time.UTC),
		}, nil
	case Q2:
		return DateRange{
			Start: time.Date(financialYear-1, time.October, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(financialYear-1, time.December, 31, 0, 0, 0, 0, time.UTC),
		}, nil
	case Q3:
		return DateRange{
			Start: time.Date(financialYear, time.January, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(financialYear, time.March, 31, 0, 0, 0, 0, time.UTC),
		}, nil
	case Q4:
		return DateRange{
			Start: time.Date(financialYear, time.April, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(financialYear, time.June, 30, 0, 0, 0, 0, time.UTC),
		}, nil
	default:
		return DateRange{}, fmt.Errorf("%w: %q", ErrInvalidQuarter, string(q))
	}
}

// FYRange returns the inclusive date range of a full financial year:
// 1 July of financialYear-1 through 30 June of financialYear.
func FYRange(financialYear int) DateRange {
	return DateRange{
		Start: time.Date(financialYear-1, time.July, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(financialYear, time.June, 30, 0, 0, 0, 0, time.UTC),
	}
}

// FYLabel formats a financial year as its conventional label, e.g. 2026
// becomes "2025-26".
func FYLabel(financialYear int) string {
	return fmt.Sprintf("%d-%02d", financialYear-1, financialYear%100)
}

// ContainedIn reports whether a date falls in the given quarter of the given
// financial year.
func ContainedIn(d time.Time, q Quarter, financialYear int) bool {
	r, err := QuarterRange(q, financialYear)
	if err != nil {
		return false
	}
	return r.Contains(d)
}
