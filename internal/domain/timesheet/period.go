package timesheet

import (
	"fmt"
	"time"
)

// PeriodDays expands a period descriptor into its calendar days: seven
// consecutive days from the anchor for weekly sheets, every day of the
// anchor's month for monthly sheets.
func PeriodDays(periodType string, anchor time.Time) ([]time.Time, error) {
	if anchor.IsZero() {
		return nil, ErrInvalidPeriod
	}
	anchor = time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)

	switch periodType {
	case PeriodWeekly:
		days := make([]time.Time, 7)
		for i := range days {
			days[i] = anchor.AddDate(0, 0, i)
		}
		return days, nil
	case PeriodMonthly:
		first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
		count := first.AddDate(0, 1, -1).Day()
		days := make([]time.Time, count)
		for i := range days {
			days[i] = first.AddDate(0, 0, i)
		}
		return days, nil
	default:
		return nil, ErrInvalidPeriod
	}
}

// PeriodText renders the human-readable period label. The two formats are
// stable: downstream filename derivation for legacy records parses them.
func PeriodText(periodType string, anchor time.Time) (string, error) {
	if anchor.IsZero() {
		return "", ErrInvalidPeriod
	}
	switch periodType {
	case PeriodWeekly:
		return fmt.Sprintf("Week of %d/%d/%d", int(anchor.Month()), anchor.Day(), anchor.Year()), nil
	case PeriodMonthly:
		return anchor.Format("January 2006"), nil
	default:
		return "", ErrInvalidPeriod
	}
}

// NormalizeAnchor returns the canonical period start: the anchor day itself
// for weekly sheets, the first of the month for monthly sheets.
func NormalizeAnchor(periodType string, anchor time.Time) time.Time {
	anchor = time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)
	if periodType == PeriodMonthly {
		return time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return anchor
}
