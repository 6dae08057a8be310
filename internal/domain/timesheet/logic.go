package timesheet

import (
	"fmt"
	"time"
)

// BuildEntries expands the submitted per-day rows over the full period.
// Every day of the period yields exactly one entry; days without a submitted
// row are zero-filled. A row dated outside the period is rejected.
func BuildEntries(periodType string, anchor time.Time, days []DayInput) ([]Entry, error) {
	periodDays, err := PeriodDays(periodType, anchor)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]DayInput, len(days))
	for _, day := range days {
		if day.Hours < 0 {
			return nil, fmt.Errorf("%w: negative hours on %s", ErrInvalidEntries, day.Date.Format("2006-01-02"))
		}
		key := dateKey(day.Date)
		if _, dup := byDate[key]; dup {
			return nil, fmt.Errorf("%w: duplicate entry for %s", ErrInvalidEntries, key)
		}
		byDate[key] = day
	}

	entries := make([]Entry, 0, len(periodDays))
	for _, date := range periodDays {
		key := dateKey(date)
		day, ok := byDate[key]
		if ok {
			delete(byDate, key)
		}
		entries = append(entries, Entry{
			Date:        date,
			Hours:       day.Hours,
			StartTime:   day.StartTime,
			EndTime:     day.EndTime,
			Description: day.Description,
			Location:    day.Location,
		})
	}

	for key := range byDate {
		return nil, fmt.Errorf("%w: entry %s is outside the period", ErrInvalidEntries, key)
	}
	return entries, nil
}

// Totals recomputes the sheet aggregates from its entries. A zero-hour day is
// a valid entry but does not count as a worked day.
func Totals(entries []Entry) (totalHours float64, totalDays int) {
	for _, entry := range entries {
		totalHours += entry.Hours
		if entry.Hours > 0 {
			totalDays++
		}
	}
	return totalHours, totalDays
}

func dateKey(date time.Time) string {
	return date.Format("2006-01-02")
}
