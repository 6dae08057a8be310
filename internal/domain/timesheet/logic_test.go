package timesheet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTotals(t *testing.T) {
	tests := []struct {
		name      string
		entries   []Entry
		wantHours float64
		wantDays  int
	}{
		{
			name:      "empty",
			entries:   nil,
			wantHours: 0,
			wantDays:  0,
		},
		{
			name: "standard week with weekend off",
			entries: []Entry{
				{Hours: 8}, {Hours: 8}, {Hours: 8}, {Hours: 8}, {Hours: 8},
				{Hours: 0}, {Hours: 0},
			},
			wantHours: 40,
			wantDays:  5,
		},
		{
			name:      "fractional hours",
			entries:   []Entry{{Hours: 7.5}, {Hours: 0.25}},
			wantHours: 7.75,
			wantDays:  2,
		},
		{
			name:      "zero hour day is not a worked day",
			entries:   []Entry{{Hours: 0}, {Hours: 4}},
			wantHours: 4,
			wantDays:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hours, days := Totals(tt.entries)
			assert.InDelta(t, tt.wantHours, hours, 0.001)
			assert.Equal(t, tt.wantDays, days)
		})
	}
}

func TestBuildEntriesZeroFillsWeek(t *testing.T) {
	anchor := date(2025, time.January, 6) // Monday
	entries, err := BuildEntries(PeriodWeekly, anchor, []DayInput{
		{Date: date(2025, time.January, 6), Hours: 8},
		{Date: date(2025, time.January, 8), Hours: 6.5, Description: "site visit"},
	})
	require.NoError(t, err)
	require.Len(t, entries, 7)

	assert.Equal(t, 8.0, entries[0].Hours)
	assert.Equal(t, 0.0, entries[1].Hours)
	assert.Equal(t, 6.5, entries[2].Hours)
	assert.Equal(t, "site visit", entries[2].Description)
	for i, entry := range entries {
		assert.Equal(t, anchor.AddDate(0, 0, i), entry.Date)
	}
}

func TestBuildEntriesMonthly(t *testing.T) {
	entries, err := BuildEntries(PeriodMonthly, date(2025, time.February, 1), nil)
	require.NoError(t, err)
	assert.Len(t, entries, 28)

	entries, err = BuildEntries(PeriodMonthly, date(2024, time.February, 10), nil)
	require.NoError(t, err)
	assert.Len(t, entries, 29)
}

func TestBuildEntriesRejectsBadInput(t *testing.T) {
	anchor := date(2025, time.January, 6)

	tests := []struct {
		name string
		days []DayInput
	}{
		{
			name: "negative hours",
			days: []DayInput{{Date: anchor, Hours: -1}},
		},
		{
			name: "duplicate day",
			days: []DayInput{{Date: anchor, Hours: 4}, {Date: anchor, Hours: 4}},
		},
		{
			name: "day outside period",
			days: []DayInput{{Date: anchor.AddDate(0, 0, 10), Hours: 8}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildEntries(PeriodWeekly, anchor, tt.days)
			assert.ErrorIs(t, err, ErrInvalidEntries)
		})
	}
}

func TestBuildEntriesInvalidPeriod(t *testing.T) {
	_, err := BuildEntries("fortnightly", date(2025, time.January, 6), nil)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = BuildEntries(PeriodWeekly, time.Time{}, nil)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}
