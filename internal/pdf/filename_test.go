package pdf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dawaam/internal/domain/timesheet"
)

func TestFilenameFromPeriodStart(t *testing.T) {
	sheet := timesheet.Timesheet{
		FirstName:   "Amina",
		LastName:    "Haddad",
		PeriodStart: time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
		PeriodText:  "Week of 3/3/2025",
	}
	got := Filename(sheet, time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "March_2025_Amina_Haddad_Timesheet.pdf", got)
}

func TestFilenameLegacyPeriodText(t *testing.T) {
	now := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		periodText string
		want       string
	}{
		{"week of format", "Week of 1/6/2025", "January_2025_Amina_Haddad_Timesheet.pdf"},
		{"month format", "March 2025", "March_2025_Amina_Haddad_Timesheet.pdf"},
		{"unparseable falls back to now", "Q1 2025", "September_2026_Amina_Haddad_Timesheet.pdf"},
		{"empty falls back to now", "", "September_2026_Amina_Haddad_Timesheet.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet := timesheet.Timesheet{
				FirstName:  "Amina",
				LastName:   "Haddad",
				PeriodText: tt.periodText,
			}
			assert.Equal(t, tt.want, Filename(sheet, now))
		})
	}
}

func TestFilenameSanitizesNames(t *testing.T) {
	sheet := timesheet.Timesheet{
		FirstName:   "Mary Jane",
		LastName:    "",
		PeriodStart: time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
	}
	got := Filename(sheet, time.Now())
	assert.Equal(t, "July_2025_MaryJane_Unknown_Timesheet.pdf", got)
}
