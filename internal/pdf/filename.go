package pdf

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"dawaam/internal/domain/timesheet"
)

var weekOfPattern = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)

// Filename derives the download name for a timesheet document:
// {Month}_{Year}_{FirstName}_{LastName}_Timesheet.pdf.
// The structured period start is authoritative; the legacy period text
// formats ("Week of M/D/YYYY", "January 2006") are parsed only for records
// that predate the structured field, falling back to the current date.
func Filename(sheet timesheet.Timesheet, now time.Time) string {
	date := sheet.PeriodStart
	if date.IsZero() {
		parsed, ok := parseLegacyPeriodText(sheet.PeriodText)
		if ok {
			date = parsed
		} else {
			date = now
		}
	}

	return fmt.Sprintf("%s_%d_%s_%s_Timesheet.pdf",
		date.Format("January"),
		date.Year(),
		sanitizeNamePart(sheet.FirstName),
		sanitizeNamePart(sheet.LastName),
	)
}

func parseLegacyPeriodText(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	if match := weekOfPattern.FindStringSubmatch(text); match != nil {
		month, _ := strconv.Atoi(match[1])
		day, _ := strconv.Atoi(match[2])
		year, _ := strconv.Atoi(match[3])
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return time.Time{}, false
		}
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
	}

	if parsed, err := time.Parse("January 2006", text); err == nil {
		return parsed, true
	}
	return time.Time{}, false
}

func sanitizeNamePart(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Unknown"
	}
	return strings.ReplaceAll(name, " ", "")
}
