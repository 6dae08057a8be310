package reports

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"dawaam/internal/domain/timesheet"
)

// TimesheetWorkbook builds the admin report: a per-contractor summary
// sheet plus one row per timesheet.
func TimesheetWorkbook(sheets []timesheet.Timesheet, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"213555"}},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeSummarySheet(f, sheets, headerStyle, generatedAt); err != nil {
		return nil, err
	}
	if err := writeDetailSheet(f, sheets, headerStyle); err != nil {
		return nil, err
	}
	// excelize creates "Sheet1" by default; Summary replaced it.
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

type contractorTotals struct {
	name     string
	email    string
	hours    float64
	days     int
	pending  int
	approved int
	rejected int
}

func writeSummarySheet(f *excelize.File, sheets []timesheet.Timesheet, headerStyle int, generatedAt time.Time) error {
	const name = "Summary"
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return err
	}

	byEmail := make(map[string]*contractorTotals)
	for _, ts := range sheets {
		t := byEmail[ts.ContractorEmail]
		if t == nil {
			t = &contractorTotals{
				name:  ts.FirstName + " " + ts.LastName,
				email: ts.ContractorEmail,
			}
			byEmail[ts.ContractorEmail] = t
		}
		t.hours += ts.TotalHours
		t.days += ts.TotalDays
		switch ts.Status {
		case timesheet.StatusPending:
			t.pending++
		case timesheet.StatusApproved:
			t.approved++
		case timesheet.StatusRejected:
			t.rejected++
		}
	}

	emails := make([]string, 0, len(byEmail))
	for email := range byEmail {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	headers := []string{"Contractor", "Email", "Total Hours", "Days Worked", "Pending", "Approved", "Rejected"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(name, cell, h); err != nil {
			return err
		}
	}
	endHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(name, "A1", endHeader, headerStyle); err != nil {
		return err
	}

	for i, email := range emails {
		t := byEmail[email]
		row := i + 2
		values := []any{t.name, t.email, t.hours, t.days, t.pending, t.approved, t.rejected}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(name, cell, v); err != nil {
				return err
			}
		}
	}

	footer, _ := excelize.CoordinatesToCellName(1, len(emails)+3)
	return f.SetCellValue(name, footer, "Generated "+generatedAt.Format("2 Jan 2006 15:04 MST"))
}

func writeDetailSheet(f *excelize.File, sheets []timesheet.Timesheet, headerStyle int) error {
	const name = "Timesheets"
	if _, err := f.NewSheet(name); err != nil {
		return err
	}

	headers := []string{"ID", "Contractor", "Email", "Company", "Period", "Rate", "Total Hours", "Days Worked", "Status", "Approver", "Submitted"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(name, cell, h); err != nil {
			return err
		}
	}
	endHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(name, "A1", endHeader, headerStyle); err != nil {
		return err
	}

	for i, ts := range sheets {
		values := []any{
			ts.ID,
			ts.FirstName + " " + ts.LastName,
			ts.ContractorEmail,
			ts.Company,
			ts.PeriodText,
			ts.RateType,
			ts.TotalHours,
			ts.TotalDays,
			ts.Status,
			ts.ApproverName,
			ts.CreatedAt.Format("2006-01-02"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(name, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}
