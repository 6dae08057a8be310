package pdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	_ "image/jpeg"
	_ "image/png"

	"github.com/jung-kurt/gofpdf"

	"dawaam/internal/domain/timesheet"
)

// Variant selects the daily breakdown rendering.
type Variant string

const (
	// VariantCalendar draws a fixed 7-column month/week grid.
	VariantCalendar Variant = "calendar"
	// VariantTable draws one row per entry with shaded alternating rows.
	VariantTable Variant = "table"
)

func ParseVariant(raw string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(VariantCalendar):
		return VariantCalendar, nil
	case string(VariantTable), "tabular":
		return VariantTable, nil
	default:
		return "", fmt.Errorf("unknown pdf variant %q", raw)
	}
}

const (
	pageLeft     = 15.0
	pageRight    = 195.0
	contentWidth = pageRight - pageLeft
	pageBreakY   = 266.0
)

// Render produces the timesheet document. It is a pure function of the sheet
// and the passed generation time; it never touches the network or storage.
func Render(sheet timesheet.Timesheet, variant Variant, generatedAt time.Time) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(pageLeft, 12, 210-pageRight)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()

	renderHeader(doc, generatedAt)
	renderContractorDetails(doc, sheet)
	renderPeriodDetails(doc, sheet)
	renderSummary(doc, sheet)

	switch variant {
	case VariantTable:
		renderEntryTable(doc, sheet.Entries)
	default:
		renderCalendarGrid(doc, sheet.Entries)
	}

	renderWorkDescription(doc, sheet.WorkDescription)
	renderSignatures(doc, sheet)
	renderFooter(doc, generatedAt)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderHeader(doc *gofpdf.Fpdf, generatedAt time.Time) {
	doc.SetFont("Helvetica", "B", 20)
	doc.SetTextColor(33, 53, 85)
	doc.CellFormat(contentWidth, 10, "TIMESHEET", "", 1, "C", false, 0, "")

	doc.SetFont("Helvetica", "", 11)
	doc.SetTextColor(90, 90, 90)
	doc.CellFormat(contentWidth, 6, "Dawaam HR Services", "", 1, "C", false, 0, "")

	doc.SetFont("Helvetica", "I", 8)
	doc.CellFormat(contentWidth, 5, "Generated "+generatedAt.Format("Jan 2, 2006 15:04 MST"), "", 1, "C", false, 0, "")

	doc.SetDrawColor(33, 53, 85)
	doc.SetLineWidth(0.6)
	y := doc.GetY() + 2
	doc.Line(pageLeft, y, pageRight, y)
	doc.SetY(y + 4)
	doc.SetTextColor(0, 0, 0)
	doc.SetLineWidth(0.2)
}

func renderContractorDetails(doc *gofpdf.Fpdf, sheet timesheet.Timesheet) {
	sectionTitle(doc, "Contractor / Employee Details")
	keyValueRow(doc, "Name", sheet.FirstName+" "+sheet.LastName, "Company", sheet.Company)
	keyValueRow(doc, "Department", sheet.Department, "Job Title", sheet.JobTitle)
	doc.Ln(2)
}

func renderPeriodDetails(doc *gofpdf.Fpdf, sheet timesheet.Timesheet) {
	sectionTitle(doc, "Period Details")
	keyValueRow(doc, "Period", sheet.PeriodText, "Rate Type", capitalize(sheet.RateType))
	keyValueRow(doc, "Work Location", sheet.WorkLocation, "Supervisor", sheet.SupervisorName)
	doc.Ln(2)
}

func renderSummary(doc *gofpdf.Fpdf, sheet timesheet.Timesheet) {
	y := doc.GetY()
	doc.SetFillColor(238, 242, 247)
	doc.SetDrawColor(180, 190, 205)
	doc.Rect(pageLeft, y, contentWidth, 16, "FD")

	colWidth := contentWidth / 3
	cells := []struct {
		label string
		value string
	}{
		{"Total Days Worked", strconv.Itoa(sheet.TotalDays)},
		{"Total Hours", FormatHours(sheet.TotalHours)},
		{"Avg Hours / Day", FormatAverage(sheet.TotalHours, sheet.TotalDays)},
	}
	for i, cell := range cells {
		x := pageLeft + float64(i)*colWidth
		doc.SetXY(x, y+2)
		doc.SetFont("Helvetica", "", 8)
		doc.SetTextColor(90, 90, 90)
		doc.CellFormat(colWidth, 5, cell.label, "", 0, "C", false, 0, "")
		doc.SetXY(x, y+7)
		doc.SetFont("Helvetica", "B", 13)
		doc.SetTextColor(33, 53, 85)
		doc.CellFormat(colWidth, 7, cell.value, "", 0, "C", false, 0, "")
	}
	doc.SetTextColor(0, 0, 0)
	doc.SetY(y + 20)
}

// FormatAverage renders average hours per worked day, guarding the zero-day
// case with a literal "0".
func FormatAverage(totalHours float64, totalDays int) string {
	if totalDays == 0 {
		return "0"
	}
	return FormatHours(totalHours / float64(totalDays))
}

func FormatHours(hours float64) string {
	return strconv.FormatFloat(math.Round(hours*100)/100, 'f', -1, 64)
}

func renderCalendarGrid(doc *gofpdf.Fpdf, entries []timesheet.Entry) {
	sectionTitle(doc, "Daily Breakdown")

	cellWidth := contentWidth / 7
	headerNames := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

	doc.SetFont("Helvetica", "B", 8)
	doc.SetFillColor(33, 53, 85)
	doc.SetTextColor(255, 255, 255)
	for _, name := range headerNames {
		doc.CellFormat(cellWidth, 6, name, "1", 0, "C", true, 0, "")
	}
	doc.Ln(-1)
	doc.SetTextColor(0, 0, 0)

	rowCount := int(math.Ceil(float64(len(entries)) / 7))
	const cellHeight = 15.0
	for row := 0; row < rowCount; row++ {
		ensureSpace(doc, cellHeight)
		top := doc.GetY()
		for col := 0; col < 7; col++ {
			index := row*7 + col
			x := pageLeft + float64(col)*cellWidth
			doc.SetDrawColor(180, 190, 205)
			doc.Rect(x, top, cellWidth, cellHeight, "D")
			if index >= len(entries) {
				continue
			}
			entry := entries[index]
			worked := entry.Hours > 0

			doc.SetXY(x+1.5, top+1.5)
			doc.SetFont("Helvetica", "B", 9)
			doc.CellFormat(cellWidth-3, 4, strconv.Itoa(entry.Date.Day()), "", 0, "L", false, 0, "")

			doc.SetXY(x+1.5, top+5.5)
			doc.SetFont("Helvetica", "", 7)
			doc.SetTextColor(120, 120, 120)
			doc.CellFormat(cellWidth-3, 3.5, entry.Date.Format("Mon"), "", 0, "L", false, 0, "")
			doc.SetTextColor(0, 0, 0)

			if worked {
				doc.SetXY(x+1.5, top+9.5)
				doc.SetFont("Helvetica", "B", 8)
				doc.CellFormat(cellWidth-3, 4, FormatHours(entry.Hours)+"h", "", 0, "L", false, 0, "")
			}

			// Worked-day indicator in the top right corner of the cell.
			cx := x + cellWidth - 3.5
			cy := top + 3.5
			if worked {
				doc.SetFillColor(46, 125, 50)
				doc.Circle(cx, cy, 1.4, "F")
			} else {
				doc.SetDrawColor(170, 170, 170)
				doc.Circle(cx, cy, 1.4, "D")
			}
		}
		doc.SetY(top + cellHeight)
	}
	doc.Ln(3)
}

func renderEntryTable(doc *gofpdf.Fpdf, entries []timesheet.Entry) {
	sectionTitle(doc, "Daily Breakdown")

	type column struct {
		label string
		width float64
	}
	columns := []column{
		{"Date", 28},
		{"Time", 30},
		{"Hours", 16},
		{"Description", 64},
		{"Location", 42},
	}

	drawHeader := func() {
		doc.SetFont("Helvetica", "B", 8)
		doc.SetFillColor(33, 53, 85)
		doc.SetTextColor(255, 255, 255)
		for _, col := range columns {
			doc.CellFormat(col.width, 6.5, col.label, "1", 0, "L", true, 0, "")
		}
		doc.Ln(-1)
		doc.SetTextColor(0, 0, 0)
	}
	drawHeader()

	doc.SetFont("Helvetica", "", 8)
	for i, entry := range entries {
		if ensureSpace(doc, 6) {
			drawHeader()
			doc.SetFont("Helvetica", "", 8)
		}
		fill := i%2 == 1
		doc.SetFillColor(240, 242, 245)

		timeRange := ""
		if entry.StartTime != "" || entry.EndTime != "" {
			timeRange = entry.StartTime + " - " + entry.EndTime
		}
		values := []string{
			entry.Date.Format("Mon 1/2/2006"),
			timeRange,
			FormatHours(entry.Hours),
			entry.Description,
			entry.Location,
		}
		for j, col := range columns {
			doc.CellFormat(col.width, 6, truncate(doc, values[j], col.width-2), "1", 0, "L", fill, 0, "")
		}
		doc.Ln(-1)
	}
	doc.Ln(3)
}

func renderWorkDescription(doc *gofpdf.Fpdf, description string) {
	if strings.TrimSpace(description) == "" {
		return
	}
	ensureSpace(doc, 20)
	sectionTitle(doc, "Work Description")
	doc.SetFont("Helvetica", "", 9)
	doc.MultiCell(contentWidth, 4.5, description, "", "L", false)
	doc.Ln(2)
}

func renderSignatures(doc *gofpdf.Fpdf, sheet timesheet.Timesheet) {
	ensureSpace(doc, 40)
	sectionTitle(doc, "Signatures")
	top := doc.GetY()
	half := contentWidth / 2

	contractorDate := sheet.SignedAt.Format("Jan 2, 2006")
	signatureBlock(doc, pageLeft, top, half-5, "Contractor", sheet.FirstName+" "+sheet.LastName, contractorDate, sheet.ContractorSignature, "contractor-signature")

	supervisorDate := ""
	if sheet.ApprovedAt != nil {
		supervisorDate = sheet.ApprovedAt.Format("Jan 2, 2006")
	}
	supervisorName := sheet.ApproverName
	if supervisorName == "" {
		supervisorName = sheet.SupervisorName
	}
	signatureBlock(doc, pageLeft+half+5, top, half-5, "Supervisor", supervisorName, supervisorDate, sheet.SupervisorSignature, "supervisor-signature")

	doc.SetY(top + 34)
}

func signatureBlock(doc *gofpdf.Fpdf, x, y, width float64, role, name, date string, signature []byte, imageName string) {
	doc.SetXY(x, y)
	doc.SetFont("Helvetica", "B", 9)
	doc.CellFormat(width, 5, role, "", 0, "L", false, 0, "")

	drawn := false
	if len(signature) > 0 {
		drawn = embedSignature(doc, imageName, signature, x, y+6, 45, 16)
	}
	if !drawn {
		doc.SetDrawColor(60, 60, 60)
		doc.Line(x, y+20, x+width*0.8, y+20)
	}

	doc.SetXY(x, y+23)
	doc.SetFont("Helvetica", "", 8)
	label := name
	if date != "" {
		label += "    " + date
	}
	doc.CellFormat(width, 4, label, "", 0, "L", false, 0, "")
}

// embedSignature draws a captured signature image. Malformed payloads degrade
// to the blank signature line rather than failing the document.
func embedSignature(doc *gofpdf.Fpdf, name string, payload []byte, x, y, w, h float64) bool {
	imageType, raw, err := decodeSignature(payload)
	if err != nil {
		slog.Warn("signature image not embeddable", "name", name, "err", err)
		return false
	}
	options := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: false}
	doc.RegisterImageOptionsReader(name, options, bytes.NewReader(raw))
	if doc.Err() {
		slog.Warn("signature image registration failed", "name", name, "err", doc.Error())
		return false
	}
	doc.ImageOptions(name, x, y, w, h, false, options, 0, "")
	return !doc.Err()
}

// decodeSignature accepts either a raw PNG/JPEG payload or a browser-captured
// data URL and verifies it decodes as an image before it reaches the writer.
func decodeSignature(payload []byte) (string, []byte, error) {
	raw := payload
	if bytes.HasPrefix(payload, []byte("data:")) {
		comma := bytes.IndexByte(payload, ',')
		if comma < 0 {
			return "", nil, fmt.Errorf("malformed data url")
		}
		decoded, err := base64.StdEncoding.DecodeString(string(payload[comma+1:]))
		if err != nil {
			return "", nil, fmt.Errorf("data url base64: %w", err)
		}
		raw = decoded
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", nil, fmt.Errorf("decode image: %w", err)
	}
	switch format {
	case "png", "jpeg":
		return format, raw, nil
	default:
		return "", nil, fmt.Errorf("unsupported image format %q", format)
	}
}

func renderFooter(doc *gofpdf.Fpdf, generatedAt time.Time) {
	doc.SetY(282)
	doc.SetFont("Helvetica", "I", 7)
	doc.SetTextColor(140, 140, 140)
	text := "Dawaam Timesheet System  |  generated " + generatedAt.Format("2006-01-02 15:04:05 MST")
	doc.CellFormat(contentWidth, 4, text, "", 0, "C", false, 0, "")
	doc.SetTextColor(0, 0, 0)
}

func sectionTitle(doc *gofpdf.Fpdf, title string) {
	doc.SetFont("Helvetica", "B", 10)
	doc.SetTextColor(33, 53, 85)
	doc.CellFormat(contentWidth, 6, strings.ToUpper(title), "", 1, "L", false, 0, "")
	doc.SetTextColor(0, 0, 0)
}

func keyValueRow(doc *gofpdf.Fpdf, leftKey, leftValue, rightKey, rightValue string) {
	half := contentWidth / 2
	doc.SetFont("Helvetica", "B", 8.5)
	doc.SetTextColor(90, 90, 90)
	doc.CellFormat(26, 5, leftKey, "", 0, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 9)
	doc.SetTextColor(0, 0, 0)
	doc.CellFormat(half-26, 5, leftValue, "", 0, "L", false, 0, "")

	doc.SetFont("Helvetica", "B", 8.5)
	doc.SetTextColor(90, 90, 90)
	doc.CellFormat(26, 5, rightKey, "", 0, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 9)
	doc.SetTextColor(0, 0, 0)
	doc.CellFormat(half-26, 5, rightValue, "", 1, "L", false, 0, "")
}

func capitalize(value string) string {
	if value == "" {
		return value
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

func truncate(doc *gofpdf.Fpdf, value string, width float64) string {
	for doc.GetStringWidth(value) > width && len(value) > 1 {
		_, size := utf8.DecodeLastRuneInString(value)
		value = value[:len(value)-size]
	}
	return value
}

// ensureSpace starts a new page when fewer than needed millimeters remain;
// it reports whether a page break happened.
func ensureSpace(doc *gofpdf.Fpdf, needed float64) bool {
	if doc.GetY()+needed <= pageBreakY {
		return false
	}
	doc.AddPage()
	return true
}
