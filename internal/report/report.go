package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"telegram-babylog-bot/internal/models"
)

// Subject identifies whose data a report covers.
type Subject struct {
	Name     string
	Identity string
}

// Rows per PDF page before a page break. A bucket row is never split
// across pages.
const reportRowsPerPage = 28

var reportColumns = []struct {
	title string
	width float64
}{
	{"Date", 30},
	{"MPASI (ml)", 26},
	{"MPASI kcal", 26},
	{"Milk (ml)", 26},
	{"Milk kcal", 26},
	{"Total kcal", 26},
}

// Assemble combines a rendered chart with a per-day breakdown table into a
// PDF document. The summary rows hold column totals and arithmetic means
// over the full window length, zero days included.
func Assemble(chart []byte, buckets []DailyBucket, subject Subject, w Window) ([]byte, error) {
	if len(buckets) == 0 {
		return nil, fmt.Errorf("no buckets to report")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("MPASI & Milk Intake Report", false)
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(23, 54, 93)
	pdf.CellFormat(0, 12, "MPASI & Milk Intake Report", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(45, 52, 54)
	name := subject.Name
	if name == "" {
		name = subject.Identity
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Subject: %s", name), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Period: %s", w), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Chart above the table
	if len(chart) > 0 {
		opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader("intake_chart", opts, bytes.NewReader(chart))
		pdf.ImageOptions("intake_chart", 20, pdf.GetY(), 170, 0, true, opts, 0, "")
		pdf.Ln(6)
	}

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Summary Table", "", 1, "L", false, 0, "")
	pdf.Ln(1)

	writeTableHeader(pdf)

	var totMpasi, totMpasiCal, totMilk, totMilkCal float64
	rowsOnPage := 0
	pdf.SetFont("Helvetica", "", 9)
	for i, b := range buckets {
		// The last data row is held back to a fresh page when it would
		// fill the current one, so TOTAL and AVERAGE never stand alone.
		last := i == len(buckets)-1
		if rowsOnPage >= reportRowsPerPage || (last && rowsOnPage == reportRowsPerPage-1) {
			pdf.AddPage()
			writeTableHeader(pdf)
			pdf.SetFont("Helvetica", "", 9)
			rowsOnPage = 0
		}

		mpasi := b.Totals[models.CategoryMPASI]
		mpasiCal := b.Calories[models.CategoryMPASI]
		milk := b.Totals[models.CategoryMilk]
		milkCal := b.Calories[models.CategoryMilk]

		writeRow(pdf, b.Date.Format("2006-01-02"), mpasi, mpasiCal, milk, milkCal)
		rowsOnPage++

		totMpasi += mpasi
		totMpasiCal += mpasiCal
		totMilk += milk
		totMilkCal += milkCal
	}

	days := float64(len(buckets))
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(173, 216, 230)
	writeSummaryRow(pdf, "TOTAL", totMpasi, totMpasiCal, totMilk, totMilkCal)
	pdf.SetFillColor(144, 238, 144)
	writeSummaryRow(pdf, "AVERAGE", totMpasi/days, totMpasiCal/days, totMilk/days, totMilkCal/days)

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Notes", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 5,
		"MPASI: Makanan Pendamping ASI (complementary feeding).\n"+
			"Chart shows daily quantities as stacked bars and calories as line overlays.\n"+
			"Averages are computed over the full reporting window, including days without records.\n"+
			"Consult a pediatrician for appropriate intake levels.",
		"", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to build PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(128, 128, 128)
	pdf.SetTextColor(245, 245, 245)
	for _, col := range reportColumns {
		pdf.CellFormat(col.width, 8, col.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(45, 52, 54)
}

func writeRow(pdf *fpdf.Fpdf, date string, mpasi, mpasiCal, milk, milkCal float64) {
	cells := []string{
		date,
		fmt.Sprintf("%.0f", mpasi),
		fmt.Sprintf("%.0f", mpasiCal),
		fmt.Sprintf("%.0f", milk),
		fmt.Sprintf("%.0f", milkCal),
		fmt.Sprintf("%.0f", mpasiCal+milkCal),
	}
	for i, cell := range cells {
		pdf.CellFormat(reportColumns[i].width, 7, cell, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
}

func writeSummaryRow(pdf *fpdf.Fpdf, label string, mpasi, mpasiCal, milk, milkCal float64) {
	cells := []string{
		label,
		fmt.Sprintf("%.1f", mpasi),
		fmt.Sprintf("%.1f", mpasiCal),
		fmt.Sprintf("%.1f", milk),
		fmt.Sprintf("%.1f", milkCal),
		fmt.Sprintf("%.1f", mpasiCal+milkCal),
	}
	for i, cell := range cells {
		pdf.CellFormat(reportColumns[i].width, 7, cell, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}
