package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// BuildPDF renders the week as a one-table PDF.
func BuildPDF(week Week) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	// Core fonts are cp1252; the range label uses an en dash.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.Cell(0, 8, "Booking Calendar")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Station: %s (%s)", week.Station.Name, week.Station.ID)))
	pdf.Ln(5)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Week: %s", week.Label)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Bookings: %d", len(week.Bookings)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", localTime(week.GeneratedAt)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(28, 6, "Day", "1", 0, "C", false, 0, "")
	pdf.CellFormat(16, 6, "Edge", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Booking", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Customer", "1", 0, "C", false, 0, "")
	pdf.CellFormat(36, 6, "Start", "1", 0, "C", false, 0, "")
	pdf.CellFormat(36, 6, "End", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, day := range week.Days {
		for _, edge := range day.Edges {
			pdf.CellFormat(28, 6, day.Key, "1", 0, "C", false, 0, "")
			pdf.CellFormat(16, 6, edge.Edge.String(), "1", 0, "C", false, 0, "")
			pdf.CellFormat(30, 6, tr(edge.ID), "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, tr(edge.CustomerName), "1", 0, "L", false, 0, "")
			pdf.CellFormat(36, 6, localTime(edge.StartDate), "1", 0, "C", false, 0, "")
			pdf.CellFormat(36, 6, localTime(edge.EndDate), "1", 0, "C", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
