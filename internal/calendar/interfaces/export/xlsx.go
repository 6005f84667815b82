package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// BuildXLSX renders a workbook with a summary sheet and one row per booking edge.
func BuildXLSX(week Week) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "summary"
	edgesSheet := "edges"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(edgesSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Booking Calendar")
	_ = f.SetCellValue(summarySheet, "A3", "Station")
	_ = f.SetCellValue(summarySheet, "B3", week.Station.Name)
	_ = f.SetCellValue(summarySheet, "A4", "Station ID")
	_ = f.SetCellValue(summarySheet, "B4", week.Station.ID)
	_ = f.SetCellValue(summarySheet, "A5", "Week")
	_ = f.SetCellValue(summarySheet, "B5", week.Label)
	_ = f.SetCellValue(summarySheet, "A6", "Bookings")
	_ = f.SetCellValue(summarySheet, "B6", len(week.Bookings))
	_ = f.SetCellValue(summarySheet, "A7", "Generated")
	_ = f.SetCellValue(summarySheet, "B7", localTime(week.GeneratedAt))

	_ = f.SetCellValue(edgesSheet, "A1", "Day")
	_ = f.SetCellValue(edgesSheet, "B1", "Edge")
	_ = f.SetCellValue(edgesSheet, "C1", "Booking")
	_ = f.SetCellValue(edgesSheet, "D1", "Customer")
	_ = f.SetCellValue(edgesSheet, "E1", "Start (Berlin)")
	_ = f.SetCellValue(edgesSheet, "F1", "End (Berlin)")
	row := 2
	for _, day := range week.Days {
		for _, edge := range day.Edges {
			_ = f.SetCellValue(edgesSheet, fmt.Sprintf("A%d", row), day.Key)
			_ = f.SetCellValue(edgesSheet, fmt.Sprintf("B%d", row), edge.Edge.String())
			_ = f.SetCellValue(edgesSheet, fmt.Sprintf("C%d", row), edge.ID)
			_ = f.SetCellValue(edgesSheet, fmt.Sprintf("D%d", row), edge.CustomerName)
			_ = f.SetCellValue(edgesSheet, fmt.Sprintf("E%d", row), localTime(edge.StartDate))
			_ = f.SetCellValue(edgesSheet, fmt.Sprintf("F%d", row), localTime(edge.EndDate))
			row++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
