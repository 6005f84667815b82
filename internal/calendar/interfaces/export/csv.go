package export

import (
	"bytes"
	"encoding/csv"

	calendar "rental-calendar/internal/calendar/domain"
)

var csvHeader = []string{"day", "edge", "booking_id", "customer_name", "start", "end"}

// BuildCSV renders one row per booking edge of the week.
func BuildCSV(week Week) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, day := range week.Days {
		for _, edge := range day.Edges {
			record := []string{
				day.Key,
				edge.Edge.String(),
				edge.ID,
				edge.CustomerName,
				calendar.FormatTimestamp(edge.StartDate),
				calendar.FormatTimestamp(edge.EndDate),
			}
			if err := writer.Write(record); err != nil {
				return nil, err
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
