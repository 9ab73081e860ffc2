package formatter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/cfnplot/cfnplot/internal/core/chart"
)

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

func (f *CSVFormatter) Format(w io.Writer, d *chart.Descriptor) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	headers := []string{
		"Row", "Stack", "Resource", "Attempt", "Depth", "Outcome",
		"Start", "End", "Offset (s)", "Duration (s)", "Reason",
	}
	if err := cw.Write(headers); err != nil {
		return err
	}

	for _, bar := range d.Bars {
		end := ""
		duration := ""
		if bar.End != nil {
			end = bar.End.Format(time.RFC3339)
			duration = fmt.Sprintf("%.3f", bar.Width.Seconds())
		}
		record := []string{
			fmt.Sprintf("%d", bar.RowIndex),
			bar.StackID,
			bar.Label,
			fmt.Sprintf("%d", bar.Attempt),
			fmt.Sprintf("%d", bar.Depth),
			bar.Category,
			bar.Start.Format(time.RFC3339),
			end,
			fmt.Sprintf("%.3f", bar.Offset.Seconds()),
			duration,
			bar.Reason,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
