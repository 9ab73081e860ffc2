package formatter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cfnplot/cfnplot/internal/core/chart"
	"github.com/cfnplot/cfnplot/internal/util"
)

const (
	minChartWidth = 16
	maxLabelWidth = 48

	closedCell = "█"
	openCell   = "░"
)

// TableFormatter draws the waterfall as Unicode bars sized to the terminal.
type TableFormatter struct {
	opts Options
}

func NewTableFormatter(opts Options) *TableFormatter {
	if opts.Width <= 0 {
		opts.Width = 120
	}
	return &TableFormatter{opts: opts}
}

func (f *TableFormatter) Format(w io.Writer, d *chart.Descriptor) error {
	labelWidth, durWidth := f.columnWidths(d)
	chartWidth := f.opts.Width - labelWidth - durWidth - 6
	if chartWidth < minChartWidth {
		chartWidth = minChartWidth
	}

	f.printHeader(w, d)

	for _, bar := range d.Bars {
		label := util.TruncateString(indentLabel(bar), labelWidth)
		field := f.barField(bar, d.Span, chartWidth)
		dur := "…"
		if bar.Width != nil {
			dur = util.FormatDuration(*bar.Width)
		}
		fmt.Fprintf(w, "%s │%s│ %s\n",
			util.PadString(label, labelWidth, true),
			field,
			util.PadString(dur, durWidth, false))
	}

	f.printAxis(w, d, labelWidth, chartWidth)
	return nil
}

func indentLabel(bar chart.Bar) string {
	return strings.Repeat("  ", bar.Depth) + bar.Label
}

func (f *TableFormatter) columnWidths(d *chart.Descriptor) (int, int) {
	labelWidth := 8
	durWidth := 4
	for _, bar := range d.Bars {
		if w := util.GetDisplayWidth(indentLabel(bar)); w > labelWidth {
			labelWidth = w
		}
		if bar.Width != nil {
			if w := util.GetDisplayWidth(util.FormatDuration(*bar.Width)); w > durWidth {
				durWidth = w
			}
		}
	}
	if labelWidth > maxLabelWidth {
		labelWidth = maxLabelWidth
	}
	return labelWidth, durWidth
}

// barField draws one bar row in the chart area. Closed attempts occupy their
// proportional span, at least one cell; open attempts stretch from their
// start to the chart's right edge.
func (f *TableFormatter) barField(bar chart.Bar, span time.Duration, chartWidth int) string {
	startCol := 0
	if span > 0 {
		startCol = int(float64(bar.Offset) / float64(span) * float64(chartWidth))
	}
	if startCol >= chartWidth {
		startCol = chartWidth - 1
	}

	cells := chartWidth - startCol
	cell := openCell
	if bar.Width != nil {
		cell = closedCell
		cells = 1
		if span > 0 {
			cells = int(float64(*bar.Width)/float64(span)*float64(chartWidth) + 0.5)
		}
		if cells < 1 {
			cells = 1
		}
		if startCol+cells > chartWidth {
			cells = chartWidth - startCol
		}
	}

	body := strings.Repeat(cell, cells)
	if f.opts.Color {
		body = categoryColor(bar.Category) + body + util.ColorReset
	}
	return strings.Repeat(" ", startCol) + body + strings.Repeat(" ", chartWidth-startCol-cells)
}

func (f *TableFormatter) printHeader(w io.Writer, d *chart.Descriptor) {
	tp := util.GetTimeProvider()
	title := "Deployment waterfall"
	if d.Title != "" {
		title = "Deployment waterfall: " + d.Title
	}
	if f.opts.Color {
		title = util.ColorBold + title + util.ColorReset
	}
	fmt.Fprintln(w, title)
	fmt.Fprintf(w, "%s → %s (%s, %d rows)\n\n",
		tp.Format(d.Origin, "2006-01-02 15:04:05"),
		tp.Format(d.Extent, "15:04:05"),
		util.FormatDuration(d.Span),
		len(d.Bars))
}

func (f *TableFormatter) printAxis(w io.Writer, d *chart.Descriptor, labelWidth, chartWidth int) {
	left := "0s"
	right := util.FormatDuration(d.Span)
	gap := chartWidth - util.GetDisplayWidth(left) - util.GetDisplayWidth(right)
	if gap < 1 {
		gap = 1
	}
	fmt.Fprintf(w, "%s └%s┘\n", strings.Repeat(" ", labelWidth), strings.Repeat("─", chartWidth))
	fmt.Fprintf(w, "%s  %s%s%s\n", strings.Repeat(" ", labelWidth), left, strings.Repeat(" ", gap), right)
}

func categoryColor(category string) string {
	switch category {
	case "succeeded":
		return util.ColorGreen
	case "failed":
		return util.ColorRed
	case "rolled-back":
		return util.ColorYellow
	case "skipped":
		return util.ColorGray
	default:
		return util.ColorCyan
	}
}
