package formatter

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/cfnplot/cfnplot/internal/core/chart"
	"github.com/cfnplot/cfnplot/internal/util"
)

const slowestLimit = 10

// SummaryFormatter prints deployment totals and the slowest resources instead
// of the full chart.
type SummaryFormatter struct{}

func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

func (f *SummaryFormatter) Format(w io.Writer, d *chart.Descriptor) error {
	tp := util.GetTimeProvider()

	outcomes := make(map[string]int)
	openCount := 0
	var closed []chart.Bar
	for _, bar := range d.Bars {
		outcomes[bar.Category]++
		if bar.Width == nil {
			openCount++
		} else {
			closed = append(closed, bar)
		}
	}
	sort.SliceStable(closed, func(i, j int) bool {
		return *closed[i].Width > *closed[j].Width
	})

	fmt.Fprintln(w, strings.Repeat("=", 60))
	title := "Deployment Summary"
	if d.Title != "" {
		title = "Deployment Summary: " + d.Title
	}
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Window:    %s → %s\n",
		tp.Format(d.Origin, "2006-01-02 15:04:05"),
		tp.Format(d.Extent, "2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Wall time: %s\n", util.FormatDuration(d.Span))
	fmt.Fprintf(w, "Rows:      %d", len(d.Bars))
	if openCount > 0 {
		fmt.Fprintf(w, " (%d still unresolved)", openCount)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Outcomes:")
	for _, category := range []string{"succeeded", "failed", "rolled-back", "skipped", "unresolved"} {
		if n := outcomes[category]; n > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", category, n)
		}
	}
	fmt.Fprintln(w)

	if len(closed) > 0 {
		fmt.Fprintln(w, "Slowest resources:")
		limit := slowestLimit
		if len(closed) < limit {
			limit = len(closed)
		}
		for _, bar := range closed[:limit] {
			fmt.Fprintf(w, "  %-40s %10s  %s\n",
				util.TruncateString(bar.Label, 40),
				util.FormatDuration(*bar.Width),
				bar.Category)
		}
	}

	// Serialized stretches dominate total wall time; point at the worst one.
	if longest := longestGap(d); longest > time.Second {
		fmt.Fprintf(w, "\nLongest stretch with a single in-flight resource: %s\n",
			util.FormatDuration(longest))
	}

	return nil
}

// longestGap finds the longest span in which at most one bar is in flight,
// a rough serialization indicator.
func longestGap(d *chart.Descriptor) time.Duration {
	if len(d.Bars) < 2 {
		return 0
	}
	type point struct {
		at    time.Duration
		delta int
	}
	var points []point
	for _, bar := range d.Bars {
		points = append(points, point{at: bar.Offset, delta: 1})
		if bar.Width != nil {
			points = append(points, point{at: bar.Offset + *bar.Width, delta: -1})
		} else {
			points = append(points, point{at: d.Span, delta: -1})
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].at < points[j].at })

	var (
		inFlight int
		longest  time.Duration
		runStart time.Duration
	)
	for _, p := range points {
		wasSerial := inFlight <= 1
		inFlight += p.delta
		isSerial := inFlight <= 1
		switch {
		case wasSerial && !isSerial:
			if gap := p.at - runStart; gap > longest {
				longest = gap
			}
		case !wasSerial && isSerial:
			runStart = p.at
		}
	}
	if gap := d.Span - runStart; inFlight <= 1 && gap > longest {
		longest = gap
	}
	return longest
}
