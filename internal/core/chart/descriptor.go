// Package chart is the data contract handed to rendering backends. It carries
// no layout logic of its own beyond projecting rows onto the time axis, so
// the output side (terminal, html, json, csv) can be swapped freely.
package chart

import (
	"time"

	"github.com/cfnplot/cfnplot/internal/core/timeline"
)

// Bar is one renderable waterfall bar. Offset is relative to the chart
// origin; Width is nil for open (unresolved) attempts, which render as
// open-ended bars rather than being dropped.
type Bar struct {
	RowIndex int            `json:"row"`
	Label    string         `json:"label"`
	StackID  string         `json:"stackId"`
	Depth    int            `json:"depth"`
	Attempt  int            `json:"attempt"`
	Offset   time.Duration  `json:"offset"`
	Width    *time.Duration `json:"width,omitempty"`
	Category string         `json:"category"`
	Reason   string         `json:"reason,omitempty"`
	Start    time.Time      `json:"start"`
	End      *time.Time     `json:"end,omitempty"`
}

// Descriptor is the complete renderable dataset for one waterfall chart.
type Descriptor struct {
	Title  string        `json:"title,omitempty"`
	Origin time.Time     `json:"origin"`
	Extent time.Time     `json:"extent"`
	Span   time.Duration `json:"span"`
	Bars   []Bar         `json:"bars"`
}

// Describe maps an assembled timeline onto renderable bars.
func Describe(tl *timeline.Timeline) *Descriptor {
	d := &Descriptor{
		Origin: tl.Origin,
		Extent: tl.Extent,
		Span:   tl.Extent.Sub(tl.Origin),
		Bars:   make([]Bar, 0, len(tl.Rows)),
	}
	for _, row := range tl.Rows {
		bar := Bar{
			RowIndex: row.Index,
			Label:    row.Label,
			StackID:  row.Key.StackID,
			Depth:    row.Depth,
			Attempt:  row.Attempt,
			Offset:   row.Start.Sub(tl.Origin),
			Category: row.Outcome.String(),
			Reason:   row.Reason,
			Start:    row.Start,
		}
		if row.End != nil {
			w := row.End.Sub(row.Start)
			bar.Width = &w
			end := *row.End
			bar.End = &end
		}
		d.Bars = append(d.Bars, bar)
	}
	return d
}
