package formatter

import (
	"html/template"
	"io"
	"time"

	"github.com/cfnplot/cfnplot/internal/core/chart"
	"github.com/cfnplot/cfnplot/internal/util"
)

// HTMLFormatter emits a self-contained waterfall page: one positioned div per
// bar, offsets and widths as percentages of the chart span.
type HTMLFormatter struct {
	opts Options
}

func NewHTMLFormatter(opts Options) *HTMLFormatter {
	return &HTMLFormatter{opts: opts}
}

type htmlBar struct {
	Label    string
	Indent   int
	LeftPct  float64
	WidthPct float64
	Open     bool
	Color    string
	Category string
	Duration string
	Reason   string
}

type htmlPage struct {
	Title  string
	Origin string
	Extent string
	Span   string
	Bars   []htmlBar
}

func (f *HTMLFormatter) Format(w io.Writer, d *chart.Descriptor) error {
	tp := util.GetTimeProvider()
	page := htmlPage{
		Title:  d.Title,
		Origin: tp.Format(d.Origin, "2006-01-02 15:04:05 MST"),
		Extent: tp.Format(d.Extent, "2006-01-02 15:04:05 MST"),
		Span:   util.FormatDuration(d.Span),
	}
	if page.Title == "" {
		page.Title = "Deployment waterfall"
	}

	span := d.Span
	if span <= 0 {
		span = time.Millisecond
	}
	for _, bar := range d.Bars {
		hb := htmlBar{
			Label:    bar.Label,
			Indent:   bar.Depth * 16,
			LeftPct:  float64(bar.Offset) / float64(span) * 100,
			Color:    f.opts.Appearance.ColorFor(bar.Category),
			Category: bar.Category,
			Reason:   bar.Reason,
		}
		if bar.Width != nil {
			hb.WidthPct = float64(*bar.Width) / float64(span) * 100
			if hb.WidthPct < 0.3 {
				hb.WidthPct = 0.3
			}
			hb.Duration = util.FormatDuration(*bar.Width)
		} else {
			hb.Open = true
			hb.WidthPct = 100 - hb.LeftPct
			hb.Duration = "unresolved"
		}
		page.Bars = append(page.Bars, hb)
	}

	return waterfallTemplate.Execute(w, page)
}

var waterfallTemplate = template.Must(template.New("waterfall").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:'Open Sans',sans-serif;font-size:13px;color:#111;background:#fff;margin:24px}
h1{font-size:18px;font-weight:600;margin:0 0 4px}
.meta{color:#666;margin-bottom:16px}
.row{display:flex;align-items:center;height:24px}
.label{width:320px;flex-shrink:0;overflow:hidden;text-overflow:ellipsis;white-space:nowrap;padding-right:8px}
.track{position:relative;flex:1;height:16px;background:#f4f4f4;border-radius:2px}
.bar{position:absolute;top:0;height:16px;border-radius:2px;min-width:2px}
.bar.open{background-image:repeating-linear-gradient(45deg,transparent,transparent 4px,rgba(255,255,255,.5) 4px,rgba(255,255,255,.5) 8px)}
.dur{width:90px;flex-shrink:0;text-align:right;color:#444;padding-left:8px;font-variant-numeric:tabular-nums}
.axis{display:flex;justify-content:space-between;margin-left:320px;margin-right:98px;color:#888;border-top:1px solid #ddd;padding-top:4px;margin-top:8px}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="meta">{{.Origin}} &rarr; {{.Extent}} &middot; {{.Span}}</div>
{{range .Bars}}<div class="row">
  <div class="label" style="padding-left:{{.Indent}}px" title="{{.Label}}{{if .Reason}}: {{.Reason}}{{end}}">{{.Label}}</div>
  <div class="track"><div class="bar{{if .Open}} open{{end}}" style="left:{{printf "%.3f" .LeftPct}}%;width:{{printf "%.3f" .WidthPct}}%;background-color:{{.Color}}" title="{{.Category}} · {{.Duration}}"></div></div>
  <div class="dur">{{.Duration}}</div>
</div>
{{end}}<div class="axis"><span>0s</span><span>{{.Span}}</span></div>
</body>
</html>
`))
