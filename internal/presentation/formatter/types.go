package formatter

import (
	"fmt"
	"io"

	"github.com/cfnplot/cfnplot/internal/config"
	"github.com/cfnplot/cfnplot/internal/core/chart"
)

// Formatter renders a chart descriptor to a writer.
type Formatter interface {
	Format(w io.Writer, d *chart.Descriptor) error
}

// Options carries rendering knobs shared across formatters.
type Options struct {
	// Width is the target character width for the table formatter.
	Width int
	// Color enables ANSI colors for the table formatter.
	Color bool
	// Appearance supplies outcome colors for the html formatter.
	Appearance config.Config
}

// New returns the formatter for the given output format name.
func New(format string, opts Options) (Formatter, error) {
	switch format {
	case "table", "":
		return NewTableFormatter(opts), nil
	case "json":
		return NewJSONFormatter(), nil
	case "csv":
		return NewCSVFormatter(), nil
	case "html":
		return NewHTMLFormatter(opts), nil
	case "summary":
		return NewSummaryFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: table, json, csv, html, summary)", format)
	}
}
