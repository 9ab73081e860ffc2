package formatter

import (
	"encoding/json"
	"io"

	"github.com/cfnplot/cfnplot/internal/core/chart"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Format(w io.Writer, d *chart.Descriptor) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(d)
}
