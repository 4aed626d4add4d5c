package output

import (
	"encoding/json"
	"io"

	"cloudkeeper/core/query"
)

// JSONFormatter renders results in the same shape the HTTP API returns
type JSONFormatter struct {
	opts Options
}

// Format implements Formatter
func (f *JSONFormatter) Format() Format {
	return FormatJSON
}

// Render implements Formatter
func (f *JSONFormatter) Render(w io.Writer, res *query.Result) error {
	enc := json.NewEncoder(w)
	if f.opts.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(NewResultView(res))
}
