package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter renders values as indented JSON. The two-space indent
// matches the snapshot file layout, so piped inspect output diffs
// cleanly against the file on disk.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(data)
}
