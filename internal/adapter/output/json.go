package output

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/jmylchreest/tokentray/internal/quota"
)

// JSONFormatter writes the helper document verbatim, indented.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format writes the result as indented JSON.
func (f *JSONFormatter) Format(w io.Writer, res *quota.Result) error {
	raw, err := res.MarshalJSON()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}
