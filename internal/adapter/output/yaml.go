package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/tokentray/internal/quota"
)

// YAMLFormatter formats the helper document as YAML.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format writes the result as YAML.
func (f *YAMLFormatter) Format(w io.Writer, res *quota.Result) error {
	v, err := res.Value()
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
