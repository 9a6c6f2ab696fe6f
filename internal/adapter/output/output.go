// Package output provides output formatters for quota results.
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/jmylchreest/tokentray/internal/quota"
)

// Formatter formats a quota result for output.
type Formatter interface {
	// Format writes the formatted result to the writer.
	Format(w io.Writer, res *quota.Result) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatJSON   FormatType = "json"
	FormatYAML   FormatType = "yaml"
	FormatPlain  FormatType = "plain"
	FormatWaybar FormatType = "waybar"
)

// ValidFormats returns all supported format names.
func ValidFormats() []FormatType {
	return []FormatType{FormatJSON, FormatYAML, FormatPlain, FormatWaybar}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Color    bool             // Style plain output with ANSI colours
	BarWidth int              // Progress bar width in cells
	Now      func() time.Time // Clock for reset countdowns
}

// DefaultFormatterOptions returns sensible defaults for terminal output.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		Color:    true,
		BarWidth: 20,
		Now:      time.Now,
	}
}

func (o FormatterOptions) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) (Formatter, error) {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatYAML:
		return NewYAMLFormatter(), nil
	case FormatPlain:
		return NewPlainFormatter(opts), nil
	case FormatWaybar:
		return NewWaybarFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown format %q, must be one of: %v", format, ValidFormats())
	}
}
