package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/tokentray/internal/store"
)

// FormatSamples writes recorded samples in the given format.
// Waybar is not meaningful for history and is rejected.
func FormatSamples(w io.Writer, format FormatType, samples []store.Sample, opts FormatterOptions) error {
	if samples == nil {
		samples = []store.Sample{}
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(samples)
	case FormatYAML:
		data, err := yaml.Marshal(samples)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatPlain:
		now := opts.now()
		for _, s := range samples {
			if _, err := fmt.Fprintf(w, "%s  5h %3.0f%%  7d %3.0f%%  (%s)\n",
				s.Timestamp.Local().Format(time.DateTime),
				s.FiveHour, s.SevenDay,
				humanize.RelTime(s.Timestamp, now, "ago", "from now")); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("format %q is not supported for history", format)
	}
}
