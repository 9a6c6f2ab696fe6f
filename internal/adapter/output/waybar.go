package output

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/jmylchreest/tokentray/internal/quota"
)

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text       string `json:"text"`
	Alt        string `json:"alt,omitempty"`
	Tooltip    string `json:"tooltip,omitempty"`
	Class      string `json:"class,omitempty"`
	Percentage int    `json:"percentage"`
}

// WaybarFormatter formats quota usage for a Waybar custom module.
type WaybarFormatter struct {
	opts FormatterOptions
}

// NewWaybarFormatter creates a new Waybar formatter.
func NewWaybarFormatter(opts FormatterOptions) *WaybarFormatter {
	return &WaybarFormatter{opts: opts}
}

// Format writes a single-line Waybar status.
func (f *WaybarFormatter) Format(w io.Writer, res *quota.Result) error {
	u, err := quota.ParseUsage(res)
	if err != nil {
		return WriteWaybar(w, WaybarError(err))
	}
	return WriteWaybar(w, f.Status(u))
}

// Status builds the Waybar status for u.
func (f *WaybarFormatter) Status(u *quota.Usage) WaybarStatus {
	now := f.opts.now()
	peak := u.Peak()
	level := u.Level()

	lines := []string{
		fmt.Sprintf("5-hour: %.0f%% (resets in %s)", u.FiveHour.Utilization, u.FiveHour.ResetsIn(now)),
		fmt.Sprintf("7-day: %.0f%% (resets in %s)", u.SevenDay.Utilization, u.SevenDay.ResetsIn(now)),
	}
	if u.SevenDaySonnet != nil {
		lines = append(lines, fmt.Sprintf("7-day Sonnet: %.0f%%", u.SevenDaySonnet.Utilization))
	}
	win, length := u.Binding()
	if p := quota.PaceFor(win, length, now); p != nil && p.Warning {
		lines = append(lines, fmt.Sprintf("Limit in %s at current pace", quota.FormatApprox(p.TimeToLimit)))
	}
	if line := ExtraUsageLine(u.Extra); line != "" {
		lines = append(lines, line)
	}

	return WaybarStatus{
		Text:       fmt.Sprintf("%.0f%%", peak),
		Alt:        string(level),
		Tooltip:    strings.Join(lines, "\n"),
		Class:      string(level),
		Percentage: int(math.Round(min(peak, 100))),
	}
}

// WaybarError builds the status shown when the quota could not be read.
func WaybarError(err error) WaybarStatus {
	return WaybarStatus{
		Text:    "!",
		Alt:     "error",
		Tooltip: err.Error(),
		Class:   "error",
	}
}

// WriteWaybar writes s as one JSON line.
func WriteWaybar(w io.Writer, s WaybarStatus) error {
	return json.NewEncoder(w).Encode(s)
}
