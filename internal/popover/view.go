package popover

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/tokentray/internal/adapter/output"
	"github.com/jmylchreest/tokentray/internal/quota"
)

// WindowRow is one progress bar in the popover.
type WindowRow struct {
	Name     string
	Fraction float64 // 0..1
	Percent  string
	Level    quota.Level
	Resets   string
	Pace     string // empty unless the pace warning applies
}

// Content is everything the popover renders, derived from the last fetch.
type Content struct {
	Header  string
	Level   quota.Level
	Rows    []WindowRow
	Extra   string
	Updated string
	Raw     string // shown when the document has no recognised windows
	Error   string
}

// BuildContent derives the popover content from the last successful result
// and the most recent fetch error. Either may be nil.
func BuildContent(res *quota.Result, fetchErr error, now time.Time) Content {
	var c Content

	if fetchErr != nil {
		c.Error = describeError(fetchErr)
	}

	if res == nil {
		if fetchErr == nil {
			c.Header = "Loading…"
		} else {
			c.Header = "Quota unavailable"
		}
		return c
	}

	if !res.FetchedAt.IsZero() {
		c.Updated = "Updated " + humanize.RelTime(res.FetchedAt, now, "ago", "from now")
	}

	u, err := quota.ParseUsage(res)
	if err != nil {
		c.Header = "Quota"
		c.Raw = string(res.Raw)
		return c
	}

	c.Level = u.Level()
	c.Header = headerFor(c.Level, u.Peak())
	c.Rows = append(c.Rows, buildRow("5-hour", u.FiveHour, quota.FiveHourDuration, now))
	c.Rows = append(c.Rows, buildRow("7-day", u.SevenDay, quota.SevenDayDuration, now))
	if u.SevenDaySonnet != nil {
		c.Rows = append(c.Rows, buildRow("7-day Sonnet", *u.SevenDaySonnet, 0, now))
	}
	c.Extra = output.ExtraUsageLine(u.Extra)
	return c
}

func buildRow(name string, w quota.Window, length time.Duration, now time.Time) WindowRow {
	row := WindowRow{
		Name:     name,
		Fraction: min(max(w.Utilization, 0), 100) / 100,
		Percent:  fmt.Sprintf("%.0f%%", w.Utilization),
		Level:    quota.LevelFor(w.Utilization),
		Resets:   "Resets in " + w.ResetsIn(now),
	}
	if length > 0 {
		if p := quota.PaceFor(w, length, now); p != nil && p.Warning {
			row.Pace = "At this pace the limit is hit in " + quota.FormatApprox(p.TimeToLimit)
		}
	}
	return row
}

func headerFor(level quota.Level, peak float64) string {
	switch level {
	case quota.LevelLocked:
		return "Limit reached"
	case quota.LevelCritical:
		return fmt.Sprintf("Running low (%.0f%%)", peak)
	case quota.LevelModerate:
		return fmt.Sprintf("Moderate usage (%.0f%%)", peak)
	default:
		return fmt.Sprintf("Plenty left (%.0f%%)", peak)
	}
}

func describeError(err error) string {
	switch quota.KindOf(err) {
	case quota.KindResourceResolutionFailure:
		return "Helper script not found: " + err.Error()
	case quota.KindSpawnFailure:
		return "Could not start helper: " + err.Error()
	case quota.KindHelperExecutionFailure:
		return "Helper failed: " + err.Error()
	case quota.KindResponseParseFailure:
		return "Helper returned invalid output"
	default:
		return err.Error()
	}
}

// levelClass returns the CSS class for a level.
func levelClass(level quota.Level) string {
	if level == "" {
		return ""
	}
	return "level-" + string(level)
}
