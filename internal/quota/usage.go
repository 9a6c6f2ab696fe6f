package quota

import (
	"fmt"
	"math"
	"time"

	"github.com/tidwall/gjson"
)

// Window durations for the rolling quota windows.
const (
	FiveHourDuration = 5 * time.Hour
	SevenDayDuration = 7 * 24 * time.Hour
)

// Window is a single rolling quota window.
type Window struct {
	Utilization float64   // 0-100
	ResetsAt    time.Time // zero if unknown
}

// Locked reports whether the window is exhausted.
func (w Window) Locked() bool {
	return w.Utilization >= 100
}

// ResetsIn formats the time until the window resets, e.g. "3d 4h", "2h 15m", "42m" or "now".
func (w Window) ResetsIn(now time.Time) string {
	if w.ResetsAt.IsZero() {
		return "unknown"
	}
	d := w.ResetsAt.Sub(now)
	if d <= 0 {
		return "now"
	}
	total := int(d / time.Minute)
	days := total / 1440
	hours := (total % 1440) / 60
	minutes := total % 60
	switch {
	case days > 0 && hours > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case days > 0:
		return fmt.Sprintf("%dd", days)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// ExtraUsage describes pay-as-you-go credits beyond the subscription quota.
type ExtraUsage struct {
	Enabled      bool
	MonthlyLimit *float64
	UsedCredits  *float64
}

// Usage is a typed view over the helper document.
type Usage struct {
	FiveHour       Window
	SevenDay       Window
	SevenDaySonnet *Window
	Extra          ExtraUsage
	FetchedAt      time.Time
}

// ParseUsage reads the well-known fields from a result. Missing fields are
// left at their zero value; it only fails when neither window is present.
func ParseUsage(r *Result) (*Usage, error) {
	if r == nil || !gjson.ValidBytes(r.Raw) {
		return nil, fmt.Errorf("quota document is not valid JSON")
	}
	doc := gjson.ParseBytes(r.Raw)
	fh := doc.Get("five_hour")
	sd := doc.Get("seven_day")
	if !fh.IsObject() && !sd.IsObject() {
		return nil, fmt.Errorf("quota document has no usage windows")
	}

	u := &Usage{
		FiveHour:  parseWindow(fh),
		SevenDay:  parseWindow(sd),
		FetchedAt: r.FetchedAt,
	}
	if sonnet := doc.Get("seven_day_sonnet"); sonnet.IsObject() {
		w := parseWindow(sonnet)
		u.SevenDaySonnet = &w
	}

	extra := doc.Get("extra_usage")
	u.Extra.Enabled = extra.Get("is_enabled").Bool()
	if v := extra.Get("monthly_limit"); v.Type == gjson.Number {
		f := v.Float()
		u.Extra.MonthlyLimit = &f
	}
	if v := extra.Get("used_credits"); v.Type == gjson.Number {
		f := v.Float()
		u.Extra.UsedCredits = &f
	}
	return u, nil
}

func parseWindow(v gjson.Result) Window {
	w := Window{Utilization: v.Get("utilization").Float()}
	if s := v.Get("resets_at").String(); s != "" {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			w.ResetsAt = t
		}
	}
	return w
}

// Peak returns the highest utilization across the five-hour and seven-day windows.
func (u *Usage) Peak() float64 {
	return math.Max(u.FiveHour.Utilization, u.SevenDay.Utilization)
}

// Binding returns the window closest to its limit and that window's length.
// Ties go to the five-hour window.
func (u *Usage) Binding() (Window, time.Duration) {
	if u.FiveHour.Utilization >= u.SevenDay.Utilization {
		return u.FiveHour, FiveHourDuration
	}
	return u.SevenDay, SevenDayDuration
}

// Locked reports whether any primary window is exhausted.
func (u *Usage) Locked() bool {
	return u.FiveHour.Locked() || u.SevenDay.Locked()
}

// Level is a coarse severity bucket for a utilization percentage.
type Level string

const (
	LevelHealthy  Level = "healthy"
	LevelModerate Level = "moderate"
	LevelCritical Level = "critical"
	LevelLocked   Level = "locked"
)

// LevelFor buckets a utilization percentage.
func LevelFor(utilization float64) Level {
	switch {
	case utilization >= 100:
		return LevelLocked
	case utilization >= 90:
		return LevelCritical
	case utilization >= 70:
		return LevelModerate
	default:
		return LevelHealthy
	}
}

// Level returns the severity of the peak utilization.
func (u *Usage) Level() Level {
	return LevelFor(u.Peak())
}
