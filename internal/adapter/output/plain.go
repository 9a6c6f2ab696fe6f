package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/tokentray/internal/quota"
)

// PlainFormatter formats quota usage as a human-readable summary.
type PlainFormatter struct {
	opts FormatterOptions
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	return &PlainFormatter{opts: opts}
}

// Format writes the usage summary. Documents without usage windows fall back to JSON.
func (f *PlainFormatter) Format(w io.Writer, res *quota.Result) error {
	u, err := quota.ParseUsage(res)
	if err != nil {
		return NewJSONFormatter().Format(w, res)
	}
	_, err = io.WriteString(w, f.Render(u))
	return err
}

// Render returns the summary for u.
func (f *PlainFormatter) Render(u *quota.Usage) string {
	now := f.opts.now()
	var sb strings.Builder

	level := u.Level()
	sb.WriteString(f.style(fmt.Sprintf("● %s", levelMessage(level)), LevelColor(level), true))
	sb.WriteString("\n\n")

	f.writeWindow(&sb, "5-hour", u.FiveHour, quota.FiveHourDuration)
	f.writeWindow(&sb, "7-day", u.SevenDay, quota.SevenDayDuration)
	if u.SevenDaySonnet != nil {
		f.writeWindow(&sb, "7-day Sonnet", *u.SevenDaySonnet, 0)
	}

	if line := ExtraUsageLine(u.Extra); line != "" {
		sb.WriteString(line + "\n")
	}

	if !u.FetchedAt.IsZero() {
		sb.WriteString(f.style("updated "+humanize.RelTime(u.FetchedAt, now, "ago", "from now"), lipgloss.Color("8"), false))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f *PlainFormatter) writeWindow(sb *strings.Builder, name string, win quota.Window, length time.Duration) {
	now := f.opts.now()
	pct := fmt.Sprintf("%3.0f%%", win.Utilization)
	fmt.Fprintf(sb, "%-13s %s %s  resets in %s\n",
		name,
		ProgressBar(win.Utilization, f.opts.BarWidth, f.opts.Color),
		f.style(pct, LevelColor(quota.LevelFor(win.Utilization)), false),
		win.ResetsIn(now))

	if length > 0 {
		if p := quota.PaceFor(win, length, now); p != nil && p.Warning {
			line := fmt.Sprintf("%-13s at this pace the limit is hit in %s", "", quota.FormatApprox(p.TimeToLimit))
			sb.WriteString(f.style(line, lipgloss.Color("11"), false) + "\n")
		}
	}
}

func (f *PlainFormatter) style(s string, color lipgloss.Color, bold bool) string {
	if !f.opts.Color {
		return s
	}
	return lipgloss.NewStyle().Foreground(color).Bold(bold).Render(s)
}

// levelMessage is the one-line status for a level.
func levelMessage(level quota.Level) string {
	switch level {
	case quota.LevelLocked:
		return "Locked: quota exhausted"
	case quota.LevelCritical:
		return "Critical: approaching quota limit"
	case quota.LevelModerate:
		return "Moderate usage, pace yourself"
	default:
		return "Quota healthy"
	}
}

// ExtraUsageLine describes pay-as-you-go credits, or "" when disabled.
func ExtraUsageLine(e quota.ExtraUsage) string {
	if !e.Enabled {
		return ""
	}
	switch {
	case e.UsedCredits != nil && e.MonthlyLimit != nil:
		return fmt.Sprintf("Extra usage: %s of %s credits", humanize.CommafWithDigits(*e.UsedCredits, 2), humanize.CommafWithDigits(*e.MonthlyLimit, 2))
	case e.UsedCredits != nil:
		return fmt.Sprintf("Extra usage: %s credits", humanize.CommafWithDigits(*e.UsedCredits, 2))
	default:
		return "Extra usage: enabled"
	}
}
