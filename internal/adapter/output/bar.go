package output

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/tokentray/internal/quota"
)

// LevelColor maps a quota level to a terminal colour.
func LevelColor(level quota.Level) lipgloss.Color {
	switch level {
	case quota.LevelModerate:
		return lipgloss.Color("11")
	case quota.LevelCritical, quota.LevelLocked:
		return lipgloss.Color("9")
	default:
		return lipgloss.Color("10")
	}
}

// ProgressBar renders utilization as a bar of filled and empty cells.
func ProgressBar(utilization float64, width int, color bool) string {
	if width <= 0 {
		width = 20
	}
	filled := int(math.Round(min(max(utilization, 0), 100) / 100 * float64(width)))
	full := strings.Repeat("█", filled)
	empty := strings.Repeat("░", width-filled)
	if !color {
		return full + empty
	}
	return lipgloss.NewStyle().Foreground(LevelColor(quota.LevelFor(utilization))).Render(full) +
		lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(empty)
}
