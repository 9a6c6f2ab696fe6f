// Package core provides filtering and sorting of recorded quota samples.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/tokentray/internal/store"
)

// FilterOptions specifies criteria for filtering samples.
type FilterOptions struct {
	Since   time.Time // Drop samples recorded before this instant (zero=all)
	MinPeak float64   // Drop samples whose peak utilization is below this (0=all)
	Window  string    // Restrict MinPeak to one window: five_hour, seven_day (empty=peak)
	Limit   int       // Maximum results, counted from the newest (0=unlimited)
}

// Filter returns the samples matching opts, preserving their order.
func Filter(samples []store.Sample, opts FilterOptions) []store.Sample {
	result := make([]store.Sample, 0, len(samples))

	for _, s := range samples {
		if !opts.Since.IsZero() && s.Timestamp.Before(opts.Since) {
			continue
		}

		if opts.MinPeak > 0 && windowValue(s, opts.Window) < opts.MinPeak {
			continue
		}

		result = append(result, s)
	}

	// Keep the newest entries; input is in recording order.
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[len(result)-opts.Limit:]
	}

	return result
}

func windowValue(s store.Sample, window string) float64 {
	switch window {
	case WindowFiveHour:
		return s.FiveHour
	case WindowSevenDay:
		return s.SevenDay
	default:
		return s.Peak()
	}
}

// Window names accepted by ParseWindow.
const (
	WindowFiveHour = "five_hour"
	WindowSevenDay = "seven_day"
)

// ParseWindow normalizes a window name. Empty means the peak of both.
func ParseWindow(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "peak":
		return "", nil
	case "five_hour", "5h", "session":
		return WindowFiveHour, nil
	case "seven_day", "7d", "weekly":
		return WindowSevenDay, nil
	default:
		return "", fmt.Errorf("unknown window: %q", s)
	}
}

// ParsePercent parses a utilization threshold such as "80" or "80%".
func ParsePercent(s string) (float64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid percentage: %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("percentage must not be negative: %q", s)
	}
	return v, nil
}
