package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jmylchreest/tokentray/internal/store"
)

// SortField represents a field to sort by.
type SortField string

const (
	SortByTimestamp SortField = "timestamp"
	SortByFiveHour  SortField = "five_hour"
	SortBySevenDay  SortField = "seven_day"
	SortByPeak      SortField = "peak"
)

// SortOrder represents ascending or descending order.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortOptions specifies sorting criteria.
type SortOptions struct {
	Field SortField // Field to sort by
	Order SortOrder // Sort order (asc/desc)
}

// DefaultSortOptions returns default sort options (oldest first, as recorded).
func DefaultSortOptions() SortOptions {
	return SortOptions{
		Field: SortByTimestamp,
		Order: SortAsc,
	}
}

// Sort sorts samples in place based on the provided options.
func Sort(samples []store.Sample, opts SortOptions) {
	if len(samples) == 0 {
		return
	}

	sort.SliceStable(samples, func(i, j int) bool {
		a, b := samples[i], samples[j]
		if opts.Order == SortDesc {
			a, b = b, a
		}

		switch opts.Field {
		case SortByFiveHour:
			return a.FiveHour < b.FiveHour
		case SortBySevenDay:
			return a.SevenDay < b.SevenDay
		case SortByPeak:
			return a.Peak() < b.Peak()
		default:
			return a.Timestamp.Before(b.Timestamp)
		}
	})
}

// ParseSortField parses a sort field string.
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "timestamp", "time", "t", "":
		return SortByTimestamp, nil
	case "five_hour", "5h":
		return SortByFiveHour, nil
	case "seven_day", "7d":
		return SortBySevenDay, nil
	case "peak", "p":
		return SortByPeak, nil
	default:
		return "", fmt.Errorf("unknown sort field: %q", s)
	}
}

// ParseSortOrder parses a sort order string.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending", "a", "":
		return SortAsc, nil
	case "desc", "descending", "d":
		return SortDesc, nil
	default:
		return "", fmt.Errorf("unknown sort order: %q", s)
	}
}
