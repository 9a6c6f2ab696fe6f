package quota

import (
	"fmt"
	"time"
)

// minPaceElapsed is the least amount of window time needed before a rate is meaningful.
const minPaceElapsed = time.Minute

// Pace projects when a window will run out at its current rate.
type Pace struct {
	TimeToLimit time.Duration
	TimeToReset time.Duration
	// Warning is set when the limit will be hit before the window resets.
	Warning bool
}

// PaceFor computes the pace for w, a window of the given length.
// It returns nil when there is not enough data or the window is already locked.
func PaceFor(w Window, length time.Duration, now time.Time) *Pace {
	if w.ResetsAt.IsZero() {
		return nil
	}
	toReset := w.ResetsAt.Sub(now)
	if toReset <= 0 {
		return nil
	}
	elapsed := length - toReset
	if elapsed <= minPaceElapsed {
		return nil
	}
	if w.Utilization <= 0 || w.Locked() {
		return nil
	}

	rate := w.Utilization / elapsed.Seconds()
	toLimit := time.Duration((100 - w.Utilization) / rate * float64(time.Second))
	return &Pace{
		TimeToLimit: toLimit,
		TimeToReset: toReset,
		Warning:     toLimit < toReset,
	}
}

// FormatApprox renders a duration as "~2h 5m" or "~40m".
func FormatApprox(d time.Duration) string {
	total := int(d / time.Minute)
	if h := total / 60; h > 0 {
		return fmt.Sprintf("~%dh %dm", h, total%60)
	}
	return fmt.Sprintf("~%dm", total)
}
