package daemon

import (
	"fmt"
	"sync"
	"time"

	"github.com/jmylchreest/tokentray/internal/quota"
)

// Threshold is an alert severity within one reset cycle.
type Threshold int

const (
	ThresholdNone Threshold = iota
	ThresholdPaceWarning
	ThresholdRunningLow
	ThresholdLocked
)

// String returns the string representation of Threshold.
func (t Threshold) String() string {
	switch t {
	case ThresholdPaceWarning:
		return "pace"
	case ThresholdRunningLow:
		return "low"
	case ThresholdLocked:
		return "locked"
	default:
		return "none"
	}
}

const (
	runningLowUtilization = 90
	// Pace warnings are only raised past this utilization.
	paceWarningUtilization = 50
	// Reset times within this tolerance belong to the same cycle.
	cycleTolerance = 60 * time.Second
)

// Alert is a notification the evaluator wants delivered.
type Alert struct {
	Key       string // rate-limit and replacement key, e.g. "five-hour-low"
	Window    string // "five-hour" or "seven-day"
	Threshold Threshold
	Restored  bool
	Summary   string
	Body      string
}

type windowState struct {
	highest  Threshold
	resetsAt time.Time
	locked   bool
}

// AlertEvaluator tracks, per quota window, the highest threshold already
// reported in the current reset cycle and emits alerts for new ones.
type AlertEvaluator struct {
	mu     sync.Mutex
	states map[string]*windowState
	now    func() time.Time
}

// NewAlertEvaluator creates an evaluator with no history.
func NewAlertEvaluator() *AlertEvaluator {
	return &AlertEvaluator{
		states: make(map[string]*windowState),
		now:    time.Now,
	}
}

// Evaluate inspects a fresh usage snapshot and returns the alerts to send.
func (e *AlertEvaluator) Evaluate(u *quota.Usage) []Alert {
	if u == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var alerts []Alert
	alerts = append(alerts, e.evaluateWindow("five-hour", "5-hour", u.FiveHour, quota.FiveHourDuration, now)...)
	alerts = append(alerts, e.evaluateWindow("seven-day", "7-day", u.SevenDay, quota.SevenDayDuration, now)...)
	return alerts
}

// Reset forgets all cycle state.
func (e *AlertEvaluator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.states = make(map[string]*windowState)
}

func (e *AlertEvaluator) evaluateWindow(id, label string, w quota.Window, length time.Duration, now time.Time) []Alert {
	var alerts []Alert

	state := e.states[id]
	if state != nil && !sameCycle(state.resetsAt, w.ResetsAt) {
		if state.locked && !w.Locked() {
			alerts = append(alerts, Alert{
				Key:      id + "-restored",
				Window:   id,
				Restored: true,
				Summary:  "Token Tray",
				Body:     "Quota restored.",
			})
		}
		state = nil
	}
	if state == nil {
		state = &windowState{resetsAt: w.ResetsAt}
		e.states[id] = state
	}
	state.locked = w.Locked()

	pace := quota.PaceFor(w, length, now)
	threshold := thresholdFor(w, pace)
	if threshold == ThresholdNone || threshold <= state.highest {
		return alerts
	}
	state.highest = threshold

	alert := Alert{
		Key:       id + "-" + threshold.String(),
		Window:    id,
		Threshold: threshold,
		Summary:   "Token Tray",
	}
	switch threshold {
	case ThresholdPaceWarning:
		alert.Body = fmt.Sprintf("At current pace, %s limit around %s. Resets in %s.",
			label, formatClock(now.Add(pace.TimeToLimit), now), w.ResetsIn(now))
	case ThresholdRunningLow:
		alert.Body = fmt.Sprintf("%s window at 90%%. Resets in %s.", label, w.ResetsIn(now))
	case ThresholdLocked:
		alert.Body = "Limit reached."
		if !w.ResetsAt.IsZero() {
			alert.Body = fmt.Sprintf("Limit reached. Back at %s.", formatClock(w.ResetsAt, now))
		}
	}
	return append(alerts, alert)
}

func thresholdFor(w quota.Window, pace *quota.Pace) Threshold {
	switch {
	case w.Locked():
		return ThresholdLocked
	case w.Utilization >= runningLowUtilization:
		return ThresholdRunningLow
	case pace != nil && pace.Warning && w.Utilization > paceWarningUtilization:
		return ThresholdPaceWarning
	default:
		return ThresholdNone
	}
}

func sameCycle(a, b time.Time) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= cycleTolerance
}

// formatClock renders t as "15:04", "tomorrow 15:04" or "Mon 15:04" relative to now.
func formatClock(t, now time.Time) string {
	t = t.In(now.Location())
	switch {
	case sameDay(t, now):
		return t.Format("15:04")
	case sameDay(t, now.AddDate(0, 0, 1)):
		return "tomorrow " + t.Format("15:04")
	default:
		return t.Format("Mon 15:04")
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
