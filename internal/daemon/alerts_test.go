package daemon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/tokentray/internal/quota"
)

var alertNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func newTestEvaluator() *AlertEvaluator {
	e := NewAlertEvaluator()
	e.now = func() time.Time { return alertNow }
	return e
}

func usage(fiveHour float64, fiveReset time.Time, sevenDay float64, sevenReset time.Time) *quota.Usage {
	return &quota.Usage{
		FiveHour: quota.Window{Utilization: fiveHour, ResetsAt: fiveReset},
		SevenDay: quota.Window{Utilization: sevenDay, ResetsAt: sevenReset},
	}
}

func TestAlertEvaluator_NothingBelowThresholds(t *testing.T) {
	e := newTestEvaluator()
	reset := alertNow.Add(4 * time.Hour)
	assert.Empty(t, e.Evaluate(usage(10, reset, 5, alertNow.Add(6*24*time.Hour))))
	assert.Empty(t, e.Evaluate(nil))
}

func TestAlertEvaluator_RunningLowOncePerCycle(t *testing.T) {
	e := newTestEvaluator()
	reset := alertNow.Add(2 * time.Hour)
	week := alertNow.Add(5 * 24 * time.Hour)

	alerts := e.Evaluate(usage(91, reset, 10, week))
	require.Len(t, alerts, 1)
	assert.Equal(t, "five-hour-low", alerts[0].Key)
	assert.Equal(t, ThresholdRunningLow, alerts[0].Threshold)
	assert.Equal(t, "5-hour window at 90%. Resets in 2h 0m.", alerts[0].Body)

	assert.Empty(t, e.Evaluate(usage(95, reset, 10, week)), "same threshold in same cycle")
	assert.Empty(t, e.Evaluate(usage(92, reset.Add(30*time.Second), 10, week)), "reset jitter within tolerance")
}

func TestAlertEvaluator_EscalatesToLocked(t *testing.T) {
	e := newTestEvaluator()
	reset := alertNow.Add(90 * time.Minute)
	week := alertNow.Add(5 * 24 * time.Hour)

	require.Len(t, e.Evaluate(usage(91, reset, 10, week)), 1)

	alerts := e.Evaluate(usage(100, reset, 10, week))
	require.Len(t, alerts, 1)
	assert.Equal(t, ThresholdLocked, alerts[0].Threshold)
	assert.Equal(t, "Limit reached. Back at 13:30.", alerts[0].Body)

	assert.Empty(t, e.Evaluate(usage(91, reset, 10, week)), "lower threshold after higher is silent")
}

func TestAlertEvaluator_RestoredAfterLockedCycle(t *testing.T) {
	e := newTestEvaluator()
	reset := alertNow.Add(30 * time.Minute)
	week := alertNow.Add(5 * 24 * time.Hour)

	require.Len(t, e.Evaluate(usage(100, reset, 10, week)), 1)

	alerts := e.Evaluate(usage(2, reset.Add(5*time.Hour), 10, week))
	require.Len(t, alerts, 1)
	assert.True(t, alerts[0].Restored)
	assert.Equal(t, "five-hour-restored", alerts[0].Key)
	assert.Equal(t, "Quota restored.", alerts[0].Body)

	// New cycle starts fresh: running low fires again.
	alerts = e.Evaluate(usage(91, reset.Add(5*time.Hour), 10, week))
	require.Len(t, alerts, 1)
	assert.Equal(t, ThresholdRunningLow, alerts[0].Threshold)
}

func TestAlertEvaluator_NewCycleWithoutLockIsQuiet(t *testing.T) {
	e := newTestEvaluator()
	reset := alertNow.Add(30 * time.Minute)
	week := alertNow.Add(5 * 24 * time.Hour)

	require.Len(t, e.Evaluate(usage(91, reset, 10, week)), 1)
	assert.Empty(t, e.Evaluate(usage(5, reset.Add(5*time.Hour), 10, week)))
}

func TestAlertEvaluator_PaceWarning(t *testing.T) {
	e := newTestEvaluator()
	// 1h into the 5h window at 60%: limit in ~40m, well before reset.
	reset := alertNow.Add(4 * time.Hour)
	week := alertNow.Add(5 * 24 * time.Hour)

	alerts := e.Evaluate(usage(60, reset, 10, week))
	require.Len(t, alerts, 1)
	assert.Equal(t, ThresholdPaceWarning, alerts[0].Threshold)
	assert.Equal(t, "five-hour-pace", alerts[0].Key)
	assert.Contains(t, alerts[0].Body, "At current pace, 5-hour limit around 12:40.")
}

func TestAlertEvaluator_PaceWarningNeedsHalfUsed(t *testing.T) {
	e := newTestEvaluator()
	// Fast pace but only 40% used.
	reset := alertNow.Add(4*time.Hour + 30*time.Minute)
	assert.Empty(t, e.Evaluate(usage(40, reset, 10, alertNow.Add(5*24*time.Hour))))
}

func TestAlertEvaluator_WindowsIndependent(t *testing.T) {
	e := newTestEvaluator()
	alerts := e.Evaluate(usage(100, alertNow.Add(time.Hour), 100, alertNow.Add(2*24*time.Hour)))
	require.Len(t, alerts, 2)
	assert.Equal(t, "five-hour-locked", alerts[0].Key)
	assert.Equal(t, "seven-day-locked", alerts[1].Key)
	assert.Equal(t, "Limit reached. Back at Tue 12:00.", alerts[1].Body)
}

func TestAlertEvaluator_Reset(t *testing.T) {
	e := newTestEvaluator()
	reset := alertNow.Add(2 * time.Hour)
	require.Len(t, e.Evaluate(usage(91, reset, 10, reset)), 1)
	e.Reset()
	assert.Len(t, e.Evaluate(usage(91, reset, 10, reset)), 1)
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "15:30", formatClock(alertNow.Add(3*time.Hour+30*time.Minute), alertNow))
	assert.Equal(t, "tomorrow 09:00", formatClock(alertNow.Add(21*time.Hour), alertNow))
	assert.Equal(t, "Thu 12:00", formatClock(alertNow.Add(4*24*time.Hour), alertNow))
}
