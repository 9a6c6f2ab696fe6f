package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `{
  "five_hour": {"utilization": 42, "resets_at": "2026-03-01T15:00:00Z"},
  "seven_day": {"utilization": 71.5, "resets_at": "2026-03-04T10:00:00Z"},
  "seven_day_sonnet": {"utilization": 12, "resets_at": "2026-03-04T10:00:00Z"},
  "extra_usage": {"is_enabled": true, "monthly_limit": 50, "used_credits": null}
}`

func TestParseUsage(t *testing.T) {
	u, err := ParseUsage(&Result{Raw: []byte(sampleDoc)})
	require.NoError(t, err)

	assert.Equal(t, 42.0, u.FiveHour.Utilization)
	assert.Equal(t, time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC), u.FiveHour.ResetsAt.UTC())
	assert.Equal(t, 71.5, u.SevenDay.Utilization)
	require.NotNil(t, u.SevenDaySonnet)
	assert.Equal(t, 12.0, u.SevenDaySonnet.Utilization)
	assert.True(t, u.Extra.Enabled)
	require.NotNil(t, u.Extra.MonthlyLimit)
	assert.Equal(t, 50.0, *u.Extra.MonthlyLimit)
	assert.Nil(t, u.Extra.UsedCredits)

	assert.Equal(t, 71.5, u.Peak())
	w, length := u.Binding()
	assert.Equal(t, u.SevenDay, w)
	assert.Equal(t, SevenDayDuration, length)
	assert.Equal(t, LevelModerate, u.Level())
	assert.False(t, u.Locked())
}

func TestParseUsage_Lenient(t *testing.T) {
	u, err := ParseUsage(&Result{Raw: []byte(`{"five_hour": {"utilization": 5}}`)})
	require.NoError(t, err)
	assert.Equal(t, 5.0, u.FiveHour.Utilization)
	assert.True(t, u.FiveHour.ResetsAt.IsZero())
	assert.Nil(t, u.SevenDaySonnet)
	assert.False(t, u.Extra.Enabled)
}

func TestParseUsage_Unrecognised(t *testing.T) {
	_, err := ParseUsage(&Result{Raw: []byte(`{"used": 10, "limit": 100}`)})
	assert.Error(t, err)

	_, err = ParseUsage(&Result{Raw: []byte(`nope`)})
	assert.Error(t, err)

	_, err = ParseUsage(nil)
	assert.Error(t, err)
}

func TestBinding_TieGoesToFiveHour(t *testing.T) {
	u := &Usage{FiveHour: Window{Utilization: 50}, SevenDay: Window{Utilization: 50}}
	_, length := u.Binding()
	assert.Equal(t, FiveHourDuration, length)
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		util float64
		want Level
	}{
		{0, LevelHealthy},
		{69.9, LevelHealthy},
		{70, LevelModerate},
		{89, LevelModerate},
		{90, LevelCritical},
		{99.9, LevelCritical},
		{100, LevelLocked},
		{120, LevelLocked},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.util), "utilization %v", tt.util)
	}
}

func TestWindow_ResetsIn(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		in   time.Duration
		want string
	}{
		{-time.Minute, "now"},
		{0, "now"},
		{42*time.Minute + 10*time.Second, "42m"},
		{2*time.Hour + 15*time.Minute, "2h 15m"},
		{3*24*time.Hour + 4*time.Hour + 5*time.Minute, "3d 4h"},
		{2 * 24 * time.Hour, "2d"},
	}
	for _, tt := range tests {
		w := Window{ResetsAt: now.Add(tt.in)}
		assert.Equal(t, tt.want, w.ResetsIn(now), "in %v", tt.in)
	}
	assert.Equal(t, "unknown", Window{}.ResetsIn(now))
}

func TestPaceFor(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// 1h into a 5h window at 40%: 1.5h to the limit, 4h to reset.
	p := PaceFor(Window{Utilization: 40, ResetsAt: now.Add(4 * time.Hour)}, FiveHourDuration, now)
	require.NotNil(t, p)
	assert.Equal(t, 90*time.Minute, p.TimeToLimit.Round(time.Second))
	assert.Equal(t, 4*time.Hour, p.TimeToReset)
	assert.True(t, p.Warning)

	// 4h in at 20%: 16h to the limit, well after reset.
	p = PaceFor(Window{Utilization: 20, ResetsAt: now.Add(time.Hour)}, FiveHourDuration, now)
	require.NotNil(t, p)
	assert.False(t, p.Warning)
}

func TestPaceFor_NotEnoughData(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Nil(t, PaceFor(Window{Utilization: 10, ResetsAt: now.Add(FiveHourDuration - 30*time.Second)}, FiveHourDuration, now))
	assert.Nil(t, PaceFor(Window{Utilization: 0, ResetsAt: now.Add(time.Hour)}, FiveHourDuration, now))
	assert.Nil(t, PaceFor(Window{Utilization: 100, ResetsAt: now.Add(time.Hour)}, FiveHourDuration, now))
	assert.Nil(t, PaceFor(Window{Utilization: 10, ResetsAt: now.Add(-time.Minute)}, FiveHourDuration, now))
	assert.Nil(t, PaceFor(Window{Utilization: 10}, FiveHourDuration, now))
}

func TestFormatApprox(t *testing.T) {
	assert.Equal(t, "~40m", FormatApprox(40*time.Minute))
	assert.Equal(t, "~2h 5m", FormatApprox(2*time.Hour+5*time.Minute))
}
