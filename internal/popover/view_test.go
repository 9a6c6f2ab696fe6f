package popover

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/tokentray/internal/quota"
)

var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func result(doc string) *quota.Result {
	return &quota.Result{Raw: json.RawMessage(doc), FetchedAt: testNow.Add(-3 * time.Minute)}
}

func TestBuildContent_Loading(t *testing.T) {
	c := BuildContent(nil, nil, testNow)
	assert.Equal(t, "Loading…", c.Header)
	assert.Empty(t, c.Rows)
	assert.Empty(t, c.Error)
}

func TestBuildContent_Usage(t *testing.T) {
	c := BuildContent(result(`{
		"five_hour": {"utilization": 93, "resets_at": "2026-10-18T14:30:00Z"},
		"seven_day": {"utilization": 40, "resets_at": "2026-10-21T12:00:00Z"},
		"extra_usage": {"is_enabled": true, "monthly_limit": 5000, "used_credits": 1250.5}
	}`), nil, testNow)

	assert.Equal(t, quota.LevelCritical, c.Level)
	assert.Equal(t, "Running low (93%)", c.Header)
	require.Len(t, c.Rows, 2)

	assert.Equal(t, "5-hour", c.Rows[0].Name)
	assert.InDelta(t, 0.93, c.Rows[0].Fraction, 0.0001)
	assert.Equal(t, "93%", c.Rows[0].Percent)
	assert.Equal(t, "Resets in 2h 30m", c.Rows[0].Resets)

	assert.Equal(t, "7-day", c.Rows[1].Name)
	assert.Equal(t, quota.LevelHealthy, c.Rows[1].Level)
	assert.Equal(t, "Resets in 3d", c.Rows[1].Resets)

	assert.Contains(t, c.Extra, "1,250.5")
	assert.Equal(t, "Updated 3 minutes ago", c.Updated)
}

func TestBuildContent_Sonnet(t *testing.T) {
	c := BuildContent(result(`{
		"five_hour": {"utilization": 10},
		"seven_day": {"utilization": 20},
		"seven_day_sonnet": {"utilization": 30}
	}`), nil, testNow)
	require.Len(t, c.Rows, 3)
	assert.Equal(t, "7-day Sonnet", c.Rows[2].Name)
	assert.Empty(t, c.Rows[2].Pace)
}

func TestBuildContent_Locked(t *testing.T) {
	c := BuildContent(result(`{"five_hour": {"utilization": 100}, "seven_day": {"utilization": 50}}`), nil, testNow)
	assert.Equal(t, quota.LevelLocked, c.Level)
	assert.Equal(t, "Limit reached", c.Header)
	assert.Equal(t, 1.0, c.Rows[0].Fraction)
}

func TestBuildContent_UnrecognisedDocument(t *testing.T) {
	c := BuildContent(result(`{"used": 10, "limit": 100}`), nil, testNow)
	assert.Empty(t, c.Rows)
	assert.Equal(t, `{"used": 10, "limit": 100}`, c.Raw)
}

func TestBuildContent_ErrorWithoutResult(t *testing.T) {
	err := &quota.FetchError{Kind: quota.KindResourceResolutionFailure, Message: "helper script not found"}
	c := BuildContent(nil, err, testNow)
	assert.Equal(t, "Quota unavailable", c.Header)
	assert.Contains(t, c.Error, "Helper script not found")
}

func TestBuildContent_ErrorKeepsStaleResult(t *testing.T) {
	err := &quota.FetchError{Kind: quota.KindResponseParseFailure, Message: "invalid JSON"}
	c := BuildContent(result(`{"five_hour": {"utilization": 10}, "seven_day": {"utilization": 20}}`), err, testNow)
	assert.Len(t, c.Rows, 2)
	assert.Equal(t, "Helper returned invalid output", c.Error)
}

func TestLevelClass(t *testing.T) {
	assert.Equal(t, "level-critical", levelClass(quota.LevelCritical))
	assert.Empty(t, levelClass(""))
}
