package store

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/tokentray/internal/quota"
)

// Sample is one recorded quota reading.
type Sample struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"ts"`
	FiveHour         float64   `json:"five_hour"`
	SevenDay         float64   `json:"seven_day"`
	SevenDaySonnet   *float64  `json:"seven_day_sonnet,omitempty"`
	FiveHourResetsAt time.Time `json:"five_hour_resets_at,omitzero"`
	SevenDayResetsAt time.Time `json:"seven_day_resets_at,omitzero"`
}

// NewSample creates a sample from a parsed quota reading.
func NewSample(u *quota.Usage) (Sample, error) {
	ts := u.FetchedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	id, err := ulid.New(ulid.Timestamp(ts), rand.Reader)
	if err != nil {
		return Sample{}, err
	}

	s := Sample{
		ID:               id.String(),
		Timestamp:        ts.UTC(),
		FiveHour:         u.FiveHour.Utilization,
		SevenDay:         u.SevenDay.Utilization,
		FiveHourResetsAt: u.FiveHour.ResetsAt,
		SevenDayResetsAt: u.SevenDay.ResetsAt,
	}
	if u.SevenDaySonnet != nil {
		v := u.SevenDaySonnet.Utilization
		s.SevenDaySonnet = &v
	}
	return s, nil
}

// Peak returns the higher of the two primary window utilizations.
func (s Sample) Peak() float64 {
	return max(s.FiveHour, s.SevenDay)
}
