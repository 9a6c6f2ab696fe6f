package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/tokentray/internal/store"
)

func TestSort_Empty(t *testing.T) {
	var samples []store.Sample
	Sort(samples, DefaultSortOptions())
	assert.Len(t, samples, 0)
}

func TestSort_ByTimestampDesc(t *testing.T) {
	samples := testSamples()
	Sort(samples, SortOptions{Field: SortByTimestamp, Order: SortDesc})
	assert.Equal(t, []string{"4", "3", "2", "1"}, ids(samples))
}

func TestSort_ByTimestampAsc(t *testing.T) {
	samples := testSamples()
	samples[0], samples[3] = samples[3], samples[0]
	Sort(samples, DefaultSortOptions())
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(samples))
}

func TestSort_ByFiveHourDesc(t *testing.T) {
	samples := testSamples()
	Sort(samples, SortOptions{Field: SortByFiveHour, Order: SortDesc})
	assert.Equal(t, []string{"4", "2", "3", "1"}, ids(samples))
}

func TestSort_BySevenDayAsc(t *testing.T) {
	samples := testSamples()
	Sort(samples, SortOptions{Field: SortBySevenDay, Order: SortAsc})
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(samples))
}

func TestSort_ByPeakDesc(t *testing.T) {
	samples := testSamples()
	Sort(samples, SortOptions{Field: SortByPeak, Order: SortDesc})
	// peaks: 1=40, 2=85, 3=91, 4=95
	assert.Equal(t, []string{"4", "3", "2", "1"}, ids(samples))
}

func TestParseSortField(t *testing.T) {
	tests := []struct {
		input   string
		want    SortField
		wantErr bool
	}{
		{"timestamp", SortByTimestamp, false},
		{"", SortByTimestamp, false},
		{"5h", SortByFiveHour, false},
		{"SEVEN_DAY", SortBySevenDay, false},
		{"peak", SortByPeak, false},
		{"urgency", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSortField(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSortOrder(t *testing.T) {
	got, err := ParseSortOrder("descending")
	require.NoError(t, err)
	assert.Equal(t, SortDesc, got)

	got, err = ParseSortOrder("a")
	require.NoError(t, err)
	assert.Equal(t, SortAsc, got)

	_, err = ParseSortOrder("sideways")
	assert.Error(t, err)
}
