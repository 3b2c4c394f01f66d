package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAirplaneTypeFor(t *testing.T) {
	tests := []struct {
		capacity int
		want     AirplaneType
	}{
		{1, AirplaneTypeSmall},
		{100, AirplaneTypeSmall},
		{101, AirplaneTypeMedium},
		{199, AirplaneTypeMedium},
		{200, AirplaneTypeLarge},
		{853, AirplaneTypeLarge},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AirplaneTypeFor(tt.capacity), "capacity %d", tt.capacity)
	}
}

func TestAirplaneName(t *testing.T) {
	assert.True(t, AirplaneBoeing787.Valid())
	assert.Equal(t, "Boeing-787", AirplaneBoeing787.DisplayName())
	assert.False(t, AirplaneName("B999").Valid())
	assert.Equal(t, "B999", AirplaneName("B999").DisplayName())
}

func TestDistanceRange(t *testing.T) {
	r, err := ParseDistanceRange("medium")
	require.NoError(t, err)
	min, max := r.Bounds()
	assert.Equal(t, 2001, min)
	assert.Equal(t, 5000, max)

	_, max = DistanceLong.Bounds()
	assert.Negative(t, max)

	_, err = ParseDistanceRange("galactic")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseDate("2024-02-29")
	require.NoError(t, err)
	start, end := DayRange(*got)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), end)

	_, err = ParseDate("29/02/2024")
	assert.Error(t, err)
}

func TestDayRangeNormalizesZone(t *testing.T) {
	zone := time.FixedZone("UTC+3", 3*60*60)
	start, _ := DayRange(time.Date(2024, 5, 2, 1, 0, 0, 0, zone))
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), start)
}
