package geofence

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceKm(t *testing.T) {
	// Zurich to Geneva is roughly 224km.
	d := DistanceKm(47.3769, 8.5417, 46.2044, 6.1432)
	assert.InDelta(t, 224, d, 5)

	assert.InDelta(t, 0, DistanceKm(10, 10, 10, 10), 1e-9)
}

func TestFenceContains(t *testing.T) {
	fence, err := New(DefaultFacilities)
	require.NoError(t, err)

	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"near zug", 47.1, 8.5, true},
		{"sea of japan", 56.3304, 130.3221, false},
		{"okinawa waters", 26.39, 129.19, false},
		{"rahway", 40.61, -74.28, true},
		{"not a number", math.NaN(), math.NaN(), false},
		{"infinite latitude", math.Inf(1), 8.5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fence.Contains(tt.lat, tt.lon))
		})
	}
}

func TestFenceNearest(t *testing.T) {
	fence, err := New([]Facility{
		{Name: "a", Lat: 0, Lon: 0, RadiusKm: 500},
		{Name: "b", Lat: 0, Lon: 2, RadiusKm: 500},
	})
	require.NoError(t, err)

	fac, ok := fence.Nearest(0, 1.8)
	require.True(t, ok)
	assert.Equal(t, "b", fac.Name)
}

func TestNewRejectsBadFacilities(t *testing.T) {
	_, err := New([]Facility{{Name: "x", Lat: 91, Lon: 0, RadiusKm: 1}})
	assert.Error(t, err)

	_, err = New([]Facility{{Name: "y", Lat: 0, Lon: 0, RadiusKm: 0}})
	assert.Error(t, err)
}

func TestEmptyFenceContainsNothing(t *testing.T) {
	fence, err := New(nil)
	require.NoError(t, err)
	assert.False(t, fence.Contains(0, 0))
}
