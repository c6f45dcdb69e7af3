package geoutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMiles(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		expected               float64
		delta                  float64
	}{
		{
			name: "same point",
			lat1: 40.7128, lon1: -74.0060,
			lat2: 40.7128, lon2: -74.0060,
			expected: 0, delta: 1e-9,
		},
		{
			name: "new york to philadelphia",
			lat1: 40.7128, lon1: -74.0060,
			lat2: 39.9526, lon2: -75.1652,
			expected: 80.6, delta: 1.0,
		},
		{
			name: "new york to los angeles",
			lat1: 40.7128, lon1: -74.0060,
			lat2: 34.0522, lon2: -118.2437,
			expected: 2445, delta: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DistanceMiles(tt.lat1, tt.lon1, tt.lat2, tt.lon2), tt.delta)
		})
	}
}

func TestDistanceMiles_Symmetric(t *testing.T) {
	a := DistanceMiles(40.7128, -74.0060, 39.9526, -75.1652)
	b := DistanceMiles(39.9526, -75.1652, 40.7128, -74.0060)
	assert.InDelta(t, a, b, 1e-9)
}

func TestMetersToMiles(t *testing.T) {
	assert.InDelta(t, 1.0, MetersToMiles(1609.344), 1e-9)
	assert.InDelta(t, 0.621371, MetersToMiles(1000), 1e-5)
}

func TestMilesToKm(t *testing.T) {
	assert.InDelta(t, 1.609344, MilesToKm(1), 1e-9)
	assert.InDelta(t, 80.4672, MilesToKm(50), 1e-6)
}

func TestValidCoordinate(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float64
		expected bool
	}{
		{name: "valid", lon: -74, lat: 40, expected: true},
		{name: "boundary values", lon: 180, lat: -90, expected: true},
		{name: "longitude too large", lon: 181, lat: 0, expected: false},
		{name: "latitude too small", lon: 0, lat: -91, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidCoordinate(tt.lon, tt.lat))
		})
	}
}
