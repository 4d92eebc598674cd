package trainer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm(t *testing.T) {
	assert.InDelta(t, 0, HaversineKm(40.4168, -3.7038, 40.4168, -3.7038), 1e-9)
	// Madrid to Barcelona
	assert.InDelta(t, 505, HaversineKm(40.4168, -3.7038, 41.3874, 2.1686), 5)
	// one degree of latitude
	assert.InDelta(t, 111.19, HaversineKm(0, 0, 1, 0), 0.01)
}

func TestDistanceMeters(t *testing.T) {
	assert.Equal(t, 0.0, DistanceMeters(nil))
	assert.Equal(t, 0.0, DistanceMeters([]Coordinate{{Lat: 40, Lng: -3}}))

	trail := []Coordinate{
		{Lat: 0, Lng: 0},
		{Lat: 0.001, Lng: 0},
		{Lat: 0.002, Lng: 0},
	}
	assert.InDelta(t, 222.4, DistanceMeters(trail), 0.5)
}

func TestRouteMap_Clone(t *testing.T) {
	m := RouteMap{0: {{Lat: 1, Lng: 2}}}
	clone := m.Clone()
	clone[0][0].Lat = 9
	clone[1] = []Coordinate{{Lat: 3}}

	assert.Equal(t, 1.0, m[0][0].Lat)
	assert.NotContains(t, m, 1)
}
