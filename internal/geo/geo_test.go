package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversine_Reflexive(t *testing.T) {
	p := Point{Lat: 6.1536, Lon: -75.3743}
	assert.Equal(t, 0.0, Haversine(p, p))
}

func TestHaversine_Symmetric(t *testing.T) {
	a := Point{Lat: 6.1536, Lon: -75.3743}
	b := Point{Lat: 6.0297, Lon: -75.4294}
	assert.InDelta(t, Haversine(a, b), Haversine(b, a), 1e-12)
}

func TestHaversine_KnownDistance(t *testing.T) {
	// One degree of latitude on a 6371 km sphere is ~111.19 km.
	a := Point{Lat: 0, Lon: 0}
	b := Point{Lat: 1, Lon: 0}
	assert.InDelta(t, 111.19, Haversine(a, b), 0.1)
}

func TestPlanarDegrees(t *testing.T) {
	a := Point{Lat: 0, Lon: 0}
	b := Point{Lat: 3, Lon: 4}
	assert.InDelta(t, 5.0, PlanarDegrees(a, b), 1e-12)
	assert.InDelta(t, 5.0*KMPerDegree, PlanarKM(a, b), 1e-9)
}

func TestGrid_SizeAndBounds(t *testing.T) {
	center := Point{Lat: 6.15, Lon: -75.37}
	candidates, err := Grid("Rionegro", center, 5.0, 10)
	require.NoError(t, err)
	require.Len(t, candidates, 100)

	radiusDeg := 5.0 * DegreesPerKM
	for _, c := range candidates {
		assert.GreaterOrEqual(t, c.Lat, center.Lat-radiusDeg-1e-9)
		assert.LessOrEqual(t, c.Lat, center.Lat+radiusDeg+1e-9)
		assert.GreaterOrEqual(t, c.Lon, center.Lon-radiusDeg-1e-9)
		assert.LessOrEqual(t, c.Lon, center.Lon+radiusDeg+1e-9)
	}

	// IDs are stable and unique.
	assert.Equal(t, "Rionegro_0_0", candidates[0].ID)
	assert.Equal(t, "Rionegro_9_9", candidates[99].ID)
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true
	}
}

func TestGrid_InvalidInput(t *testing.T) {
	_, err := Grid("X", Point{}, 5.0, 0)
	require.Error(t, err)

	_, err = Grid("X", Point{}, 0, 10)
	require.Error(t, err)
}
