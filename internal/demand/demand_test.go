package demand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/siteselect-cli/internal/geo"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)

	pts := []geo.Point{{Lat: 6.15, Lon: -75.37}}

	_, err = New(pts, []float64{1, 2})
	require.Error(t, err)

	_, err = New(pts, []float64{-5})
	require.Error(t, err)

	m, err := New(pts, []float64{100})
	require.NoError(t, err)
	assert.InDelta(t, 100, m.TotalPopulation(), 1e-9)
}

func TestUniformOverGrid(t *testing.T) {
	grid, err := geo.Grid("rionegro", geo.Point{Lat: 6.1536, Lon: -75.3743}, 5, 10)
	require.NoError(t, err)

	m, err := UniformOverGrid(grid, 87000)
	require.NoError(t, err)
	require.Len(t, m.Points, 100)
	require.Len(t, m.Weights, 100)

	// Every cell carries the same share and the mass is conserved.
	assert.InDelta(t, 870, m.Weights[0], 1e-9)
	assert.InDelta(t, m.Weights[0], m.Weights[99], 1e-12)
	assert.InDelta(t, 87000, m.TotalPopulation(), 1e-6)
}

func TestUniformOverGrid_Errors(t *testing.T) {
	_, err := UniformOverGrid(nil, 1000)
	require.Error(t, err)

	grid, err := geo.Grid("guarne", geo.Point{Lat: 6.28, Lon: -75.44}, 5, 3)
	require.NoError(t, err)

	_, err = UniformOverGrid(grid, -1)
	require.Error(t, err)
}
