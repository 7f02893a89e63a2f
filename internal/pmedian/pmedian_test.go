package pmedian

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/siteselect-cli/internal/geo"
)

func TestNew_InvalidFacilityCount(t *testing.T) {
	_, err := New(0)
	require.Error(t, err)

	_, err = New(-3)
	require.Error(t, err)
}

func TestOptimize_EmptyDemand(t *testing.T) {
	o, err := New(1)
	require.NoError(t, err)

	_, err = o.Optimize(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "demand points are required")
}

func TestOptimize_NegativeWeight(t *testing.T) {
	o, err := New(1)
	require.NoError(t, err)

	_, err = o.Optimize([]geo.Point{{Lat: 0, Lon: 0}}, []float64{-1})
	require.Error(t, err)
}

func TestOptimize_WeightLengthMismatch(t *testing.T) {
	o, err := New(1)
	require.NoError(t, err)

	_, err = o.Optimize([]geo.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}}, []float64{1})
	require.Error(t, err)
}

func TestOptimize_MoreFacilitiesThanPoints(t *testing.T) {
	o, err := New(3)
	require.NoError(t, err)

	_, err = o.Optimize([]geo.Point{{Lat: 0, Lon: 0}}, nil)
	require.Error(t, err)
}

func TestOptimize_TwoPointsOneFacility(t *testing.T) {
	o, err := New(1)
	require.NoError(t, err)

	points := []geo.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}}
	weights := []float64{100, 100}

	facilities, err := o.Optimize(points, weights)
	require.NoError(t, err)
	require.Len(t, facilities, 1)

	// Equal weights converge to the midpoint.
	assert.InDelta(t, 0.0, facilities[0].Lat, 1e-6)
	assert.InDelta(t, 0.5, facilities[0].Lon, 1e-6)
}

func TestOptimize_DoesNotMutateWeights(t *testing.T) {
	o, err := New(1)
	require.NoError(t, err)

	points := []geo.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}}
	weights := []float64{100, 300}

	_, err = o.Optimize(points, weights)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 300}, weights)
}

func TestOptimize_SkewedWeightsPullCenter(t *testing.T) {
	o, err := New(1)
	require.NoError(t, err)

	points := []geo.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}}
	facilities, err := o.Optimize(points, []float64{100, 300})
	require.NoError(t, err)
	require.Len(t, facilities, 1)

	// Weighted centroid sits at 0.75 of the way toward the heavier point.
	assert.InDelta(t, 0.75, facilities[0].Lon, 1e-6)
}

func TestOptimize_Deterministic(t *testing.T) {
	o, err := New(2)
	require.NoError(t, err)

	points := []geo.Point{
		{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.1}, {Lat: 0.05, Lon: 0.05},
		{Lat: 1, Lon: 1}, {Lat: 1, Lon: 1.1}, {Lat: 1.05, Lon: 1.05},
	}
	weights := []float64{10, 20, 30, 40, 50, 60}

	a, err := o.Optimize(points, weights)
	require.NoError(t, err)
	b, err := o.Optimize(points, weights)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRefine_ObjectiveNonIncreasing(t *testing.T) {
	points := []geo.Point{
		{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 0},
		{Lat: 1, Lon: 1}, {Lat: 0.2, Lon: 0.3}, {Lat: 0.8, Lon: 0.9},
	}
	weights := []float64{1.0 / 6, 1.0 / 6, 1.0 / 6, 1.0 / 6, 1.0 / 6, 1.0 / 6}
	initial := []geo.Point{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}}

	o := &Optimizer{Facilities: 2}

	prev := o.TotalWeightedDistance(initial, points, weights)
	centers := initial
	for iter := 1; iter <= 10; iter++ {
		centers = refine(points, weights, initial, iter, 0)
		current := o.TotalWeightedDistance(centers, points, weights)
		assert.LessOrEqual(t, current, prev+1e-12, "objective increased at iteration %d", iter)
		prev = current
	}
}

func TestTotalWeightedDistance(t *testing.T) {
	o := &Optimizer{Facilities: 2}
	facilities := []geo.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 10}}
	points := []geo.Point{{Lat: 0, Lon: 1}, {Lat: 0, Lon: 9}}
	weights := []float64{2, 3}

	// Each point snaps to its nearest facility at distance 1 degree.
	assert.InDelta(t, 2*1+3*1, o.TotalWeightedDistance(facilities, points, weights), 1e-12)
}

func TestAnalyzeCandidates(t *testing.T) {
	o, err := New(1)
	require.NoError(t, err)

	candidates := []geo.Candidate{
		{ID: "m_0_0", Point: geo.Point{Lat: 0, Lon: 0}},
		{ID: "m_0_1", Point: geo.Point{Lat: 0, Lon: 1}},
	}
	// One demand point on the first candidate, one far away.
	points := []geo.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 2}}
	weights := []float64{500, 700}

	metrics, err := o.AnalyzeCandidates(candidates, points, weights)
	require.NoError(t, err)
	require.Len(t, metrics, 2)

	assert.Equal(t, "m_0_0", metrics[0].CandidateID)
	assert.InDelta(t, 500*0+700*2, metrics[0].WeightedDistance, 1e-9)
	// Only the co-located point is within 5 km.
	assert.InDelta(t, 500, metrics[0].ReachablePopulation, 1e-9)

	assert.InDelta(t, 500*1+700*1, metrics[1].WeightedDistance, 1e-9)
	// 1 degree ~= 111 km away from both demand points.
	assert.InDelta(t, 0, metrics[1].ReachablePopulation, 1e-9)
}

func TestAnalyzeCandidates_EmptyDemand(t *testing.T) {
	o, err := New(1)
	require.NoError(t, err)

	_, err = o.AnalyzeCandidates([]geo.Candidate{{ID: "x"}}, nil, nil)
	require.Error(t, err)
}
