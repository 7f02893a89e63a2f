package huff

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/siteselect-cli/internal/geo"
)

func TestNew_Defaults(t *testing.T) {
	m := New(0, 0)
	assert.Equal(t, DefaultAlpha, m.Alpha)
	assert.Equal(t, DefaultBeta, m.Beta)

	m = New(1.5, 2.5)
	assert.Equal(t, 1.5, m.Alpha)
	assert.Equal(t, 2.5, m.Beta)
}

func TestProbability_Monopoly(t *testing.T) {
	m := New(DefaultAlpha, DefaultBeta)
	assert.Equal(t, 1.0, m.Probability(1.0, 3.0, nil))
	assert.Equal(t, 1.0, m.Probability(0.2, 12.0, []CompetitorDistance{}))
}

func TestProbability_IdenticalCompetitorSplitsEvenly(t *testing.T) {
	m := New(DefaultAlpha, DefaultBeta)
	p := m.Probability(1.0, 2.0, []CompetitorDistance{{Size: 1.0, DistanceKM: 2.0}})
	assert.InDelta(t, 0.5, p, 1e-12)
}

func TestProbability_Bounds(t *testing.T) {
	m := New(DefaultAlpha, DefaultBeta)
	competitors := []CompetitorDistance{
		{Size: 0.5, DistanceKM: 1.0},
		{Size: 0.8, DistanceKM: 0.3},
		{Size: 0.5, DistanceKM: 7.5},
	}
	for _, d := range []float64{0.001, 0.5, 1, 2, 5, 25} {
		p := m.Probability(1.0, d, competitors)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestProbability_ZeroDistanceFloored(t *testing.T) {
	m := New(DefaultAlpha, DefaultBeta)
	p := m.Probability(1.0, 0, []CompetitorDistance{{Size: 0.5, DistanceKM: 1.0}})
	assert.Greater(t, p, 0.99, "a store on top of the demand point should dominate")
	assert.LessOrEqual(t, p, 1.0)
}

func TestProbability_ZeroAttractiveness(t *testing.T) {
	m := New(DefaultAlpha, DefaultBeta)
	p := m.Probability(0, 1.0, []CompetitorDistance{{Size: 0, DistanceKM: 1.0}})
	assert.Equal(t, 0.0, p)
}

func TestProbability_CloserCompetitorReducesShare(t *testing.T) {
	m := New(DefaultAlpha, DefaultBeta)
	far := m.Probability(1.0, 1.0, []CompetitorDistance{{Size: 1.0, DistanceKM: 5.0}})
	near := m.Probability(1.0, 1.0, []CompetitorDistance{{Size: 1.0, DistanceKM: 0.5}})
	assert.Greater(t, far, near)
}

func TestMarketShare_MonopolyCapturesEverything(t *testing.T) {
	m := New(DefaultAlpha, DefaultBeta)
	points := []geo.Point{{Lat: 6.15, Lon: -75.37}, {Lat: 6.16, Lon: -75.38}}
	weights := []float64{1000, 2000}

	share := m.MarketShare(geo.Point{Lat: 6.155, Lon: -75.375}, 1.0, points, weights, nil)
	assert.InDelta(t, 3000, share, 1e-9)
}

func TestMarketShare_SymmetricCompetitorHalves(t *testing.T) {
	m := New(DefaultAlpha, DefaultBeta)
	// Demand point equidistant from store and an equal-size competitor.
	points := []geo.Point{{Lat: 6.15, Lon: -75.37}}
	weights := []float64{1000}

	store := geo.Point{Lat: 6.16, Lon: -75.37}
	comp := Competitor{Location: geo.Point{Lat: 6.14, Lon: -75.37}, Size: 1.0}

	share := m.MarketShare(store, 1.0, points, weights, []Competitor{comp})
	assert.InDelta(t, 500, share, 1e-6)
}

func TestAnalyzeLocation(t *testing.T) {
	m := New(DefaultAlpha, DefaultBeta)
	loc := geo.Point{Lat: 6.15, Lon: -75.37}

	// One point on top of the store, one ~111 km north (outside 10 km).
	points := []geo.Point{loc, {Lat: 7.15, Lon: -75.37}}
	weights := []float64{5000, 8000}

	analysis := m.AnalyzeLocation(loc, 1.0, points, weights, nil)

	assert.InDelta(t, 5000, analysis.ReachablePopulation, 1e-9)
	assert.InDelta(t, 13000, analysis.MarketShare, 1e-6, "monopoly captures all demand")
	assert.Equal(t, NoCompetitorDistance, analysis.AvgCompetitorDistanceKM)
	// huff score = 13000 / 5000 * 100
	assert.InDelta(t, 260, analysis.HuffScore, 1e-6)
}

func TestAnalyzeLocation_AvgCompetitorDistance(t *testing.T) {
	m := New(DefaultAlpha, DefaultBeta)
	loc := geo.Point{Lat: 0, Lon: 0}
	competitors := []Competitor{
		{Location: geo.Point{Lat: 1, Lon: 0}, Size: 0.5},
		{Location: geo.Point{Lat: -1, Lon: 0}, Size: 0.5},
	}

	analysis := m.AnalyzeLocation(loc, 1.0, []geo.Point{loc}, []float64{1}, competitors)
	assert.InDelta(t, geo.Haversine(loc, competitors[0].Location), analysis.AvgCompetitorDistanceKM, 1e-9)
}
