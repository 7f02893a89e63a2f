// Package huff implements the Huff gravity model for retail trade areas:
// the probability that a consumer at demand point i patronizes store j is
//
//	P(i,j) = (Sj^a / Dij^b) / sum_k (Sk^a / Dik^b)
//
// where S is store attractiveness, D the great-circle distance in km, a the
// attractiveness exponent, and b the distance-decay exponent. The denominator
// ranges over the store itself plus all competitors.
package huff

import (
	"math"

	"github.com/sells-group/siteselect-cli/internal/geo"
)

const (
	// DefaultAlpha is the default attractiveness exponent.
	DefaultAlpha = 1.0
	// DefaultBeta is the default distance-decay exponent.
	DefaultBeta = 2.0

	// minDistanceKM floors distances to avoid division by zero when a
	// demand point sits exactly on a store.
	minDistanceKM = 0.001

	// reachableRadiusKM bounds the population considered reachable for the
	// capture-efficiency metric.
	reachableRadiusKM = 10.0

	// NoCompetitorDistance is the sentinel average competitor distance
	// reported when there are no competitors at all.
	NoCompetitorDistance = 999.0
)

// DefaultCompetitorSize is the attractiveness assumed for a competitor whose
// size is unknown at the source.
const DefaultCompetitorSize = 0.5

// Competitor is a rival store. Size is its attractiveness on the same scale
// as the candidate store's; sources that do not report one use
// DefaultCompetitorSize.
type Competitor struct {
	Name     string    `json:"name,omitempty"`
	Location geo.Point `json:"location"`
	Size     float64   `json:"size"`
	Rating   float64   `json:"rating"`
}

// CompetitorDistance is a competitor reduced to the two quantities the
// probability formula needs.
type CompetitorDistance struct {
	Size       float64
	DistanceKM float64
}

// Model evaluates Huff probabilities with fixed exponents. It holds no other
// state; every method is a pure function of its inputs.
type Model struct {
	Alpha float64
	Beta  float64
}

// New returns a Model with the given exponents; non-positive values fall
// back to the defaults.
func New(alpha, beta float64) *Model {
	if alpha <= 0 {
		alpha = DefaultAlpha
	}
	if beta <= 0 {
		beta = DefaultBeta
	}
	return &Model{Alpha: alpha, Beta: beta}
}

// Probability returns the probability in [0,1] that a consumer at the given
// distance patronizes a store of the given size rather than any competitor.
// With no competitors the store is a monopoly and the probability is 1.
// If total attractiveness is zero (pathological zero sizes) it returns 0.
func (m *Model) Probability(storeSize, distanceKM float64, competitors []CompetitorDistance) float64 {
	if distanceKM <= 0 {
		distanceKM = minDistanceKM
	}

	attractiveness := math.Pow(storeSize, m.Alpha) / math.Pow(distanceKM, m.Beta)

	total := attractiveness
	for _, c := range competitors {
		d := c.DistanceKM
		if d <= 0 {
			d = minDistanceKM
		}
		total += math.Pow(c.Size, m.Alpha) / math.Pow(d, m.Beta)
	}

	if total == 0 {
		return 0
	}
	return attractiveness / total
}

// MarketShare estimates the demand captured by a store at location: for every
// demand point it computes the Huff probability against all competitors and
// accumulates probability * weight. The result is a population-equivalent
// captured-demand figure, not a fraction.
func (m *Model) MarketShare(location geo.Point, storeSize float64, demandPoints []geo.Point, demandWeights []float64, competitors []Competitor) float64 {
	var total float64
	for i, dp := range demandPoints {
		distance := geo.Haversine(dp, location)

		competitorDistances := make([]CompetitorDistance, 0, len(competitors))
		for _, comp := range competitors {
			competitorDistances = append(competitorDistances, CompetitorDistance{
				Size:       comp.Size,
				DistanceKM: geo.Haversine(dp, comp.Location),
			})
		}

		total += m.Probability(storeSize, distance, competitorDistances) * demandWeights[i]
	}
	return total
}

// LocationAnalysis holds the Huff metrics for one candidate location.
type LocationAnalysis struct {
	MarketShare             float64 `json:"market_share"`
	ReachablePopulation     float64 `json:"reachable_population"`
	AvgCompetitorDistanceKM float64 `json:"avg_competitor_distance_km"`
	HuffScore               float64 `json:"huff_score"`
}

// AnalyzeLocation computes the full Huff metric set for a location:
// captured demand, population within reachableRadiusKM, mean competitor
// distance (NoCompetitorDistance when there are none), and a normalized
// capture-efficiency score comparable across candidates regardless of
// local population size.
func (m *Model) AnalyzeLocation(location geo.Point, storeSize float64, demandPoints []geo.Point, demandWeights []float64, competitors []Competitor) LocationAnalysis {
	marketShare := m.MarketShare(location, storeSize, demandPoints, demandWeights, competitors)

	var reachable float64
	for i, dp := range demandPoints {
		if geo.Haversine(dp, location) <= reachableRadiusKM {
			reachable += demandWeights[i]
		}
	}

	avgCompetitorDistance := NoCompetitorDistance
	if len(competitors) > 0 {
		var sum float64
		for _, comp := range competitors {
			sum += geo.Haversine(location, comp.Location)
		}
		avgCompetitorDistance = sum / float64(len(competitors))
	}

	return LocationAnalysis{
		MarketShare:             marketShare,
		ReachablePopulation:     reachable,
		AvgCompetitorDistanceKM: avgCompetitorDistance,
		HuffScore:               marketShare / math.Max(reachable, 1) * 100,
	}
}
