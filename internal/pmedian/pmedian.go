// Package pmedian approximates the P-Median facility location problem:
// place p facilities to minimize total demand-weighted distance. Centers are
// seeded with weighted k-means++ and refined with a Lloyd-style fixed-point
// iteration over raw (lat, lon) treated as planar coordinates, a local-scale
// approximation that holds at municipal extents. The result is a heuristic,
// not a global optimum.
package pmedian

import (
	"math"
	"math/rand"

	"github.com/rotisserie/eris"

	"github.com/sells-group/siteselect-cli/internal/geo"
)

const (
	// DefaultMaxIterations caps the refinement loop.
	DefaultMaxIterations = 50
	// DefaultTolerance is the max coordinate change below which refinement stops.
	DefaultTolerance = 1e-6

	// seedIterations and seedTolerance govern the looser k-means seeding stage.
	seedIterations = 300
	seedTolerance  = 1e-4

	// randSeed fixes the k-means++ sampling so runs are reproducible.
	randSeed = 42

	// reachableRadiusKM bounds the population counted as reachable from a
	// fixed candidate.
	reachableRadiusKM = 5.0
)

// Optimizer solves P-Median instances for a fixed facility count.
type Optimizer struct {
	Facilities    int
	MaxIterations int
	Tolerance     float64
}

// New returns an Optimizer for p facilities. p must be positive.
func New(p int) (*Optimizer, error) {
	if p <= 0 {
		return nil, eris.Errorf("pmedian: facility count must be positive, got %d", p)
	}
	return &Optimizer{
		Facilities:    p,
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
	}, nil
}

// Optimize places the configured number of facilities to approximately
// minimize TotalWeightedDistance over the demand set. Weights may be nil
// (uniform demand); they are normalized on a copy, never in place.
func (o *Optimizer) Optimize(demandPoints []geo.Point, weights []float64) ([]geo.Point, error) {
	normalized, err := normalizeWeights(demandPoints, weights)
	if err != nil {
		return nil, err
	}
	if o.Facilities > len(demandPoints) {
		return nil, eris.Errorf("pmedian: %d facilities exceed %d demand points", o.Facilities, len(demandPoints))
	}

	rng := rand.New(rand.NewSource(randSeed))
	centers := seedCenters(demandPoints, normalized, o.Facilities, rng)

	// Loose k-means pass, then the tighter P-Median refinement.
	centers = refine(demandPoints, normalized, centers, seedIterations, seedTolerance)
	centers = refine(demandPoints, normalized, centers, o.maxIterations(), o.tolerance())

	return centers, nil
}

// TotalWeightedDistance is the P-Median objective: each demand point is
// assigned to its nearest facility and weight * planar degree distance is
// summed. Exposed so callers can verify monotonic improvement.
func (o *Optimizer) TotalWeightedDistance(facilities, demandPoints []geo.Point, weights []float64) float64 {
	var total float64
	for i, dp := range demandPoints {
		nearest := math.Inf(1)
		for _, f := range facilities {
			if d := geo.PlanarDegrees(dp, f); d < nearest {
				nearest = d
			}
		}
		if len(facilities) > 0 {
			total += nearest * weights[i]
		}
	}
	return total
}

// CandidateMetrics holds the demand-side metrics for one fixed candidate.
type CandidateMetrics struct {
	CandidateID string
	// WeightedDistance is the sum of weight * planar distance (in degrees)
	// from the candidate to every demand point.
	WeightedDistance float64
	// ReachablePopulation is the total demand weight within
	// reachableRadiusKM, using the KMPerDegree approximation.
	ReachablePopulation float64
}

// AnalyzeCandidates evaluates each fixed candidate independently against the
// full demand set (candidates are not solved jointly). Output order matches
// the input order.
func (o *Optimizer) AnalyzeCandidates(candidates []geo.Candidate, demandPoints []geo.Point, weights []float64) ([]CandidateMetrics, error) {
	if err := validateDemand(demandPoints, weights); err != nil {
		return nil, err
	}

	metrics := make([]CandidateMetrics, len(candidates))
	for i, c := range candidates {
		wd, reach := AnalyzeCandidate(c.Point, demandPoints, weights)
		metrics[i] = CandidateMetrics{
			CandidateID:         c.ID,
			WeightedDistance:    wd,
			ReachablePopulation: reach,
		}
	}
	return metrics, nil
}

// AnalyzeCandidate computes the weighted distance and reachable population
// for a single fixed location. It assumes inputs were already validated.
func AnalyzeCandidate(location geo.Point, demandPoints []geo.Point, weights []float64) (weightedDistance, reachablePopulation float64) {
	for i, dp := range demandPoints {
		d := geo.PlanarDegrees(location, dp)
		weightedDistance += d * weights[i]
		if d*geo.KMPerDegree <= reachableRadiusKM {
			reachablePopulation += weights[i]
		}
	}
	return weightedDistance, reachablePopulation
}

func (o *Optimizer) maxIterations() int {
	if o.MaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return o.MaxIterations
}

func (o *Optimizer) tolerance() float64 {
	if o.Tolerance <= 0 {
		return DefaultTolerance
	}
	return o.Tolerance
}

// validateDemand rejects structurally broken demand input.
func validateDemand(demandPoints []geo.Point, weights []float64) error {
	if len(demandPoints) == 0 {
		return eris.New("pmedian: demand points are required")
	}
	if weights != nil && len(weights) != len(demandPoints) {
		return eris.Errorf("pmedian: %d weights for %d demand points", len(weights), len(demandPoints))
	}
	for i, w := range weights {
		if w < 0 {
			return eris.Errorf("pmedian: negative weight %f at index %d", w, i)
		}
	}
	return nil
}

// normalizeWeights validates demand input and returns a fresh weight slice
// summing to 1. Nil weights mean uniform demand.
func normalizeWeights(demandPoints []geo.Point, weights []float64) ([]float64, error) {
	if err := validateDemand(demandPoints, weights); err != nil {
		return nil, err
	}

	normalized := make([]float64, len(demandPoints))
	if weights == nil {
		for i := range normalized {
			normalized[i] = 1.0 / float64(len(demandPoints))
		}
		return normalized, nil
	}

	var sum float64
	for _, w := range weights {
		sum += w
	}
	if sum == 0 {
		return nil, eris.New("pmedian: demand weights sum to zero")
	}
	for i, w := range weights {
		normalized[i] = w / sum
	}
	return normalized, nil
}

// seedCenters picks p initial centers by weighted k-means++ sampling: the
// first center is drawn proportional to demand weight, subsequent centers
// proportional to weight times squared distance to the nearest chosen center.
func seedCenters(points []geo.Point, weights []float64, p int, rng *rand.Rand) []geo.Point {
	centers := make([]geo.Point, 0, p)
	centers = append(centers, points[sampleIndex(weights, rng)])

	for len(centers) < p {
		scores := make([]float64, len(points))
		for i, pt := range points {
			nearest := math.Inf(1)
			for _, c := range centers {
				if d := geo.PlanarDegrees(pt, c); d < nearest {
					nearest = d
				}
			}
			scores[i] = weights[i] * nearest * nearest
		}
		centers = append(centers, points[sampleIndex(scores, rng)])
	}
	return centers
}

// sampleIndex draws an index proportional to the given non-negative scores,
// falling back to uniform when all scores are zero.
func sampleIndex(scores []float64, rng *rand.Rand) int {
	var sum float64
	for _, s := range scores {
		sum += s
	}
	if sum == 0 {
		return rng.Intn(len(scores))
	}

	target := rng.Float64() * sum
	var cum float64
	for i, s := range scores {
		cum += s
		if cum >= target {
			return i
		}
	}
	return len(scores) - 1
}

// refine runs the Lloyd-style fixed-point iteration: assign every demand
// point to its nearest center, recompute each center as the weight-weighted
// centroid of its assignment, and stop when the max coordinate change drops
// below tolerance or the iteration cap is reached. A center with no assigned
// points keeps its position, avoiding a degenerate centroid.
func refine(points []geo.Point, weights []float64, initial []geo.Point, maxIterations int, tolerance float64) []geo.Point {
	centers := make([]geo.Point, len(initial))
	copy(centers, initial)

	for iter := 0; iter < maxIterations; iter++ {
		latSums := make([]float64, len(centers))
		lonSums := make([]float64, len(centers))
		weightSums := make([]float64, len(centers))

		for i, pt := range points {
			best := 0
			bestDist := math.Inf(1)
			for j, c := range centers {
				if d := geo.PlanarDegrees(pt, c); d < bestDist {
					bestDist = d
					best = j
				}
			}
			latSums[best] += pt.Lat * weights[i]
			lonSums[best] += pt.Lon * weights[i]
			weightSums[best] += weights[i]
		}

		var maxChange float64
		for j := range centers {
			if weightSums[j] == 0 {
				continue
			}
			next := geo.Point{
				Lat: latSums[j] / weightSums[j],
				Lon: lonSums[j] / weightSums[j],
			}
			maxChange = math.Max(maxChange, math.Abs(next.Lat-centers[j].Lat))
			maxChange = math.Max(maxChange, math.Abs(next.Lon-centers[j].Lon))
			centers[j] = next
		}

		if maxChange < tolerance {
			break
		}
	}

	return centers
}
