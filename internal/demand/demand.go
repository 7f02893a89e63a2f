// Package demand builds the demand surface used by the gravity model and
// the facility optimizer: a set of points with population weights.
package demand

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/siteselect-cli/internal/geo"
)

// Model is a demand surface. Points and Weights are parallel slices;
// Weights[i] is the population assigned to Points[i].
type Model struct {
	Points  []geo.Point
	Weights []float64
}

// New validates that points and weights line up and carry no negative mass.
func New(points []geo.Point, weights []float64) (*Model, error) {
	if len(points) == 0 {
		return nil, eris.New("demand: no points")
	}
	if len(weights) != len(points) {
		return nil, eris.Errorf("demand: %d weights for %d points", len(weights), len(points))
	}
	for i, w := range weights {
		if w < 0 {
			return nil, eris.Errorf("demand: negative weight %f at index %d", w, i)
		}
	}
	return &Model{Points: points, Weights: weights}, nil
}

// UniformOverGrid spreads a target population evenly across the candidate
// grid, treating every cell as an equal demand point. The weights sum to
// the target population exactly up to floating-point error.
func UniformOverGrid(candidates []geo.Candidate, targetPopulation float64) (*Model, error) {
	if len(candidates) == 0 {
		return nil, eris.New("demand: empty candidate grid")
	}
	if targetPopulation < 0 {
		return nil, eris.Errorf("demand: negative target population %f", targetPopulation)
	}

	points := make([]geo.Point, len(candidates))
	weights := make([]float64, len(candidates))
	share := targetPopulation / float64(len(candidates))
	for i, c := range candidates {
		points[i] = c.Point
		weights[i] = share
	}
	return &Model{Points: points, Weights: weights}, nil
}

// TotalPopulation returns the summed weight of the surface.
func (m *Model) TotalPopulation() float64 {
	var total float64
	for _, w := range m.Weights {
		total += w
	}
	return total
}
