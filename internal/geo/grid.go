package geo

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Candidate is a grid point under evaluation as a potential store location.
// The ID is stable across runs and serves as the ranking tie-break key.
type Candidate struct {
	ID        string `json:"id"`
	Municipio string `json:"municipio"`
	Point
}

// Grid generates a gridSize x gridSize square of candidate points spanning
// radiusKM in each direction around center. Cell spacing uses the
// KMPerDegree approximation for both axes. Candidate IDs follow the
// <municipio>_<row>_<col> convention.
func Grid(municipio string, center Point, radiusKM float64, gridSize int) ([]Candidate, error) {
	if gridSize <= 0 {
		return nil, eris.New("geo: grid size must be positive")
	}
	if radiusKM <= 0 {
		return nil, eris.New("geo: grid radius must be positive")
	}

	radiusDeg := radiusKM * DegreesPerKM
	step := (radiusDeg * 2) / float64(gridSize)

	startLat := center.Lat - radiusDeg
	startLon := center.Lon - radiusDeg

	candidates := make([]Candidate, 0, gridSize*gridSize)
	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			candidates = append(candidates, Candidate{
				ID:        fmt.Sprintf("%s_%d_%d", municipio, i, j),
				Municipio: municipio,
				Point: Point{
					Lat: startLat + float64(i)*step,
					Lon: startLon + float64(j)*step,
				},
			})
		}
	}

	return candidates, nil
}
