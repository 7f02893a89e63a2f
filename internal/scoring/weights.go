// Package scoring combines heterogeneous location signals into a single
// comparable 0-100 score per candidate and produces a stable ranking.
package scoring

import (
	"math"

	"github.com/rotisserie/eris"
)

// weightTolerance is the allowed deviation of the weight sum from 1.0
// before renormalization kicks in.
const weightTolerance = 0.01

// Weights holds the relative importance of the five scoring criteria.
type Weights struct {
	Poblacion                float64 `json:"poblacion" yaml:"poblacion" mapstructure:"poblacion"`
	Trafico                  float64 `json:"trafico" yaml:"trafico" mapstructure:"trafico"`
	CompetenciaZonaComercial float64 `json:"competencia_zona_comercial" yaml:"competencia_zona_comercial" mapstructure:"competencia_zona_comercial"`
	NivelSocioeconomico      float64 `json:"nivel_socioeconomico" yaml:"nivel_socioeconomico" mapstructure:"nivel_socioeconomico"`
	DensidadComercial        float64 `json:"densidad_comercial" yaml:"densidad_comercial" mapstructure:"densidad_comercial"`
}

// DefaultWeights returns the standard criteria weights: population dominates,
// followed by traffic, then competition/commercial-zone proximity.
func DefaultWeights() Weights {
	return Weights{
		Poblacion:                0.35,
		Trafico:                  0.30,
		CompetenciaZonaComercial: 0.15,
		NivelSocioeconomico:      0.12,
		DensidadComercial:        0.08,
	}
}

// Sum returns the total of all five weights.
func (w Weights) Sum() float64 {
	return w.Poblacion + w.Trafico + w.CompetenciaZonaComercial +
		w.NivelSocioeconomico + w.DensidadComercial
}

// Scorer evaluates candidates with a fixed, already-normalized weight set.
// It holds no other state; every method is a pure function of its inputs.
type Scorer struct {
	weights Weights
}

// NewScorer validates the weights and renormalizes them to sum to 1.0 if
// they are off by more than weightTolerance. Renormalization happens here,
// exactly once, never per scoring call.
func NewScorer(w Weights) (*Scorer, error) {
	for name, v := range map[string]float64{
		"poblacion":                  w.Poblacion,
		"trafico":                    w.Trafico,
		"competencia_zona_comercial": w.CompetenciaZonaComercial,
		"nivel_socioeconomico":       w.NivelSocioeconomico,
		"densidad_comercial":         w.DensidadComercial,
	} {
		if v < 0 {
			return nil, eris.Errorf("scoring: weight %s must be >= 0, got %f", name, v)
		}
	}

	sum := w.Sum()
	if sum <= 0 {
		return nil, eris.New("scoring: weight sum must be > 0")
	}

	if math.Abs(sum-1.0) > weightTolerance {
		w.Poblacion /= sum
		w.Trafico /= sum
		w.CompetenciaZonaComercial /= sum
		w.NivelSocioeconomico /= sum
		w.DensidadComercial /= sum
	}

	return &Scorer{weights: w}, nil
}

// Weights returns the normalized weights in effect.
func (s *Scorer) Weights() Weights {
	return s.weights
}
