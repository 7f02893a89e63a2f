package scoring

import "math"

const (
	// NoCommercialZoneKM is the sentinel distance used when no commercial
	// zone was found near a candidate.
	NoCommercialZoneKM = 999.0

	// DefaultEstrato backs the socioeconomic fallback when no estrato data
	// is available for a municipality.
	DefaultEstrato = 3.0

	// referencePopulation is the population at which the reachable-population
	// component of the población sub-score saturates.
	referencePopulation = 200000.0
)

// Input carries the raw signals for one candidate. Optional signals are
// pointers; nil selects the documented fallback for that criterion.
type Input struct {
	// PoblacionTotal is the municipality's total population.
	PoblacionTotal float64

	// PoblacionAlcanzable is the population reachable from the candidate.
	PoblacionAlcanzable float64

	// TraficoPeatonal and TraficoVehicular are 0-100 intensity scores. When
	// both are zero the tráfico sub-score falls back to a tiered estimate
	// from the commercial-zone distance.
	TraficoPeatonal  float64
	TraficoVehicular float64

	// CompetidoresCercanos counts competing stores near the candidate.
	CompetidoresCercanos int

	// DistanciaZonaComercialKM is the distance to the nearest commercial
	// zone. Nil means none was found and scores as NoCommercialZoneKM.
	DistanciaZonaComercialKM *float64

	// NivelSocioeconomico is a precomputed 0-100 socioeconomic score. Nil
	// derives one from EstratoPromedio.
	NivelSocioeconomico *float64

	// EstratoPromedio is the average estrato (1-6) used when
	// NivelSocioeconomico is nil. Zero falls back to DefaultEstrato.
	EstratoPromedio float64

	// DensidadComercial is commercial establishments per km². Nil or zero
	// uses CompetidoresCercanos x 5 as a proxy.
	DensidadComercial *float64
}

// Breakdown exposes the per-criterion sub-scores behind a composite score.
type Breakdown struct {
	Poblacion      float64 `json:"poblacion"`
	Trafico        float64 `json:"trafico"`
	Competencia    float64 `json:"competencia_zona_comercial"`
	Socioeconomico float64 `json:"nivel_socioeconomico"`
	Densidad       float64 `json:"densidad_comercial"`
	Total          float64 `json:"total"`
	Weights        Weights `json:"weights"`
}

// Score returns the weighted composite score for in, clamped to [0, 100].
func (s *Scorer) Score(in Input) float64 {
	return s.Breakdown(in).Total
}

// Breakdown computes every sub-score plus the weighted total for in.
func (s *Scorer) Breakdown(in Input) Breakdown {
	b := Breakdown{
		Poblacion:      scorePoblacion(in),
		Trafico:        scoreTrafico(in),
		Competencia:    scoreCompetencia(in),
		Socioeconomico: scoreSocioeconomico(in),
		Densidad:       scoreDensidad(in),
		Weights:        s.weights,
	}
	total := b.Poblacion*s.weights.Poblacion +
		b.Trafico*s.weights.Trafico +
		b.Competencia*s.weights.CompetenciaZonaComercial +
		b.Socioeconomico*s.weights.NivelSocioeconomico +
		b.Densidad*s.weights.DensidadComercial
	b.Total = clamp(total, 0, 100)
	return b
}

// scorePoblacion blends reachable population (70%, saturating at the
// reference population) with total municipal population (30%, capped at 50).
func scorePoblacion(in Input) float64 {
	reach := math.Min(100, in.PoblacionAlcanzable/referencePopulation*100)
	total := math.Min(50, in.PoblacionTotal/referencePopulation*50)
	return reach*0.7 + total*0.3
}

// scoreTrafico combines pedestrian (60%) and vehicular (40%) traffic. When
// neither signal is present it estimates both from proximity to the nearest
// commercial zone.
func scoreTrafico(in Input) float64 {
	ped, veh := in.TraficoPeatonal, in.TraficoVehicular
	if ped == 0 && veh == 0 {
		dist := commercialDistance(in)
		switch {
		case dist < 1:
			ped, veh = 80, 70
		case dist < 2:
			ped, veh = 60, 60
		default:
			ped, veh = 40, 50
		}
	}
	return ped*0.6 + veh*0.4
}

// scoreCompetencia rewards commercial-zone proximity with low competition.
// The sweet spot (a zone under 1 km with fewer than 2 competitors) scores a
// flat 100; otherwise competition count (60%) and zone distance (40%) are
// penalized linearly.
func scoreCompetencia(in Input) float64 {
	dist := commercialDistance(in)
	comp := float64(in.CompetidoresCercanos)

	switch {
	case dist < 1 && comp < 2:
		return 100
	case dist < 2 && comp < 3:
		return 80
	}

	compScore := math.Max(0, 100-comp*20)
	distScore := 0.0
	if dist < 5 {
		distScore = math.Max(0, 100-dist*20)
	}
	return compScore*0.6 + distScore*0.4
}

// scoreSocioeconomico passes through a precomputed score when present,
// otherwise maps estrato linearly onto 0-100.
func scoreSocioeconomico(in Input) float64 {
	if in.NivelSocioeconomico != nil {
		return clamp(*in.NivelSocioeconomico, 0, 100)
	}
	estrato := in.EstratoPromedio
	if estrato == 0 {
		estrato = DefaultEstrato
	}
	return clamp(estrato/6*100, 0, 100)
}

// scoreDensidad saturates at a density of 50 establishments per km². A nil
// or zero density falls back to a competitor-count proxy.
func scoreDensidad(in Input) float64 {
	var densidad float64
	if in.DensidadComercial != nil {
		densidad = *in.DensidadComercial
	}
	if densidad == 0 {
		densidad = float64(in.CompetidoresCercanos) * 5
	}
	return math.Min(100, densidad/50*100)
}

func commercialDistance(in Input) float64 {
	if in.DistanciaZonaComercialKM == nil {
		return NoCommercialZoneKM
	}
	return *in.DistanciaZonaComercialKM
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
