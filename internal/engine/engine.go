// Package engine orchestrates a full site analysis for a municipio:
// candidate grid generation, competition discovery, gravity-model market
// share, facility location metrics, and composite scoring.
package engine

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/siteselect-cli/internal/census"
	"github.com/sells-group/siteselect-cli/internal/competition"
	"github.com/sells-group/siteselect-cli/internal/demand"
	"github.com/sells-group/siteselect-cli/internal/geo"
	"github.com/sells-group/siteselect-cli/internal/huff"
	"github.com/sells-group/siteselect-cli/internal/pmedian"
	"github.com/sells-group/siteselect-cli/internal/scoring"
)

const (
	// competitorRadiusKM bounds how far a rival store still counts as
	// local competition for a candidate.
	competitorRadiusKM = 2.0

	defaultGridSize    = 10
	defaultFacilities  = 3
	defaultRadiusKM    = 5.0
	defaultConcurrency = 8
)

// CompetitionSource yields competitors and commercial zones around a
// center point. competition.Finder is the production implementation.
type CompetitionSource interface {
	Competitors(ctx context.Context, center geo.Point, radiusM int) ([]huff.Competitor, error)
	CommercialAreas(ctx context.Context, center geo.Point, radiusM int) ([]geo.Point, error)
}

// Params tunes one analysis run. Zero values fall back to defaults.
type Params struct {
	GridSize    int
	Facilities  int
	RadiusKM    float64
	Concurrency int
}

func (p Params) withDefaults() Params {
	if p.GridSize <= 0 {
		p.GridSize = defaultGridSize
	}
	if p.Facilities <= 0 {
		p.Facilities = defaultFacilities
	}
	if p.RadiusKM <= 0 {
		p.RadiusKM = defaultRadiusKM
	}
	if p.Concurrency <= 0 {
		p.Concurrency = defaultConcurrency
	}
	return p
}

// Candidate is one evaluated grid location.
type Candidate struct {
	ID                       string    `json:"id"`
	Municipio                string    `json:"municipio"`
	Location                 geo.Point `json:"location"`
	PoblacionTotal           float64   `json:"poblacion_total"`
	PoblacionAlcanzable      float64   `json:"poblacion_alcanzable"`
	WeightedDistance         float64   `json:"weighted_distance"`
	CompetidoresCercanos     int       `json:"competidores_cercanos"`
	DensidadComercial        float64   `json:"densidad_comercial"`
	DistanciaZonaComercialKM *float64  `json:"distancia_zona_comercial_km,omitempty"`
	TraficoPeatonal          float64   `json:"trafico_peatonal"`
	TraficoVehicular         float64   `json:"trafico_vehicular"`
	HuffMarketShare          float64   `json:"huff_market_share"`
	NivelSocioeconomico      float64   `json:"nivel_socioeconomico"`
	Score                    float64   `json:"score"`
	Rank                     int       `json:"rank"`
}

// Result is the full analysis output for one municipio.
type Result struct {
	Municipio        census.Municipio `json:"municipio"`
	TargetPopulation float64          `json:"target_population"`
	Competitors      []huff.Competitor `json:"competitors"`
	CommercialAreas  []geo.Point      `json:"commercial_areas"`
	Facilities       []geo.Point      `json:"facilities"`
	Candidates       []Candidate      `json:"candidates"`
}

// Engine wires the analysis components together.
type Engine struct {
	registry *census.Registry
	source   CompetitionSource
	model    huff.Model
	scorer   *scoring.Scorer
	params   Params
}

// New creates an Engine. registry, source, and scorer must be non-nil.
func New(registry *census.Registry, source CompetitionSource, model huff.Model, scorer *scoring.Scorer, params Params) (*Engine, error) {
	if registry == nil {
		return nil, eris.New("engine: nil registry")
	}
	if source == nil {
		return nil, eris.New("engine: nil competition source")
	}
	if scorer == nil {
		return nil, eris.New("engine: nil scorer")
	}
	return &Engine{
		registry: registry,
		source:   source,
		model:    *huff.New(model.Alpha, model.Beta),
		scorer:   scorer,
		params:   params.withDefaults(),
	}, nil
}

// Analyze evaluates every grid candidate in a municipio and returns them
// ranked best first.
func (e *Engine) Analyze(ctx context.Context, municipio string) (*Result, error) {
	m, err := e.registry.Lookup(municipio)
	if err != nil {
		return nil, err
	}

	logger := zap.L().With(zap.String("municipio", m.Nombre))
	radiusM := int(e.params.RadiusKM * 1000)

	competitors, err := e.source.Competitors(ctx, m.Centro, radiusM)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: competitors for %s", m.Nombre)
	}
	areas, err := e.source.CommercialAreas(ctx, m.Centro, radiusM)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: commercial areas for %s", m.Nombre)
	}
	logger.Info("competition discovered",
		zap.Int("competitors", len(competitors)),
		zap.Int("commercial_areas", len(areas)),
	)

	grid, err := geo.Grid(census.NormalizeName(m.Nombre), m.Centro, e.params.RadiusKM, e.params.GridSize)
	if err != nil {
		return nil, err
	}

	targetPop := m.TargetPopulation()
	surface, err := demand.UniformOverGrid(grid, targetPop)
	if err != nil {
		return nil, err
	}

	optimizer, err := pmedian.New(e.params.Facilities)
	if err != nil {
		return nil, err
	}
	metrics, err := optimizer.AnalyzeCandidates(grid, surface.Points, surface.Weights)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: candidate metrics for %s", m.Nombre)
	}
	facilities, err := optimizer.Optimize(surface.Points, surface.Weights)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: optimize facilities for %s", m.Nombre)
	}

	nivelSocio := m.SocioeconomicScore()
	candidates := make([]Candidate, len(grid))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.params.Concurrency)
	for i := range grid {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			candidates[i] = e.evaluate(grid[i], m, metrics[i], surface, competitors, areas, nivelSocio)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrapf(err, "engine: evaluate candidates for %s", m.Nombre)
	}

	ranked := e.rank(candidates)
	logger.Info("analysis complete",
		zap.Int("candidates", len(ranked)),
		zap.Float64("top_score", ranked[0].Score),
	)

	return &Result{
		Municipio:        m,
		TargetPopulation: targetPop,
		Competitors:      competitors,
		CommercialAreas:  areas,
		Facilities:       facilities,
		Candidates:       ranked,
	}, nil
}

// evaluate fills in the per-candidate signals. It is pure computation and
// safe to run concurrently.
func (e *Engine) evaluate(c geo.Candidate, m census.Municipio, metric pmedian.CandidateMetrics,
	surface *demand.Model, competitors []huff.Competitor, areas []geo.Point, nivelSocio float64) Candidate {

	nearby := 0
	for _, comp := range competitors {
		if geo.Haversine(c.Point, comp.Location) <= competitorRadiusKM {
			nearby++
		}
	}

	var distZona *float64
	trafficDist := scoring.NoCommercialZoneKM
	if len(areas) > 0 {
		min := geo.Haversine(c.Point, areas[0])
		for _, a := range areas[1:] {
			if d := geo.Haversine(c.Point, a); d < min {
				min = d
			}
		}
		distZona = &min
		trafficDist = min
	}

	var ped float64
	switch {
	case trafficDist < 1.0:
		ped = 80
	case trafficDist < 2.0:
		ped = 60
	default:
		ped = 40
	}
	veh := ped * 0.9

	share := e.model.MarketShare(c.Point, 1.0, surface.Points, surface.Weights, competitors)

	return Candidate{
		ID:                       c.ID,
		Municipio:                m.Nombre,
		Location:                 c.Point,
		PoblacionTotal:           m.Poblacion2024,
		PoblacionAlcanzable:      metric.ReachablePopulation,
		WeightedDistance:         metric.WeightedDistance,
		CompetidoresCercanos:     nearby,
		DensidadComercial:        float64(nearby) * 5,
		DistanciaZonaComercialKM: distZona,
		TraficoPeatonal:          ped,
		TraficoVehicular:         veh,
		HuffMarketShare:          share,
		NivelSocioeconomico:      nivelSocio,
	}
}

// rank scores the candidates and returns them ordered best first with
// 1-based ranks assigned.
func (e *Engine) rank(candidates []Candidate) []Candidate {
	byID := make(map[string]Candidate, len(candidates))
	locations := make([]scoring.Location, len(candidates))
	for i, c := range candidates {
		byID[c.ID] = c
		locations[i] = scoring.Location{ID: c.ID, Input: c.scoringInput()}
	}

	ranked := e.scorer.Rank(locations)
	out := make([]Candidate, len(ranked))
	for i, loc := range ranked {
		c := byID[loc.ID]
		c.Score = loc.Score
		c.Rank = loc.Rank
		out[i] = c
	}
	return out
}

func (c Candidate) scoringInput() scoring.Input {
	nivel := c.NivelSocioeconomico
	densidad := c.DensidadComercial
	return scoring.Input{
		PoblacionTotal:           c.PoblacionTotal,
		PoblacionAlcanzable:      c.PoblacionAlcanzable,
		TraficoPeatonal:          c.TraficoPeatonal,
		TraficoVehicular:         c.TraficoVehicular,
		CompetidoresCercanos:     c.CompetidoresCercanos,
		DistanciaZonaComercialKM: c.DistanciaZonaComercialKM,
		NivelSocioeconomico:      &nivel,
		DensidadComercial:        &densidad,
	}
}

// RankAll analyzes several municipios and merges their candidates into a
// single cross-municipio ranking.
func (e *Engine) RankAll(ctx context.Context, municipios []string) ([]Candidate, []*Result, error) {
	if len(municipios) == 0 {
		return nil, nil, eris.New("engine: no municipios")
	}

	results := make([]*Result, 0, len(municipios))
	var combined []Candidate
	for _, name := range municipios {
		res, err := e.Analyze(ctx, name)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, res)
		combined = append(combined, res.Candidates...)
	}

	merged := e.rank(combined)
	return merged, results, nil
}

// Facilities runs the facility optimizer alone for a municipio, without
// the scoring pipeline.
func (e *Engine) Facilities(ctx context.Context, municipio string, p int) ([]geo.Point, float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, eris.Wrap(err, "engine: facilities")
	}

	m, err := e.registry.Lookup(municipio)
	if err != nil {
		return nil, 0, err
	}

	grid, err := geo.Grid(census.NormalizeName(m.Nombre), m.Centro, e.params.RadiusKM, e.params.GridSize)
	if err != nil {
		return nil, 0, err
	}
	surface, err := demand.UniformOverGrid(grid, m.TargetPopulation())
	if err != nil {
		return nil, 0, err
	}

	optimizer, err := pmedian.New(p)
	if err != nil {
		return nil, 0, err
	}
	facilities, err := optimizer.Optimize(surface.Points, surface.Weights)
	if err != nil {
		return nil, 0, err
	}

	total := optimizer.TotalWeightedDistance(facilities, surface.Points, surface.Weights)
	return facilities, total, nil
}

var _ CompetitionSource = (*competition.Finder)(nil)
