// Package census provides demographic and socioeconomic data for the
// municipios of the Oriente Antioqueño, backed by DANE 2024 projections.
package census

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/siteselect-cli/internal/geo"
)

// Municipio holds the census record for one municipality.
type Municipio struct {
	Nombre          string    `yaml:"nombre" json:"nombre"`
	CodigoDANE      string    `yaml:"codigo_dane" json:"codigo_dane"`
	Centro          geo.Point `yaml:"centro" json:"centro"`
	Poblacion2024   float64   `yaml:"poblacion_2024" json:"poblacion_2024"`
	PoblacionUrbana float64   `yaml:"poblacion_urbana" json:"poblacion_urbana"`
	PoblacionRural  float64   `yaml:"poblacion_rural" json:"poblacion_rural"`
	EstratoPromedio float64   `yaml:"estrato_promedio" json:"estrato_promedio"`
	NBIPorcentaje   float64   `yaml:"nbi_porcentaje" json:"nbi_porcentaje"`
	AreaKM2         float64   `yaml:"area_km2" json:"area_km2"`
}

// TargetPopulation estimates the population in the target estratos. The
// fraction depends on the municipality's average estrato band.
func (m Municipio) TargetPopulation() float64 {
	switch {
	case m.EstratoPromedio >= 4.0:
		return m.Poblacion2024 * 0.60
	case m.EstratoPromedio >= 3.5:
		return m.Poblacion2024 * 0.40
	default:
		return m.Poblacion2024 * 0.25
	}
}

// Density returns inhabitants per km², or 0 when the area is unknown.
func (m Municipio) Density() float64 {
	if m.AreaKM2 <= 0 {
		return 0
	}
	return m.Poblacion2024 / m.AreaKM2
}

// SocioeconomicScore maps estrato (up to 60 points) and unmet basic needs
// (up to 40 points, lower NBI is better) onto a 0-100 scale.
func (m Municipio) SocioeconomicScore() float64 {
	estratoScore := m.EstratoPromedio / 6.0 * 60
	nbiScore := (1 - m.NBIPorcentaje/100.0) * 40
	return estratoScore + nbiScore
}

// Registry indexes municipios by their accent-folded, lowercased name.
type Registry struct {
	byKey map[string]Municipio
	order []string
}

// DefaultRegistry returns the built-in DANE 2024 projection data for the
// seven target municipios.
func DefaultRegistry() *Registry {
	return newRegistry(builtinMunicipios)
}

// LoadRegistry reads a YAML municipio file, useful for overriding the
// built-in projections with fresher DANE data.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "census: read registry %s", path)
	}

	var doc struct {
		Municipios []Municipio `yaml:"municipios"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrapf(err, "census: parse registry %s", path)
	}
	if len(doc.Municipios) == 0 {
		return nil, eris.Errorf("census: registry %s has no municipios", path)
	}

	return newRegistry(doc.Municipios), nil
}

func newRegistry(municipios []Municipio) *Registry {
	r := &Registry{byKey: make(map[string]Municipio, len(municipios))}
	for _, m := range municipios {
		key := NormalizeName(m.Nombre)
		if _, dup := r.byKey[key]; !dup {
			r.order = append(r.order, m.Nombre)
		}
		r.byKey[key] = m
	}
	return r
}

// Lookup finds a municipio by name, tolerating accents and case.
func (r *Registry) Lookup(nombre string) (Municipio, error) {
	m, ok := r.byKey[NormalizeName(nombre)]
	if !ok {
		return Municipio{}, eris.Errorf("census: unknown municipio %q", nombre)
	}
	return m, nil
}

// All returns every municipio in registration order.
func (r *Registry) All() []Municipio {
	out := make([]Municipio, 0, len(r.order))
	for _, nombre := range r.order {
		out = append(out, r.byKey[NormalizeName(nombre)])
	}
	return out
}

var builtinMunicipios = []Municipio{
	{
		Nombre:          "Rionegro",
		CodigoDANE:      "05615",
		Centro:          geo.Point{Lat: 6.1536, Lon: -75.3743},
		Poblacion2024:   145000,
		PoblacionUrbana: 120000,
		PoblacionRural:  25000,
		EstratoPromedio: 4.2,
		NBIPorcentaje:   15.5,
		AreaKM2:         196.0,
	},
	{
		Nombre:          "La Ceja",
		CodigoDANE:      "05376",
		Centro:          geo.Point{Lat: 6.0297, Lon: -75.4294},
		Poblacion2024:   62000,
		PoblacionUrbana: 45000,
		PoblacionRural:  17000,
		EstratoPromedio: 3.8,
		NBIPorcentaje:   18.2,
		AreaKM2:         131.0,
	},
	{
		Nombre:          "Marinilla",
		CodigoDANE:      "05440",
		Centro:          geo.Point{Lat: 6.1740, Lon: -75.3362},
		Poblacion2024:   58000,
		PoblacionUrbana: 40000,
		PoblacionRural:  18000,
		EstratoPromedio: 3.5,
		NBIPorcentaje:   20.1,
		AreaKM2:         115.0,
	},
	{
		Nombre:          "El Carmen de Viboral",
		CodigoDANE:      "05148",
		Centro:          geo.Point{Lat: 6.0856, Lon: -75.3336},
		Poblacion2024:   52000,
		PoblacionUrbana: 35000,
		PoblacionRural:  17000,
		EstratoPromedio: 3.6,
		NBIPorcentaje:   19.5,
		AreaKM2:         448.0,
	},
	{
		Nombre:          "El Santuario",
		CodigoDANE:      "05697",
		Centro:          geo.Point{Lat: 6.1374, Lon: -75.2634},
		Poblacion2024:   18000,
		PoblacionUrbana: 12000,
		PoblacionRural:  6000,
		EstratoPromedio: 3.2,
		NBIPorcentaje:   22.3,
		AreaKM2:         226.0,
	},
	{
		Nombre:          "El Retiro",
		CodigoDANE:      "05607",
		Centro:          geo.Point{Lat: 6.0619, Lon: -75.5028},
		Poblacion2024:   22000,
		PoblacionUrbana: 15000,
		PoblacionRural:  7000,
		EstratoPromedio: 3.9,
		NBIPorcentaje:   17.8,
		AreaKM2:         252.0,
	},
	{
		Nombre:          "Guarne",
		CodigoDANE:      "05318",
		Centro:          geo.Point{Lat: 6.2802, Lon: -75.4430},
		Poblacion2024:   45000,
		PoblacionUrbana: 30000,
		PoblacionRural:  15000,
		EstratoPromedio: 3.7,
		NBIPorcentaje:   19.0,
		AreaKM2:         151.0,
	},
}
