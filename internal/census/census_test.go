package census

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/siteselect-cli/internal/geo"
)

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"Rionegro":               "rionegro",
		"El Santuário":           "el santuario",
		"EL  CARMEN DE  VIBORAL": "el carmen de viboral",
		"La Ceja":                "la ceja",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeName(in))
	}
}

func TestDefaultRegistry_Lookup(t *testing.T) {
	r := DefaultRegistry()

	m, err := r.Lookup("rionegro")
	require.NoError(t, err)
	assert.Equal(t, "05615", m.CodigoDANE)
	assert.InDelta(t, 145000, m.Poblacion2024, 0.1)

	// Accent and case tolerant.
	m, err = r.Lookup("EL SANTUARIO")
	require.NoError(t, err)
	assert.Equal(t, "El Santuario", m.Nombre)

	_, err = r.Lookup("Medellín")
	require.Error(t, err)
}

func TestDefaultRegistry_All(t *testing.T) {
	all := DefaultRegistry().All()
	require.Len(t, all, 7)
	assert.Equal(t, "Rionegro", all[0].Nombre)
	assert.Equal(t, "Guarne", all[6].Nombre)
}

func TestTargetPopulation_EstratoBands(t *testing.T) {
	high := Municipio{Poblacion2024: 100000, EstratoPromedio: 4.2}
	assert.InDelta(t, 60000, high.TargetPopulation(), 0.1)

	mid := Municipio{Poblacion2024: 100000, EstratoPromedio: 3.7}
	assert.InDelta(t, 40000, mid.TargetPopulation(), 0.1)

	low := Municipio{Poblacion2024: 100000, EstratoPromedio: 3.2}
	assert.InDelta(t, 25000, low.TargetPopulation(), 0.1)
}

func TestDensity(t *testing.T) {
	m := Municipio{Poblacion2024: 145000, AreaKM2: 196}
	assert.InDelta(t, 145000.0/196.0, m.Density(), 1e-9)

	assert.Zero(t, Municipio{Poblacion2024: 1000}.Density())
}

func TestSocioeconomicScore(t *testing.T) {
	m := Municipio{EstratoPromedio: 4.2, NBIPorcentaje: 15.5}
	want := 4.2/6.0*60 + (1-0.155)*40
	assert.InDelta(t, want, m.SocioeconomicScore(), 1e-9)

	best := Municipio{EstratoPromedio: 6, NBIPorcentaje: 0}
	assert.InDelta(t, 100, best.SocioeconomicScore(), 1e-9)
}

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "municipios.yaml")
	doc := `municipios:
  - nombre: Rionegro
    codigo_dane: "05615"
    centro:
      lat: 6.15
      lon: -75.37
    poblacion_2024: 150000
    estrato_promedio: 4.3
    nbi_porcentaje: 14.0
    area_km2: 196
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	r, err := LoadRegistry(path)
	require.NoError(t, err)

	m, err := r.Lookup("Rionegro")
	require.NoError(t, err)
	assert.InDelta(t, 150000, m.Poblacion2024, 0.1)
	assert.InDelta(t, 6.15, m.Centro.Lat, 1e-9)
}

func TestLoadRegistry_Errors(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("municipios: []\n"), 0o644))
	_, err = LoadRegistry(empty)
	require.Error(t, err)
}

func TestApplyCentroids(t *testing.T) {
	r := DefaultRegistry()
	r.ApplyCentroids(map[string]geo.Point{
		"rionegro": {Lat: 6.2, Lon: -75.4},
	})

	m, err := r.Lookup("Rionegro")
	require.NoError(t, err)
	assert.InDelta(t, 6.2, m.Centro.Lat, 1e-9)

	// Unmatched municipios keep their built-in coordinates.
	g, err := r.Lookup("Guarne")
	require.NoError(t, err)
	assert.InDelta(t, 6.2802, g.Centro.Lat, 1e-9)
}
