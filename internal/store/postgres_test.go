package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/siteselect-cli/internal/census"
	"github.com/sells-group/siteselect-cli/internal/demand"
	"github.com/sells-group/siteselect-cli/internal/geo"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS municipios`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertMunicipio(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO municipios`).
		WithArgs("rionegro", "Rionegro", "05615",
			6.1536, -75.3743, 145000.0, 120000.0, 25000.0, 4.2, 15.5, 196.0,
			pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertMunicipio(context.Background(), census.Municipio{
		Nombre:          "Rionegro",
		CodigoDANE:      "05615",
		Centro:          geo.Point{Lat: 6.1536, Lon: -75.3743},
		Poblacion2024:   145000,
		PoblacionUrbana: 120000,
		PoblacionRural:  25000,
		EstratoPromedio: 4.2,
		NBIPorcentaje:   15.5,
		AreaKM2:         196,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMunicipio_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT nombre, codigo_dane`).
		WithArgs("medellin").
		WillReturnError(pgx.ErrNoRows)

	m, err := s.GetMunicipio(context.Background(), "Medellín")
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMunicipio(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{
		"nombre", "codigo_dane", "lat", "lon", "poblacion_2024", "poblacion_urbana",
		"poblacion_rural", "estrato_promedio", "nbi_porcentaje", "area_km2",
	}).AddRow("Guarne", "05318", 6.2802, -75.4430, 45000.0, 30000.0, 15000.0, 3.7, 19.0, 151.0)

	mock.ExpectQuery(`SELECT nombre, codigo_dane`).
		WithArgs("guarne").
		WillReturnRows(rows)

	m, err := s.GetMunicipio(context.Background(), "Guarne")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "05318", m.CodigoDANE)
	assert.InDelta(t, 6.2802, m.Centro.Lat, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListMunicipios(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{
		"nombre", "codigo_dane", "lat", "lon", "poblacion_2024", "poblacion_urbana",
		"poblacion_rural", "estrato_promedio", "nbi_porcentaje", "area_km2",
	}).
		AddRow("Guarne", "05318", 6.2802, -75.4430, 45000.0, 30000.0, 15000.0, 3.7, 19.0, 151.0).
		AddRow("Rionegro", "05615", 6.1536, -75.3743, 145000.0, 120000.0, 25000.0, 4.2, 15.5, 196.0)

	mock.ExpectQuery(`SELECT nombre, codigo_dane`).WillReturnRows(rows)

	out, err := s.ListMunicipios(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Guarne", out[0].Nombre)
	assert.Equal(t, "Rionegro", out[1].Nombre)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceDemandPoints(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	model, err := demand.New(
		[]geo.Point{{Lat: 6.15, Lon: -75.37}, {Lat: 6.16, Lon: -75.37}},
		[]float64{870, 870},
	)
	require.NoError(t, err)

	mock.ExpectExec(`DELETE FROM demand_points`).
		WithArgs("rionegro").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"demand_points"},
		[]string{"municipio_key", "idx", "lat", "lon", "weight"}).
		WillReturnResult(2)

	require.NoError(t, s.ReplaceDemandPoints(context.Background(), "Rionegro", model))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DemandPoints(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"lat", "lon", "weight"}).
		AddRow(6.15, -75.37, 870.0).
		AddRow(6.16, -75.37, 870.0)

	mock.ExpectQuery(`SELECT lat, lon, weight FROM demand_points`).
		WithArgs("rionegro").
		WillReturnRows(rows)

	model, err := s.DemandPoints(context.Background(), "Rionegro")
	require.NoError(t, err)
	require.NotNil(t, model)
	require.Len(t, model.Points, 2)
	assert.InDelta(t, 1740, model.TotalPopulation(), 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DemandPoints_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT lat, lon, weight FROM demand_points`).
		WithArgs("el retiro").
		WillReturnRows(pgxmock.NewRows([]string{"lat", "lon", "weight"}))

	model, err := s.DemandPoints(context.Background(), "El Retiro")
	require.NoError(t, err)
	assert.Nil(t, model)
	assert.NoError(t, mock.ExpectationsWereMet())
}
