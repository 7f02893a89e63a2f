package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/siteselect-cli/internal/census"
	"github.com/sells-group/siteselect-cli/internal/db"
	"github.com/sells-group/siteselect-cli/internal/demand"
	"github.com/sells-group/siteselect-cli/internal/geo"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Tests use this with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS municipios (
	nombre_key       TEXT PRIMARY KEY,
	nombre           TEXT NOT NULL,
	codigo_dane      TEXT NOT NULL,
	lat              DOUBLE PRECISION NOT NULL,
	lon              DOUBLE PRECISION NOT NULL,
	poblacion_2024   DOUBLE PRECISION NOT NULL,
	poblacion_urbana DOUBLE PRECISION NOT NULL DEFAULT 0,
	poblacion_rural  DOUBLE PRECISION NOT NULL DEFAULT 0,
	estrato_promedio DOUBLE PRECISION NOT NULL,
	nbi_porcentaje   DOUBLE PRECISION NOT NULL,
	area_km2         DOUBLE PRECISION NOT NULL DEFAULT 0,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS demand_points (
	municipio_key TEXT NOT NULL,
	idx           INTEGER NOT NULL,
	lat           DOUBLE PRECISION NOT NULL,
	lon           DOUBLE PRECISION NOT NULL,
	weight        DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (municipio_key, idx)
);

CREATE INDEX IF NOT EXISTS idx_demand_points_municipio ON demand_points(municipio_key);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertMunicipio(ctx context.Context, m census.Municipio) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO municipios
		 (nombre_key, nombre, codigo_dane, lat, lon, poblacion_2024, poblacion_urbana,
		  poblacion_rural, estrato_promedio, nbi_porcentaje, area_km2, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (nombre_key) DO UPDATE SET
		   nombre = $2, codigo_dane = $3, lat = $4, lon = $5, poblacion_2024 = $6,
		   poblacion_urbana = $7, poblacion_rural = $8, estrato_promedio = $9,
		   nbi_porcentaje = $10, area_km2 = $11, updated_at = $12`,
		census.NormalizeName(m.Nombre), m.Nombre, m.CodigoDANE,
		m.Centro.Lat, m.Centro.Lon, m.Poblacion2024, m.PoblacionUrbana,
		m.PoblacionRural, m.EstratoPromedio, m.NBIPorcentaje, m.AreaKM2,
		time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert municipio %s", m.Nombre)
}

func (s *PostgresStore) GetMunicipio(ctx context.Context, nombre string) (*census.Municipio, error) {
	var m census.Municipio
	err := s.pool.QueryRow(ctx,
		`SELECT nombre, codigo_dane, lat, lon, poblacion_2024, poblacion_urbana,
		        poblacion_rural, estrato_promedio, nbi_porcentaje, area_km2
		 FROM municipios WHERE nombre_key = $1`,
		census.NormalizeName(nombre),
	).Scan(&m.Nombre, &m.CodigoDANE, &m.Centro.Lat, &m.Centro.Lon,
		&m.Poblacion2024, &m.PoblacionUrbana, &m.PoblacionRural,
		&m.EstratoPromedio, &m.NBIPorcentaje, &m.AreaKM2)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get municipio %s", nombre)
	}
	return &m, nil
}

func (s *PostgresStore) ListMunicipios(ctx context.Context) ([]census.Municipio, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT nombre, codigo_dane, lat, lon, poblacion_2024, poblacion_urbana,
		        poblacion_rural, estrato_promedio, nbi_porcentaje, area_km2
		 FROM municipios ORDER BY nombre`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list municipios")
	}
	defer rows.Close()

	var out []census.Municipio
	for rows.Next() {
		var m census.Municipio
		if err := rows.Scan(&m.Nombre, &m.CodigoDANE, &m.Centro.Lat, &m.Centro.Lon,
			&m.Poblacion2024, &m.PoblacionUrbana, &m.PoblacionRural,
			&m.EstratoPromedio, &m.NBIPorcentaje, &m.AreaKM2); err != nil {
			return nil, eris.Wrap(err, "postgres: scan municipio")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list municipios iterate")
}

// ReplaceDemandPoints swaps the stored demand surface for a municipio. The
// points land via COPY since a 20x20 grid per municipio adds up quickly.
func (s *PostgresStore) ReplaceDemandPoints(ctx context.Context, municipio string, model *demand.Model) error {
	key := census.NormalizeName(municipio)

	_, err := s.pool.Exec(ctx, `DELETE FROM demand_points WHERE municipio_key = $1`, key)
	if err != nil {
		return eris.Wrapf(err, "postgres: clear demand points %s", municipio)
	}

	rows := make([][]any, len(model.Points))
	for i, p := range model.Points {
		rows[i] = []any{key, i, p.Lat, p.Lon, model.Weights[i]}
	}

	_, err = db.CopyFrom(ctx, s.pool, "demand_points",
		[]string{"municipio_key", "idx", "lat", "lon", "weight"}, rows)
	return eris.Wrapf(err, "postgres: copy demand points %s", municipio)
}

func (s *PostgresStore) DemandPoints(ctx context.Context, municipio string) (*demand.Model, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT lat, lon, weight FROM demand_points WHERE municipio_key = $1 ORDER BY idx`,
		census.NormalizeName(municipio),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: demand points %s", municipio)
	}
	defer rows.Close()

	var points []geo.Point
	var weights []float64
	for rows.Next() {
		var p geo.Point
		var w float64
		if err := rows.Scan(&p.Lat, &p.Lon, &w); err != nil {
			return nil, eris.Wrap(err, "postgres: scan demand point")
		}
		points = append(points, p)
		weights = append(weights, w)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "postgres: demand points iterate %s", municipio)
	}
	if len(points) == 0 {
		return nil, nil
	}
	return demand.New(points, weights)
}
