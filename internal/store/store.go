// Package store persists municipio census records and demand surfaces in
// PostgreSQL, and caches Places API responses in SQLite.
package store

import (
	"context"

	"github.com/sells-group/siteselect-cli/internal/census"
	"github.com/sells-group/siteselect-cli/internal/demand"
)

// Store persists census data and demand surfaces between runs. Analysis
// results are never stored; they are recomputed on demand.
type Store interface {
	Migrate(ctx context.Context) error
	UpsertMunicipio(ctx context.Context, m census.Municipio) error
	GetMunicipio(ctx context.Context, nombre string) (*census.Municipio, error)
	ListMunicipios(ctx context.Context) ([]census.Municipio, error)
	ReplaceDemandPoints(ctx context.Context, municipio string, model *demand.Model) error
	DemandPoints(ctx context.Context, municipio string) (*demand.Model, error)
	Close() error
}
