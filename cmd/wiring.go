package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/siteselect-cli/internal/census"
	"github.com/sells-group/siteselect-cli/internal/competition"
	"github.com/sells-group/siteselect-cli/internal/engine"
	"github.com/sells-group/siteselect-cli/internal/huff"
	"github.com/sells-group/siteselect-cli/internal/scoring"
	"github.com/sells-group/siteselect-cli/internal/store"
	"github.com/sells-group/siteselect-cli/pkg/places"
)

// buildRegistry loads the municipio registry from config or falls back to
// the built-in DANE dataset, then overlays shapefile centroids when a
// boundary file is configured.
func buildRegistry() (*census.Registry, error) {
	registry := census.DefaultRegistry()
	if path := cfg.Census.RegistryPath; path != "" {
		r, err := census.LoadRegistry(path)
		if err != nil {
			return nil, err
		}
		registry = r
	}

	if path := cfg.Census.ShapefilePath; path != "" {
		centroids, err := census.LoadCentroids(path)
		if err != nil {
			return nil, err
		}
		registry.ApplyCentroids(centroids)
		zap.L().Info("applied shapefile centroids", zap.Int("count", len(centroids)))
	}

	return registry, nil
}

// buildFinder wires the Places client with its SQLite response cache and
// rate limiter. The caller must Close the returned cache; it is nil when
// caching is disabled.
func buildFinder(ctx context.Context) (*competition.Finder, *store.Cache, error) {
	if cfg.Places.Key == "" {
		return nil, nil, eris.New("cmd: places.key is required (set SITESELECT_PLACES_KEY)")
	}

	opts := []places.Option{}
	if cfg.Places.BaseURL != "" {
		opts = append(opts, places.WithBaseURL(cfg.Places.BaseURL))
	}
	client := places.NewClient(cfg.Places.Key, opts...)

	var cache *store.Cache
	if cfg.Store.CachePath != "" {
		c, err := store.NewCache(cfg.Store.CachePath)
		if err != nil {
			return nil, nil, err
		}
		if err := c.Migrate(ctx); err != nil {
			_ = c.Close()
			return nil, nil, err
		}
		cache = c
	}

	var limiter *rate.Limiter
	if cfg.Places.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Places.RatePerSecond), 1)
	}

	finder := competition.NewFinder(client, finderCache(cache), limiter,
		competition.WithCacheTTL(cacheTTL()))

	return finder, cache, nil
}

// finderCache adapts the optional *store.Cache to the finder interface
// without handing it a typed nil.
func finderCache(c *store.Cache) competition.ResponseCache {
	if c == nil {
		return nil
	}
	return c
}

// buildEngine assembles the full analysis engine from config, applying
// per-command flag overrides to the run parameters.
func buildEngine(cmd *cobra.Command, registry *census.Registry, source engine.CompetitionSource) (*engine.Engine, error) {
	scorer, err := scoring.NewScorer(cfg.Weights)
	if err != nil {
		return nil, err
	}

	model := huff.Model{Alpha: cfg.Huff.Alpha, Beta: cfg.Huff.Beta}

	params := engine.Params{
		GridSize:    cfg.Engine.GridSize,
		Facilities:  cfg.Engine.Facilities,
		RadiusKM:    cfg.Engine.RadiusKM,
		Concurrency: cfg.Engine.Concurrency,
	}
	if f := cmd.Flags(); f != nil {
		if v, _ := f.GetInt("grid-size"); v > 0 {
			params.GridSize = v
		}
		if v, _ := f.GetInt("facilities"); v > 0 {
			params.Facilities = v
		}
		if v, _ := f.GetFloat64("radius-km"); v > 0 {
			params.RadiusKM = v
		}
	}

	return engine.New(registry, source, model, scorer, params)
}

// cacheTTL returns the configured Places cache lifetime.
func cacheTTL() time.Duration {
	return time.Duration(cfg.Places.CacheTTLHours) * time.Hour
}
