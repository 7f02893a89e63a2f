// Package competition discovers competing stores and commercial zones
// around a municipio using the Places API, with local caching and rate
// limiting on top.
package competition

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/siteselect-cli/internal/geo"
	"github.com/sells-group/siteselect-cli/internal/huff"
	"github.com/sells-group/siteselect-cli/internal/resilience"
	"github.com/sells-group/siteselect-cli/pkg/places"
)

const (
	// competitorType and competitorKeyword target technology retail.
	competitorType    = "electronics_store"
	competitorKeyword = "tienda tecnología electrónica computadores"

	// commercialType and commercialKeyword find shopping malls and
	// commercial districts.
	commercialType    = "shopping_mall"
	commercialKeyword = "zona comercial centro comercial"
)

// ResponseCache is the subset of the SQLite cache the finder needs.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// defaultCacheTTL keeps Places responses for a day; store churn in these
// municipios is slow.
const defaultCacheTTL = 24 * time.Hour

// Finder wraps the Places client with caching and rate limiting.
type Finder struct {
	client  places.Client
	cache   ResponseCache
	limiter *rate.Limiter
	ttl     time.Duration
	retry   resilience.RetryConfig
}

// Option customizes a Finder.
type Option func(*Finder)

// WithCacheTTL overrides how long cached Places responses are kept.
func WithCacheTTL(ttl time.Duration) Option {
	return func(f *Finder) {
		if ttl > 0 {
			f.ttl = ttl
		}
	}
}

// WithRetryConfig overrides the retry policy for Places calls.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(f *Finder) {
		f.retry = cfg
	}
}

// NewFinder creates a Finder. cache may be nil to disable caching; limiter
// may be nil to disable rate limiting.
func NewFinder(client places.Client, cache ResponseCache, limiter *rate.Limiter, opts ...Option) *Finder {
	f := &Finder{
		client:  client,
		cache:   cache,
		limiter: limiter,
		ttl:     defaultCacheTTL,
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Competitors returns the competing stores within radiusM of center as
// gravity-model competitors.
func (f *Finder) Competitors(ctx context.Context, center geo.Point, radiusM int) ([]huff.Competitor, error) {
	results, err := f.search(ctx, places.NearbyRequest{
		Lat:     center.Lat,
		Lon:     center.Lon,
		RadiusM: radiusM,
		Type:    competitorType,
		Keyword: competitorKeyword,
	})
	if err != nil {
		return nil, eris.Wrap(err, "competition: find competitors")
	}

	competitors := make([]huff.Competitor, 0, len(results))
	for _, p := range results {
		competitors = append(competitors, huff.Competitor{
			Name: p.Name,
			Location: geo.Point{
				Lat: p.Geometry.Location.Lat,
				Lon: p.Geometry.Location.Lng,
			},
			Size:   huff.DefaultCompetitorSize,
			Rating: p.Rating,
		})
	}

	zap.L().Debug("competition: competitors found",
		zap.Int("count", len(competitors)),
		zap.Float64("lat", center.Lat),
		zap.Float64("lon", center.Lon),
	)
	return competitors, nil
}

// CommercialAreas returns the locations of shopping malls and commercial
// districts within radiusM of center, deduplicated by place ID.
func (f *Finder) CommercialAreas(ctx context.Context, center geo.Point, radiusM int) ([]geo.Point, error) {
	malls, err := f.search(ctx, places.NearbyRequest{
		Lat:     center.Lat,
		Lon:     center.Lon,
		RadiusM: radiusM,
		Type:    commercialType,
	})
	if err != nil {
		return nil, eris.Wrap(err, "competition: find malls")
	}

	districts, err := f.search(ctx, places.NearbyRequest{
		Lat:     center.Lat,
		Lon:     center.Lon,
		RadiusM: radiusM,
		Keyword: commercialKeyword,
	})
	if err != nil {
		return nil, eris.Wrap(err, "competition: find commercial districts")
	}

	seen := make(map[string]struct{}, len(malls)+len(districts))
	var areas []geo.Point
	for _, p := range append(malls, districts...) {
		if _, dup := seen[p.PlaceID]; dup {
			continue
		}
		seen[p.PlaceID] = struct{}{}
		areas = append(areas, geo.Point{
			Lat: p.Geometry.Location.Lat,
			Lon: p.Geometry.Location.Lng,
		})
	}
	return areas, nil
}

// search runs one nearby query through the cache and rate limiter.
func (f *Finder) search(ctx context.Context, req places.NearbyRequest) ([]places.Place, error) {
	key := cacheKey(req)

	if f.cache != nil {
		data, ok, err := f.cache.Get(ctx, key)
		if err != nil {
			zap.L().Warn("competition: cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			var cached []places.Place
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
			zap.L().Warn("competition: discarding corrupt cache entry", zap.String("key", key))
		}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "competition: rate limit wait")
		}
	}

	retryCfg := f.retry
	retryCfg.OnRetry = func(attempt int, err error) {
		zap.L().Warn("competition: retrying nearby search",
			zap.Int("attempt", attempt), zap.String("key", key), zap.Error(err))
	}
	results, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) ([]places.Place, error) {
		return f.client.NearbyAll(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		if data, err := json.Marshal(results); err == nil {
			if err := f.cache.Put(ctx, key, data, f.ttl); err != nil {
				zap.L().Warn("competition: cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return results, nil
}

func cacheKey(req places.NearbyRequest) string {
	return fmt.Sprintf("nearby:%.6f,%.6f:%d:%s:%s", req.Lat, req.Lon, req.RadiusM, req.Type, req.Keyword)
}
