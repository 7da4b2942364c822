package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"guest_concierge/internal/domain"
	"guest_concierge/internal/geo"
)

// Resolver answers "what is near these coordinates" through a two-tier
// cache (Redis in front of the durable rec_cache table) and an ordered
// provider chain. Cache failures are treated as misses; a duplicate
// provider call racing a cache write is an idempotent overwrite, not an
// error.
type Resolver struct {
	providers []domain.PlaceProvider
	cache     domain.Cache
	repo      domain.Repository
	ttl       time.Duration
	timeout   time.Duration
	radiusM   int
	max       int
	now       func() time.Time
}

func NewResolver(providers []domain.PlaceProvider, cache domain.Cache, repo domain.Repository,
	ttl, timeout time.Duration, radiusM, max int) *Resolver {
	return &Resolver{
		providers: providers, cache: cache, repo: repo,
		ttl: ttl, timeout: timeout, radiusM: radiusM, max: max,
		now: time.Now,
	}
}

func cacheKeyString(k domain.CacheKey) string {
	return fmt.Sprintf("rec:%s:%s:%s", k.LocationKey, k.Category, k.Language)
}

// Recommend returns the ranked nearby places for (coords, category,
// language). Within the TTL two calls return identical results without
// touching a provider; after expiry providers are re-queried.
func (r *Resolver) Recommend(ctx context.Context, at domain.Coords, category, lang string) ([]domain.Place, error) {
	key := domain.CacheKey{LocationKey: geo.LocationKey(at), Category: category, Language: lang}
	rk := cacheKeyString(key)

	var cached []domain.Place
	if ok, _ := r.cache.Get(ctx, rk, &cached); ok {
		return cached, nil
	}

	// Durable second tier. Expired rows are never served; they get
	// overwritten by the refresh below.
	if e, err := r.repo.GetCacheEntry(ctx, key); err == nil && r.now().Before(e.ExpiresAt) {
		if ttl := int(e.ExpiresAt.Sub(r.now()).Seconds()); ttl > 0 {
			_ = r.cache.Set(ctx, rk, e.Places, ttl)
		}
		return e.Places, nil
	}

	places, err := r.query(ctx, at, category)
	if err != nil {
		return nil, err
	}

	sortPlaces(places)
	if len(places) > r.max {
		places = places[:r.max]
	}

	expires := r.now().Add(r.ttl)
	if err := r.cache.Set(ctx, rk, places, int(r.ttl.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", rk).Msg("redis cache write failed")
	}
	if err := r.repo.PutCacheEntry(ctx, domain.CacheEntry{Key: key, Places: places, ExpiresAt: expires}); err != nil {
		log.Warn().Err(err).Str("key", rk).Msg("durable cache write failed")
	}
	return places, nil
}

// query walks the chain in priority order and takes the first provider
// that returns at least one result; partial results from different
// providers are never mixed in one resolution.
func (r *Resolver) query(ctx context.Context, at domain.Coords, category string) ([]domain.Place, error) {
	anySucceeded := false
	for _, p := range r.providers {
		pctx, cancel := context.WithTimeout(ctx, r.timeout)
		places, err := p.SearchNearby(pctx, at, category, r.radiusM, r.max)
		cancel()
		if err != nil {
			log.Warn().Str("provider", p.Name()).Str("category", category).Err(err).Msg("nearby search failed")
			continue
		}
		anySucceeded = true
		if len(places) > 0 {
			return places, nil
		}
	}
	if anySucceeded {
		// Providers answered, there is just nothing nearby.
		return nil, nil
	}
	return nil, domain.ErrAllProvidersFailed
}

// sortPlaces orders by ascending distance, tie-broken by descending
// rating; places without a rating sort after rated ones.
func sortPlaces(ps []domain.Place) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].DistanceKm != ps[j].DistanceKm {
			return ps[i].DistanceKm < ps[j].DistanceKm
		}
		ri, rj := ps[i].Rating, ps[j].Rating
		switch {
		case ri == nil && rj == nil:
			return false
		case ri == nil:
			return false
		case rj == nil:
			return true
		default:
			return *ri > *rj
		}
	})
}
