package apiclient

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog/log"
	"go.pilab.hu/hospital/domain"
)

const (
	keyAnalytics     = "management:analytics"
	keyHospitalStats = "management:stats"
)

// CachedAnalytics serves the management aggregates from a short-lived cache. The analytics
// endpoint scans every patient row, so charts re-rendered within ttl reuse one response.
// Only successful responses are cached.
type CachedAnalytics struct {
	svc   *ManagementService
	cache *ttlcache.Cache[string, any]
}

// NewCachedAnalytics wraps svc. A ttl of zero or less disables caching.
func NewCachedAnalytics(svc *ManagementService, ttl time.Duration) *CachedAnalytics {
	ca := &CachedAnalytics{svc: svc}
	if ttl > 0 {
		ca.cache = ttlcache.New(
			ttlcache.WithTTL[string, any](ttl),
			ttlcache.WithDisableTouchOnHit[string, any](),
		)
	}

	return ca
}

// Analytics returns the chart data, from cache when fresh.
func (ca *CachedAnalytics) Analytics(ctx context.Context) (*domain.AnalyticsData, error) {
	return cached(ctx, ca, keyAnalytics, ca.svc.Analytics)
}

// HospitalStats returns the hospital summary, from cache when fresh.
func (ca *CachedAnalytics) HospitalStats(ctx context.Context) (*domain.HospitalStats, error) {
	return cached(ctx, ca, keyHospitalStats, ca.svc.HospitalStats)
}

// Invalidate drops every cached response, e.g. after a sign-out.
func (ca *CachedAnalytics) Invalidate() {
	if ca.cache != nil {
		ca.cache.DeleteAll()
	}
}

func cached[T any](ctx context.Context, ca *CachedAnalytics, key string, fetch func(context.Context) (*T, error)) (*T, error) {
	if ca.cache == nil {
		return fetch(ctx)
	}

	if item := ca.cache.Get(key); item != nil {
		if v, ok := item.Value().(*T); ok {
			log.Ctx(ctx).Debug().Str("key", key).Msg("analytics cache hit")
			return v, nil
		}
	}

	v, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	ca.cache.Set(key, v, ttlcache.DefaultTTL)

	return v, nil
}
