package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/spherical-ai/asha/internal/cache"
	"github.com/spherical-ai/asha/internal/domain"
	"github.com/spherical-ai/asha/internal/observability"
)

// KeyPrefix namespaces every catalog entry in the cache.
const KeyPrefix = "catalog:"

const defaultTTL = 5 * time.Minute

// CachedProvider stores JSON-encoded responses of another Provider. Cache
// failures are logged and fall through to the wrapped provider.
type CachedProvider struct {
	next   Provider
	client cache.Client
	ttl    time.Duration
	logger *observability.Logger
}

func NewCachedProvider(next Provider, client cache.Client, ttl time.Duration, logger *observability.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &CachedProvider{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: observability.OrNop(logger),
	}
}

func (p *CachedProvider) Jobs(ctx context.Context, f JobFilter) ([]*domain.Job, error) {
	return cached(ctx, p, filterKey("jobs", f), func() ([]*domain.Job, error) { return p.next.Jobs(ctx, f) })
}

func (p *CachedProvider) Events(ctx context.Context, f EventFilter) ([]*domain.Event, error) {
	return cached(ctx, p, filterKey("events", f), func() ([]*domain.Event, error) { return p.next.Events(ctx, f) })
}

func (p *CachedProvider) Mentorships(ctx context.Context, f MentorshipFilter) ([]*domain.Mentorship, error) {
	return cached(ctx, p, filterKey("mentorships", f), func() ([]*domain.Mentorship, error) { return p.next.Mentorships(ctx, f) })
}

func (p *CachedProvider) Job(ctx context.Context, id string) (*domain.Job, error) {
	return cached(ctx, p, cache.Key(KeyPrefix+"job", id), func() (*domain.Job, error) { return p.next.Job(ctx, id) })
}

func (p *CachedProvider) Event(ctx context.Context, id string) (*domain.Event, error) {
	return cached(ctx, p, cache.Key(KeyPrefix+"event", id), func() (*domain.Event, error) { return p.next.Event(ctx, id) })
}

func (p *CachedProvider) Mentorship(ctx context.Context, id string) (*domain.Mentorship, error) {
	return cached(ctx, p, cache.Key(KeyPrefix+"mentorship", id), func() (*domain.Mentorship, error) { return p.next.Mentorship(ctx, id) })
}

// Invalidate drops every cached catalog entry.
func (p *CachedProvider) Invalidate(ctx context.Context) error {
	return p.client.DeleteByPrefix(ctx, KeyPrefix)
}

// cached serves key from the cache or stores the result of load. Errors
// from load are returned as-is and never cached.
func cached[T any](ctx context.Context, p *CachedProvider, key string, load func() (T, error)) (T, error) {
	raw, err := p.client.Get(ctx, key)
	switch {
	case err == nil:
		var v T
		jsonErr := json.Unmarshal(raw, &v)
		if jsonErr == nil {
			return v, nil
		}
		p.logger.Warn().Str("key", key).Err(jsonErr).Msg("discarding undecodable catalog cache entry")
	case !errors.Is(err, cache.ErrCacheMiss):
		p.logger.Warn().Str("key", key).Err(err).Msg("catalog cache read failed")
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		p.logger.Warn().Str("key", key).Err(err).Msg("encode catalog cache entry")
		return v, nil
	}
	if err := p.client.Set(ctx, key, data, p.ttl); err != nil {
		p.logger.Warn().Str("key", key).Err(err).Msg("catalog cache write failed")
	}
	return v, nil
}

func filterKey(kind string, filter interface{}) string {
	data, _ := json.Marshal(filter)
	sum := sha256.Sum256(data)
	return cache.Key(KeyPrefix+kind, hex.EncodeToString(sum[:16]))
}
