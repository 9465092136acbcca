package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/asha/internal/cache"
	"github.com/spherical-ai/asha/internal/domain"
)

type countingProvider struct {
	Provider
	jobs int
	job  int
}

func (p *countingProvider) Jobs(ctx context.Context, f JobFilter) ([]*domain.Job, error) {
	p.jobs++
	return p.Provider.Jobs(ctx, f)
}

func (p *countingProvider) Job(ctx context.Context, id string) (*domain.Job, error) {
	p.job++
	return p.Provider.Job(ctx, id)
}

type brokenCache struct{ cache.Client }

func (brokenCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func TestCachedProvider_ServesFromCache(t *testing.T) {
	mem := cache.NewMemoryClient(100)
	defer mem.Close()

	next := &countingProvider{Provider: newTestCatalog(t)}
	p := NewCachedProvider(next, mem, time.Minute, nil)
	ctx := context.Background()

	first, err := p.Jobs(ctx, JobFilter{Location: "remote"})
	require.NoError(t, err)
	second, err := p.Jobs(ctx, JobFilter{Location: "remote"})
	require.NoError(t, err)

	assert.Equal(t, 1, next.jobs)
	assert.Equal(t, candidateIDs(first), candidateIDs(second))
	assert.Equal(t, first[0].Skills, second[0].Skills)

	// a different filter is a different key
	_, err = p.Jobs(ctx, JobFilter{Location: "bangalore"})
	require.NoError(t, err)
	assert.Equal(t, 2, next.jobs)

	require.NoError(t, p.Invalidate(ctx))
	_, err = p.Jobs(ctx, JobFilter{Location: "remote"})
	require.NoError(t, err)
	assert.Equal(t, 3, next.jobs)
}

func TestCachedProvider_ErrorsAreNotCached(t *testing.T) {
	mem := cache.NewMemoryClient(100)
	defer mem.Close()

	next := &countingProvider{Provider: newTestCatalog(t)}
	p := NewCachedProvider(next, mem, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := p.Job(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, 2, next.job)
	assert.Equal(t, 0, mem.Len())
}

func TestCachedProvider_FallsThroughOnCacheFailure(t *testing.T) {
	next := &countingProvider{Provider: newTestCatalog(t)}
	p := NewCachedProvider(next, brokenCache{}, 0, nil)

	j, err := p.Job(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "UX/UI Designer", j.Title)
	assert.Equal(t, 1, next.job)
}

func TestCachedProvider_DiscardsCorruptEntries(t *testing.T) {
	mem := cache.NewMemoryClient(100)
	defer mem.Close()
	ctx := context.Background()

	next := &countingProvider{Provider: newTestCatalog(t)}
	p := NewCachedProvider(next, mem, time.Minute, nil)
	require.NoError(t, mem.Set(ctx, cache.Key(KeyPrefix+"job", "1"), []byte("{not json"), time.Minute))

	j, err := p.Job(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "1", j.ID)
	assert.Equal(t, 1, next.job)
}
