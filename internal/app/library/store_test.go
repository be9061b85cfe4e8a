package library

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/podcastr/internal/app/filter"
	"github.com/osa030/podcastr/internal/domain/episode"
)

type fakeSource struct {
	mu       sync.Mutex
	episodes []episode.Episode
	err      error
	calls    int
}

func (f *fakeSource) ListEpisodes(ctx context.Context) ([]episode.Episode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.episodes, nil
}

func (f *fakeSource) set(episodes []episode.Episode, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.episodes = episodes
	f.err = err
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestStore_EmptyBeforeRefresh(t *testing.T) {
	s := NewStore(&fakeSource{}, Config{LatestCount: 2})

	c := s.Catalog()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Latest())
	assert.True(t, c.FetchedAt.IsZero())
}

func TestStore_Refresh(t *testing.T) {
	src := &fakeSource{episodes: []episode.Episode{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	s := NewStore(src, Config{LatestCount: 2})
	fixed := time.Date(2021, 4, 20, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.Refresh(context.Background()))

	c := s.Catalog()
	assert.Equal(t, []string{"a", "b", "c"}, c.IDs())
	assert.Len(t, c.Latest(), 2)
	assert.Equal(t, fixed, c.FetchedAt)
}

func TestStore_RefreshAppliesFilter(t *testing.T) {
	src := &fakeSource{episodes: []episode.Episode{
		{ID: "a", MediaType: "audio/mpeg"},
		{ID: "b", MediaType: "video/mp4"},
		{ID: "a", MediaType: "audio/mpeg"},
		{ID: "c", MediaType: "audio/mpeg"},
	}}
	chain := filter.NewChain()
	chain.Add(filter.NewDuplicateEpisodeFilter())
	chain.Add(filter.NewMediaTypeFilter("audio/"))

	s := NewStore(src, Config{LatestCount: 2, Filter: chain})
	require.NoError(t, s.Refresh(context.Background()))

	c := s.Catalog()
	assert.Equal(t, []string{"a", "c"}, c.IDs())
}

func TestStore_RefreshFailureKeepsCatalog(t *testing.T) {
	src := &fakeSource{episodes: []episode.Episode{{ID: "a"}}}
	s := NewStore(src, Config{LatestCount: 2})
	require.NoError(t, s.Refresh(context.Background()))

	src.set(nil, errors.New("connection refused"))
	err := s.Refresh(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	c := s.Catalog()
	assert.Equal(t, []string{"a"}, c.IDs())
}

func TestStore_Run(t *testing.T) {
	src := &fakeSource{episodes: []episode.Episode{{ID: "a"}}}
	s := NewStore(src, Config{LatestCount: 2, Revalidate: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return src.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	c := s.Catalog()
	assert.Equal(t, []string{"a"}, c.IDs())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestStore_RunWithoutRevalidation(t *testing.T) {
	src := &fakeSource{}
	s := NewStore(src, Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, s.Run(ctx), context.DeadlineExceeded)
	assert.Equal(t, 0, src.callCount())
}
