// Package library keeps the episode catalog fresh.
package library

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/podcastr/internal/domain/catalog"
	"github.com/osa030/podcastr/internal/domain/episode"
)

// Source fetches the episode list in display order.
type Source interface {
	ListEpisodes(ctx context.Context) ([]episode.Episode, error)
}

// Filter selects the fetched episodes that enter the catalog.
type Filter interface {
	Apply(ctx context.Context, episodes []episode.Episode) []episode.Episode
}

// Config holds store configuration.
type Config struct {
	LatestCount int           // Episodes shown in the latest list
	Revalidate  time.Duration // Interval between refreshes in Run
	Filter      Filter        // Optional
}

// Store holds the current catalog.
// A failed refresh keeps the previous catalog; before the first successful
// refresh the catalog is empty.
type Store struct {
	mu      sync.RWMutex
	source  Source
	config  Config
	catalog catalog.Catalog
	now     func() time.Time
}

// NewStore creates a store with an empty catalog.
func NewStore(source Source, cfg Config) *Store {
	return &Store{
		source:  source,
		config:  cfg,
		catalog: catalog.Catalog{LatestCount: cfg.LatestCount},
		now:     time.Now,
	}
}

// Catalog returns the current catalog.
func (s *Store) Catalog() catalog.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Refresh fetches the episode list and replaces the catalog.
func (s *Store) Refresh(ctx context.Context) error {
	episodes, err := s.source.ListEpisodes(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to refresh catalog")
	}
	fetched := len(episodes)
	if s.config.Filter != nil {
		episodes = s.config.Filter.Apply(ctx, episodes)
	}

	s.mu.Lock()
	s.catalog = catalog.Catalog{
		Episodes:    episodes,
		LatestCount: s.config.LatestCount,
		FetchedAt:   s.now(),
	}
	s.mu.Unlock()

	zlog.Info().Msgf("library: catalog refreshed: episodes=%d filtered=%d", len(episodes), fetched-len(episodes))
	return nil
}

// Run refreshes the catalog every Revalidate interval until ctx is done.
func (s *Store) Run(ctx context.Context) error {
	if s.config.Revalidate <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.Revalidate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				zlog.Warn().Msgf("library: keeping previous catalog: %v", err)
			}
		}
	}
}
