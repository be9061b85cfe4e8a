package filter

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/podcastr/internal/domain/episode"
)

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the episode.
func (c *Chain) Execute(ctx context.Context, ep episode.Episode, accepted []episode.Episode) Result {
	for _, f := range c.filters {
		result := f.Check(ctx, ep, accepted)
		if !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Apply returns the episodes the chain accepts, keeping their order.
func (c *Chain) Apply(ctx context.Context, episodes []episode.Episode) []episode.Episode {
	if len(c.filters) == 0 {
		return episodes
	}

	accepted := make([]episode.Episode, 0, len(episodes))
	for _, ep := range episodes {
		result := c.Execute(ctx, ep, accepted)
		if !result.Accepted {
			zlog.Debug().Msgf("filter: episode rejected: id=%s code=%s", ep.ID, result.Code)
			continue
		}
		accepted = append(accepted, ep)
	}
	return accepted
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
