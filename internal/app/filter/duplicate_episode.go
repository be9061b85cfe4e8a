package filter

import (
	"context"

	"github.com/osa030/podcastr/internal/domain/episode"
)

// DuplicateEpisodeFilter drops episodes whose ID was already accepted.
// Episode IDs are route keys, so the first occurrence wins.
type DuplicateEpisodeFilter struct{}

// NewDuplicateEpisodeFilter creates a new duplicate episode filter.
func NewDuplicateEpisodeFilter() *DuplicateEpisodeFilter {
	return &DuplicateEpisodeFilter{}
}

// Name returns the filter name.
func (f *DuplicateEpisodeFilter) Name() string {
	return "duplicate_episode_filter"
}

// Description returns the filter description.
func (f *DuplicateEpisodeFilter) Description() string {
	return "Drops episodes whose ID appears earlier in the list"
}

// ReturnCodes returns possible return codes.
func (f *DuplicateEpisodeFilter) ReturnCodes() []string {
	return []string{"duplicate_episode"}
}

// ValidateConfig validates the filter configuration.
func (f *DuplicateEpisodeFilter) ValidateConfig(settings map[string]any) error {
	// No configuration needed
	return nil
}

// Check checks if the episode is a duplicate.
func (f *DuplicateEpisodeFilter) Check(ctx context.Context, ep episode.Episode, accepted []episode.Episode) Result {
	for _, prev := range accepted {
		if prev.ID == ep.ID {
			return Reject("duplicate_episode")
		}
	}
	return Accept()
}

func init() {
	Register("duplicate_episode_filter", func() Filter {
		return NewDuplicateEpisodeFilter()
	})
}
