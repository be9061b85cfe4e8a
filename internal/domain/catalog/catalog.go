// Package catalog provides the episode Catalog domain entity.
package catalog

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/podcastr/internal/domain/episode"
)

// List names an episode list a queue can be built from.
type List string

const (
	ListAll    List = "all"    // Every episode in display order
	ListLatest List = "latest" // The latest episodes shown at the top of the home page
)

var (
	ErrEpisodeNotFound = errors.New("episode not found")
	ErrUnknownList     = errors.New("unknown episode list")
)

// Catalog is the set of episodes fetched from the episode API, in display order.
type Catalog struct {
	Episodes    []episode.Episode // Episodes in display order
	LatestCount int               // Number of episodes in the latest list
	FetchedAt   time.Time         // Time of the fetch that produced this catalog
}

// Len returns the number of episodes.
func (c *Catalog) Len() int {
	return len(c.Episodes)
}

// Latest returns the latest episodes.
func (c *Catalog) Latest() []episode.Episode {
	n := c.latestCount()
	return copyEpisodes(c.Episodes[:n])
}

// Rest returns the episodes after the latest ones.
func (c *Catalog) Rest() []episode.Episode {
	n := c.latestCount()
	return copyEpisodes(c.Episodes[n:])
}

func (c *Catalog) latestCount() int {
	n := c.LatestCount
	if n < 0 {
		n = 0
	}
	if n > len(c.Episodes) {
		n = len(c.Episodes)
	}
	return n
}

// Find returns the episode with the given ID.
func (c *Catalog) Find(id string) (episode.Episode, bool) {
	i := c.IndexOf(id)
	if i < 0 {
		return episode.Episode{}, false
	}
	return c.Episodes[i], true
}

// IndexOf returns the position of the episode with the given ID, or -1.
func (c *Catalog) IndexOf(id string) int {
	for i, e := range c.Episodes {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// IDs returns all episode IDs.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.Episodes))
	for i, e := range c.Episodes {
		ids[i] = e.ID
	}
	return ids
}

// TotalDuration returns the total duration of all episodes.
func (c *Catalog) TotalDuration() time.Duration {
	var total time.Duration
	for _, e := range c.Episodes {
		total += e.Duration()
	}
	return total
}

// Queue builds the play queue for a list and returns the position of the
// episode with the given ID inside it.
// An empty list name means ListAll.
func (c *Catalog) Queue(list List, id string) ([]episode.Episode, int, error) {
	var episodes []episode.Episode
	switch list {
	case ListAll, "":
		episodes = copyEpisodes(c.Episodes)
	case ListLatest:
		episodes = c.Latest()
	default:
		return nil, 0, errors.Wrapf(ErrUnknownList, "list %q", list)
	}

	for i, e := range episodes {
		if e.ID == id {
			return episodes, i, nil
		}
	}
	return nil, 0, errors.Wrapf(ErrEpisodeNotFound, "id %q in list %q", id, list)
}

func copyEpisodes(src []episode.Episode) []episode.Episode {
	dst := make([]episode.Episode, len(src))
	copy(dst, src)
	return dst
}
