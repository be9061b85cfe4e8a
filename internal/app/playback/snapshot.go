package playback

import "github.com/osa030/podcastr/internal/domain/episode"

// NoIndex is the ActiveIndex of a snapshot with nothing selected.
const NoIndex = -1

// Snapshot is an immutable read of the session state.
type Snapshot struct {
	Queue       []episode.Episode // Episodes navigable with next/previous
	ActiveIndex int               // Index into Queue, NoIndex when nothing is selected
	IsPlaying   bool              // Playback intent, not confirmed hardware state
	Version     uint64            // Incremented on every notified change
	Selection   uint64            // Incremented when the queue or the active index changes
}

// Active returns the active episode.
func (s Snapshot) Active() (episode.Episode, bool) {
	if s.ActiveIndex == NoIndex || s.ActiveIndex >= len(s.Queue) {
		return episode.Episode{}, false
	}
	return s.Queue[s.ActiveIndex], true
}

// Mode returns the player mode for this snapshot.
func (s Snapshot) Mode() Mode {
	if _, ok := s.Active(); !ok {
		return ModeIdle
	}
	if s.IsPlaying {
		return ModePlaying
	}
	return ModeReady
}

// HasNext reports whether PlayNext would move.
func (s Snapshot) HasNext() bool {
	return s.ActiveIndex != NoIndex && s.ActiveIndex < len(s.Queue)-1
}

// HasPrevious reports whether PlayPrevious would move.
func (s Snapshot) HasPrevious() bool {
	return s.ActiveIndex != NoIndex && s.ActiveIndex > 0
}
