package player

import (
	"github.com/osa030/podcastr/internal/app/playback"
	"github.com/osa030/podcastr/internal/domain/episode"
)

// Controls holds the enabled state of each transport button.
type Controls struct {
	Shuffle   bool
	Previous  bool
	PlayPause bool
	Next      bool
	Repeat    bool
}

// View is the rendered player.
type View struct {
	Mode           playback.Mode
	Episode        *episode.Episode // nil when idle
	ElapsedSeconds int
	Elapsed        string // MM:SS
	Duration       string // MM:SS
	Controls       Controls
	Error          string // Last media failure for the selected episode
	Version        uint64 // Session version the view was rendered from
}

// Playing reports whether the play button shows the pause state.
func (v View) Playing() bool {
	return v.Mode == playback.ModePlaying
}
