package player

import (
	"context"
	"sync"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/podcastr/internal/app/playback"
	"github.com/osa030/podcastr/internal/domain/episode"
)

// Surface renders the playback session and drives the media handle it owns.
//
// The session holds the intent; the surface issues media commands to match it
// and reports what the media actually does back through
// Session.ReportPlayingState, the only write it makes to the session. Reports
// carry the selection they were observed under and are dropped by the session
// once the episode changed.
type Surface struct {
	mu sync.Mutex

	session     *playback.Session
	media       MediaHandle
	unsubscribe func()

	// Last applied snapshot
	seen    bool
	version uint64
	snap    playback.Snapshot
	episode *episode.Episode

	// Media state
	token        uint64 // Token of the current source
	attached     bool   // A source is loaded on the media handle
	mediaPlaying bool   // Last commanded or observed output state
	elapsed      int    // Seconds
	lastErr      error

	onRender func(View)
}

// NewSurface creates a surface bound to the session and the media handle.
// The surface takes ownership of the media handle.
func NewSurface(session *playback.Session, media MediaHandle) *Surface {
	s := &Surface{
		session: session,
		media:   media,
	}
	s.unsubscribe = session.Subscribe(s.onSnapshot)
	s.onSnapshot(session.Snapshot())
	return s
}

// OnRender sets a function called with the new view after every change.
func (s *Surface) OnRender(fn func(View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRender = fn
}

// View returns the current rendering.
func (s *Surface) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// TogglePlay handles the play/pause button.
func (s *Surface) TogglePlay() {
	s.session.TogglePlay()
}

// Next handles the next button.
func (s *Surface) Next() bool {
	return s.session.PlayNext()
}

// Previous handles the previous button.
func (s *Surface) Previous() bool {
	return s.session.PlayPrevious()
}

// Run delivers media events to the surface until ctx is done or the media
// handle closes its event channel.
func (s *Surface) Run(ctx context.Context) error {
	events := s.media.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.HandleMediaEvent(ev)
		}
	}
}

// Close detaches the surface from the session and releases the media handle.
func (s *Surface) Close() error {
	s.unsubscribe()

	s.mu.Lock()
	s.detachLocked()
	s.mu.Unlock()

	return s.media.Close()
}

// HandleMediaEvent applies a signal from the media handle.
// Events for a source that is no longer current are dropped.
func (s *Surface) HandleMediaEvent(ev MediaEvent) {
	s.mu.Lock()
	if !s.attached || ev.Token != s.token {
		s.mu.Unlock()
		zlog.Debug().Msgf("player: dropping stale media event: type=%s token=%d", ev.Type, ev.Token)
		return
	}

	report := false
	playing := false
	switch ev.Type {
	case EventStarted:
		s.mediaPlaying = true
		report, playing = true, true
	case EventPaused, EventEnded:
		s.mediaPlaying = false
		report = true
	case EventTimeUpdate:
		s.elapsed = int(ev.Elapsed.Seconds())
	case EventError:
		zlog.Warn().Msgf("player: media error: episode=%s err=%v", s.episode.ID, ev.Err)
		s.attached = false
		s.mediaPlaying = false
		s.lastErr = ev.Err
		report = true
	}

	selection := s.snap.Selection
	view := s.viewLocked()
	render := s.onRender
	s.mu.Unlock()

	if render != nil {
		render(view)
	}
	if report {
		s.session.ReportPlayingState(selection, playing)
	}
}

// onSnapshot reconciles the media handle with a session snapshot.
func (s *Surface) onSnapshot(snap playback.Snapshot) {
	s.mu.Lock()
	if s.seen && snap.Version <= s.version {
		s.mu.Unlock()
		return
	}
	s.seen = true
	s.version = snap.Version

	revert := s.reconcileLocked(snap)
	view := s.viewLocked()
	render := s.onRender
	s.mu.Unlock()

	if render != nil {
		render(view)
	}
	if revert {
		s.session.ReportPlayingState(snap.Selection, false)
	}
}

// reconcileLocked issues the media commands needed to match snap.
// It returns true when the intent to play could not be honored.
// Must be called with lock held.
func (s *Surface) reconcileLocked(snap playback.Snapshot) bool {
	s.snap = snap

	active, ok := snap.Active()
	if !ok {
		s.detachLocked()
		s.episode = nil
		s.elapsed = 0
		s.lastErr = nil
		return false
	}

	if s.episode == nil || s.episode.ID != active.ID {
		s.detachLocked()
		s.episode = &active
		s.elapsed = 0
		s.lastErr = nil
		if err := s.loadLocked(); err != nil {
			return snap.IsPlaying
		}
	} else if snap.IsPlaying && !s.attached {
		// Retry a source that failed earlier.
		if err := s.loadLocked(); err != nil {
			return true
		}
	}

	if !s.attached {
		return false
	}

	switch {
	case snap.IsPlaying && !s.mediaPlaying:
		if err := s.media.Play(); err != nil {
			zlog.Warn().Msgf("player: play failed: episode=%s err=%v", active.ID, err)
			s.lastErr = err
			return true
		}
		s.mediaPlaying = true
	case !snap.IsPlaying && s.mediaPlaying:
		if err := s.media.Pause(); err != nil {
			zlog.Warn().Msgf("player: pause failed: episode=%s err=%v", active.ID, err)
		}
		s.mediaPlaying = false
	}
	return false
}

// loadLocked attaches the current episode to the media handle under a new token.
// Must be called with lock held.
func (s *Surface) loadLocked() error {
	s.token++
	if err := s.media.Load(s.token, s.episode.MediaURL); err != nil {
		zlog.Warn().Msgf("player: load failed: episode=%s err=%v", s.episode.ID, err)
		s.attached = false
		s.mediaPlaying = false
		s.lastErr = err
		return err
	}

	zlog.Debug().Msgf("player: loaded: episode=%s token=%d", s.episode.ID, s.token)
	s.attached = true
	s.mediaPlaying = false
	s.lastErr = nil
	return nil
}

// detachLocked stops the current source and invalidates its pending events.
// Must be called with lock held.
func (s *Surface) detachLocked() {
	if s.attached {
		if err := s.media.Stop(); err != nil {
			zlog.Warn().Msgf("player: stop failed: %v", err)
		}
	}
	s.attached = false
	s.mediaPlaying = false
	s.token++
}

// viewLocked renders the current state.
// Must be called with lock held.
func (s *Surface) viewLocked() View {
	v := View{
		Mode:           s.snap.Mode(),
		ElapsedSeconds: s.elapsed,
		Elapsed:        episode.FormatDuration(s.elapsed),
		Duration:       episode.FormatDuration(0),
		Version:        s.snap.Version,
	}
	if s.episode == nil {
		return v
	}

	ep := *s.episode
	v.Episode = &ep
	v.Duration = ep.DurationLabel
	if v.Duration == "" {
		v.Duration = episode.FormatDuration(ep.DurationSeconds)
	}
	v.Controls = Controls{
		Previous:  s.snap.HasPrevious(),
		PlayPause: true,
		Next:      s.snap.HasNext(),
	}
	if s.lastErr != nil {
		v.Error = s.lastErr.Error()
	}
	return v
}
