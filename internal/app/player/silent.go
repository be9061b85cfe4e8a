package player

import (
	"sync"
	"time"
)

const silentEventBuffer = 16

// SilentHandle is a MediaHandle without audio output. It confirms every
// command as a real output would and advances elapsed time while playing.
type SilentHandle struct {
	mu       sync.Mutex
	token    uint64
	loaded   bool
	playing  bool
	elapsed  time.Duration
	duration time.Duration

	events chan MediaEvent
	done   chan struct{}
	once   sync.Once
}

// NewSilentHandle creates a silent handle ticking every interval.
// A zero interval disables time updates.
func NewSilentHandle(interval time.Duration) *SilentHandle {
	h := &SilentHandle{
		events: make(chan MediaEvent, silentEventBuffer),
		done:   make(chan struct{}),
	}
	if interval > 0 {
		go h.tick(interval)
	}
	return h
}

// SetDuration sets the length of the next loaded sources; zero means endless.
func (h *SilentHandle) SetDuration(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.duration = d
}

// Load implements MediaHandle.
func (h *SilentHandle) Load(token uint64, url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = token
	h.loaded = true
	h.playing = false
	h.elapsed = 0
	return nil
}

// Play implements MediaHandle.
func (h *SilentHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.loaded || h.playing {
		return nil
	}
	h.playing = true
	h.sendLocked(MediaEvent{Type: EventStarted, Token: h.token})
	return nil
}

// Pause implements MediaHandle.
func (h *SilentHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.playing {
		return nil
	}
	h.playing = false
	h.sendLocked(MediaEvent{Type: EventPaused, Token: h.token})
	return nil
}

// Stop implements MediaHandle.
func (h *SilentHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loaded = false
	h.playing = false
	h.elapsed = 0
	return nil
}

// Events implements MediaHandle.
func (h *SilentHandle) Events() <-chan MediaEvent {
	return h.events
}

// Close implements MediaHandle.
func (h *SilentHandle) Close() error {
	h.once.Do(func() {
		close(h.done)
	})
	return nil
}

// Advance moves the elapsed time forward as if d had been played.
func (h *SilentHandle) Advance(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.advanceLocked(d)
}

func (h *SilentHandle) advanceLocked(d time.Duration) {
	if !h.playing {
		return
	}
	h.elapsed += d
	if h.duration > 0 && h.elapsed >= h.duration {
		h.elapsed = h.duration
		h.playing = false
		h.sendLocked(MediaEvent{Type: EventTimeUpdate, Token: h.token, Elapsed: h.elapsed})
		h.sendLocked(MediaEvent{Type: EventEnded, Token: h.token})
		return
	}
	h.sendLocked(MediaEvent{Type: EventTimeUpdate, Token: h.token, Elapsed: h.elapsed})
}

func (h *SilentHandle) tick(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.Advance(interval)
		}
	}
}

// sendLocked sends an event without blocking.
// Must be called with lock held.
func (h *SilentHandle) sendLocked(e MediaEvent) {
	select {
	case h.events <- e:
	default:
		// Channel full, drop event
	}
}
