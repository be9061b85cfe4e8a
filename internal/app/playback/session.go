package playback

import (
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/podcastr/internal/domain/episode"
)

// Errors
var (
	ErrEmptyQueue      = errors.New("queue is empty")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Listener receives session snapshots.
type Listener func(Snapshot)

type subscription struct {
	id uint64
	fn Listener
}

// Session is the single owner and mutator of the playback state.
//
// Every change is delivered to listeners synchronously, in subscription order
// and in version order. Listeners run outside the state lock and may call back
// into the session; a change made from inside a listener is delivered once the
// current fan-out completes.
type Session struct {
	mu sync.Mutex

	// State. The queue slice is replaced, never modified in place, so it is
	// shared with snapshots.
	queue       []episode.Episode
	activeIndex int
	isPlaying   bool
	version     uint64
	selection   uint64

	// Observers
	subs      []subscription
	nextSubID uint64
	pending   []Snapshot
	notifying bool
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{
		activeIndex: NoIndex,
	}
}

// Snapshot returns the current state. The returned queue must not be modified.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers a listener and returns a function removing it.
func (s *Session) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(id) })
	}
}

func (s *Session) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// Play replaces the queue, selects index and sets the intent to playing.
// Calling it again with the same queue and index while playing changes nothing.
func (s *Session) Play(queue []episode.Episode, index int) error {
	if len(queue) == 0 {
		return ErrEmptyQueue
	}
	if index < 0 || index >= len(queue) {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d for queue of %d", index, len(queue))
	}

	s.mu.Lock()
	same := s.activeIndex == index && episode.SameIDs(s.queue, queue)
	if same && s.isPlaying {
		s.mu.Unlock()
		return nil
	}

	q := make([]episode.Episode, len(queue))
	copy(q, queue)
	s.queue = q
	s.activeIndex = index
	s.isPlaying = true
	if !same {
		s.selection++
	}

	zlog.Debug().Msgf("playback: play: episode=%s index=%d queue=%d", q[index].ID, index, len(q))
	s.commitLocked()
	s.mu.Unlock()

	s.notify()
	return nil
}

// TogglePlay flips the intent. It does nothing when no episode is selected.
func (s *Session) TogglePlay() {
	s.mu.Lock()
	if s.activeIndex == NoIndex {
		s.mu.Unlock()
		return
	}

	s.isPlaying = !s.isPlaying
	s.commitLocked()
	s.mu.Unlock()

	s.notify()
}

// SetPlayingState records the state observed on the media output.
// It never changes the queue or the selection. Playing with nothing selected
// is ignored.
func (s *Session) SetPlayingState(isPlaying bool) {
	s.mu.Lock()
	s.setPlayingStateLocked(isPlaying)
	s.mu.Unlock()

	s.notify()
}

// ReportPlayingState is SetPlayingState for a report about the selection
// observed in a snapshot. It returns false and changes nothing when the
// selection has moved on since, so a late report from a replaced episode
// cannot overwrite the intent for the current one.
func (s *Session) ReportPlayingState(selection uint64, isPlaying bool) bool {
	s.mu.Lock()
	if s.selection != selection {
		zlog.Debug().Msgf("playback: stale report dropped: selection=%d current=%d", selection, s.selection)
		s.mu.Unlock()
		return false
	}
	s.setPlayingStateLocked(isPlaying)
	s.mu.Unlock()

	s.notify()
	return true
}

// Must be called with lock held.
func (s *Session) setPlayingStateLocked(isPlaying bool) {
	if s.isPlaying == isPlaying || (isPlaying && s.activeIndex == NoIndex) {
		return
	}
	s.isPlaying = isPlaying
	s.commitLocked()
}

// PlayNext selects the next episode of the queue, keeping the intent.
// At the end of the queue it does nothing and returns false.
func (s *Session) PlayNext() bool {
	return s.step(1)
}

// PlayPrevious selects the previous episode of the queue, keeping the intent.
// At the start of the queue it does nothing and returns false.
func (s *Session) PlayPrevious() bool {
	return s.step(-1)
}

func (s *Session) step(delta int) bool {
	s.mu.Lock()
	if s.activeIndex == NoIndex {
		s.mu.Unlock()
		return false
	}
	next := s.activeIndex + delta
	if next < 0 || next >= len(s.queue) {
		s.mu.Unlock()
		return false
	}

	s.activeIndex = next
	s.selection++
	zlog.Debug().Msgf("playback: step: episode=%s index=%d", s.queue[next].ID, next)
	s.commitLocked()
	s.mu.Unlock()

	s.notify()
	return true
}

// Clear empties the queue and the selection.
func (s *Session) Clear() {
	s.mu.Lock()
	if len(s.queue) == 0 && s.activeIndex == NoIndex && !s.isPlaying {
		s.mu.Unlock()
		return
	}

	s.queue = nil
	s.activeIndex = NoIndex
	s.isPlaying = false
	s.selection++
	s.commitLocked()
	s.mu.Unlock()

	s.notify()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Queue:       s.queue,
		ActiveIndex: s.activeIndex,
		IsPlaying:   s.isPlaying,
		Version:     s.version,
		Selection:   s.selection,
	}
}

// commitLocked bumps the version and queues the new snapshot for delivery.
// Must be called with lock held.
func (s *Session) commitLocked() {
	s.version++
	s.pending = append(s.pending, s.snapshotLocked())
}

// notify delivers pending snapshots unless a delivery is already running.
func (s *Session) notify() {
	s.mu.Lock()
	if s.notifying {
		s.mu.Unlock()
		return
	}
	s.notifying = true

	for len(s.pending) > 0 {
		snap := s.pending[0]
		s.pending = s.pending[1:]
		subs := make([]subscription, len(s.subs))
		copy(subs, s.subs)
		s.mu.Unlock()

		for _, sub := range subs {
			sub.fn(snap)
		}

		s.mu.Lock()
	}

	s.notifying = false
	s.mu.Unlock()
}
