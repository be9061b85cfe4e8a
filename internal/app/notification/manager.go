// Package notification provides the notification manager for broadcasting
// player views to remote subscribers.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/podcastr/internal/app/player"
)

// DefaultSendTimeout bounds a single send to a subscriber.
const DefaultSendTimeout = 500 * time.Millisecond

// Type represents the notification type.
type Type int

const (
	TypeInitialState Type = iota // Sent once when a subscriber joins
	TypeChanged                  // The player view changed
)

// String returns the string representation of the notification type.
func (t Type) String() string {
	switch t {
	case TypeInitialState:
		return "initial_state"
	case TypeChanged:
		return "changed"
	default:
		return "unknown"
	}
}

// Notification is one message sent to subscribers.
type Notification struct {
	Type       Type
	SequenceNo uint64
	View       player.View
}

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(Notification) error
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id     string
	stream Stream
	since  uint64 // Version of the initial state; older views are skipped
}

// Manager manages notification subscriptions and broadcasting.
//
// Views handed to Publish are broadcast by Run on its own goroutine, so the
// publisher never waits on subscriber streams. Only the newest pending view is
// kept.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex
	sendTimeout   time.Duration

	pendingMu sync.Mutex
	pending   *player.View
	published uint64 // Highest version accepted by Publish
	wake      chan struct{}
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
		sendTimeout:   DefaultSendTimeout,
		wake:          make(chan struct{}, 1),
	}
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:     id,
		stream: stream,
	}
	return id
}

// SubscribeWithInitial sends the initial state built by current and then adds
// the subscription, both while holding the subscription lock, so no broadcast
// can fall between the two. When the initial send fails nothing is registered.
func (m *Manager) SubscribeWithInitial(stream Stream, current func() player.View) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	view := current()
	n := Notification{
		Type:       TypeInitialState,
		SequenceNo: m.NextSequenceNo(),
		View:       view,
	}
	if err := stream.Send(n); err != nil {
		return "", errors.Wrap(err, "failed to send initial state")
	}

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:     id,
		stream: stream,
		since:  view.Version,
	}
	zlog.Debug().Msgf("notification: subscribed: subscription=%s version=%d", id, view.Version)
	return id, nil
}

// NextSequenceNo returns the next sequence number and increments the counter.
func (m *Manager) NextSequenceNo() uint64 {
	m.sequenceNoMu.Lock()
	defer m.sequenceNoMu.Unlock()
	m.sequenceNo++
	return m.sequenceNo
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// Publish hands a view to Run for broadcasting and returns immediately.
// A view older than one already published is dropped.
func (m *Manager) Publish(view player.View) {
	m.pendingMu.Lock()
	if view.Version < m.published {
		m.pendingMu.Unlock()
		return
	}
	m.published = view.Version
	m.pending = &view
	m.pendingMu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Run broadcasts published views until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.wake:
			m.pendingMu.Lock()
			view := m.pending
			m.pending = nil
			m.pendingMu.Unlock()

			if view != nil {
				m.Broadcast(*view)
			}
		}
	}
}

// Broadcast sends a view change to all subscribers and waits for the sends.
// Each stream send is done in a goroutine with a timeout to prevent blocking.
func (m *Manager) Broadcast(view player.View) {
	m.mu.RLock()
	// Sequence numbers are taken under the lock so they stay ordered with
	// initial states.
	n := Notification{
		Type:       TypeChanged,
		SequenceNo: m.NextSequenceNo(),
		View:       view,
	}
	// Copy subscriptions to avoid holding lock during sends
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		if view.Version < sub.since {
			continue
		}
		subs = append(subs, sub)
	}
	timeout := m.sendTimeout
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- s.stream.Send(n)
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Debug().Msgf("notification: send failed: subscription=%s err=%v", s.id, err)
				}
			case <-ctx.Done():
				zlog.Debug().Msgf("notification: send timed out: subscription=%s", s.id)
			}
		}(sub)
	}

	wg.Wait()
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}
