// Package player provides the player surface: it renders the playback session
// and keeps the media output in line with the session's intent.
package player

import "time"

// MediaHandle is the media output driven by the surface.
//
// Every Load starts a new source identified by token; the handle stamps each
// event with the token of the source it concerns. Events are delivered
// asynchronously on Events, in the order they happened.
type MediaHandle interface {
	Load(token uint64, url string) error
	Play() error
	Pause() error
	Stop() error
	Events() <-chan MediaEvent
	Close() error
}

// EventType represents a media event type.
type EventType int

const (
	EventStarted    EventType = iota // Output started playing
	EventPaused                      // Output paused
	EventEnded                       // Source played to the end
	EventTimeUpdate                  // Elapsed time changed
	EventError                       // Source failed to load or play
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventPaused:
		return "paused"
	case EventEnded:
		return "ended"
	case EventTimeUpdate:
		return "time_update"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// MediaEvent is a signal from the media output.
type MediaEvent struct {
	Type    EventType
	Token   uint64        // Token of the Load this event belongs to
	Elapsed time.Duration // Elapsed time (EventTimeUpdate)
	Err     error         // Failure reason (EventError)
}
