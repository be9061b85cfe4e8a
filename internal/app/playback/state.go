// Package playback provides the shared playback session: the single owner of
// what should be playing.
package playback

// Mode represents the rendered player mode derived from a snapshot.
type Mode int

const (
	ModeIdle    Mode = iota // Nothing selected
	ModeReady               // Episode selected, not playing
	ModePlaying             // Episode selected and intended to play
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeReady:
		return "ready"
	case ModePlaying:
		return "playing"
	default:
		return "unknown"
	}
}
