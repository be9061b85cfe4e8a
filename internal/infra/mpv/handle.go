// Package mpv provides a media handle backed by mpv's JSON IPC interface.
//
// Sources are told apart by the playlist entry id mpv assigns to each
// loadfile, so mpv 0.33 or newer is required.
package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/podcastr/internal/app/player"
)

const (
	eventBufferSize = 64

	observePause   = 1
	observeTimePos = 2
)

// Config represents mpv backend configuration.
type Config struct {
	Binary         string `mapstructure:"binary" default:"mpv"`
	SocketPath     string `mapstructure:"socket_path"`
	StartTimeoutMs int    `mapstructure:"start_timeout_ms" default:"2000"`
}

// ConfigFromSettings decodes backend settings from the config file.
func ConfigFromSettings(settings map[string]any) (Config, error) {
	var cfg Config
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode mpv settings")
	}
	if err := defaults.Set(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to set mpv defaults")
	}
	if cfg.SocketPath == "" {
		cfg.SocketPath = fmt.Sprintf("%s/podcastr-mpv-%d.sock", os.TempDir(), os.Getpid())
	}
	return cfg, nil
}

type command struct {
	Command   []any `json:"command"`
	RequestID int   `json:"request_id,omitempty"`
}

type message struct {
	// Replies
	RequestID int    `json:"request_id"`
	Error     string `json:"error"`

	// Events
	Event           string          `json:"event"`
	ID              int             `json:"id"`
	Name            string          `json:"name"`
	Data            json.RawMessage `json:"data"`
	Reason          string          `json:"reason"`
	FileError       string          `json:"file_error"`
	PlaylistEntryID int             `json:"playlist_entry_id"`
}

type loadReply struct {
	PlaylistEntryID int `json:"playlist_entry_id"`
}

// Handle drives one mpv process.
type Handle struct {
	mu        sync.Mutex
	conn      net.Conn
	cmd       *exec.Cmd
	requestID int

	// Current source
	token        uint64
	loadRequest  int  // Request id of the loadfile awaiting its reply
	entry        int  // Playlist entry of the current source, 0 until known
	startedEntry int  // Entry of the last start-file
	started      bool // start-file seen for the current source
	lastSecond   int

	events    chan player.MediaEvent
	readDone  chan struct{}
	closeOnce sync.Once
}

var _ player.MediaHandle = (*Handle)(nil)

// Start launches mpv in idle mode and connects to its IPC socket.
func Start(ctx context.Context, cfg Config) (*Handle, error) {
	_ = os.Remove(cfg.SocketPath)

	cmd := exec.Command(cfg.Binary,
		"--no-video",
		"--no-terminal",
		"--idle=yes",
		"--force-window=no",
		"--keep-open=no",
		fmt.Sprintf("--input-ipc-server=%s", cfg.SocketPath),
	)
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to start %s", cfg.Binary)
	}

	conn, err := dialSocket(ctx, cfg.SocketPath, time.Duration(cfg.StartTimeoutMs)*time.Millisecond)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}

	h, err := New(conn)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}
	h.cmd = cmd

	zlog.Info().Msgf("mpv: started: pid=%d socket=%s", cmd.Process.Pid, cfg.SocketPath)
	return h, nil
}

// dialSocket waits for mpv to create its socket and connects to it.
func dialSocket(ctx context.Context, path string, timeout time.Duration) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		conn, err := d.DialContext(ctx, "unix", path)
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(err, "mpv socket %s not ready", path)
		case <-ticker.C:
		}
	}
}

// New wraps an established IPC connection.
func New(conn net.Conn) (*Handle, error) {
	h := &Handle{
		conn:     conn,
		events:   make(chan player.MediaEvent, eventBufferSize),
		readDone: make(chan struct{}),
	}

	go h.readLoop()

	if err := h.send("observe_property", observePause, "pause"); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := h.send("observe_property", observeTimePos, "time-pos"); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return h, nil
}

// Load implements player.MediaHandle. The source is loaded paused.
func (h *Handle) Load(token uint64, url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.token = token
	h.loadRequest = 0
	h.entry = 0
	h.started = false
	h.lastSecond = -1

	if _, err := h.writeLocked("set_property", "pause", true); err != nil {
		return err
	}
	id, err := h.writeLocked("loadfile", url, "replace")
	if err != nil {
		return err
	}
	h.loadRequest = id
	return nil
}

// Play implements player.MediaHandle.
func (h *Handle) Play() error {
	return h.send("set_property", "pause", false)
}

// Pause implements player.MediaHandle.
func (h *Handle) Pause() error {
	return h.send("set_property", "pause", true)
}

// Stop implements player.MediaHandle.
func (h *Handle) Stop() error {
	h.mu.Lock()
	h.loadRequest = 0
	h.entry = 0
	h.started = false
	h.mu.Unlock()

	return h.send("stop")
}

// Events implements player.MediaHandle.
func (h *Handle) Events() <-chan player.MediaEvent {
	return h.events
}

// Close implements player.MediaHandle. It quits mpv if this handle started it.
func (h *Handle) Close() error {
	var err error
	h.closeOnce.Do(func() {
		if h.cmd != nil {
			_ = h.send("quit")
			waitCh := make(chan error, 1)
			go func() { waitCh <- h.cmd.Wait() }()
			select {
			case <-waitCh:
			case <-time.After(2 * time.Second):
				_ = h.cmd.Process.Kill()
				<-waitCh
			}
		}
		err = h.conn.Close()
		<-h.readDone
	})
	return err
}

func (h *Handle) send(args ...any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.writeLocked(args...)
	return err
}

// writeLocked sends a command and returns its request id.
// Must be called with lock held.
func (h *Handle) writeLocked(args ...any) (int, error) {
	h.requestID++
	data, err := json.Marshal(command{Command: args, RequestID: h.requestID})
	if err != nil {
		return 0, errors.Wrap(err, "failed to encode mpv command")
	}
	data = append(data, '\n')

	if _, err := h.conn.Write(data); err != nil {
		return 0, errors.Wrapf(err, "failed to send mpv command %v", args[0])
	}
	return h.requestID, nil
}

func (h *Handle) readLoop() {
	defer close(h.readDone)
	defer close(h.events)

	scanner := bufio.NewScanner(h.conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			zlog.Debug().Msgf("mpv: ignoring malformed message: %v", err)
			continue
		}
		h.handle(msg)
	}
}

func (h *Handle) handle(msg message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch msg.Event {
	case "":
		if msg.RequestID != 0 && msg.RequestID == h.loadRequest {
			h.loadReplyLocked(msg)
			return
		}
		if msg.Error != "" && msg.Error != "success" {
			zlog.Debug().Msgf("mpv: command %d failed: %s", msg.RequestID, msg.Error)
		}
	case "start-file":
		h.startedEntry = msg.PlaylistEntryID
		if h.entry != 0 && msg.PlaylistEntryID == h.entry {
			h.started = true
		}
	case "property-change":
		h.propertyChangeLocked(msg)
	case "end-file":
		if h.entry == 0 || msg.PlaylistEntryID != h.entry {
			zlog.Debug().Msgf("mpv: ignoring end-file for entry %d", msg.PlaylistEntryID)
			return
		}
		switch msg.Reason {
		case "eof":
			h.started = false
			h.sendLocked(player.MediaEvent{Type: player.EventEnded, Token: h.token})
		case "error":
			h.started = false
			reason := msg.FileError
			if reason == "" {
				reason = "unknown error"
			}
			h.sendLocked(player.MediaEvent{
				Type:  player.EventError,
				Token: h.token,
				Err:   errors.Newf("mpv: %s", reason),
			})
		}
	}
}

// loadReplyLocked binds the current token to the playlist entry mpv created.
// Must be called with lock held.
func (h *Handle) loadReplyLocked(msg message) {
	h.loadRequest = 0
	if msg.Error != "success" {
		h.sendLocked(player.MediaEvent{
			Type:  player.EventError,
			Token: h.token,
			Err:   errors.Newf("mpv: loadfile: %s", msg.Error),
		})
		return
	}

	var reply loadReply
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &reply); err != nil {
			zlog.Debug().Msgf("mpv: malformed loadfile reply: %v", err)
		}
	}
	if reply.PlaylistEntryID == 0 {
		zlog.Warn().Msgf("mpv: loadfile reply without playlist entry, events for token %d are dropped", h.token)
		return
	}

	h.entry = reply.PlaylistEntryID
	// start-file may arrive before the reply.
	h.started = h.startedEntry == h.entry
	zlog.Debug().Msgf("mpv: token %d is entry %d", h.token, h.entry)
}

// propertyChangeLocked maps observed properties to media events.
// Must be called with lock held.
func (h *Handle) propertyChangeLocked(msg message) {
	if !h.started {
		return
	}

	switch msg.ID {
	case observePause:
		var paused bool
		if err := json.Unmarshal(msg.Data, &paused); err != nil {
			return
		}
		if paused {
			h.sendLocked(player.MediaEvent{Type: player.EventPaused, Token: h.token})
		} else {
			h.sendLocked(player.MediaEvent{Type: player.EventStarted, Token: h.token})
		}
	case observeTimePos:
		var pos *float64
		if err := json.Unmarshal(msg.Data, &pos); err != nil || pos == nil {
			return
		}
		second := int(math.Floor(*pos))
		if second == h.lastSecond {
			return
		}
		h.lastSecond = second
		h.sendLocked(player.MediaEvent{
			Type:    player.EventTimeUpdate,
			Token:   h.token,
			Elapsed: time.Duration(second) * time.Second,
		})
	}
}

// sendLocked sends an event without blocking.
// Must be called with lock held.
func (h *Handle) sendLocked(e player.MediaEvent) {
	select {
	case h.events <- e:
	default:
		zlog.Warn().Msgf("mpv: event buffer full, dropping %s", e.Type)
	}
}
