package mpv

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/podcastr/internal/app/player"
)

// fakeMpv is the server side of an IPC connection.
type fakeMpv struct {
	t        *testing.T
	conn     net.Conn
	commands chan command
}

func newFakeMpv(t *testing.T) (*Handle, *fakeMpv) {
	t.Helper()

	client, server := net.Pipe()
	fake := &fakeMpv{t: t, conn: server, commands: make(chan command, 64)}

	go func() {
		scanner := bufio.NewScanner(server)
		for scanner.Scan() {
			var cmd command
			if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
				continue
			}
			fake.commands <- cmd
		}
		close(fake.commands)
	}()

	h, err := New(client)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = h.Close()
		_ = server.Close()
	})

	// Property observers are registered on connect.
	assert.Equal(t, []any{"observe_property", float64(observePause), "pause"}, fake.next())
	assert.Equal(t, []any{"observe_property", float64(observeTimePos), "time-pos"}, fake.next())

	return h, fake
}

func (f *fakeMpv) next() []any {
	f.t.Helper()
	return f.nextRequest().Command
}

func (f *fakeMpv) nextRequest() command {
	f.t.Helper()
	select {
	case cmd := <-f.commands:
		return cmd
	case <-time.After(time.Second):
		f.t.Fatal("timed out waiting for command")
		return command{}
	}
}

// replyLoad answers a loadfile the way mpv does, naming the playlist entry.
func (f *fakeMpv) replyLoad(requestID, entry int) {
	f.t.Helper()
	f.emit(fmt.Sprintf(`{"request_id":%d,"error":"success","data":{"playlist_entry_id":%d}}`, requestID, entry))
}

// load loads url under token and has mpv place it at entry.
func (f *fakeMpv) load(h *Handle, token uint64, url string, entry int) {
	f.t.Helper()
	require.NoError(f.t, h.Load(token, url))
	assert.Equal(f.t, []any{"set_property", "pause", true}, f.next())
	cmd := f.nextRequest()
	assert.Equal(f.t, []any{"loadfile", url, "replace"}, cmd.Command)
	f.replyLoad(cmd.RequestID, entry)
}

func (f *fakeMpv) emit(msg string) {
	f.t.Helper()
	_, err := f.conn.Write([]byte(msg + "\n"))
	require.NoError(f.t, err)
}

func nextEvent(t *testing.T, h *Handle) player.MediaEvent {
	t.Helper()
	select {
	case e := <-h.Events():
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return player.MediaEvent{}
	}
}

func assertNoEvent(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case e := <-h.Events():
		t.Fatalf("unexpected event %s", e.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConfigFromSettings(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
		want     Config
		wantErr  bool
	}{
		{
			name:     "defaults",
			settings: nil,
			want:     Config{Binary: "mpv", StartTimeoutMs: 2000},
		},
		{
			name: "explicit",
			settings: map[string]any{
				"binary":           "/usr/local/bin/mpv",
				"socket_path":      "/tmp/test.sock",
				"start_timeout_ms": 500,
			},
			want: Config{Binary: "/usr/local/bin/mpv", SocketPath: "/tmp/test.sock", StartTimeoutMs: 500},
		},
		{
			name:     "wrong type",
			settings: map[string]any{"start_timeout_ms": "soon"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConfigFromSettings(tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Binary, got.Binary)
			assert.Equal(t, tt.want.StartTimeoutMs, got.StartTimeoutMs)
			if tt.want.SocketPath != "" {
				assert.Equal(t, tt.want.SocketPath, got.SocketPath)
			} else {
				assert.NotEmpty(t, got.SocketPath)
			}
		})
	}
}

func TestHandle_Commands(t *testing.T) {
	h, fake := newFakeMpv(t)

	require.NoError(t, h.Load(3, "https://example.com/ep.mp3"))
	assert.Equal(t, []any{"set_property", "pause", true}, fake.next())
	assert.Equal(t, []any{"loadfile", "https://example.com/ep.mp3", "replace"}, fake.next())

	require.NoError(t, h.Play())
	assert.Equal(t, []any{"set_property", "pause", false}, fake.next())

	require.NoError(t, h.Pause())
	assert.Equal(t, []any{"set_property", "pause", true}, fake.next())

	require.NoError(t, h.Stop())
	assert.Equal(t, []any{"stop"}, fake.next())
}

func TestHandle_PlaybackEvents(t *testing.T) {
	h, fake := newFakeMpv(t)

	fake.load(h, 5, "https://example.com/ep.mp3", 1)

	// Initial observer values before a source starts are ignored.
	fake.emit(`{"event":"property-change","id":1,"name":"pause","data":true}`)
	assertNoEvent(t, h)

	fake.emit(`{"event":"start-file","playlist_entry_id":1}`)
	fake.emit(`{"event":"property-change","id":1,"name":"pause","data":false}`)
	e := nextEvent(t, h)
	assert.Equal(t, player.EventStarted, e.Type)
	assert.Equal(t, uint64(5), e.Token)

	fake.emit(`{"event":"property-change","id":2,"name":"time-pos","data":1.2}`)
	e = nextEvent(t, h)
	assert.Equal(t, player.EventTimeUpdate, e.Type)
	assert.Equal(t, time.Second, e.Elapsed)

	// Same whole second is not reported twice.
	fake.emit(`{"event":"property-change","id":2,"name":"time-pos","data":1.7}`)
	assertNoEvent(t, h)

	fake.emit(`{"event":"property-change","id":2,"name":"time-pos","data":null}`)
	assertNoEvent(t, h)

	fake.emit(`{"event":"property-change","id":1,"name":"pause","data":true}`)
	assert.Equal(t, player.EventPaused, nextEvent(t, h).Type)

	fake.emit(`{"event":"end-file","reason":"eof","playlist_entry_id":1}`)
	e = nextEvent(t, h)
	assert.Equal(t, player.EventEnded, e.Type)
	assert.Equal(t, uint64(5), e.Token)
}

func TestHandle_EndFile(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantType player.EventType
		wantNone bool
	}{
		{
			name:     "eof",
			msg:      `{"event":"end-file","reason":"eof","playlist_entry_id":7}`,
			wantType: player.EventEnded,
		},
		{
			name:     "error",
			msg:      `{"event":"end-file","reason":"error","file_error":"loading failed","playlist_entry_id":7}`,
			wantType: player.EventError,
		},
		{
			name:     "stop is ignored",
			msg:      `{"event":"end-file","reason":"stop","playlist_entry_id":7}`,
			wantNone: true,
		},
		{
			name:     "other entry is ignored",
			msg:      `{"event":"end-file","reason":"eof","playlist_entry_id":6}`,
			wantNone: true,
		},
		{
			name:     "missing entry is ignored",
			msg:      `{"event":"end-file","reason":"error","file_error":"loading failed"}`,
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, fake := newFakeMpv(t)

			fake.load(h, 1, "u", 7)
			fake.emit(`{"event":"start-file","playlist_entry_id":7}`)

			fake.emit(tt.msg)
			if tt.wantNone {
				assertNoEvent(t, h)
				return
			}
			e := nextEvent(t, h)
			assert.Equal(t, tt.wantType, e.Type)
			if tt.wantType == player.EventError {
				require.Error(t, e.Err)
				assert.Contains(t, e.Err.Error(), "loading failed")
			}
		})
	}
}

func TestHandle_ReplacedSourceSignals(t *testing.T) {
	h, fake := newFakeMpv(t)

	fake.load(h, 1, "https://example.com/a.mp3", 1)
	fake.emit(`{"event":"start-file","playlist_entry_id":1}`)

	require.NoError(t, h.Stop())
	assert.Equal(t, []any{"stop"}, fake.next())
	require.NoError(t, h.Load(3, "https://example.com/b.mp3"))
	fake.next()
	loadB := fake.nextRequest()

	// a's late signals arrive before mpv answers b's loadfile.
	fake.emit(`{"event":"end-file","reason":"error","file_error":"loading failed","playlist_entry_id":1}`)
	fake.emit(`{"event":"start-file","playlist_entry_id":1}`)
	fake.emit(`{"event":"property-change","id":1,"name":"pause","data":false}`)
	assertNoEvent(t, h)

	fake.replyLoad(loadB.RequestID, 2)
	fake.emit(`{"event":"property-change","id":1,"name":"pause","data":false}`)
	fake.emit(`{"event":"end-file","reason":"eof","playlist_entry_id":1}`)
	assertNoEvent(t, h)

	fake.emit(`{"event":"start-file","playlist_entry_id":2}`)
	fake.emit(`{"event":"property-change","id":1,"name":"pause","data":false}`)
	e := nextEvent(t, h)
	assert.Equal(t, player.EventStarted, e.Type)
	assert.Equal(t, uint64(3), e.Token)

	fake.emit(`{"event":"end-file","reason":"error","file_error":"no route","playlist_entry_id":2}`)
	e = nextEvent(t, h)
	assert.Equal(t, player.EventError, e.Type)
	assert.Equal(t, uint64(3), e.Token)
}

func TestHandle_StartFileBeforeLoadReply(t *testing.T) {
	h, fake := newFakeMpv(t)

	require.NoError(t, h.Load(2, "u"))
	fake.next()
	cmd := fake.nextRequest()

	fake.emit(`{"event":"start-file","playlist_entry_id":4}`)
	fake.replyLoad(cmd.RequestID, 4)
	fake.emit(`{"event":"property-change","id":1,"name":"pause","data":false}`)

	e := nextEvent(t, h)
	assert.Equal(t, player.EventStarted, e.Type)
	assert.Equal(t, uint64(2), e.Token)
}

func TestHandle_LoadfileRejected(t *testing.T) {
	h, fake := newFakeMpv(t)

	require.NoError(t, h.Load(9, "u"))
	fake.next()
	cmd := fake.nextRequest()
	fake.emit(fmt.Sprintf(`{"request_id":%d,"error":"invalid parameter"}`, cmd.RequestID))

	e := nextEvent(t, h)
	assert.Equal(t, player.EventError, e.Type)
	assert.Equal(t, uint64(9), e.Token)
	require.Error(t, e.Err)
	assert.Contains(t, e.Err.Error(), "invalid parameter")
}

func TestHandle_CloseEndsEvents(t *testing.T) {
	h, _ := newFakeMpv(t)

	require.NoError(t, h.Close())

	_, ok := <-h.Events()
	assert.False(t, ok)
	assert.NoError(t, h.Close())
}
