package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mahendra2603/Robot-Simulator-Project/domain"
	"github.com/Mahendra2603/Robot-Simulator-Project/hub"
)

type recordingObserver struct {
	frames []string
	mu     sync.Mutex
}

func (o *recordingObserver) Observe(peer domain.Peer, data []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.frames = append(o.frames, string(data))
}

func (o *recordingObserver) getFrames() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.frames...)
}

type testEnv struct {
	hub      *hub.Hub
	observer *recordingObserver
	server   *httptest.Server
	url      string
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	h := hub.New()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	observer := &recordingObserver{}
	srv := NewServer("", h, observer, cfg, nil)
	ts := httptest.NewServer(srv)

	t.Cleanup(func() {
		cancel()
		<-h.Exited()
		ts.Close()
	})
	return &testEnv{
		hub:      h,
		observer: observer,
		server:   ts,
		url:      "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
	}
}

func (e *testEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(e.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (e *testEnv) waitPeers(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return e.hub.Stats() == n }, 2*time.Second, 5*time.Millisecond)
}

func TestSession_RegistersAndReceivesCommands(t *testing.T) {
	env := newTestEnv(t, Config{})
	client := env.dial(t)
	env.waitPeers(t, 1)

	payload := []byte(`{"command":"goal","x":30,"z":30}`)
	for _, p := range env.hub.Snapshot() {
		env.hub.Dispatch(p, payload)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, data, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, msgType)
	assert.Equal(t, payload, data)
}

func TestSession_InboundFramesAreObservedOnly(t *testing.T) {
	env := newTestEnv(t, Config{})
	client := env.dial(t)
	env.waitPeers(t, 1)

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"command":"stop"}`)))
	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("status: idle")))

	require.Eventually(t, func() bool { return len(env.observer.getFrames()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{`{"command":"stop"}`, "status: idle"}, env.observer.getFrames())

	client.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := client.ReadMessage()
	assert.Error(t, err, "relay must not answer peer frames")
}

func TestSession_DisconnectUnregisters(t *testing.T) {
	env := newTestEnv(t, Config{})
	first := env.dial(t)
	env.dial(t)
	env.waitPeers(t, 2)

	require.NoError(t, first.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	first.Close()

	env.waitPeers(t, 1)

	env.dial(t)
	env.waitPeers(t, 2)
}

func TestSession_EachConnectionHasDistinctIdentity(t *testing.T) {
	env := newTestEnv(t, Config{})
	for i := 0; i < 3; i++ {
		env.dial(t)
	}
	env.waitPeers(t, 3)

	ids := make(map[string]bool)
	for _, p := range env.hub.Snapshot() {
		ids[p.ID()] = true
	}
	assert.Len(t, ids, 3)
}

func TestSession_HubShutdownClosesClients(t *testing.T) {
	h := hub.New()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	ts := httptest.NewServer(NewServer("", h, &recordingObserver{}, Config{}, nil))
	defer ts.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()
	require.Eventually(t, func() bool { return h.Stats() == 1 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-h.Exited()

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = client.ReadMessage()
	assert.Error(t, err)
}

func TestConn_StateMachine(t *testing.T) {
	env := newTestEnv(t, Config{})
	client := env.dial(t)
	env.waitPeers(t, 1)

	peer, ok := env.hub.Snapshot()[0].(*Conn)
	require.True(t, ok)
	assert.Equal(t, StateOpen, peer.State())

	client.Close()

	env.waitPeers(t, 0)
	require.Eventually(t, func() bool { return peer.State() == StateClosed }, 2*time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, peer.Send([]byte("late")), ErrPeerClosed)
	assert.NoError(t, peer.Close())
}

func TestConn_SendQueueFull(t *testing.T) {
	c := NewConn("p1", nil, nil, nil, Config{SendBuffer: 1}, nil)

	assert.ErrorIs(t, c.Send([]byte("x")), ErrPeerClosed, "not yet open")

	c.state.Store(int32(StateOpen))
	require.NoError(t, c.Send([]byte("first")))
	assert.ErrorIs(t, c.Send([]byte("second")), ErrSendQueueFull)
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateConnecting, "connecting"},
		{StateOpen, "open"},
		{StateClosing, "closing"},
		{StateClosed, "closed"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}.withDefaults()

	assert.Equal(t, defaultSendBuffer, cfg.SendBuffer)
	assert.Equal(t, int64(defaultMaxMessageSize), cfg.MaxMessageSize)
	assert.Equal(t, defaultPongWait, cfg.PongWait)
	assert.Equal(t, defaultWriteWait, cfg.WriteWait)
	assert.Equal(t, 54*time.Second, cfg.pingPeriod())
}
