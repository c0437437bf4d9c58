package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mahendra2603/Robot-Simulator-Project/api"
	"github.com/Mahendra2603/Robot-Simulator-Project/domain"
	"github.com/Mahendra2603/Robot-Simulator-Project/hub"
	"github.com/Mahendra2603/Robot-Simulator-Project/relay"
)

type mockConn struct {
	id       string
	received [][]byte
	mu       sync.Mutex
}

func (m *mockConn) ID() string { return m.id }

func (m *mockConn) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received = append(m.received, data)
	return nil
}

func (m *mockConn) Close() error { return nil }

func (m *mockConn) getReceived() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.received...)
}

func newRelay(t *testing.T) (*hub.Hub, *Client) {
	t.Helper()
	h := hub.New()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	srv := api.NewServer(api.Options{
		Ingress: relay.NewIngress(relay.NewBroadcaster(h, h, nil, nil)),
		Peers:   h,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-h.Exited()
	})
	return h, New(ts.URL + "/")
}

func TestClient_Commands(t *testing.T) {
	h, c := newRelay(t)
	peer := &mockConn{id: "sim"}
	require.NoError(t, h.Register(peer))
	ctx := context.Background()

	resp, err := c.SetGoal(ctx, 30, 30)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, domain.SetGoal(30, 30), resp.Command)

	resp, err = c.MoveAbsolute(ctx, 30, 30)
	require.NoError(t, err)
	assert.Equal(t, domain.KindMoveAbsolute, resp.Command.Kind)

	resp, err = c.MoveRelative(ctx, 15, 2)
	require.NoError(t, err)
	assert.Equal(t, "move relative command sent", resp.Status)
	assert.Equal(t, domain.MoveRelative(15, 2), resp.Command)

	resp, err = c.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Stop(), resp.Command)

	require.Eventually(t, func() bool { return len(peer.getReceived()) == 4 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, `{"command":"stop"}`, string(peer.getReceived()[3]))

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Peers)
}

func TestClient_NoPeers(t *testing.T) {
	_, c := newRelay(t)

	_, err := c.Stop(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "no peers connected", apiErr.Message)
	assert.Equal(t, "relay returned 400: no peers connected", err.Error())
}

func TestClient_NonJSONError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := New(ts.URL).Status(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestClient_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := New(url, WithHTTPClient(&http.Client{Timeout: time.Second})).Stop(context.Background())

	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestNew_DefaultBaseURL(t *testing.T) {
	assert.Equal(t, DefaultBaseURL, New("").baseURL)
}
