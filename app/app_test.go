package app

import (
	"context"
	"errors"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/Mahendra2603/Robot-Simulator-Project/api"
	"github.com/Mahendra2603/Robot-Simulator-Project/client"
	"github.com/Mahendra2603/Robot-Simulator-Project/config"
	"github.com/Mahendra2603/Robot-Simulator-Project/hub"
	"github.com/Mahendra2603/Robot-Simulator-Project/websocket"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.APIAddr = "127.0.0.1:0"
	cfg.PeerAddr = "127.0.0.1:0"
	cfg.LogLevel = "error"
	return cfg
}

type running struct {
	api   *api.Server
	peers *websocket.Server
	hub   *hub.Hub
}

func startApp(t *testing.T) running {
	t.Helper()
	var r running
	app := fxtest.New(t,
		Module(testConfig()),
		fx.Populate(&r.api, &r.peers, &r.hub),
	)
	app.RequireStart()
	t.Cleanup(func() { app.RequireStop() })
	return r
}

func dialPeer(t *testing.T, r running) *gws.Conn {
	t.Helper()
	conn, _, err := gws.DefaultDialer.Dial("ws://"+r.peers.Addr()+"/", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *gws.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(data)
}

func TestModule_Lifecycle(t *testing.T) {
	var h *hub.Hub
	app := fxtest.New(t, Module(testConfig()), fx.Populate(&h))

	app.RequireStart()
	require.NotNil(t, h)
	assert.Equal(t, 0, h.Stats())
	app.RequireStop()

	select {
	case <-h.Exited():
	default:
		t.Fatal("hub loop still running after stop")
	}
}

func TestRelay_EndToEnd(t *testing.T) {
	r := startApp(t)
	c := client.New("http://" + r.api.Addr())
	ctx := context.Background()

	_, err := c.MoveRelative(ctx, 15, 2.0)
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "no peers connected", apiErr.Message)

	p1 := dialPeer(t, r)
	p2 := dialPeer(t, r)
	require.Eventually(t, func() bool { return r.hub.Stats() == 2 }, 2*time.Second, 5*time.Millisecond)

	_, err = c.SetGoal(ctx, 30, 30)
	require.NoError(t, err)
	assert.Equal(t, `{"command":"goal","x":30,"z":30}`, readFrame(t, p1))
	assert.Equal(t, `{"command":"goal","x":30,"z":30}`, readFrame(t, p2))

	require.NoError(t, p1.WriteMessage(gws.CloseMessage, gws.FormatCloseMessage(gws.CloseNormalClosure, "")))
	p1.Close()
	require.Eventually(t, func() bool { return r.hub.Stats() == 1 }, 2*time.Second, 5*time.Millisecond)

	_, err = c.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"command":"stop"}`, readFrame(t, p2))

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Peers)
}

func TestNew_StartsAndStops(t *testing.T) {
	app := New(testConfig())
	require.NoError(t, app.Err())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.Start(ctx))
	require.NoError(t, app.Stop(ctx))
}
