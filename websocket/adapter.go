package websocket

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Mahendra2603/Robot-Simulator-Project/domain"
)

var (
	ErrPeerClosed    = errors.New("peer connection closed")
	ErrSendQueueFull = errors.New("peer send queue full")
)

// State is the lifecycle of one peer session.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Conn adapts one websocket to domain.Peer. Sends only enqueue; the write
// pump owns the socket's write side.
type Conn struct {
	id       string
	ws       *websocket.Conn
	send     chan []byte
	closing  chan struct{}
	hub      domain.SessionHub
	observer domain.FrameObserver
	cfg      Config
	logger   *slog.Logger

	state     atomic.Int32
	closeOnce sync.Once
}

func NewConn(id string, ws *websocket.Conn, h domain.SessionHub, o domain.FrameObserver, cfg Config, logger *slog.Logger) *Conn {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Conn{
		id:       id,
		ws:       ws,
		send:     make(chan []byte, cfg.SendBuffer),
		closing:  make(chan struct{}),
		hub:      h,
		observer: o,
		cfg:      cfg,
		logger:   logger.With("peerId", id),
	}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) State() State { return State(c.state.Load()) }

func (c *Conn) Send(data []byte) error {
	if c.State() != StateOpen {
		return ErrPeerClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close moves the session to Closing and returns immediately. The write
// pump sends the close frame and releases the socket; the read pump then
// unregisters the peer and marks it Closed.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosing))
		close(c.closing)
	})
	return nil
}

// Start registers the peer and launches its pumps. If the hub is no longer
// running the socket is closed and the error returned.
func (c *Conn) Start() error {
	c.state.Store(int32(StateOpen))
	if err := c.hub.Register(c); err != nil {
		c.Close()
		c.ws.Close()
		c.state.Store(int32(StateClosed))
		return err
	}
	go c.writePump()
	go c.readPump()
	return nil
}

func (c *Conn) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
		c.state.Store(int32(StateClosed))
	}()

	c.ws.SetReadLimit(c.cfg.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("read error", "error", err)
			}
			return
		}

		c.observer.Observe(c, data)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.cfg.pingPeriod())
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case <-c.closing:
			deadline := time.Now().Add(c.cfg.WriteWait)
			c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), deadline)
			return
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn("write error", "error", err)
				c.Close()
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}
