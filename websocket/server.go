package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Mahendra2603/Robot-Simulator-Project/domain"
)

const (
	defaultSendBuffer     = 256
	defaultMaxMessageSize = 4096
	defaultPongWait       = 60 * time.Second
	defaultWriteWait      = 10 * time.Second
)

// Config tunes every peer session accepted by the server.
type Config struct {
	SendBuffer     int
	MaxMessageSize int64
	PongWait       time.Duration
	WriteWait      time.Duration
}

func (c Config) withDefaults() Config {
	if c.SendBuffer <= 0 {
		c.SendBuffer = defaultSendBuffer
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = defaultMaxMessageSize
	}
	if c.PongWait <= 0 {
		c.PongWait = defaultPongWait
	}
	if c.WriteWait <= 0 {
		c.WriteWait = defaultWriteWait
	}
	return c
}

func (c Config) pingPeriod() time.Duration {
	return (c.PongWait * 9) / 10
}

// Server accepts simulator sessions on its own address, separate from the
// command API. Every path is upgraded.
type Server struct {
	hub      domain.SessionHub
	observer domain.FrameObserver
	cfg      Config
	logger   *slog.Logger
	upgrader websocket.Upgrader
	http     *http.Server
	listener net.Listener
}

func NewServer(addr string, h domain.SessionHub, o domain.FrameObserver, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		hub:      h,
		observer: o,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade error", "error", err)
		return
	}

	conn := NewConn(uuid.New().String(), ws, s.hub, s.observer, s.cfg, s.logger)
	if err := conn.Start(); err != nil {
		s.logger.Warn("peer rejected", "peerId", conn.ID(), "error", err)
	}
}

// Start binds the peer address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	s.listener = ln

	go func() {
		s.logger.Info("peer endpoint listening", "addr", ln.Addr().String())
		if err := s.http.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("peer server error", "error", err)
		}
	}()
	return nil
}

// Addr is the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.http.Addr
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting sessions. Established sessions are hijacked and
// are closed by the hub when it stops.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
