// Package app assembles the relay: one hub shared by the peer endpoint and
// the command API, with lifecycles tied to the fx application.
package app

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/Mahendra2603/Robot-Simulator-Project/api"
	"github.com/Mahendra2603/Robot-Simulator-Project/config"
	"github.com/Mahendra2603/Robot-Simulator-Project/hub"
	"github.com/Mahendra2603/Robot-Simulator-Project/metrics"
	"github.com/Mahendra2603/Robot-Simulator-Project/protocol"
	"github.com/Mahendra2603/Robot-Simulator-Project/relay"
	"github.com/Mahendra2603/Robot-Simulator-Project/websocket"
)

// Module provides every component. Hooks run hub, peer endpoint, API on
// start and the reverse on stop, so ingress closes before peers do.
func Module(cfg config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		fx.Provide(
			newLogger,
			newPrometheus,
			metrics.New,
			newHub,
			newBroadcaster,
			newIngress,
			newObserver,
			newPeerServer,
			newAPIServer,
		),
		fx.Invoke(runHub, runPeerServer, runAPIServer),
	)
}

// New builds the process application, logging fx events through slog.
func New(cfg config.Config, extra ...fx.Option) *fx.App {
	opts := []fx.Option{
		Module(cfg),
		fx.WithLogger(func(l *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: l.With("component", "fx")}
		}),
		fx.StopTimeout(cfg.ShutdownTimeout),
	}
	return fx.New(append(opts, extra...)...)
}

func newLogger(cfg config.Config) *slog.Logger {
	logger := config.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	return logger
}

func newPrometheus() (*prometheus.Registry, prometheus.Registerer, prometheus.Gatherer) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, reg, reg
}

func newHub(cfg config.Config, logger *slog.Logger, m *metrics.Metrics) *hub.Hub {
	return hub.New(
		hub.WithLogger(logger.With("component", "hub")),
		hub.WithMetrics(m),
		hub.WithQueueSize(cfg.DispatchQueue),
	)
}

func newBroadcaster(h *hub.Hub, logger *slog.Logger, m *metrics.Metrics) *relay.Broadcaster {
	return relay.NewBroadcaster(h, h, logger.With("component", "broadcaster"), m)
}

func newIngress(b *relay.Broadcaster) *relay.Ingress {
	return relay.NewIngress(b)
}

func newObserver(logger *slog.Logger, m *metrics.Metrics) *protocol.Observer {
	return protocol.NewObserver(logger.With("component", "peers"), m)
}

func newPeerServer(cfg config.Config, h *hub.Hub, o *protocol.Observer, logger *slog.Logger) *websocket.Server {
	return websocket.NewServer(cfg.PeerAddr, h, o, websocket.Config{
		SendBuffer:     cfg.PeerSendBuffer,
		MaxMessageSize: cfg.PeerMaxMessage,
		PongWait:       cfg.PeerPongWait,
		WriteWait:      cfg.PeerWriteWait,
	}, logger.With("component", "peers"))
}

func newAPIServer(cfg config.Config, in *relay.Ingress, h *hub.Hub, m *metrics.Metrics, g prometheus.Gatherer, logger *slog.Logger) *api.Server {
	return api.NewServer(api.Options{
		Addr:        cfg.APIAddr,
		Ingress:     in,
		Peers:       h,
		Metrics:     m,
		Gatherer:    g,
		Logger:      logger.With("component", "api"),
		RateLimit:   cfg.RateLimit,
		RateBurst:   cfg.RateBurst,
		CORSOrigins: cfg.CORSOrigins,
	})
}

func runHub(lc fx.Lifecycle, h *hub.Hub) {
	var cancel context.CancelFunc
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			go h.Run(ctx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-h.Exited():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func runPeerServer(lc fx.Lifecycle, s *websocket.Server) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error { return s.Start() },
		OnStop:  s.Shutdown,
	})
}

func runAPIServer(lc fx.Lifecycle, s *api.Server) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error { return s.Start() },
		OnStop:  s.Shutdown,
	})
}
