package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mahendra2603/Robot-Simulator-Project/metrics"
)

type Options struct {
	Addr        string
	Ingress     CommandIngress
	Peers       PeerCounter
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Logger      *slog.Logger
	RateLimit   float64
	RateBurst   int
	CORSOrigins []string
}

// Server is the command ingress surface. Each request runs on its own
// goroutine and reaches peers only through the ingress.
type Server struct {
	engine   *gin.Engine
	http     *http.Server
	listener net.Listener
	logger   *slog.Logger
}

func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(opts.Logger))
	r.Use(RequestMetrics(opts.Metrics))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: opts.CORSOrigins,
			AllowMethods: []string{"GET", "POST"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	h := &handlers{ingress: opts.Ingress, peers: opts.Peers, startedAt: time.Now()}

	r.GET("/health", h.health)
	r.GET("/status", h.status)
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	commands := r.Group("/")
	if opts.RateLimit > 0 {
		commands.Use(RateLimit(opts.RateLimit, opts.RateBurst))
	}
	commands.POST("/move_rel", h.moveRelative)
	commands.POST("/move", h.moveAbsolute)
	commands.POST("/goal", h.setGoal)
	commands.POST("/stop", h.stop)

	return &Server{
		engine: r,
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: opts.Logger,
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start binds the API address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	s.listener = ln

	go func() {
		s.logger.Info("command api listening", "addr", ln.Addr().String())
		if err := s.http.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("command api error", "error", err)
		}
	}()
	return nil
}

func (s *Server) Addr() string {
	if s.listener == nil {
		return s.http.Addr
	}
	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
