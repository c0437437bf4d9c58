package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config is resolved from, in increasing priority: defaults, a .env file,
// the process environment, and command-line flags.
type Config struct {
	APIAddr         string
	PeerAddr        string
	LogLevel        string
	PeerSendBuffer  int
	PeerMaxMessage  int64
	PeerPongWait    time.Duration
	PeerWriteWait   time.Duration
	DispatchQueue   int
	RateLimit       float64
	RateBurst       int
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

func Default() Config {
	return Config{
		APIAddr:         ":5000",
		PeerAddr:        ":8765",
		LogLevel:        "info",
		PeerSendBuffer:  256,
		PeerMaxMessage:  4096,
		PeerPongWait:    60 * time.Second,
		PeerWriteWait:   10 * time.Second,
		DispatchQueue:   1024,
		RateLimit:       0,
		RateBurst:       10,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load reads .env (if any), the environment and args.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}
	return Parse(args, os.Getenv)
}

// Parse applies environment lookups and flags on top of Default.
func Parse(args []string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}

	fs := pflag.NewFlagSet("simrelay", pflag.ContinueOnError)
	fs.StringVar(&cfg.APIAddr, "api-addr", cfg.APIAddr, "command API listen address")
	fs.StringVar(&cfg.PeerAddr, "peer-addr", cfg.PeerAddr, "simulator websocket listen address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.IntVar(&cfg.PeerSendBuffer, "peer-send-buffer", cfg.PeerSendBuffer, "outbound frames queued per peer")
	fs.Int64Var(&cfg.PeerMaxMessage, "peer-max-message-size", cfg.PeerMaxMessage, "largest inbound peer frame in bytes")
	fs.DurationVar(&cfg.PeerPongWait, "peer-pong-wait", cfg.PeerPongWait, "time allowed between peer pongs")
	fs.DurationVar(&cfg.PeerWriteWait, "peer-write-wait", cfg.PeerWriteWait, "deadline for a single peer write")
	fs.IntVar(&cfg.DispatchQueue, "dispatch-queue", cfg.DispatchQueue, "dispatch tasks buffered for the peer loop")
	fs.Float64Var(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "command API requests per second (0 disables)")
	fs.IntVar(&cfg.RateBurst, "rate-burst", cfg.RateBurst, "command API burst size")
	fs.StringSliceVar(&cfg.CORSOrigins, "cors-origins", cfg.CORSOrigins, "origins allowed to call the command API")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "grace period for stopping servers")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	var errs []error

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("API_ADDR", &c.APIAddr)
	str("PEER_ADDR", &c.PeerAddr)
	str("LOG_LEVEL", &c.LogLevel)
	integer("PEER_SEND_BUFFER", &c.PeerSendBuffer)
	integer("DISPATCH_QUEUE", &c.DispatchQueue)
	integer("RATE_BURST", &c.RateBurst)
	duration("PEER_PONG_WAIT", &c.PeerPongWait)
	duration("PEER_WRITE_WAIT", &c.PeerWriteWait)
	duration("SHUTDOWN_TIMEOUT", &c.ShutdownTimeout)

	if v := strings.TrimSpace(getenv("PEER_MAX_MESSAGE_SIZE")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("PEER_MAX_MESSAGE_SIZE: %w", err))
		} else {
			c.PeerMaxMessage = n
		}
	}
	if v := strings.TrimSpace(getenv("RATE_LIMIT")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("RATE_LIMIT: %w", err))
		} else {
			c.RateLimit = f
		}
	}
	if v := strings.TrimSpace(getenv("CORS_ORIGINS")); v != "" {
		c.CORSOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.CORSOrigins = append(c.CORSOrigins, origin)
			}
		}
	}

	return errors.Join(errs...)
}

func (c Config) Validate() error {
	var errs []error
	if c.APIAddr == "" {
		errs = append(errs, errors.New("api address is empty"))
	}
	if c.PeerAddr == "" {
		errs = append(errs, errors.New("peer address is empty"))
	}
	if c.APIAddr == c.PeerAddr {
		errs = append(errs, fmt.Errorf("api and peer addresses must differ, both are %q", c.APIAddr))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.PeerSendBuffer <= 0 {
		errs = append(errs, errors.New("peer send buffer must be positive"))
	}
	if c.PeerMaxMessage <= 0 {
		errs = append(errs, errors.New("peer max message size must be positive"))
	}
	if c.PeerPongWait <= 0 || c.PeerWriteWait <= 0 {
		errs = append(errs, errors.New("peer timeouts must be positive"))
	}
	if c.DispatchQueue <= 0 {
		errs = append(errs, errors.New("dispatch queue must be positive"))
	}
	if c.RateLimit < 0 {
		errs = append(errs, errors.New("rate limit must not be negative"))
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		errs = append(errs, errors.New("rate burst must be positive when rate limiting"))
	}
	return errors.Join(errs...)
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// NewLogger builds the process logger the same way for every binary.
func NewLogger(level string) *slog.Logger {
	lvl, _ := ParseLevel(level)
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
