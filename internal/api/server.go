package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/auric-audio/auric-core/internal/dispatch"
	"github.com/auric-audio/auric-core/internal/infrastructure/config"
	"github.com/auric-audio/auric-core/internal/infrastructure/logging"
	"github.com/auric-audio/auric-core/internal/zone"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the wire-protocol server.
type Deps struct {
	Config     config.ServerConfig
	WS         config.WebSocketConfig
	Logger     *logging.Logger
	Registry   *zone.Registry
	Dispatcher *dispatch.Dispatcher
	// Hub is created by the caller so the zone registry can broadcast
	// through it before the server starts.
	Hub     *Hub
	Version string
}

// Server is the HTTP and WebSocket front of the emulated device.
type Server struct {
	cfg        config.ServerConfig
	wsCfg      config.WebSocketConfig
	logger     *logging.Logger
	registry   *zone.Registry
	dispatcher *dispatch.Dispatcher
	hub        *Hub
	version    string
	server     *http.Server
	cancel     context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new wire-protocol server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("zone registry is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Hub == nil {
		return nil, fmt.Errorf("hub is required")
	}

	return &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		logger:     deps.Logger,
		registry:   deps.Registry,
		dispatcher: deps.Dispatcher,
		hub:        deps.Hub,
		version:    deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It runs the WebSocket hub and launches the HTTP listener in a
// background goroutine. The server is stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		// No WriteTimeout: WebSocket connections stay open indefinitely.
		IdleTimeout: time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("wire server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("wire server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the server.
//
// It closes all WebSocket connections, then waits up to 10 seconds for
// in-flight requests to complete.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("wire server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down wire server: %w", err)
	}
	return nil
}

// HealthCheck verifies the server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("wire server health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("wire server not started")
	}

	return nil
}
