package server

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.hackfix.me/scriptomate/web/server/api"
	"go.hackfix.me/scriptomate/web/server/middleware"
)

// Server is a wrapper around http.Server with some custom behavior.
type Server struct {
	*http.Server
	logger *slog.Logger
}

// New returns a new number service Server instance that will listen on addr.
// Requests to the number endpoints must carry password.
func New(addr string, alloc api.NumberAllocator, password string, logger *slog.Logger) *Server {
	logger = logger.With("component", "web-server")
	return &Server{
		Server: &http.Server{
			Handler:           SetupHandlers(alloc, password, logger),
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      time.Minute,
		},
		logger: logger,
	}
}

// ListenAndServe starts the HTTP server. It stores the actual listen address,
// which is convenient when the address is dynamically determined by the system
// (e.g. ':0').
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		//nolint:wrapcheck // This is fine.
		return err
	}

	s.Addr = ln.Addr().String()
	s.logger.Info("started listener", "address", s.Addr)

	//nolint:wrapcheck // This is fine.
	return s.Serve(ln)
}

// SetupHandlers configures the server HTTP handlers.
func SetupHandlers(alloc api.NumberAllocator, password string, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	numbers := middleware.Chain(
		middleware.Password(password, logger),
		api.SetupHandlers(alloc, logger),
	)
	mux.Handle("/api/", numbers)
	mux.Handle("/json/", numbers)
	mux.Handle("GET /metrics", promhttp.Handler())

	return middleware.Logger(logger)(mux)
}
