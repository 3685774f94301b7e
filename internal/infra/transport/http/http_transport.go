package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mkrupp/jwtauth/internal/infra/logging"
)

// HTTPTransportConfig contains configuration parameters for HTTP servers.
// Timeouts are in seconds.
type HTTPTransportConfig struct {
	ServerAddr        string `env:"SERVER_ADDR" default:":8080"`
	ReadHeaderTimeout int64  `env:"READ_HEADER_TIMEOUT" default:"5"`
	ReadTimeout       int64  `env:"READ_TIMEOUT" default:"5"`
	WriteTimeout      int64  `env:"WRITE_TIMEOUT" default:"5"`
	ShutdownTimeout   int64  `env:"SHUTDOWN_TIMEOUT" default:"10"`

	// CORSAllowOrigin is sent as Access-Control-Allow-Origin
	CORSAllowOrigin string `env:"CORS_ALLOW_ORIGIN" default:"*"`
}

// HTTPTransport is implemented by service transports mounted on the router.
type HTTPTransport interface {
	RegisterRoutes(mux *http.ServeMux)
}

func seconds(n int64) time.Duration {
	return time.Duration(n) * time.Second
}

// Wrap applies the standard middleware chain: tracing, logging, panic
// recovery and CORS, outermost first.
func Wrap(handler http.Handler, cfg HTTPTransportConfig, log logging.Logger) http.Handler {
	handler = CORSMiddleware(handler, cfg.CORSAllowOrigin)
	handler = RescueingMiddleware(handler, log)
	handler = LoggingMiddleware(handler, log)
	handler = TracingMiddleware(handler)

	return handler
}

// ListenAndServe listens on cfg.ServerAddr and serves handler until ctx is
// cancelled, then shuts down gracefully.
func ListenAndServe(ctx context.Context, handler http.Handler, cfg HTTPTransportConfig) error {
	sock, err := net.Listen("tcp", cfg.ServerAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	return Serve(ctx, sock, handler, cfg)
}

// Serve serves handler on sock until ctx is cancelled. In-flight requests
// get cfg.ShutdownTimeout to finish.
func Serve(ctx context.Context, sock net.Listener, handler http.Handler, cfg HTTPTransportConfig) (err error) {
	log := logging.GetLogger("infra.transport.http")

	//nolint:exhaustruct
	server := &http.Server{
		Handler:           Wrap(handler, cfg, log),
		ErrorLog:          logging.GetLogLogger(log, logging.LevelError),
		ReadHeaderTimeout: seconds(cfg.ReadHeaderTimeout),
		ReadTimeout:       seconds(cfg.ReadTimeout),
		WriteTimeout:      seconds(cfg.WriteTimeout),
		// requests keep ctx's values but not its cancellation; Shutdown drains them
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	log.InfoContext(ctx, "listening", "addr", sock.Addr().String())

	serveErr := make(chan error, 1)

	go func() {
		serveErr <- server.Serve(sock)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	log.InfoContext(ctx, "shutting down", "timeout", seconds(cfg.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), seconds(cfg.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
