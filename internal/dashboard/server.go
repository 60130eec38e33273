// Package dashboard serves the read-only HTTP query surface and the push
// channels (Server-Sent Events and WebSocket) for observers.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/planboard/internal/hub"
	"github.com/zulandar/planboard/internal/logging"
	"github.com/zulandar/planboard/internal/query"
)

// DefaultHeartbeat is the keep-alive interval on push connections.
const DefaultHeartbeat = 15 * time.Second

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	Reader    *query.Reader
	Hub       *hub.Hub
	Host      string
	Port      int
	Heartbeat time.Duration // defaults to DefaultHeartbeat
	Out       io.Writer
	Logger    *slog.Logger // defaults to logging.Logger()
}

func (o *StartOpts) validate() error {
	if o.Reader == nil {
		return fmt.Errorf("dashboard: reader is required")
	}
	if o.Hub == nil {
		return fmt.Errorf("dashboard: hub is required")
	}
	if o.Port <= 0 {
		o.Port = 8080
	}
	if o.Heartbeat <= 0 {
		o.Heartbeat = DefaultHeartbeat
	}
	if o.Logger == nil {
		o.Logger = logging.Logger()
	}
	return nil
}

// Start launches the dashboard HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if err := opts.validate(); err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := newRouter(opts)

	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		host := opts.Host
		if host == "" {
			host = "localhost"
		}
		fmt.Fprintf(opts.Out, "Planboard API running at http://%s:%d\n", host, opts.Port)
	}
	opts.Logger.Info("dashboard listening", "addr", addr)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// newRouter builds the gin engine with every route registered.
func newRouter(opts StartOpts) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, opts)
	return router
}
