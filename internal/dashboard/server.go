// Package dashboard serves the corridor state and the operator action API
// over HTTP, with live updates as server-sent events.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/railsection/internal/engine"
	"github.com/zulandar/railsection/internal/models"
	"gorm.io/gorm"
)

// WhatIfer answers what-if questions about a world.
type WhatIfer interface {
	WhatIf(ctx context.Context, w *models.World, scenario string) (string, error)
}

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	Engine *engine.Engine
	// Bootstrap produces a fresh admitted world for POST /api/refresh.
	// Refresh is unavailable when nil.
	Bootstrap func(ctx context.Context) (*models.World, error)
	// Oracle answers POST /api/whatif. What-if is unavailable when nil.
	Oracle WhatIfer
	// DB backs GET /api/journal. The journal is unavailable when nil.
	DB   *gorm.DB
	Port int
	Out  io.Writer

	// StateInterval is how often SSE clients are checked for a newer
	// version. Heartbeat is the SSE keep-alive period.
	StateInterval time.Duration
	Heartbeat     time.Duration
}

func (o *StartOpts) applyDefaults() {
	if o.Port <= 0 {
		o.Port = 8080
	}
	if o.StateInterval <= 0 {
		o.StateInterval = 250 * time.Millisecond
	}
	if o.Heartbeat <= 0 {
		o.Heartbeat = 15 * time.Second
	}
}

// Start launches the dashboard HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Engine == nil {
		return fmt.Errorf("dashboard: engine is required")
	}
	opts.applyDefaults()

	gin.SetMode(gin.ReleaseMode)
	router := newRouter(opts)

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Dashboard running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

func newRouter(opts StartOpts) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, opts)
	return router
}
