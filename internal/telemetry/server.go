package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// SnapshotProvider devolve o estado atual da frota em forma serializável.
type SnapshotProvider interface {
	Snapshot() interface{}
}

// SnapshotFunc adapta uma função a SnapshotProvider.
type SnapshotFunc func() interface{}

func (f SnapshotFunc) Snapshot() interface{} { return f() }

type Server struct {
	addr    string
	router  *gin.Engine
	metrics *Metrics
	fleet   SnapshotProvider
	log     zerolog.Logger
}

func NewServer(addr string, metrics *Metrics, fleet SnapshotProvider, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		addr:    addr,
		router:  gin.New(),
		metrics: metrics,
		fleet:   fleet,
		log:     logger.With().Str("component", "telemetry").Logger(),
	}
	s.router.Use(gin.Recovery())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))

	api := s.router.Group("/api/v1")
	{
		api.GET("/fleet", s.handleFleet)
	}
}

func (s *Server) handleFleet(c *gin.Context) {
	if s.fleet == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "fleet not running"})
		return
	}
	c.JSON(http.StatusOK, s.fleet.Snapshot())
}

// Run serve até o contexto ser cancelado.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("telemetry server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Handler é exposto para testes.
func (s *Server) Handler() http.Handler { return s.router }
