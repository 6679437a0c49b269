package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/danmuck/wirecodec/internal/config"
	"github.com/danmuck/wirecodec/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Inspector is the diagnostic HTTP front end over the codec.
type Inspector struct {
	Name            string
	Addr            string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
	Appeared        time.Time

	router *gin.Engine
}

func New(cfg config.ServerConfig) *Inspector {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetrics(cfg.Name, metricSource))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}

	s := &Inspector{
		Name:            cfg.Name,
		Addr:            cfg.Addr,
		MaxBodyBytes:    cfg.MaxBodyBytes,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Appeared:        time.Now(),
		router:          r,
	}
	s.RegisterRoutes()
	return s
}

func (s *Inspector) HTTPRouter() *gin.Engine {
	return s.router
}

// Serve listens on s.Addr until ctx is done, then drains in-flight requests.
func (s *Inspector) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

func (s *Inspector) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info().Str("service", s.Name).Str("addr", ln.Addr().String()).Msg("inspector listening")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Str("service", s.Name).Msg("inspector stopped")
	return nil
}

func normalizeOrigins(in []string) []string {
	if len(in) == 0 {
		return []string{"http://localhost:3000"}
	}
	return in
}
