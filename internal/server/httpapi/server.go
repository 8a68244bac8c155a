// Package httpapi exposes the profile service over HTTP/JSON.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avigen/faceguard/internal/logging"
)

// NewRouter wires the routes. Everything under /v1/profiles requires a
// bearer token whose user matches the path id.
func NewRouter(h *Handler, secretKey []byte, log logging.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	router.GET("/v1/ping", h.Ping)
	router.POST("/v1/auth/login", h.Login)

	authorized := router.Group("/v1/profiles", requireAuth(secretKey), requireSelf())
	authorized.GET("/:id", h.GetProfile)
	authorized.PATCH("/:id/face", h.UpdateFace)
	authorized.POST("/:id/face-image", h.UploadFaceImage)

	return router
}

// Server wraps http.Server with graceful shutdown.
type Server struct {
	srv *http.Server
	log logging.Logger
}

func NewServer(addr string, router *gin.Engine, log logging.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Run serves until ctx is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info(ctx, "http server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
