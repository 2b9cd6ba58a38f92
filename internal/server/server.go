package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gymdesk/internal/auth"
	"gymdesk/internal/autoprocess"
	"gymdesk/internal/config"
	"gymdesk/internal/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	config *config.Config
}

type Deps struct {
	DB          Pinger
	Owners      auth.OwnershipChecker
	AutoProcess *autoprocess.Handler
}

func New(cfg *config.Config, deps Deps) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())

	router.GET("/health", Health(deps.DB))
	router.GET("/metrics", Metrics())

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	ownerMiddleware := auth.RequireGymOwner(deps.Owners)

	gyms := router.Group("/gyms/:gymID/auto-process")
	gyms.Use(authMiddleware, ownerMiddleware)
	{
		gyms.GET("/settings", deps.AutoProcess.GetSettings)
		gyms.PUT("/settings", deps.AutoProcess.UpdateSettings)
		gyms.GET("/preview", deps.AutoProcess.Preview)
		gyms.POST("/run", RateLimitMiddleware(cfg.RunRateLimitRPS, cfg.RunRateLimitBurst), deps.AutoProcess.Run)
	}

	return &Server{
		router: router,
		config: cfg,
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:              ":" + port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("HTTP server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
