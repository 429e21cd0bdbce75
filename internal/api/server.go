package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/awslens/awslens/internal/config"
	"github.com/awslens/awslens/internal/telemetry"
)

// NewRouter builds the gin engine with all routes registered.
func NewRouter(handler *Handler, debug bool) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", handler.HealthCheck)
	router.GET("/ready", handler.ReadyCheck)
	router.GET("/metrics", gin.WrapH(telemetry.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/stats", handler.GetStats)

		content := v1.Group("/content")
		{
			content.GET("/recent", handler.ListRecent)
			content.GET("/:id", handler.GetContent)
		}
	}

	return router
}

// NewServer wraps the router in an http.Server with the configured timeouts.
func NewServer(router *gin.Engine, cfg config.ServerConfig) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
