package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spacesedan/threatwatch/internal/metrics"
)

const (
	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 60 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	maxUploadMemory     = 32 << 20
)

// NewRouter builds the gin engine with logging, recovery and metrics.
func NewRouter(handler *Handler, m *metrics.Metrics) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = maxUploadMemory
	router.Use(gin.Recovery(), requestLogger(m))

	SetupRoutes(router, handler)
	router.GET("/metrics", gin.WrapH(m.Handler()))
	return router
}

// NewServer wraps the router in an http.Server listening on port.
func NewServer(router http.Handler, port string) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}
}

func requestLogger(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		m.ObserveRequest(c.Request.Method, route, strconv.Itoa(status), elapsed)

		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(c.Request.Context(), level, "[API] Request handled",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("elapsed", elapsed))
	}
}
