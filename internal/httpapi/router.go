// Package httpapi serves the operational endpoints next to the webhook.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tg-filedrop/internal/handler"
	"tg-filedrop/internal/logger"
	"tg-filedrop/internal/models"
	"tg-filedrop/internal/scheduler"
)

// StatsCollector produces usage statistics
type StatsCollector interface {
	Collect(ctx context.Context) (*models.Statistics, error)
}

// Deps are the components the endpoints report on
type Deps struct {
	Stats     StatsCollector
	Status    *handler.Status
	Scheduler *scheduler.Scheduler
	// ActiveUploads returns the number of open collection flows
	ActiveUploads func() int
	// DebugInfo renders extra diagnostics for the debug endpoint
	DebugInfo func(ctx context.Context) string
}

// UnifiedResponse is the JSON envelope of every API response
type UnifiedResponse struct {
	Code int         `json:"code"`
	Data interface{} `json:"data,omitempty"`
	Msg  string      `json:"msg"`
}

// StatusResponse is the body of GET /status
type StatusResponse struct {
	Statistics    *models.Statistics      `json:"statistics"`
	Processing    handler.ProcessingStats `json:"processing"`
	Deletions     scheduler.Stats         `json:"deletions"`
	ActiveUploads int                     `json:"active_uploads"`
}

// NewRouter builds the gin engine
func NewRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	router.GET("/status", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		stats, err := deps.Stats.Collect(ctx)
		if err != nil {
			logger.Errorf("Status endpoint failed to collect statistics: %v", err)
			c.JSON(http.StatusInternalServerError, UnifiedResponse{Code: http.StatusInternalServerError, Msg: "statistics unavailable"})
			return
		}

		resp := StatusResponse{Statistics: stats}
		if deps.Status != nil {
			resp.Processing = deps.Status.Snapshot()
		}
		if deps.Scheduler != nil {
			resp.Deletions = deps.Scheduler.Stats()
		}
		if deps.ActiveUploads != nil {
			resp.ActiveUploads = deps.ActiveUploads()
		}
		c.JSON(http.StatusOK, UnifiedResponse{Code: http.StatusOK, Data: resp, Msg: "success"})
	})

	return router
}

// MountDebug registers the plain-text debug page at path
func MountDebug(router *gin.Engine, path string, deps Deps) {
	if path == "" {
		return
	}
	router.GET(path, func(c *gin.Context) {
		logger.Infof("Debug endpoint accessed: %s %s", c.Request.Method, c.Request.URL.Path)

		body := "Bot server is running\n\n"
		if deps.DebugInfo != nil {
			body += deps.DebugInfo(c.Request.Context()) + "\n\n"
		}
		if deps.Status != nil {
			body += deps.Status.Snapshot().String() + "\n"
		}
		c.String(http.StatusOK, body)
	})
}

// Mount exposes router's endpoints on mux without touching its other routes
func Mount(mux *http.ServeMux, router *gin.Engine, debugPath string) {
	mux.Handle("/health", router)
	mux.Handle("/status", router)
	if debugPath != "" {
		mux.Handle(debugPath, router)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
