package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP front of the analysis service
type Server struct {
	router *gin.Engine
}

// NewServer wires the routes. maxUploadMB bounds the size of uploads.
func NewServer(handler *AnalysisHandler, hub *RunHub, maxUploadMB int) *Server {
	router := gin.Default()
	limit := int64(maxUploadMB) << 20
	router.MaxMultipartMemory = limit

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/analyses", handler.ListAnalyses)
		v1.POST("/analyses/:name/run", handler.RunAnalysis)
		v1.POST("/uploads", limitBody(limit), handler.Upload)
		if hub != nil {
			v1.GET("/events", hub.HandleSSE)
		}
	}

	return &Server{router: router}
}

// limitBody rejects request bodies larger than n bytes.
func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler { return s.router }

// Start serves on addr until the listener fails
func (s *Server) Start(addr string) error {
	log.Printf("[Server] Listening on %s", addr)
	return s.router.Run(addr)
}
