package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes wires every HTTP endpoint onto the engine. The JSON API lives
// under /api; the root serves the single-page upload UI.
func (s *Server) SetupRoutes(r *gin.Engine) {
	r.MaxMultipartMemory = s.maxUpload
	r.Use(s.corsMiddleware())
	r.Use(requestIDMiddleware())

	r.GET("/", s.indexHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", s.healthHandler)
		api.POST("/analyze", s.analyzeHandler)
		api.GET("/status/:id", s.statusHandler)
		api.GET("/results/:id", s.resultsHandler)
		api.GET("/results/:id/export", s.exportHandler)
		api.GET("/report/:id", s.reportHandler)
		api.GET("/history", s.historyHandler)
	}
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	origin := s.cfg.CORSAllowOrigin
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
