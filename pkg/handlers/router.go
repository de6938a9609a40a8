package handlers

import (
	"net/http"

	"github.com/arnavshah/advent-allocator/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Version is reported by the root and health endpoints
const Version = "1.0.0"

// NewRouter wires every route onto a fresh gin engine
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(logger.Middleware(h.Log), gin.Recovery(), h.Metrics.Middleware())
	r.MaxMultipartMemory = h.Config.MaxUploadBytes

	r.StaticFS("/static", h.GetStaticFS())

	r.GET("/", h.Index)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Advent Calendar Allocator",
			"version": Version,
		})
	})
	r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))

	api := r.Group("/api")
	{
		api.POST("/allocate", h.AllocateJSON)
		api.POST("/allocate/upload", h.AllocateUpload)
		api.POST("/allocate/url", h.AllocateURL)
		api.POST("/validate", h.ValidateInput)

		api.GET("/runs/:id", h.GetRun)
		api.GET("/runs/:id/csv", h.ExportCSV)
		api.GET("/runs/:id/html", h.ExportHTML)
		api.GET("/runs/:id/xlsx", h.ExportXLSX)

		api.GET("/pickup/:day", h.Pickup)
		api.GET("/usage", h.GetUsage)
	}

	return r
}
