package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes registers the record API routes.
func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/healthstatus", handler.HealthStatus)

	router.POST("/rawTextEntry", handler.SubmitRaw)                 // Submit raw record
	router.GET("/rawTextEntries", handler.ListRaw)                  // List raw records by rank window
	router.DELETE("/deleteRawTextEntry", handler.DeleteRaw)         // Delete raw record and its processed records
	router.POST("/processedTextEntry", handler.SubmitProcessed)     // Submit manual classification
	router.GET("/processedTextEntries", handler.ListProcessed)      // List processed records by rank window
	router.DELETE("/deleteProcessedTextEntry", handler.DeleteProcessed)
	router.POST("/instantProcessing", handler.InstantProcessing)
	router.POST("/csv", handler.UploadCSV)
}
