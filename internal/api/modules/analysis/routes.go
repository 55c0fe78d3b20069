package analysis_module

import (
	"github.com/gin-gonic/gin"
)

// Register routes for the analysis module
func RegisterRoutes(g *gin.RouterGroup) {
	// Create base group for analysis routes
	group := g.Group("/analysis")

	group.POST("/start", StartAnalysis)         // Dispatch a pipeline run for a session
	group.GET("/:id/status", GetAnalysisStatus) // Poll run progress
	group.GET("/:id/results", GetAnalysisResults) // Fetch the completed report
}
