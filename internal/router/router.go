package router

import (
	"github.com/gin-gonic/gin"

	"docrisk/internal/handler"
	"docrisk/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	assessmentH *handler.AssessmentHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	assessments := v1.Group("/assessments")
	assessments.GET("", assessmentH.List)
	assessments.GET("/summary", assessmentH.Summary)
	assessments.GET("/:document_id", assessmentH.GetByID)
	assessments.GET("/:document_id/questions", assessmentH.Questions)
	assessments.GET("/:document_id/report.csv", assessmentH.ReportCSV)

	return r
}
