package router

import (
	"github.com/gin-gonic/gin"

	"expenso/internal/config"
	"expenso/internal/handler"
	"expenso/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	fileH *handler.FileHandler,
	batchH *handler.BatchHandler,
	callbackH *handler.CallbackHandler,
	lineH *handler.LineHandler,
	catalogH *handler.CatalogHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Document payload routes
	files := v1.Group("/files")
	files.POST("/upload", fileH.Upload)
	files.GET("", fileH.List)
	files.GET("/:id", fileH.GetByID)
	files.DELETE("/:id", fileH.Delete)

	// Batch ingestion routes
	batches := v1.Group("/batches")
	batches.POST("", batchH.Start)
	batches.GET("/:id", batchH.Status)
	batches.POST("/:id/cancel", batchH.Cancel)

	// Recognition service callback (called by the external service)
	v1.POST("/recognition/callback/:key", callbackH.Receive)

	// Expense line routes
	reports := v1.Group("/reports")
	reports.GET("/:id/lines", lineH.ListByReport)
	reports.PUT("/:id/lines/order", lineH.Reorder)
	reports.DELETE("/:id/lines/:lineID", lineH.Delete)
	reports.GET("/:id/lines/export/csv", lineH.ExportCSV)

	// Matching catalogs
	catalogs := v1.Group("/catalogs")
	catalogs.GET("/categories", catalogH.Categories)
	catalogs.GET("/tax-codes", catalogH.TaxCodes)
	catalogs.GET("/currencies", catalogH.Currencies)

	return r
}
