package handlers

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/theaavashh/xyxx-sub001/cmd/docs"
	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
	portssvc "github.com/theaavashh/xyxx-sub001/internal/core/ports/services"
	"github.com/theaavashh/xyxx-sub001/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// Add health check route
	r.GET("/health", healthCheck)

	setupAPIV1Routes(r, services)
	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
) {
	v1 := r.Group("/api/v1")

	registerAccountRoutes(v1, services.Account, services.Ledger)
	registerJournalRoutes(v1, services.Journal)
	registerPartyRoutes(v1, services.Party)
	registerDocumentRoutes(v1, services.Document)
	registerReportingRoutes(v1, services.Reporting, services.Party)
}

// registerDocumentRoutes mounts one document handler per generated-entry kind.
func registerDocumentRoutes(group *gin.RouterGroup, documentSvc portssvc.DocumentSvcFacade) {
	mounts := []struct {
		path    string
		docType domain.DocumentType
	}{
		{"/purchases", domain.PurchaseDocument},
		{"/sales", domain.SalesDocument},
		{"/purchase-returns", domain.PurchaseReturnDoc},
		{"/sales-returns", domain.SalesReturnDocument},
	}
	for _, m := range mounts {
		h := newDocumentHandler(documentSvc, m.docType)
		docs := group.Group(m.path)
		{
			docs.POST("", h.createDocument)
			docs.GET("", h.listDocuments)
			docs.GET("/:documentID", h.getDocument)
			docs.POST("/:documentID/paid", h.markDocumentPaid)
			docs.DELETE("/:documentID", h.deleteDocument)
		}
	}
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
