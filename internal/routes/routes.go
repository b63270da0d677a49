package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/recupera/backend/internal/handlers"
	"github.com/recupera/backend/internal/middleware"
	"github.com/recupera/backend/internal/queue"
	"github.com/recupera/backend/internal/services/audit"
	"github.com/recupera/backend/internal/services/registry"
)

// RegisterRoutes wires all API routes
func RegisterRoutes(router *gin.Engine, db *gorm.DB, enrichmentSvc *registry.EnrichmentService, auditSvc *audit.Service, jobQueue *queue.Queue) {
	authHandler := handlers.NewAuthHandler(db)
	clientHandler := handlers.NewClientHandler(db)
	supplierHandler := handlers.NewSupplierHandler(db)
	paymentHandler := handlers.NewPaymentHandler(db)
	taxRateHandler := handlers.NewTaxRateHandler(db)
	proposalHandler := handlers.NewProposalHandler(db)
	auditHandler := handlers.NewAuditHandler(db, enrichmentSvc, auditSvc, jobQueue)
	dashboardHandler := handlers.NewDashboardHandler(db)

	rateLimiter := middleware.NewRateLimiter(20, 40)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := router.Group("/api/auth")
	authGroup.Use(rateLimiter.Middleware())
	{
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.POST("/login", authHandler.Login)
	}

	api := router.Group("/api")
	api.Use(rateLimiter.Middleware(), middleware.AuthMiddleware())
	{
		clientGroup := api.Group("/clients")
		{
			clientGroup.POST("/", clientHandler.CreateClient)
			clientGroup.GET("/", clientHandler.GetClients)
			clientGroup.GET("/:id", clientHandler.GetClient)
			clientGroup.PUT("/:id", clientHandler.UpdateClient)
			clientGroup.DELETE("/:id", clientHandler.DeleteClient)
		}

		supplierGroup := api.Group("/suppliers")
		{
			supplierGroup.POST("/", supplierHandler.CreateSupplier)
			supplierGroup.GET("/", supplierHandler.GetSuppliers)
			supplierGroup.GET("/:id", supplierHandler.GetSupplier)
			supplierGroup.PUT("/:id", supplierHandler.UpdateSupplier)
		}

		paymentGroup := api.Group("/payments")
		{
			paymentGroup.POST("/import", paymentHandler.ImportPayments)
			paymentGroup.GET("/", paymentHandler.GetPayments)
			paymentGroup.GET("/:id", paymentHandler.GetPayment)
			paymentGroup.DELETE("/:id", paymentHandler.DeletePayment)
		}

		taxRateGroup := api.Group("/tax-rates")
		{
			taxRateGroup.POST("/", taxRateHandler.CreateTaxRate)
			taxRateGroup.GET("/", taxRateHandler.GetTaxRates)
			taxRateGroup.PUT("/:id", taxRateHandler.UpdateTaxRate)
			taxRateGroup.DELETE("/:id", taxRateHandler.DeleteTaxRate)
		}

		proposalGroup := api.Group("/proposals")
		{
			proposalGroup.POST("/", proposalHandler.CreateProposal)
			proposalGroup.GET("/", proposalHandler.GetProposals)
			proposalGroup.GET("/slug/:slug", proposalHandler.GetProposalBySlug)
			proposalGroup.POST("/:id/send", proposalHandler.SendProposal)
			proposalGroup.POST("/:id/decide", proposalHandler.DecideProposal)
		}

		auditGroup := api.Group("/audits")
		{
			auditGroup.POST("/enrich", auditHandler.EnrichSuppliers)
			auditGroup.POST("/run", auditHandler.RunAudit)
			auditGroup.POST("/run-async", auditHandler.RunAuditAsync)
			auditGroup.GET("/", auditHandler.GetAuditResults)
			auditGroup.GET("/jobs/:id", auditHandler.GetJob)
		}

		api.GET("/dashboard/summary", dashboardHandler.GetSummary)
	}
}
