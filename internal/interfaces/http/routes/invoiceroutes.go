package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/cryptbill/cryptbill/internal/interfaces/http/handlers"
)

// InvoiceRouteConfig holds dependencies for invoice routes.
// PaymentCheckLimit is nil when no rate limiter is available.
type InvoiceRouteConfig struct {
	InvoiceHandler    *handlers.InvoiceHandler
	PaymentCheckLimit gin.HandlerFunc
}

// SetupInvoiceRoutes configures invoice routes.
func SetupInvoiceRoutes(engine *gin.Engine, cfg *InvoiceRouteConfig) {
	invoices := engine.Group("/api/invoices")
	{
		invoices.POST("", cfg.InvoiceHandler.CreateInvoice)
		invoices.GET("", cfg.InvoiceHandler.ListInvoices)

		// Registered before /:id so the literal segment wins
		invoices.GET("/stats", cfg.InvoiceHandler.GetInvoiceStats)

		invoices.GET("/:id", cfg.InvoiceHandler.GetInvoice)
		invoices.GET("/:id/receipt", cfg.InvoiceHandler.GetReceipt)

		checkChain := []gin.HandlerFunc{}
		if cfg.PaymentCheckLimit != nil {
			checkChain = append(checkChain, cfg.PaymentCheckLimit)
		}
		checkChain = append(checkChain, cfg.InvoiceHandler.CheckPayment)
		invoices.POST("/:id/check-payment", checkChain...)
	}
}
