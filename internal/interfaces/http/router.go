package http

import (
	"github.com/gin-gonic/gin"

	"github.com/cryptbill/cryptbill/internal/interfaces/http/middleware"
	"github.com/cryptbill/cryptbill/internal/interfaces/http/routes"
)

// SetupRoutes configures all HTTP routes
func (c *Container) SetupRoutes() {
	c.engine.Use(middleware.RequestLogger(c.log.Named("http")))
	c.engine.Use(middleware.Recovery(c.log.Named("recovery")))
	c.engine.Use(middleware.CORS(c.cfg.Server.AllowedOrigins))
	c.engine.Use(middleware.SecurityHeaders())

	c.engine.GET("/health", c.healthHandler.HealthCheck)
	c.engine.GET("/version", c.healthHandler.Version)

	var paymentCheckLimit gin.HandlerFunc
	if c.paymentCheckLimit != nil {
		paymentCheckLimit = c.paymentCheckLimit.Limit()
	}

	routes.SetupInvoiceRoutes(c.engine, &routes.InvoiceRouteConfig{
		InvoiceHandler:    c.invoiceHandler,
		PaymentCheckLimit: paymentCheckLimit,
	})
}
