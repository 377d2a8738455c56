package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	quotes := g.Group("/quotes")
	quotes.Use(authMiddleware)
	{
		quotes.POST("", h.Quote)
		quotes.POST("/activity", h.QuoteActivity)
	}

	bookings := g.Group("/bookings")
	bookings.Use(authMiddleware)
	{
		bookings.POST("/confirm", h.Confirm)
		bookings.POST("/cancel", h.Cancel)
		bookings.POST("/block", h.Block)
		bookings.POST("/unblock", h.Unblock)
	}

	// Read-only, no auth required.
	g.GET("/availability", h.ListAvailability)
}
