package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/refunds")

	group.Use(authMiddleware)
	{
		group.POST("/preview", h.Preview)
	}
}
