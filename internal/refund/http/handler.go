package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/matchpoint-app/booking-core/internal/pkg/response"
	"github.com/matchpoint-app/booking-core/internal/refund"
)

type Handler struct {
	service refund.Service
}

func NewHandler(service refund.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Preview(c *gin.Context) {
	var body PreviewBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	outcome, ok, err := h.service.Preview(c.Request.Context(), body.RuleID, body.EventStart, time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewPreviewResponse(outcome, ok, body.PaidAmount))
}
