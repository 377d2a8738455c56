package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/matchpoint-app/booking-core/internal/auth"
	"github.com/matchpoint-app/booking-core/internal/booking"
	"github.com/matchpoint-app/booking-core/internal/pkg/response"
	"github.com/matchpoint-app/booking-core/internal/pricing"
	"github.com/matchpoint-app/booking-core/internal/slot"
)

type Handler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Quote(c *gin.Context) {
	h.quote(c, false)
}

// QuoteActivity serves activity-type bookings through the same core.
func (h *Handler) QuoteActivity(c *gin.Context) {
	h.quote(c, true)
}

func (h *Handler) quote(c *gin.Context, activity bool) {
	var body QuoteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	date, err := parseDate(body.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	requesterID := auth.GetUserIDInt64(c)
	if requesterID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	req := booking.QuoteRequest{
		RequesterID: requesterID,
		OwnerID:     body.OwnerID,
		SlotIDs:     body.SlotIDs,
		Date:        date,
		ServiceType: slot.ServiceType(body.ServiceType),
	}

	var quote *pricing.Quote
	if activity {
		quote, err = h.service.QuoteActivitySlots(c.Request.Context(), req)
	} else {
		quote, err = h.service.QuoteSlots(c.Request.Context(), req)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewQuoteResponse(quote))
}

func (h *Handler) Confirm(c *gin.Context) {
	var body ConfirmBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	date, err := parseDate(body.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	req := booking.ConfirmRequest{
		HolderID: auth.GetUserIDInt64(c),
		OrderID:  body.OrderID,
		SlotIDs:  body.SlotIDs,
		Date:     date,
	}

	if err := h.service.Confirm(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) Cancel(c *gin.Context) {
	var body CancelBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	date, err := parseDate(body.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	req := booking.CancelRequest{
		HolderID: auth.GetUserIDInt64(c),
		SlotIDs:  body.SlotIDs,
		Date:     date,
	}

	if err := h.service.Cancel(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) Block(c *gin.Context) {
	h.block(c, true)
}

func (h *Handler) Unblock(c *gin.Context) {
	h.block(c, false)
}

func (h *Handler) block(c *gin.Context, blocking bool) {
	var body BlockBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	date, err := parseDate(body.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	req := booking.BlockRequest{
		OperatorID: auth.GetUserIDInt64(c),
		OwnerID:    body.OwnerID,
		SlotIDs:    body.SlotIDs,
		Date:       date,
	}

	if blocking {
		err = h.service.Block(c.Request.Context(), req)
	} else {
		err = h.service.Unblock(c.Request.Context(), req)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) ListAvailability(c *gin.Context) {
	var query ListAvailabilityRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	date, err := parseDate(query.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	daySlots, total, err := h.service.ListDay(
		c.Request.Context(),
		query.OwnerID,
		date,
		slot.ServiceType(query.ServiceType),
		query.Page,
		query.PageSize,
	)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]DaySlotResponse, len(daySlots))
	for i, d := range daySlots {
		items[i] = NewDaySlotResponse(d)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, query.Page, query.PageSize, total))
}
