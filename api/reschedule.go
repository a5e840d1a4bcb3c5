package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kmalyshev/flybooking/internal/service/reschedule"
)

type RescheduleHandler struct {
	service reschedule.RescheduleUseCase
}

type rescheduleRequest struct {
	TargetFlightID int64 `json:"target_flight_id"`
}

func NewRescheduleHandler(service reschedule.RescheduleUseCase) *RescheduleHandler {
	return &RescheduleHandler{service: service}
}

func (h *RescheduleHandler) Register(router *gin.RouterGroup) {
	router.GET("/:ticket/alternatives", h.alternatives)
	router.GET("/:ticket/preview", h.preview)
	router.POST("/:ticket", h.execute)
}

func (h *RescheduleHandler) alternatives(c *gin.Context) {
	list, err := h.service.Alternatives(c.Request.Context(), c.Param("ticket"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFlightResponses(list))
}

func (h *RescheduleHandler) preview(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Query("flight_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid flight_id"})
		return
	}

	preview, err := h.service.PreviewFee(c.Request.Context(), c.Param("ticket"), targetID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (h *RescheduleHandler) execute(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := h.service.Execute(c.Request.Context(), c.Param("ticket"), req.TargetFlightID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTicketResponse(ticket))
}

func (h *RescheduleHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reschedule.ErrNotEligible):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, reschedule.ErrSameFlight),
		errors.Is(err, reschedule.ErrFlightMismatch),
		errors.Is(err, reschedule.ErrFlightTooSoon):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, reschedule.ErrFlightFull):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
