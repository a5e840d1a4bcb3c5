package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kmalyshev/flybooking/internal/service/checkin"
)

type CheckinHandler struct {
	service checkin.CheckinUseCase
}

type selectSeatRequest struct {
	Seat string `json:"seat"`
}

func NewCheckinHandler(service checkin.CheckinUseCase) *CheckinHandler {
	return &CheckinHandler{service: service}
}

func (h *CheckinHandler) Register(router *gin.RouterGroup) {
	router.GET("/:ticket/seatmap", h.seatMap)
	router.POST("/:ticket/seat", h.selectSeat)
}

func (h *CheckinHandler) seatMap(c *gin.Context) {
	var selected *string
	if raw := c.Query("selected"); raw != "" {
		selected = &raw
	}

	seatMap, err := h.service.SeatMap(c.Request.Context(), c.Param("ticket"), selected)
	if err != nil {
		if errors.Is(err, checkin.ErrTicketNotValid) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, seatMap)
}

func (h *CheckinHandler) selectSeat(c *gin.Context) {
	var req selectSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pass, err := h.service.SelectSeat(c.Request.Context(), c.Param("ticket"), req.Seat)
	if err != nil {
		switch {
		case errors.Is(err, checkin.ErrTicketNotValid):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, checkin.ErrCheckinClosed):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, checkin.ErrUnknownSeat):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, checkin.ErrSeatTaken), errors.Is(err, checkin.ErrSeatLocked):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, pass)
}
