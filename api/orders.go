package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kmalyshev/flybooking/internal/domain"
	"github.com/kmalyshev/flybooking/internal/rules"
	"github.com/kmalyshev/flybooking/internal/service/orders"
)

type OrderHandler struct {
	service orders.OrderUseCase
}

type createOrderRequest struct {
	UserID       int64              `json:"user_id"`
	FlightID     int64              `json:"flight_id"`
	ContactName  string             `json:"contact_name"`
	ContactPhone string             `json:"contact_phone"`
	ContactEmail string             `json:"contact_email"`
	Passengers   []passengerRequest `json:"passengers"`
}

type passengerRequest struct {
	Name       string `json:"name"`
	IDNumber   string `json:"id_number"`
	CabinClass string `json:"cabin_class"`
}

type ticketResponse struct {
	Number            string `json:"number"`
	PassengerName     string `json:"passenger_name"`
	PassengerIDNumber string `json:"passenger_id_number"`
	CabinClass        string `json:"cabin_class"`
	PriceCents        int64  `json:"price_cents"`
	Status            string `json:"status"`
	SeatNumber        string `json:"seat_number,omitempty"`
	BoardingPass      string `json:"boarding_pass,omitempty"`
	DepartureTime     string `json:"departure_time"`
}

type orderResponse struct {
	Number         string           `json:"number"`
	Status         string           `json:"status"`
	TotalCents     int64            `json:"total_cents"`
	ContactName    string           `json:"contact_name"`
	ContactEmail   string           `json:"contact_email"`
	ExpiresAt      string           `json:"expires_at,omitempty"`
	PayCountdown   string           `json:"pay_countdown"`
	PaySecondsLeft int              `json:"pay_seconds_left"`
	Tickets        []ticketResponse `json:"tickets,omitempty"`
}

func NewOrderHandler(service orders.OrderUseCase) *OrderHandler {
	return &OrderHandler{service: service}
}

func (h *OrderHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/:number", h.get)
	router.POST("/:number/pay", h.pay)
	router.DELETE("/:number", h.cancel)
	router.POST("/tickets/:ticket/refund", h.refundTicket)
}

func (h *OrderHandler) create(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := orders.CreateOrderInput{
		UserID:       req.UserID,
		FlightID:     req.FlightID,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
	}
	for _, p := range req.Passengers {
		input.Passengers = append(input.Passengers, orders.PassengerInput{
			Name:       p.Name,
			IDNumber:   p.IDNumber,
			CabinClass: domain.CabinClass(p.CabinClass),
		})
	}

	order, tickets, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, h.toOrderResponse(order, tickets))
}

func (h *OrderHandler) get(c *gin.Context) {
	order, tickets, err := h.service.Get(c.Request.Context(), c.Param("number"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.toOrderResponse(order, tickets))
}

func (h *OrderHandler) pay(c *gin.Context) {
	order, err := h.service.Pay(c.Request.Context(), c.Param("number"))
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotPending) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.toOrderResponse(order, nil))
}

func (h *OrderHandler) cancel(c *gin.Context) {
	order, err := h.service.Cancel(c.Request.Context(), c.Param("number"))
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotPending) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.toOrderResponse(order, nil))
}

func (h *OrderHandler) refundTicket(c *gin.Context) {
	ticket, err := h.service.RefundTicket(c.Request.Context(), c.Param("ticket"))
	if err != nil {
		if errors.Is(err, orders.ErrTicketNotValid) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toTicketResponse(ticket))
}

func (h *OrderHandler) toOrderResponse(order *domain.Order, tickets []domain.Ticket) orderResponse {
	remaining := h.service.RemainingPaySeconds(order, time.Now())
	resp := orderResponse{
		Number:         order.Number,
		Status:         string(order.Status),
		TotalCents:     order.TotalCents,
		ContactName:    order.ContactName,
		ContactEmail:   order.ContactEmail,
		PayCountdown:   rules.FormatCountdown(float64(remaining)),
		PaySecondsLeft: remaining,
	}
	if order.ExpiresAt != nil {
		resp.ExpiresAt = order.ExpiresAt.Format(time.RFC3339)
	}
	for i := range tickets {
		resp.Tickets = append(resp.Tickets, toTicketResponse(&tickets[i]))
	}
	return resp
}

// passenger IDs never leave the API unmasked
func toTicketResponse(t *domain.Ticket) ticketResponse {
	return ticketResponse{
		Number:            t.Number,
		PassengerName:     t.PassengerName,
		PassengerIDNumber: rules.MaskIDNumber(t.PassengerIDNumber),
		CabinClass:        string(t.CabinClass),
		PriceCents:        t.PriceCents,
		Status:            string(t.Status),
		SeatNumber:        t.SeatNumber,
		BoardingPass:      t.BoardingPass,
		DepartureTime:     t.DepartureTime.Format(time.RFC3339),
	}
}
