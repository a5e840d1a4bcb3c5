package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kmalyshev/flybooking/internal/domain"
	"github.com/kmalyshev/flybooking/internal/kafka"
	"github.com/kmalyshev/flybooking/internal/repository"
)

var (
	ErrOrderNotPending = errors.New("order is not pending")
	ErrTicketNotValid  = errors.New("ticket is not valid")
	ErrEmptyOrder      = errors.New("order needs at least one passenger")
)

type OrderUseCase interface {
	Create(ctx context.Context, input CreateOrderInput) (*domain.Order, []domain.Ticket, error)
	Get(ctx context.Context, number string) (*domain.Order, []domain.Ticket, error)
	Pay(ctx context.Context, number string) (*domain.Order, error)
	Cancel(ctx context.Context, number string) (*domain.Order, error)
	RefundTicket(ctx context.Context, ticketNumber string) (*domain.Ticket, error)
	ExpirePendingOrders(ctx context.Context) ([]domain.Order, error)
	RemainingPaySeconds(order *domain.Order, now time.Time) int
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CreateOrderInput struct {
	UserID       int64            `json:"user_id"`
	FlightID     int64            `json:"flight_id"`
	ContactName  string           `json:"contact_name"`
	ContactPhone string           `json:"contact_phone"`
	ContactEmail string           `json:"contact_email"`
	Passengers   []PassengerInput `json:"passengers"`
}

type PassengerInput struct {
	Name       string            `json:"name"`
	IDNumber   string            `json:"id_number"`
	CabinClass domain.CabinClass `json:"cabin_class"`
}

type OrderService struct {
	orders             repository.OrderRepository
	tickets            repository.TicketRepository
	flights            repository.FlightRepository
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	payDeadline        time.Duration
	now                func() time.Time
}

type OrderServiceOption func(*OrderService)

func WithClock(now func() time.Time) OrderServiceOption {
	return func(s *OrderService) {
		s.now = now
	}
}

// WithNotificationsTopic mirrors every published event onto a second
// topic consumed by the notifications worker.
func WithNotificationsTopic(topic string) OrderServiceOption {
	return func(s *OrderService) {
		s.notificationsTopic = topic
	}
}

func NewOrderService(
	orders repository.OrderRepository,
	tickets repository.TicketRepository,
	flights repository.FlightRepository,
	producer Producer,
	eventsTopic string,
	payDeadline time.Duration,
	opts ...OrderServiceOption,
) *OrderService {
	service := &OrderService{
		orders:      orders,
		tickets:     tickets,
		flights:     flights,
		producer:    producer,
		eventsTopic: eventsTopic,
		payDeadline: payDeadline,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// cabin fare multipliers over the flight's economy fare
func cabinPriceCents(base int64, class domain.CabinClass) int64 {
	switch class {
	case domain.CabinBusiness:
		return base * 25 / 10
	case domain.CabinFirst:
		return base * 4
	default:
		return base
	}
}

// Create opens a pending order for one flight with one ticket per
// passenger. The caller has until the pay deadline to pay before the
// expiry sweep cancels it.
func (s *OrderService) Create(ctx context.Context, input CreateOrderInput) (*domain.Order, []domain.Ticket, error) {
	if len(input.Passengers) == 0 {
		return nil, nil, ErrEmptyOrder
	}
	if input.ContactEmail == "" {
		return nil, nil, errors.New("contact email is required")
	}

	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	expiresAt := now.Add(s.payDeadline)

	var total int64
	tickets := make([]domain.Ticket, 0, len(input.Passengers))
	for _, p := range input.Passengers {
		class := p.CabinClass
		if class == "" {
			class = domain.CabinEconomy
		}
		price := cabinPriceCents(flight.PriceCents, class)
		total += price
		tickets = append(tickets, domain.Ticket{
			Number:            newTicketNumber(),
			FlightID:          flight.ID,
			PassengerName:     p.Name,
			PassengerIDNumber: p.IDNumber,
			CabinClass:        class,
			PriceCents:        price,
			DepartureTime:     flight.DepartureTime,
		})
	}

	order := &domain.Order{
		Number:       newOrderNumber(),
		UserID:       input.UserID,
		TotalCents:   total,
		ContactName:  input.ContactName,
		ContactPhone: input.ContactPhone,
		ContactEmail: input.ContactEmail,
		ExpiresAt:    &expiresAt,
	}

	if err := s.orders.Create(ctx, order, tickets); err != nil {
		return nil, nil, err
	}

	if err := s.publish(ctx, "order_created", order, ""); err != nil {
		fmt.Printf("WARNING: Failed to publish order_created event for order %s: %v\n", order.Number, err)
	}
	return order, tickets, nil
}

func (s *OrderService) Get(ctx context.Context, number string) (*domain.Order, []domain.Ticket, error) {
	order, err := s.orders.GetByNumber(ctx, number)
	if err != nil {
		return nil, nil, err
	}
	tickets, err := s.tickets.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, nil, err
	}
	return order, tickets, nil
}

func (s *OrderService) Pay(ctx context.Context, number string) (*domain.Order, error) {
	current, err := s.orders.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.OrderStatusPending {
		return nil, ErrOrderNotPending
	}

	paid, err := s.orders.MarkPaid(ctx, number, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.publish(ctx, "order_paid", paid, ""); err != nil {
		fmt.Printf("WARNING: Failed to publish order_paid event for order %s: %v\n", paid.Number, err)
	}
	return paid, nil
}

func (s *OrderService) Cancel(ctx context.Context, number string) (*domain.Order, error) {
	current, err := s.orders.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.OrderStatusCancelled || current.Status == domain.OrderStatusRefunded {
		return current, nil
	}
	if current.Status != domain.OrderStatusPending {
		return nil, ErrOrderNotPending
	}

	updated, err := s.orders.UpdateStatus(ctx, number, domain.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}

	tickets, err := s.tickets.ListByOrder(ctx, updated.ID)
	if err == nil {
		for _, t := range tickets {
			if t.Status != domain.TicketStatusValid {
				continue
			}
			if _, err := s.tickets.UpdateStatus(ctx, t.Number, domain.TicketStatusCancelled); err != nil {
				continue
			}
			_ = s.flights.ReleaseSeat(ctx, t.FlightID)
		}
	}

	return updated, nil
}

// RefundTicket refunds a single valid ticket and returns its seat to the
// flight's inventory.
func (s *OrderService) RefundTicket(ctx context.Context, ticketNumber string) (*domain.Ticket, error) {
	current, err := s.tickets.GetByNumber(ctx, ticketNumber)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.TicketStatusValid {
		return nil, ErrTicketNotValid
	}

	updated, err := s.tickets.UpdateStatus(ctx, ticketNumber, domain.TicketStatusRefunded)
	if err != nil {
		return nil, err
	}
	_ = s.flights.ReleaseSeat(ctx, updated.FlightID)

	if s.producer != nil && s.eventsTopic != "" {
		event := kafka.TicketEvent{
			Type:         "ticket_refunded",
			TicketNumber: updated.Number,
			FlightID:     updated.FlightID,
			Status:       string(updated.Status),
			OccurredAt:   s.now(),
		}
		if err := s.publishEvent(ctx, updated.Number, event); err != nil {
			fmt.Printf("WARNING: Failed to publish ticket_refunded event for ticket %s: %v\n", updated.Number, err)
		}
	}
	return updated, nil
}

// ExpirePendingOrders cancels every pending order whose pay deadline
// passed, one event per order.
func (s *OrderService) ExpirePendingOrders(ctx context.Context) ([]domain.Order, error) {
	expired, err := s.orders.ExpirePendingBefore(ctx, s.now())
	if err != nil {
		return nil, err
	}
	for i := range expired {
		_ = s.publish(ctx, "order_expired", &expired[i], "")
	}
	return expired, nil
}

// RemainingPaySeconds is how long the order can still be paid, 0 once
// expired or no longer pending. The UI feeds this through the MM:SS
// countdown formatter.
func (s *OrderService) RemainingPaySeconds(order *domain.Order, now time.Time) int {
	if order == nil || order.Status != domain.OrderStatusPending || order.ExpiresAt == nil {
		return 0
	}
	remaining := int(order.ExpiresAt.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *OrderService) publish(ctx context.Context, eventType string, order *domain.Order, ticketNumber string) error {
	if s.producer == nil || s.eventsTopic == "" {
		return nil
	}
	event := kafka.TicketEvent{
		Type:         eventType,
		TicketNumber: ticketNumber,
		OrderNumber:  order.Number,
		Email:        order.ContactEmail,
		Status:       string(order.Status),
		OccurredAt:   s.now(),
	}
	return s.publishEvent(ctx, order.Number, event)
}

// publishEvent writes the event to the events topic and, when configured,
// mirrors it onto the notifications topic.
func (s *OrderService) publishEvent(ctx context.Context, key string, event kafka.TicketEvent) error {
	if err := s.producer.Publish(ctx, s.eventsTopic, key, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, key, event)
	}
	return nil
}

func newOrderNumber() string {
	return "ORD" + strings.ToUpper(uuid.NewString()[:8])
}

func newTicketNumber() string {
	return fmt.Sprintf("%d%010d", 880+int(uuid.New().ID())%120, uuid.New().ID())
}
