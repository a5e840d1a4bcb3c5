package reschedule

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/kmalyshev/flybooking/internal/domain"
	"github.com/kmalyshev/flybooking/internal/kafka"
	"github.com/kmalyshev/flybooking/internal/repository"
	"github.com/kmalyshev/flybooking/internal/rules"
)

var (
	ErrNotEligible    = errors.New("ticket is not eligible for reschedule")
	ErrSameFlight     = errors.New("target flight is the original flight")
	ErrFlightMismatch = errors.New("target flight does not serve the same route")
	ErrFlightTooSoon  = errors.New("target flight departs too soon")
	ErrFlightFull     = errors.New("target flight has no seats left")
)

// FeeRatePercent is the reschedule fee as a percentage of the original
// fare.
const FeeRatePercent = 5

type RescheduleUseCase interface {
	Alternatives(ctx context.Context, ticketNumber string) ([]domain.Flight, error)
	PreviewFee(ctx context.Context, ticketNumber string, targetFlightID int64) (*Preview, error)
	Execute(ctx context.Context, ticketNumber string, targetFlightID int64) (*domain.Ticket, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type Cache interface {
	InvalidateSeatMap(ctx context.Context, flightID int64) error
}

// Preview pairs the fee breakdown with the display hints the
// confirmation screen needs.
type Preview struct {
	rules.FeePreview
	DisplayType   rules.DisplayType `json:"display_type"`
	DisplayAmount int64             `json:"display_amount"`
	TargetFlight  *domain.Flight    `json:"target_flight"`
}

type RescheduleService struct {
	tickets            repository.TicketRepository
	orders             repository.OrderRepository
	flights            repository.FlightRepository
	cache              Cache
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	now                func() time.Time
}

type RescheduleServiceOption func(*RescheduleService)

func WithClock(now func() time.Time) RescheduleServiceOption {
	return func(s *RescheduleService) {
		s.now = now
	}
}

// WithNotificationsTopic mirrors every published event onto a second
// topic consumed by the notifications worker.
func WithNotificationsTopic(topic string) RescheduleServiceOption {
	return func(s *RescheduleService) {
		s.notificationsTopic = topic
	}
}

func NewRescheduleService(
	tickets repository.TicketRepository,
	orders repository.OrderRepository,
	flights repository.FlightRepository,
	cache Cache,
	producer Producer,
	eventsTopic string,
	opts ...RescheduleServiceOption,
) *RescheduleService {
	service := &RescheduleService{
		tickets:     tickets,
		orders:      orders,
		flights:     flights,
		cache:       cache,
		producer:    producer,
		eventsTopic: eventsTopic,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Alternatives lists flights the ticket can move to: same route, still
// more than the cutoff away, seats available, excluding the original.
func (s *RescheduleService) Alternatives(ctx context.Context, ticketNumber string) ([]domain.Flight, error) {
	ticket, original, _, err := s.eligibleTicket(ctx, ticketNumber)
	if err != nil {
		return nil, err
	}

	now := s.now()
	candidates, err := s.flights.List(ctx)
	if err != nil {
		return nil, err
	}

	alternatives := make([]domain.Flight, 0)
	for _, f := range candidates {
		if f.ID == ticket.FlightID {
			continue
		}
		if f.FromCity != original.FromCity || f.ToCity != original.ToCity {
			continue
		}
		if f.Status != domain.FlightStatusScheduled || f.AvailableSeats <= 0 {
			continue
		}
		if f.DepartureTime.Sub(now) <= rules.MinHoursBeforeDeparture*time.Hour {
			continue
		}
		alternatives = append(alternatives, f)
	}
	return alternatives, nil
}

// PreviewFee computes what moving the ticket to the target flight costs
// or refunds. The fee is FeeRatePercent of the original fare.
func (s *RescheduleService) PreviewFee(ctx context.Context, ticketNumber string, targetFlightID int64) (*Preview, error) {
	ticket, original, _, err := s.eligibleTicket(ctx, ticketNumber)
	if err != nil {
		return nil, err
	}

	target, err := s.validTarget(ctx, ticket, original, targetFlightID)
	if err != nil {
		return nil, err
	}

	preview := rules.CalculateFeePreview(ticket.PriceCents, target.PriceCents, rescheduleFee(ticket.PriceCents))
	return &Preview{
		FeePreview:    preview,
		DisplayType:   rules.DifferenceDisplayType(preview.PriceDifference),
		DisplayAmount: rules.DifferenceDisplayAmount(preview),
		TargetFlight:  target,
	}, nil
}

// Execute performs the flight change: the original ticket is retired, a
// replacement is issued on the target flight and the swap is logged.
func (s *RescheduleService) Execute(ctx context.Context, ticketNumber string, targetFlightID int64) (*domain.Ticket, error) {
	ticket, original, order, err := s.eligibleTicket(ctx, ticketNumber)
	if err != nil {
		return nil, err
	}

	target, err := s.validTarget(ctx, ticket, original, targetFlightID)
	if err != nil {
		return nil, err
	}

	preview := rules.CalculateFeePreview(ticket.PriceCents, target.PriceCents, rescheduleFee(ticket.PriceCents))

	newTicket := &domain.Ticket{
		Number:            newTicketNumber(),
		OrderID:           ticket.OrderID,
		FlightID:          target.ID,
		PassengerName:     ticket.PassengerName,
		PassengerIDNumber: ticket.PassengerIDNumber,
		CabinClass:        ticket.CabinClass,
		PriceCents:        target.PriceCents,
		DepartureTime:     target.DepartureTime,
	}
	log := &domain.RescheduleLog{
		OriginalFlightID: ticket.FlightID,
		NewFlightID:      target.ID,
		PriceDiffCents:   preview.PriceDifference,
		FeeCents:         preview.RescheduleFee,
	}

	if err := s.tickets.CreateRescheduled(ctx, ticket, target, newTicket, log); err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateSeatMap(ctx, ticket.FlightID)
		_ = s.cache.InvalidateSeatMap(ctx, target.ID)
	}

	if s.producer != nil && s.eventsTopic != "" {
		event := kafka.TicketEvent{
			Type:         "ticket_rescheduled",
			TicketNumber: newTicket.Number,
			OrderNumber:  order.Number,
			FlightID:     target.ID,
			Email:        order.ContactEmail,
			Status:       string(newTicket.Status),
			OccurredAt:   s.now(),
		}
		if err := s.publishEvent(ctx, newTicket.Number, event); err != nil {
			fmt.Printf("WARNING: Failed to publish ticket_rescheduled event for ticket %s: %v\n", newTicket.Number, err)
		}
	}

	return newTicket, nil
}

// publishEvent writes the event to the events topic and, when configured,
// mirrors it onto the notifications topic.
func (s *RescheduleService) publishEvent(ctx context.Context, key string, event kafka.TicketEvent) error {
	if err := s.producer.Publish(ctx, s.eventsTopic, key, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, key, event)
	}
	return nil
}

func (s *RescheduleService) eligibleTicket(ctx context.Context, ticketNumber string) (*domain.Ticket, *domain.Flight, *domain.Order, error) {
	ticket, err := s.tickets.GetByNumber(ctx, ticketNumber)
	if err != nil {
		return nil, nil, nil, err
	}

	// a missing order simply makes the ticket ineligible
	order, _ := s.orders.GetByID(ctx, ticket.OrderID)

	if !rules.CanRescheduleAt(ticket, order, s.now()) {
		return nil, nil, nil, ErrNotEligible
	}

	original, err := s.flights.GetByID(ctx, ticket.FlightID)
	if err != nil {
		return nil, nil, nil, err
	}
	return ticket, original, order, nil
}

func (s *RescheduleService) validTarget(ctx context.Context, ticket *domain.Ticket, original *domain.Flight, targetFlightID int64) (*domain.Flight, error) {
	if targetFlightID == ticket.FlightID {
		return nil, ErrSameFlight
	}
	target, err := s.flights.GetByID(ctx, targetFlightID)
	if err != nil {
		return nil, err
	}
	if target.FromCity != original.FromCity || target.ToCity != original.ToCity {
		return nil, ErrFlightMismatch
	}
	if target.DepartureTime.Sub(s.now()) <= rules.MinHoursBeforeDeparture*time.Hour {
		return nil, ErrFlightTooSoon
	}
	if target.Status != domain.FlightStatusScheduled || target.AvailableSeats <= 0 {
		return nil, ErrFlightFull
	}
	return target, nil
}

func rescheduleFee(originalPriceCents int64) int64 {
	return originalPriceCents * FeeRatePercent / 100
}

// 13-digit numeric ticket number, airline prefix in the 880-999 range.
func newTicketNumber() string {
	prefix := 880 + rand.Intn(120)
	return fmt.Sprintf("%d%06d%04d", prefix, time.Now().UnixMilli()%1000000, rand.Intn(10000))
}
