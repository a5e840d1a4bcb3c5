package checkin

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
	"github.com/kmalyshev/flybooking/internal/rules"
)

var (
	ErrTicketNotValid = errors.New("ticket is not valid for check-in")
	ErrCheckinClosed  = errors.New("check-in window is closed")
	ErrUnknownSeat    = errors.New("seat does not exist on this flight")
	ErrSeatTaken      = errors.New("seat is already taken")
	ErrSeatLocked     = errors.New("seat is held by another passenger")
	ErrBadSeatLayout  = errors.New("flight seat layout cannot be rendered")
)

// seatLetters indexes cabin columns; I is skipped as on real seat maps.
const seatLetters = "ABCDEFGHJK"

type CheckinUseCase interface {
	SeatMap(ctx context.Context, ticketNumber string, selectedSeat *string) (*SeatMap, error)
	SelectSeat(ctx context.Context, ticketNumber, seat string) (*BoardingPass, error)
}

type Cache interface {
	GetSeatMap(ctx context.Context, flightID int64) ([]string, error)
	SetSeatMap(ctx context.Context, flightID int64, seats []string) error
	InvalidateSeatMap(ctx context.Context, flightID int64) error
	AcquireSeatLock(ctx context.Context, flightID int64, seat string, ttl time.Duration) (bool, error)
	ReleaseSeatLock(ctx context.Context, flightID int64, seat string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// SeatCell is one selectable position on the rendered seat map.
type SeatCell struct {
	Seat   string           `json:"seat"`
	Status rules.SeatStatus `json:"status"`
}

type SeatRow struct {
	Row   int        `json:"row"`
	Seats []SeatCell `json:"seats"`
}

type SeatMap struct {
	FlightID     int64     `json:"flight_id"`
	FlightNumber string    `json:"flight_number"`
	Columns      int       `json:"columns"`
	AisleIndex   int       `json:"aisle_index"`
	Rows         []SeatRow `json:"rows"`
	CurrentSeat  string    `json:"current_seat,omitempty"`
	BoardingTime string    `json:"boarding_time"`
}

type BoardingPass struct {
	TicketNumber string    `json:"ticket_number"`
	Seat         string    `json:"seat"`
	BoardingPass string    `json:"boarding_pass"`
	Gate         string    `json:"gate,omitempty"`
	BoardingTime time.Time `json:"boarding_time"`
}

type CheckinService struct {
	tickets            repository.TicketRepository
	flights            repository.FlightRepository
	cache              Cache
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	opensBefore        time.Duration
	closesBefore       time.Duration
	seatLockTTL        time.Duration
	now                func() time.Time
}

type CheckinServiceOption func(*CheckinService)

// WithClock substitutes the wall clock, used by tests.
func WithClock(now func() time.Time) CheckinServiceOption {
	return func(s *CheckinService) {
		s.now = now
	}
}

// WithNotificationsTopic mirrors every published event onto a second
// topic consumed by the notifications worker.
func WithNotificationsTopic(topic string) CheckinServiceOption {
	return func(s *CheckinService) {
		s.notificationsTopic = topic
	}
}

func NewCheckinService(
	tickets repository.TicketRepository,
	flights repository.FlightRepository,
	cache Cache,
	producer Producer,
	eventsTopic string,
	opensBefore, closesBefore, seatLockTTL time.Duration,
	opts ...CheckinServiceOption,
) *CheckinService {
	service := &CheckinService{
		tickets:      tickets,
		flights:      flights,
		cache:        cache,
		producer:     producer,
		eventsTopic:  eventsTopic,
		opensBefore:  opensBefore,
		closesBefore: closesBefore,
		seatLockTTL:  seatLockTTL,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// SeatMap builds the seat grid for a ticket's flight. Every cell carries
// the display status resolved by the classifier; the aisle gap position
// comes with the grid so the caller renders the cabin correctly.
func (s *CheckinService) SeatMap(ctx context.Context, ticketNumber string, selectedSeat *string) (*SeatMap, error) {
	ticket, err := s.tickets.GetByNumber(ctx, ticketNumber)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusValid {
		return nil, ErrTicketNotValid
	}

	flight, err := s.flights.GetByID(ctx, ticket.FlightID)
	if err != nil {
		return nil, err
	}
	// the letter alphabet bounds how many columns a row can label
	if flight.SeatsPerRow <= 0 || flight.SeatsPerRow > len(seatLetters) {
		return nil, ErrBadSeatLayout
	}

	occupied, err := s.occupiedSeats(ctx, flight.ID)
	if err != nil {
		return nil, err
	}

	var current *string
	if ticket.SeatNumber != "" {
		current = &ticket.SeatNumber
	}

	aisle, _ := rules.AisleIndex(flight.SeatsPerRow)
	sm := &SeatMap{
		FlightID:     flight.ID,
		FlightNumber: flight.Number,
		Columns:      flight.SeatsPerRow,
		AisleIndex:   aisle,
		CurrentSeat:  ticket.SeatNumber,
		BoardingTime: rules.FormatBoardingTime(flight.DepartureTime, nil),
	}

	for row := 1; row <= flight.SeatRows; row++ {
		sr := SeatRow{Row: row}
		for col := 0; col < flight.SeatsPerRow; col++ {
			seat := seatLabel(row, col)
			sr.Seats = append(sr.Seats, SeatCell{
				Seat:   seat,
				Status: rules.ClassifySeat(seat, occupied, current, selectedSeat),
			})
		}
		sm.Rows = append(sm.Rows, sr)
	}
	return sm, nil
}

// SelectSeat completes online check-in for a ticket: it validates the
// check-in window and the seat, holds the seat against concurrent pickers,
// assigns it and issues a boarding pass.
func (s *CheckinService) SelectSeat(ctx context.Context, ticketNumber, seat string) (*BoardingPass, error) {
	ticket, err := s.tickets.GetByNumber(ctx, ticketNumber)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusValid {
		return nil, ErrTicketNotValid
	}

	flight, err := s.flights.GetByID(ctx, ticket.FlightID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	until := flight.DepartureTime.Sub(now)
	if until > s.opensBefore || until < s.closesBefore {
		return nil, ErrCheckinClosed
	}

	if !seatExists(seat, flight.SeatRows, flight.SeatsPerRow) {
		return nil, ErrUnknownSeat
	}

	occupied, err := s.occupiedSeats(ctx, flight.ID)
	if err != nil {
		return nil, err
	}
	var current *string
	if ticket.SeatNumber != "" {
		current = &ticket.SeatNumber
	}
	if rules.IsSeatOccupied(seat, occupied, current) {
		return nil, ErrSeatTaken
	}

	locked := false
	if s.cache != nil {
		ok, err := s.cache.AcquireSeatLock(ctx, flight.ID, seat, s.seatLockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrSeatLocked
		}
		locked = true
	}

	boardingPassNumber := newBoardingPassNumber()
	updated, err := s.tickets.AssignSeat(ctx, ticketNumber, seat, boardingPassNumber, now)
	if err != nil {
		if locked {
			_ = s.cache.ReleaseSeatLock(ctx, flight.ID, seat)
		}
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateSeatMap(ctx, flight.ID)
		_ = s.cache.ReleaseSeatLock(ctx, flight.ID, seat)
	}

	if err := s.publish(ctx, "checkin_completed", updated); err != nil {
		fmt.Printf("WARNING: Failed to publish checkin_completed event for ticket %s: %v\n", updated.Number, err)
	}

	boarding, _ := rules.BoardingTime(flight.DepartureTime)
	return &BoardingPass{
		TicketNumber: updated.Number,
		Seat:         updated.SeatNumber,
		BoardingPass: updated.BoardingPass,
		Gate:         updated.Gate,
		BoardingTime: boarding,
	}, nil
}

func (s *CheckinService) occupiedSeats(ctx context.Context, flightID int64) ([]string, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetSeatMap(ctx, flightID); err == nil && cached != nil {
			return cached, nil
		}
	}
	occupied, err := s.tickets.OccupiedSeats(ctx, flightID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetSeatMap(ctx, flightID, occupied)
	}
	return occupied, nil
}

func (s *CheckinService) publish(ctx context.Context, eventType string, ticket *domain.Ticket) error {
	if s.producer == nil || s.eventsTopic == "" {
		return nil
	}
	event := kafka.TicketEvent{
		Type:         eventType,
		TicketNumber: ticket.Number,
		FlightID:     ticket.FlightID,
		SeatNumber:   ticket.SeatNumber,
		Status:       string(ticket.Status),
		OccurredAt:   s.now(),
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, ticket.Number, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, ticket.Number, event)
	}
	return nil
}

func seatLabel(row, col int) string {
	return fmt.Sprintf("%d%c", row, seatLetters[col])
}

func seatExists(seat string, rows, columns int) bool {
	if columns <= 0 || columns > len(seatLetters) || len(seat) < 2 {
		return false
	}
	letter := seat[len(seat)-1]
	col := strings.IndexByte(seatLetters[:columns], letter)
	if col < 0 {
		return false
	}
	var row int
	if _, err := fmt.Sscanf(seat[:len(seat)-1], "%d", &row); err != nil {
		return false
	}
	return row >= 1 && row <= rows
}

func newBoardingPassNumber() string {
	return "BP" + strings.ToUpper(uuid.NewString()[:8])
}

var _ CheckinUseCase = (*CheckinService)(nil)
