package orders

import (
	"context"
	"testing"
	"time"

	"github.com/kmalyshev/flybooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order, tickets []domain.Ticket) error {
	args := m.Called(ctx, order, tickets)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, number string, status domain.OrderStatus) (*domain.Order, error) {
	args := m.Called(ctx, number, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) MarkPaid(ctx context.Context, number string, at time.Time) (*domain.Order, error) {
	args := m.Called(ctx, number, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Order, error) {
	args := m.Called(ctx, deadline)
	return args.Get(0).([]domain.Order), args.Error(1)
}

type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) ListByOrder(ctx context.Context, orderID int64) ([]domain.Ticket, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) OccupiedSeats(ctx context.Context, flightID int64) ([]string, error) {
	args := m.Called(ctx, flightID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTicketRepository) AssignSeat(ctx context.Context, number, seat, boardingPass string, at time.Time) (*domain.Ticket, error) {
	args := m.Called(ctx, number, seat, boardingPass, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) UpdateStatus(ctx context.Context, number string, status domain.TicketStatus) (*domain.Ticket, error) {
	args := m.Called(ctx, number, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) CreateRescheduled(ctx context.Context, original *domain.Ticket, target *domain.Flight, newTicket *domain.Ticket, log *domain.RescheduleLog) error {
	args := m.Called(ctx, original, target, newTicket, log)
	return args.Error(0)
}

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Search(ctx context.Context, fromCity, toCity string, day time.Time) ([]domain.Flight, error) {
	args := m.Called(ctx, fromCity, toCity, day)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) ReserveSeat(ctx context.Context, flightID int64) error {
	args := m.Called(ctx, flightID)
	return args.Error(0)
}

func (m *MockFlightRepository) ReleaseSeat(ctx context.Context, flightID int64) error {
	args := m.Called(ctx, flightID)
	return args.Error(0)
}

func (m *MockFlightRepository) MarkDeparted(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFlightRepository) MarkFull(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFlightRepository) RestoreAvailable(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func fixedNow() time.Time {
	return time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
}

func testFlight() *domain.Flight {
	return &domain.Flight{
		ID:             7,
		Number:         "FB123",
		FromCity:       "Beijing",
		ToCity:         "Shanghai",
		DepartureTime:  fixedNow().Add(24 * time.Hour),
		PriceCents:     50000,
		AvailableSeats: 10,
		Status:         domain.FlightStatusScheduled,
	}
}

func newService(orders *MockOrderRepository, tickets *MockTicketRepository, flights *MockFlightRepository, producer Producer) *OrderService {
	return NewOrderService(orders, tickets, flights, producer, "ticket-events", 30*time.Minute, WithClock(fixedNow))
}

func TestOrderService_Create(t *testing.T) {
	orderRepo := &MockOrderRepository{}
	ticketRepo := &MockTicketRepository{}
	flightRepo := &MockFlightRepository{}
	producer := &MockProducer{}

	flightRepo.On("GetByID", mock.Anything, int64(7)).Return(testFlight(), nil)
	orderRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			order := args.Get(1).(*domain.Order)
			order.ID = 5
			order.Status = domain.OrderStatusPending
		}).Return(nil)
	producer.On("Publish", mock.Anything, "ticket-events", mock.AnythingOfType("string"), mock.Anything).Return(nil)

	svc := newService(orderRepo, ticketRepo, flightRepo, producer)
	order, tickets, err := svc.Create(context.Background(), CreateOrderInput{
		UserID:       3,
		FlightID:     7,
		ContactName:  "Li Ming",
		ContactPhone: "13800138000",
		ContactEmail: "liming@example.com",
		Passengers: []PassengerInput{
			{Name: "Li Ming", IDNumber: "110101199001011234", CabinClass: domain.CabinEconomy},
			{Name: "Wang Fang", IDNumber: "110101199202022345", CabinClass: domain.CabinBusiness},
		},
	})

	assert.NoError(t, err)
	assert.Len(t, tickets, 2)
	// economy 50000 + business 125000
	assert.Equal(t, int64(175000), order.TotalCents)
	assert.Equal(t, int64(50000), tickets[0].PriceCents)
	assert.Equal(t, int64(125000), tickets[1].PriceCents)
	if assert.NotNil(t, order.ExpiresAt) {
		assert.Equal(t, fixedNow().Add(30*time.Minute), *order.ExpiresAt)
	}
	assert.Empty(t, tickets[0].SeatNumber)
	producer.AssertExpectations(t)
}

func TestOrderService_Create_DefaultsToEconomy(t *testing.T) {
	orderRepo := &MockOrderRepository{}
	ticketRepo := &MockTicketRepository{}
	flightRepo := &MockFlightRepository{}

	flightRepo.On("GetByID", mock.Anything, int64(7)).Return(testFlight(), nil)
	orderRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newService(orderRepo, ticketRepo, flightRepo, nil)
	_, tickets, err := svc.Create(context.Background(), CreateOrderInput{
		FlightID:     7,
		ContactEmail: "liming@example.com",
		Passengers:   []PassengerInput{{Name: "Li Ming", IDNumber: "110101199001011234"}},
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.CabinEconomy, tickets[0].CabinClass)
	assert.Equal(t, int64(50000), tickets[0].PriceCents)
}

func TestOrderService_Create_NoPassengers(t *testing.T) {
	svc := newService(&MockOrderRepository{}, &MockTicketRepository{}, &MockFlightRepository{}, nil)
	_, _, err := svc.Create(context.Background(), CreateOrderInput{FlightID: 7, ContactEmail: "a@b.c"})
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestOrderService_Pay(t *testing.T) {
	orderRepo := &MockOrderRepository{}
	producer := &MockProducer{}

	expiresAt := fixedNow().Add(20 * time.Minute)
	pending := &domain.Order{ID: 5, Number: "ORDAB12CD34", Status: domain.OrderStatusPending, ExpiresAt: &expiresAt}
	paidAt := fixedNow()
	paid := &domain.Order{ID: 5, Number: "ORDAB12CD34", Status: domain.OrderStatusPaid, PaidAt: &paidAt}

	orderRepo.On("GetByNumber", mock.Anything, "ORDAB12CD34").Return(pending, nil)
	orderRepo.On("MarkPaid", mock.Anything, "ORDAB12CD34", fixedNow()).Return(paid, nil)
	producer.On("Publish", mock.Anything, "ticket-events", "ORDAB12CD34", mock.Anything).Return(nil)

	svc := newService(orderRepo, &MockTicketRepository{}, &MockFlightRepository{}, producer)
	got, err := svc.Pay(context.Background(), "ORDAB12CD34")

	assert.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, got.Status)
	orderRepo.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestOrderService_Pay_MirrorsToNotificationsTopic(t *testing.T) {
	orderRepo := &MockOrderRepository{}
	producer := &MockProducer{}

	expiresAt := fixedNow().Add(20 * time.Minute)
	pending := &domain.Order{ID: 5, Number: "ORDAB12CD34", Status: domain.OrderStatusPending, ExpiresAt: &expiresAt}
	paidAt := fixedNow()
	paid := &domain.Order{ID: 5, Number: "ORDAB12CD34", Status: domain.OrderStatusPaid, PaidAt: &paidAt}

	orderRepo.On("GetByNumber", mock.Anything, "ORDAB12CD34").Return(pending, nil)
	orderRepo.On("MarkPaid", mock.Anything, "ORDAB12CD34", fixedNow()).Return(paid, nil)
	producer.On("Publish", mock.Anything, "ticket-events", "ORDAB12CD34", mock.Anything).Return(nil)
	producer.On("Publish", mock.Anything, "notifications", "ORDAB12CD34", mock.Anything).Return(nil)

	svc := NewOrderService(
		orderRepo, &MockTicketRepository{}, &MockFlightRepository{}, producer,
		"ticket-events", 30*time.Minute,
		WithClock(fixedNow),
		WithNotificationsTopic("notifications"),
	)
	_, err := svc.Pay(context.Background(), "ORDAB12CD34")

	assert.NoError(t, err)
	producer.AssertNumberOfCalls(t, "Publish", 2)
	producer.AssertExpectations(t)
}

func TestOrderService_Pay_NotPending(t *testing.T) {
	orderRepo := &MockOrderRepository{}
	orderRepo.On("GetByNumber", mock.Anything, "ORDAB12CD34").
		Return(&domain.Order{Number: "ORDAB12CD34", Status: domain.OrderStatusPaid}, nil)

	svc := newService(orderRepo, &MockTicketRepository{}, &MockFlightRepository{}, nil)
	_, err := svc.Pay(context.Background(), "ORDAB12CD34")

	assert.ErrorIs(t, err, ErrOrderNotPending)
}

func TestOrderService_Cancel_ReleasesSeats(t *testing.T) {
	orderRepo := &MockOrderRepository{}
	ticketRepo := &MockTicketRepository{}
	flightRepo := &MockFlightRepository{}

	pending := &domain.Order{ID: 5, Number: "ORDAB12CD34", Status: domain.OrderStatusPending}
	cancelled := &domain.Order{ID: 5, Number: "ORDAB12CD34", Status: domain.OrderStatusCancelled}

	orderRepo.On("GetByNumber", mock.Anything, "ORDAB12CD34").Return(pending, nil)
	orderRepo.On("UpdateStatus", mock.Anything, "ORDAB12CD34", domain.OrderStatusCancelled).Return(cancelled, nil)
	ticketRepo.On("ListByOrder", mock.Anything, int64(5)).Return([]domain.Ticket{
		{Number: "8801111111111", FlightID: 7, Status: domain.TicketStatusValid},
		{Number: "8802222222222", FlightID: 7, Status: domain.TicketStatusRefunded},
	}, nil)
	ticketRepo.On("UpdateStatus", mock.Anything, "8801111111111", domain.TicketStatusCancelled).
		Return(&domain.Ticket{Number: "8801111111111", Status: domain.TicketStatusCancelled}, nil)
	flightRepo.On("ReleaseSeat", mock.Anything, int64(7)).Return(nil).Once()

	svc := newService(orderRepo, ticketRepo, flightRepo, nil)
	got, err := svc.Cancel(context.Background(), "ORDAB12CD34")

	assert.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, got.Status)
	ticketRepo.AssertExpectations(t)
	flightRepo.AssertExpectations(t)
}

func TestOrderService_Cancel_AlreadyCancelled(t *testing.T) {
	orderRepo := &MockOrderRepository{}
	orderRepo.On("GetByNumber", mock.Anything, "ORDAB12CD34").
		Return(&domain.Order{Number: "ORDAB12CD34", Status: domain.OrderStatusCancelled}, nil)

	svc := newService(orderRepo, &MockTicketRepository{}, &MockFlightRepository{}, nil)
	got, err := svc.Cancel(context.Background(), "ORDAB12CD34")

	assert.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, got.Status)
}

func TestOrderService_RefundTicket(t *testing.T) {
	ticketRepo := &MockTicketRepository{}
	flightRepo := &MockFlightRepository{}
	producer := &MockProducer{}

	ticketRepo.On("GetByNumber", mock.Anything, "8801234567890").
		Return(&domain.Ticket{Number: "8801234567890", FlightID: 7, Status: domain.TicketStatusValid}, nil)
	ticketRepo.On("UpdateStatus", mock.Anything, "8801234567890", domain.TicketStatusRefunded).
		Return(&domain.Ticket{Number: "8801234567890", FlightID: 7, Status: domain.TicketStatusRefunded}, nil)
	flightRepo.On("ReleaseSeat", mock.Anything, int64(7)).Return(nil)
	producer.On("Publish", mock.Anything, "ticket-events", "8801234567890", mock.Anything).Return(nil)

	svc := newService(&MockOrderRepository{}, ticketRepo, flightRepo, producer)
	got, err := svc.RefundTicket(context.Background(), "8801234567890")

	assert.NoError(t, err)
	assert.Equal(t, domain.TicketStatusRefunded, got.Status)
	flightRepo.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestOrderService_RefundTicket_NotValid(t *testing.T) {
	ticketRepo := &MockTicketRepository{}
	ticketRepo.On("GetByNumber", mock.Anything, "8801234567890").
		Return(&domain.Ticket{Number: "8801234567890", Status: domain.TicketStatusUsed}, nil)

	svc := newService(&MockOrderRepository{}, ticketRepo, &MockFlightRepository{}, nil)
	_, err := svc.RefundTicket(context.Background(), "8801234567890")

	assert.ErrorIs(t, err, ErrTicketNotValid)
}

func TestOrderService_ExpirePendingOrders(t *testing.T) {
	orderRepo := &MockOrderRepository{}
	producer := &MockProducer{}

	expired := []domain.Order{
		{ID: 5, Number: "ORDAB12CD34", Status: domain.OrderStatusCancelled, ContactEmail: "a@b.c"},
		{ID: 6, Number: "ORDEF56GH78", Status: domain.OrderStatusCancelled, ContactEmail: "d@e.f"},
	}
	orderRepo.On("ExpirePendingBefore", mock.Anything, fixedNow()).Return(expired, nil)
	producer.On("Publish", mock.Anything, "ticket-events", "ORDAB12CD34", mock.Anything).Return(nil).Once()
	producer.On("Publish", mock.Anything, "ticket-events", "ORDEF56GH78", mock.Anything).Return(nil).Once()

	svc := newService(orderRepo, &MockTicketRepository{}, &MockFlightRepository{}, producer)
	got, err := svc.ExpirePendingOrders(context.Background())

	assert.NoError(t, err)
	assert.Len(t, got, 2)
	producer.AssertExpectations(t)
}

func TestOrderService_RemainingPaySeconds(t *testing.T) {
	svc := newService(&MockOrderRepository{}, &MockTicketRepository{}, &MockFlightRepository{}, nil)

	expiresAt := fixedNow().Add(12*time.Minute + 34*time.Second)
	pending := &domain.Order{Status: domain.OrderStatusPending, ExpiresAt: &expiresAt}
	assert.Equal(t, 754, svc.RemainingPaySeconds(pending, fixedNow()))

	past := fixedNow().Add(-time.Minute)
	lapsed := &domain.Order{Status: domain.OrderStatusPending, ExpiresAt: &past}
	assert.Equal(t, 0, svc.RemainingPaySeconds(lapsed, fixedNow()))

	paid := &domain.Order{Status: domain.OrderStatusPaid, ExpiresAt: &expiresAt}
	assert.Equal(t, 0, svc.RemainingPaySeconds(paid, fixedNow()))

	assert.Equal(t, 0, svc.RemainingPaySeconds(nil, fixedNow()))
}
