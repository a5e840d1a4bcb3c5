package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kmalyshev/flybooking/internal/domain"
)

type TicketRepository interface {
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	ListByOrder(ctx context.Context, orderID int64) ([]domain.Ticket, error)
	OccupiedSeats(ctx context.Context, flightID int64) ([]string, error)
	AssignSeat(ctx context.Context, number, seat, boardingPass string, at time.Time) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, number string, status domain.TicketStatus) (*domain.Ticket, error)
	CreateRescheduled(ctx context.Context, original *domain.Ticket, target *domain.Flight, newTicket *domain.Ticket, log *domain.RescheduleLog) error
}

type PGTicketRepository struct {
	db *pgxpool.Pool
}

func NewTicketRepository(db *pgxpool.Pool) TicketRepository {
	return &PGTicketRepository{db: db}
}

const ticketColumns = `t.id, t.number, t.order_id, t.flight_id, t.passenger_name, t.passenger_id_number, COALESCE(t.seat_number, ''), t.cabin_class, t.price_cents, t.status, t.checked_in, t.checked_in_at, COALESCE(t.boarding_pass, ''), COALESCE(t.gate, ''), f.departure_time, t.created_at, t.updated_at`

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	if err := row.Scan(&t.ID, &t.Number, &t.OrderID, &t.FlightID, &t.PassengerName, &t.PassengerIDNumber, &t.SeatNumber, &t.CabinClass, &t.PriceCents, &t.Status, &t.CheckedIn, &t.CheckedInAt, &t.BoardingPass, &t.Gate, &t.DepartureTime, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PGTicketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	return scanTicket(r.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets t JOIN flights f ON f.id = t.flight_id WHERE t.number=$1`, number))
}

func (r *PGTicketRepository) ListByOrder(ctx context.Context, orderID int64) ([]domain.Ticket, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ticketColumns+` FROM tickets t JOIN flights f ON f.id = t.flight_id WHERE t.order_id=$1 ORDER BY t.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}

// OccupiedSeats returns the assigned seats of valid and used tickets on a
// flight, the set the seat-map classifier treats as taken.
func (r *PGTicketRepository) OccupiedSeats(ctx context.Context, flightID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT seat_number FROM tickets WHERE flight_id=$1 AND seat_number IS NOT NULL AND seat_number <> '' AND status IN ($2, $3)`,
		flightID, domain.TicketStatusValid, domain.TicketStatusUsed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]string, 0)
	for rows.Next() {
		var seat string
		if err := rows.Scan(&seat); err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}
	return seats, rows.Err()
}

func (r *PGTicketRepository) AssignSeat(ctx context.Context, number, seat, boardingPass string, at time.Time) (*domain.Ticket, error) {
	row := r.db.QueryRow(ctx, `UPDATE tickets t SET seat_number=$1, boarding_pass=$2, checked_in=true, checked_in_at=$3, updated_at=now()
		FROM flights f
		WHERE t.number=$4 AND f.id = t.flight_id
		RETURNING `+ticketColumns, seat, boardingPass, at, number)
	return scanTicket(row)
}

func (r *PGTicketRepository) UpdateStatus(ctx context.Context, number string, status domain.TicketStatus) (*domain.Ticket, error) {
	row := r.db.QueryRow(ctx, `UPDATE tickets t SET status=$1, updated_at=now()
		FROM flights f
		WHERE t.number=$2 AND f.id = t.flight_id
		RETURNING `+ticketColumns, status, number)
	return scanTicket(row)
}

// CreateRescheduled retires the original ticket, moves the seat between
// the two flights, inserts the replacement ticket and the reschedule log
// in one transaction.
func (r *PGTicketRepository) CreateRescheduled(ctx context.Context, original *domain.Ticket, target *domain.Flight, newTicket *domain.Ticket, log *domain.RescheduleLog) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var available int
	if err := tx.QueryRow(ctx, `UPDATE flights SET available_seats = available_seats - 1, updated_at = now() WHERE id=$1 AND available_seats > 0 RETURNING available_seats`, target.ID).Scan(&available); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE flights SET available_seats = LEAST(available_seats + 1, total_seats), updated_at = now() WHERE id=$1`, original.FlightID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE tickets SET status=$1, updated_at=now() WHERE id=$2`, domain.TicketStatusRescheduled, original.ID); err != nil {
		return err
	}

	newTicket.Status = domain.TicketStatusValid
	if err := tx.QueryRow(ctx, `INSERT INTO tickets (number, order_id, flight_id, passenger_name, passenger_id_number, cabin_class, price_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		newTicket.Number, newTicket.OrderID, newTicket.FlightID, newTicket.PassengerName, newTicket.PassengerIDNumber, newTicket.CabinClass, newTicket.PriceCents, newTicket.Status).
		Scan(&newTicket.ID, &newTicket.CreatedAt, &newTicket.UpdatedAt); err != nil {
		return err
	}

	log.OriginalTicketID = original.ID
	log.NewTicketID = newTicket.ID
	if err := tx.QueryRow(ctx, `INSERT INTO reschedule_logs (original_ticket_id, new_ticket_id, original_flight_id, new_flight_id, price_diff_cents, fee_cents)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		log.OriginalTicketID, log.NewTicketID, log.OriginalFlightID, log.NewFlightID, log.PriceDiffCents, log.FeeCents).
		Scan(&log.ID, &log.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

var _ TicketRepository = (*PGTicketRepository)(nil)
