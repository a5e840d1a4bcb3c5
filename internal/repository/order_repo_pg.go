package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kmalyshev/flybooking/internal/domain"
)

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order, tickets []domain.Ticket) error
	GetByNumber(ctx context.Context, number string) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	UpdateStatus(ctx context.Context, number string, status domain.OrderStatus) (*domain.Order, error)
	MarkPaid(ctx context.Context, number string, at time.Time) (*domain.Order, error)
	ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Order, error)
}

type PGOrderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) OrderRepository {
	return &PGOrderRepository{db: db}
}

const orderColumns = `id, number, user_id, total_cents, status, COALESCE(contact_name, ''), COALESCE(contact_phone, ''), COALESCE(contact_email, ''), expires_at, paid_at, created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	if err := row.Scan(&o.ID, &o.Number, &o.UserID, &o.TotalCents, &o.Status, &o.ContactName, &o.ContactPhone, &o.ContactEmail, &o.ExpiresAt, &o.PaidAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserts the pending order with its tickets and takes one seat of
// inventory per ticket, all in a single transaction.
func (r *PGOrderRepository) Create(ctx context.Context, order *domain.Order, tickets []domain.Ticket) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	order.Status = domain.OrderStatusPending
	if err := tx.QueryRow(ctx, `INSERT INTO orders (number, user_id, total_cents, status, contact_name, contact_phone, contact_email, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		order.Number, order.UserID, order.TotalCents, order.Status, order.ContactName, order.ContactPhone, order.ContactEmail, order.ExpiresAt).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return err
	}

	for i := range tickets {
		t := &tickets[i]

		var available int
		if err := tx.QueryRow(ctx, `UPDATE flights SET available_seats = available_seats - 1, updated_at = now() WHERE id=$1 AND available_seats > 0 RETURNING available_seats`, t.FlightID).Scan(&available); err != nil {
			if err == pgx.ErrNoRows {
				return ErrNoAvailableSeats
			}
			return err
		}

		t.OrderID = order.ID
		t.Status = domain.TicketStatusValid
		if err := tx.QueryRow(ctx, `INSERT INTO tickets (number, order_id, flight_id, passenger_name, passenger_id_number, cabin_class, price_cents, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at, updated_at`,
			t.Number, t.OrderID, t.FlightID, t.PassengerName, t.PassengerIDNumber, t.CabinClass, t.PriceCents, t.Status).
			Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PGOrderRepository) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE number=$1`, number))
}

func (r *PGOrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
}

func (r *PGOrderRepository) UpdateStatus(ctx context.Context, number string, status domain.OrderStatus) (*domain.Order, error) {
	return scanOrder(r.db.QueryRow(ctx, `UPDATE orders SET status=$1, updated_at=now() WHERE number=$2 RETURNING `+orderColumns, status, number))
}

func (r *PGOrderRepository) MarkPaid(ctx context.Context, number string, at time.Time) (*domain.Order, error) {
	return scanOrder(r.db.QueryRow(ctx, `UPDATE orders SET status=$1, paid_at=$2, updated_at=now() WHERE number=$3 RETURNING `+orderColumns,
		domain.OrderStatusPaid, at, number))
}

// ExpirePendingBefore cancels pending orders whose pay deadline has
// passed, cancels their tickets and returns the seats to inventory.
func (r *PGOrderRepository) ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `UPDATE orders SET status=$1, updated_at=now()
		WHERE status=$2 AND expires_at IS NOT NULL AND expires_at <= $3
		RETURNING `+orderColumns, domain.OrderStatusCancelled, domain.OrderStatusPending, deadline)
	if err != nil {
		return nil, err
	}

	var expired []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		expired = append(expired, *o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, o := range expired {
		// one seat back per cancelled ticket, counted per flight
		if _, err := tx.Exec(ctx, `UPDATE flights f SET available_seats = LEAST(f.available_seats + c.n, f.total_seats), updated_at = now()
			FROM (SELECT flight_id, COUNT(*) AS n FROM tickets WHERE order_id=$1 AND status=$2 GROUP BY flight_id) c
			WHERE f.id = c.flight_id`, o.ID, domain.TicketStatusValid); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `UPDATE tickets SET status=$1, updated_at=now() WHERE order_id=$2 AND status=$3`,
			domain.TicketStatusCancelled, o.ID, domain.TicketStatusValid); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return expired, nil
}

var _ OrderRepository = (*PGOrderRepository)(nil)
