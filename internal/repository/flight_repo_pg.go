package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kmalyshev/flybooking/internal/domain"
)

var ErrNoAvailableSeats = errors.New("no available seats")

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	Search(ctx context.Context, fromCity, toCity string, day time.Time) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	ReserveSeat(ctx context.Context, flightID int64) error
	ReleaseSeat(ctx context.Context, flightID int64) error
	MarkDeparted(ctx context.Context, now time.Time) (int64, error)
	MarkFull(ctx context.Context) (int64, error)
	RestoreAvailable(ctx context.Context) (int64, error)
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `id, number, airline, from_city, to_city, departure_time, arrival_time, price_cents, seat_rows, seats_per_row, total_seats, available_seats, status, created_at, updated_at`

func scanFlight(row interface{ Scan(dest ...any) error }) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.Number, &f.Airline, &f.FromCity, &f.ToCity, &f.DepartureTime, &f.ArrivalTime, &f.PriceCents, &f.SeatRows, &f.SeatsPerRow, &f.TotalSeats, &f.AvailableSeats, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY departure_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) Search(ctx context.Context, fromCity, toCity string, day time.Time) ([]domain.Flight, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights
		WHERE from_city=$1 AND to_city=$2 AND departure_time >= $3 AND departure_time < $4
		ORDER BY departure_time`, fromCity, toCity, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return scanFlight(r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id))
}

func (r *PGFlightRepository) ReserveSeat(ctx context.Context, flightID int64) error {
	res, err := r.db.Exec(ctx, `UPDATE flights SET available_seats = available_seats - 1, updated_at = now() WHERE id=$1 AND available_seats > 0`, flightID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNoAvailableSeats
	}
	return nil
}

func (r *PGFlightRepository) ReleaseSeat(ctx context.Context, flightID int64) error {
	// never above capacity
	_, err := r.db.Exec(ctx, `UPDATE flights SET available_seats = LEAST(available_seats + 1, total_seats), updated_at = now() WHERE id=$1`, flightID)
	return err
}

func (r *PGFlightRepository) MarkDeparted(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.Exec(ctx, `UPDATE flights SET status=$1, updated_at=now() WHERE departure_time <= $2 AND status=$3`,
		domain.FlightStatusDeparted, now, domain.FlightStatusScheduled)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (r *PGFlightRepository) MarkFull(ctx context.Context) (int64, error) {
	res, err := r.db.Exec(ctx, `UPDATE flights SET status=$1, updated_at=now() WHERE available_seats = 0 AND status=$2`,
		domain.FlightStatusFull, domain.FlightStatusScheduled)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (r *PGFlightRepository) RestoreAvailable(ctx context.Context) (int64, error) {
	res, err := r.db.Exec(ctx, `UPDATE flights SET status=$1, updated_at=now() WHERE available_seats > 0 AND status=$2`,
		domain.FlightStatusScheduled, domain.FlightStatusFull)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
