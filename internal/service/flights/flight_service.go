package flights

import (
	"context"
	"time"

	"github.com/kmalyshev/flybooking/internal/domain"
	"github.com/kmalyshev/flybooking/internal/repository"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	Search(ctx context.Context, fromCity, toCity string, day time.Time) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	SweepStatuses(ctx context.Context, now time.Time) (SweepResult, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
}

// SweepResult counts the flights moved by one status sweep.
type SweepResult struct {
	Departed int64 `json:"departed"`
	Full     int64 `json:"full"`
	Restored int64 `json:"restored"`
}

type FlightService struct {
	repo  repository.FlightRepository
	cache FlightCache
}

func NewFlightService(repo repository.FlightRepository, cache FlightCache) *FlightService {
	return &FlightService{repo: repo, cache: cache}
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetFlights(ctx, flights)
	}
	return flights, nil
}

func (s *FlightService) Search(ctx context.Context, fromCity, toCity string, day time.Time) ([]domain.Flight, error) {
	return s.repo.Search(ctx, fromCity, toCity, day)
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

// SweepStatuses marks past-departure flights departed, sold-out flights
// full, and moves flights with freed seats back to scheduled.
func (s *FlightService) SweepStatuses(ctx context.Context, now time.Time) (SweepResult, error) {
	var res SweepResult
	var err error

	if res.Departed, err = s.repo.MarkDeparted(ctx, now); err != nil {
		return res, err
	}
	if res.Full, err = s.repo.MarkFull(ctx); err != nil {
		return res, err
	}
	if res.Restored, err = s.repo.RestoreAvailable(ctx); err != nil {
		return res, err
	}
	return res, nil
}

var _ FlightUseCase = (*FlightService)(nil)
