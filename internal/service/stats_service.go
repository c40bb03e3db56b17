package service

import (
	"context"
	"time"

	"github.com/iliyamo/airline-reservation/internal/model"
	"github.com/iliyamo/airline-reservation/internal/repository"
)

const (
	defaultStatsWindow = 30 * 24 * time.Hour
	defaultStatsLimit  = 10
	maxStatsLimit      = 100
)

// StatsRange is a half-open [From, To) window plus a row limit.  Zero
// values are filled in by Normalize.
type StatsRange struct {
	From  time.Time
	To    time.Time
	Limit int
}

// Normalize defaults an empty window to the last 30 days and clamps the
// limit to [1, 100].
func (r StatsRange) Normalize(now time.Time) (StatsRange, error) {
	if r.To.IsZero() {
		r.To = now.UTC()
	}
	if r.From.IsZero() {
		r.From = r.To.Add(-defaultStatsWindow)
	}
	r.From, r.To = r.From.UTC(), r.To.UTC()
	if !r.From.Before(r.To) {
		return r, invalid("from must be before to")
	}
	switch {
	case r.Limit <= 0:
		r.Limit = defaultStatsLimit
	case r.Limit > maxStatsLimit:
		r.Limit = maxStatsLimit
	}
	return r, nil
}

// StatsService serves read-only dashboard aggregates.
type StatsService struct {
	store *repository.Store
	now   func() time.Time
}

func NewStatsService(store *repository.Store) *StatsService {
	return &StatsService{store: store, now: time.Now}
}

func (s *StatsService) Summary(ctx context.Context, r StatsRange) (*model.StatsSummary, error) {
	r, err := r.Normalize(s.now())
	if err != nil {
		return nil, err
	}
	out, err := s.store.Stats.Summary(ctx, r.From, r.To)
	if err != nil {
		return nil, internal("stats summary", err)
	}
	return out, nil
}

func (s *StatsService) ReservationsByDay(ctx context.Context, r StatsRange) ([]model.DailyReservations, error) {
	r, err := r.Normalize(s.now())
	if err != nil {
		return nil, err
	}
	out, err := s.store.Stats.ReservationsByDay(ctx, r.From, r.To)
	if err != nil {
		return nil, internal("stats by day", err)
	}
	return out, nil
}

func (s *StatsService) TopRoutes(ctx context.Context, r StatsRange) ([]model.RouteCount, error) {
	r, err := r.Normalize(s.now())
	if err != nil {
		return nil, err
	}
	out, err := s.store.Stats.TopRoutes(ctx, r.From, r.To, r.Limit)
	if err != nil {
		return nil, internal("stats top routes", err)
	}
	return out, nil
}

func (s *StatsService) RevenueByAirline(ctx context.Context, r StatsRange) ([]model.AirlineRevenue, error) {
	r, err := r.Normalize(s.now())
	if err != nil {
		return nil, err
	}
	out, err := s.store.Stats.RevenueByAirline(ctx, r.From, r.To, r.Limit)
	if err != nil {
		return nil, internal("stats revenue by airline", err)
	}
	return out, nil
}

func (s *StatsService) ClassDistribution(ctx context.Context, r StatsRange) ([]model.ClassCount, error) {
	r, err := r.Normalize(s.now())
	if err != nil {
		return nil, err
	}
	out, err := s.store.Stats.ClassDistribution(ctx, r.From, r.To)
	if err != nil {
		return nil, internal("stats class distribution", err)
	}
	return out, nil
}

func (s *StatsService) FlightOccupancy(ctx context.Context, r StatsRange) ([]model.FlightOccupancy, error) {
	r, err := r.Normalize(s.now())
	if err != nil {
		return nil, err
	}
	out, err := s.store.Stats.FlightOccupancy(ctx, r.From, r.To, r.Limit)
	if err != nil {
		return nil, internal("stats flight occupancy", err)
	}
	return out, nil
}
