// Package analytics computes read-only occupancy and revenue figures
// from trips, buses and reservations. Nothing here mutates state.
package analytics

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ms-busline/internal/fault"

	"github.com/uptrace/bun"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// TripStat is the per-trip aggregate: occupancy as a percentage of the
// bus's capacity and revenue as active reservations times the trip's
// current price. Revenue follows later price edits; reservations do
// not snapshot the price they were sold at.
type TripStat struct {
	TripID       string    `json:"trip_id"`
	Code         string    `json:"code"`
	Origin       string    `json:"origin"`
	Destination  string    `json:"destination"`
	Date         time.Time `json:"date"`
	Price        float64   `json:"price"`
	SeatCount    int       `json:"seat_count"`
	Reservations int       `json:"reservations"`
	Occupancy    float64   `json:"occupancy"`
	Revenue      float64   `json:"revenue"`
}

// RouteStat aggregates one origin/destination pair across trips.
type RouteStat struct {
	Origin       string  `json:"origin"`
	Destination  string  `json:"destination"`
	Trips        int     `json:"trips"`
	Reservations int     `json:"reservations"`
	Revenue      float64 `json:"revenue"`
}

type tripStatRaw struct {
	TripID      string    `bun:"trip_id"`
	Code        string    `bun:"code"`
	Origin      string    `bun:"origin"`
	Destination string    `bun:"destination"`
	Date        time.Time `bun:"date"`
	Price       float64   `bun:"price"`
	SeatCount   int       `bun:"seat_count"`
	ActiveCount int       `bun:"active_count"`
}

const tripStatSQL = `
	SELECT
		t.id AS trip_id,
		t.code AS code,
		t.origin AS origin,
		t.destination AS destination,
		t.date AS date,
		t.price AS price,
		b.seat_count AS seat_count,
		COALESCE(r.active_count, 0) AS active_count
	FROM trips t
	JOIN buses b ON b.id = t.bus_id
	LEFT JOIN (
		SELECT trip_id, COUNT(*) AS active_count
		FROM reservations
		WHERE status = 'active'
		GROUP BY trip_id
	) r ON r.trip_id = t.id
	WHERE t.status = 'active'
`

// TripStats returns occupancy and revenue for every active trip.
func (s *Service) TripStats(ctx context.Context) ([]TripStat, error) {
	var rows []tripStatRaw
	err := s.db.NewRaw(tripStatSQL + " ORDER BY t.date, t.departure_time").Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	stats := make([]TripStat, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, buildStat(row))
	}
	return stats, nil
}

// TripStat returns the aggregate for one trip.
func (s *Service) TripStat(ctx context.Context, tripID string) (*TripStat, error) {
	var row tripStatRaw
	err := s.db.NewRaw(tripStatSQL+" AND t.id = ?", tripID).Scan(ctx, &row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.NotFound("trip %s not found", tripID)
	}
	if err != nil {
		return nil, err
	}
	stat := buildStat(row)
	return &stat, nil
}

// OccupancyRatio returns the percentage of a trip's seats actively
// held, always within [0, 100] for a consistent ledger.
func (s *Service) OccupancyRatio(ctx context.Context, tripID string) (float64, error) {
	stat, err := s.TripStat(ctx, tripID)
	if err != nil {
		return 0, err
	}
	return stat.Occupancy, nil
}

// Revenue returns the revenue of one trip at its current price.
func (s *Service) Revenue(ctx context.Context, tripID string) (float64, error) {
	stat, err := s.TripStat(ctx, tripID)
	if err != nil {
		return 0, err
	}
	return stat.Revenue, nil
}

// TotalRevenue sums projected revenue over every active trip at its
// current price.
func (s *Service) TotalRevenue(ctx context.Context) (float64, error) {
	var total float64
	err := s.db.NewRaw(`
		SELECT COALESCE(SUM(t.price * r.active_count), 0)
		FROM trips t
		JOIN (
			SELECT trip_id, COUNT(*) AS active_count
			FROM reservations
			WHERE status = 'active'
			GROUP BY trip_id
		) r ON r.trip_id = t.id
		WHERE t.status = 'active'
	`).Scan(ctx, &total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// RevenueBetween folds revenue over active trips whose date falls in
// [start, end] (inclusive day bounds). Callers pass month or year
// bounds for the periodic reports.
func (s *Service) RevenueBetween(ctx context.Context, start, end time.Time) (float64, error) {
	var total float64
	err := s.db.NewRaw(`
		SELECT COALESCE(SUM(t.price * r.active_count), 0)
		FROM trips t
		JOIN (
			SELECT trip_id, COUNT(*) AS active_count
			FROM reservations
			WHERE status = 'active'
			GROUP BY trip_id
		) r ON r.trip_id = t.id
		WHERE t.status = 'active' AND t.date >= ? AND t.date < ?
	`, start, end.AddDate(0, 0, 1)).Scan(ctx, &total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// TopRoutes ranks origin/destination pairs by active reservations.
func (s *Service) TopRoutes(ctx context.Context, limit int) ([]RouteStat, error) {
	if limit <= 0 {
		limit = 5
	}
	var routes []RouteStat
	err := s.db.NewRaw(`
		SELECT
			t.origin AS origin,
			t.destination AS destination,
			COUNT(t.id) AS trips,
			COALESCE(SUM(r.active_count), 0) AS reservations,
			COALESCE(SUM(t.price * r.active_count), 0) AS revenue
		FROM trips t
		LEFT JOIN (
			SELECT trip_id, COUNT(*) AS active_count
			FROM reservations
			WHERE status = 'active'
			GROUP BY trip_id
		) r ON r.trip_id = t.id
		WHERE t.status = 'active'
		GROUP BY t.origin, t.destination
		ORDER BY reservations DESC
		LIMIT ?
	`, limit).Scan(ctx, &routes)
	if err != nil {
		return nil, err
	}
	return routes, nil
}

// AverageOccupancy returns the mean occupancy percentage across all
// active trips, 0 when there are none.
func (s *Service) AverageOccupancy(ctx context.Context) (float64, error) {
	stats, err := s.TripStats(ctx)
	if err != nil {
		return 0, err
	}
	if len(stats) == 0 {
		return 0, nil
	}
	var sum float64
	for _, st := range stats {
		sum += st.Occupancy
	}
	return sum / float64(len(stats)), nil
}

func buildStat(row tripStatRaw) TripStat {
	stat := TripStat{
		TripID:       row.TripID,
		Code:         row.Code,
		Origin:       row.Origin,
		Destination:  row.Destination,
		Date:         row.Date,
		Price:        row.Price,
		SeatCount:    row.SeatCount,
		Reservations: row.ActiveCount,
		Revenue:      float64(row.ActiveCount) * row.Price,
	}
	if row.SeatCount > 0 {
		stat.Occupancy = 100 * float64(row.ActiveCount) / float64(row.SeatCount)
	}
	return stat
}
