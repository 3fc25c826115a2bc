package analytics_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"ms-busline/internal/analytics"
	"ms-busline/internal/fault"
	"ms-busline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	ctx := context.Background()
	for _, m := range []interface{}{
		(*models.Bus)(nil), (*models.Trip)(nil), (*models.Reservation)(nil),
	} {
		if err := bunDB.ResetModel(ctx, m); err != nil {
			t.Fatalf("Failed to create tables: %v", err)
		}
	}
	t.Cleanup(func() { bunDB.Close() })

	return bunDB
}

func seedFixtures(t *testing.T, db *bun.DB) {
	t.Helper()
	ctx := context.Background()

	buses := []models.Bus{
		{ID: "bus1", Plate: "34ABC123", SeatCount: 10},
		{ID: "bus2", Plate: "06XYZ789", SeatCount: 20},
	}
	if _, err := db.NewInsert().Model(&buses).Exec(ctx); err != nil {
		t.Fatalf("Failed to seed buses: %v", err)
	}

	day1 := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	trips := []models.Trip{
		{
			ID: "t1", Code: "AAAAAA", BusID: "bus1",
			Origin: "Istanbul", Destination: "Ankara",
			Date: day1, DepartureTime: "09:00", ArrivalTime: "14:30",
			Price: 100, Status: models.TripStatusActive, CreatedAt: time.Now(),
		},
		{
			ID: "t2", Code: "BBBBBB", BusID: "bus2",
			Origin: "Istanbul", Destination: "Ankara",
			Date: day2, DepartureTime: "09:00", ArrivalTime: "14:30",
			Price: 200, Status: models.TripStatusActive, CreatedAt: time.Now(),
		},
		{
			ID: "t3", Code: "CCCCCC", BusID: "bus1",
			Origin: "Izmir", Destination: "Istanbul",
			Date: day2, DepartureTime: "09:00", ArrivalTime: "14:30",
			Price: 300, Status: models.TripStatusCancelled, CreatedAt: time.Now(),
		},
	}
	if _, err := db.NewInsert().Model(&trips).Exec(ctx); err != nil {
		t.Fatalf("Failed to seed trips: %v", err)
	}

	reservations := []models.Reservation{
		{ID: "r1", TripID: "t1", SeatNumber: 1, FirstName: "A", LastName: "B", Phone: "1", Status: "active", CreatedAt: time.Now()},
		{ID: "r2", TripID: "t1", SeatNumber: 2, FirstName: "C", LastName: "D", Phone: "2", Status: "active", CreatedAt: time.Now()},
		{ID: "r3", TripID: "t1", SeatNumber: 3, FirstName: "E", LastName: "F", Phone: "3", Status: "cancelled", CreatedAt: time.Now()},
		{ID: "r4", TripID: "t2", SeatNumber: 1, FirstName: "G", LastName: "H", Phone: "4", Status: "active", CreatedAt: time.Now()},
		{ID: "r5", TripID: "t3", SeatNumber: 1, FirstName: "I", LastName: "J", Phone: "5", Status: "active", CreatedAt: time.Now()},
	}
	if _, err := db.NewInsert().Model(&reservations).Exec(ctx); err != nil {
		t.Fatalf("Failed to seed reservations: %v", err)
	}
}

func TestTripStats(t *testing.T) {
	db := setupTestDB(t)
	seedFixtures(t, db)
	svc := analytics.NewService(db)

	stats, err := svc.TripStats(context.Background())
	assert.NoError(t, err)
	// The cancelled t3 is excluded.
	assert.Len(t, stats, 2)

	first := stats[0]
	assert.Equal(t, "t1", first.TripID)
	assert.Equal(t, 2, first.Reservations)
	assert.InDelta(t, 20.0, first.Occupancy, 0.001) // 2 of 10 seats
	assert.InDelta(t, 200.0, first.Revenue, 0.001)  // 2 x 100

	second := stats[1]
	assert.Equal(t, "t2", second.TripID)
	assert.InDelta(t, 5.0, second.Occupancy, 0.001) // 1 of 20 seats
	assert.InDelta(t, 200.0, second.Revenue, 0.001)
}

func TestTripStatSingle(t *testing.T) {
	db := setupTestDB(t)
	seedFixtures(t, db)
	svc := analytics.NewService(db)

	stat, err := svc.TripStat(context.Background(), "t1")
	assert.NoError(t, err)
	assert.Equal(t, "AAAAAA", stat.Code)
	assert.Equal(t, 10, stat.SeatCount)
	assert.InDelta(t, 200.0, stat.Revenue, 0.001)
}

func TestTripStatUnknownTrip(t *testing.T) {
	db := setupTestDB(t)
	seedFixtures(t, db)
	svc := analytics.NewService(db)

	_, err := svc.TripStat(context.Background(), "ghost")
	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
}

func TestRevenueFollowsPriceEdits(t *testing.T) {
	db := setupTestDB(t)
	seedFixtures(t, db)
	svc := analytics.NewService(db)
	ctx := context.Background()

	before, err := svc.Revenue(ctx, "t1")
	assert.NoError(t, err)
	assert.InDelta(t, 200.0, before, 0.001)

	// Revenue is computed at the current price, not the price at
	// booking time.
	_, err = db.NewUpdate().
		Model((*models.Trip)(nil)).
		Set("price = ?", 150.0).
		Where("id = ?", "t1").
		Exec(ctx)
	assert.NoError(t, err)

	after, err := svc.Revenue(ctx, "t1")
	assert.NoError(t, err)
	assert.InDelta(t, 300.0, after, 0.001)
}

func TestTotalRevenue(t *testing.T) {
	db := setupTestDB(t)
	seedFixtures(t, db)
	svc := analytics.NewService(db)

	total, err := svc.TotalRevenue(context.Background())
	assert.NoError(t, err)
	// t1: 2 x 100, t2: 1 x 200. The cancelled t3 contributes nothing.
	assert.InDelta(t, 400.0, total, 0.001)
}

func TestRevenueBetween(t *testing.T) {
	db := setupTestDB(t)
	seedFixtures(t, db)
	svc := analytics.NewService(db)

	day1 := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	total, err := svc.RevenueBetween(context.Background(), day1, day1)
	assert.NoError(t, err)
	assert.InDelta(t, 200.0, total, 0.001) // only t1 runs on day1
}

func TestTopRoutes(t *testing.T) {
	db := setupTestDB(t)
	seedFixtures(t, db)
	svc := analytics.NewService(db)

	routes, err := svc.TopRoutes(context.Background(), 5)
	assert.NoError(t, err)
	assert.NotEmpty(t, routes)

	top := routes[0]
	assert.Equal(t, "Istanbul", top.Origin)
	assert.Equal(t, "Ankara", top.Destination)
	assert.Equal(t, 2, top.Trips)
	assert.Equal(t, 3, top.Reservations)
	assert.InDelta(t, 400.0, top.Revenue, 0.001)
}

func TestAverageOccupancy(t *testing.T) {
	db := setupTestDB(t)
	seedFixtures(t, db)
	svc := analytics.NewService(db)

	avg, err := svc.AverageOccupancy(context.Background())
	assert.NoError(t, err)
	assert.InDelta(t, 12.5, avg, 0.001) // (20 + 5) / 2
}

func TestOccupancyRatioEmptyTrip(t *testing.T) {
	db := setupTestDB(t)
	seedFixtures(t, db)
	svc := analytics.NewService(db)
	ctx := context.Background()

	trip := models.Trip{
		ID: "t4", Code: "DDDDDD", BusID: "bus1",
		Origin: "Bursa", Destination: "Istanbul",
		Date: time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC),
		DepartureTime: "09:00", ArrivalTime: "12:00",
		Price: 100, Status: models.TripStatusActive, CreatedAt: time.Now(),
	}
	_, err := db.NewInsert().Model(&trip).Exec(ctx)
	assert.NoError(t, err)

	ratio, err := svc.OccupancyRatio(ctx, "t4")
	assert.NoError(t, err)
	assert.Zero(t, ratio)
}
