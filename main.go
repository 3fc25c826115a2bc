package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	redislib "github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-busline/internal/analytics"
	analytics_api "ms-busline/internal/analytics/api"
	"ms-busline/internal/config"
	"ms-busline/internal/database/migrations"
	"ms-busline/internal/fleet"
	fleetdb "ms-busline/internal/fleet/db"
	"ms-busline/internal/fleet/fleet_api"
	"ms-busline/internal/kafka"
	"ms-busline/internal/logger"
	"ms-busline/internal/reservation"
	reservationdb "ms-busline/internal/reservation/db"
	"ms-busline/internal/reservation/redis"
	"ms-busline/internal/reservation/reservation_api"
	"ms-busline/internal/trip"
	tripdb "ms-busline/internal/trip/db"
	tripredis "ms-busline/internal/trip/redis"
	"ms-busline/internal/trip/trip_api"
)

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redislib.Client) {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	log.Info("DATABASE", "PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redislib.NewClient(&redislib.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.LogProcess("STARTUP", "Starting Busline Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	log.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	if cfg.Migration.RunOnStart {
		runner := migrations.NewRunner(bunDB, migrations.Options{Dir: cfg.Migration.Dir})
		if err := runner.Up(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
		}
		log.LogDatabase("MIGRATE", "schema_migrations", "all pending migrations applied")
	}

	var producer *kafka.Producer
	var tripPublisher trip.Publisher
	var reservationPublisher reservation.Publisher
	if cfg.Kafka.Enabled {
		log.Info("KAFKA", fmt.Sprintf("Using Kafka brokers: %v", cfg.Kafka.Brokers))
		producer = kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()

		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, kafka.RequiredTopics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}
		tripPublisher = producer
		reservationPublisher = producer
	} else {
		log.Warn("KAFKA", "Kafka disabled, events will not be published")
	}

	tripStore := &tripdb.DB{Bun: bunDB}
	reservationStore := &reservationdb.DB{Bun: bunDB}
	fleetStore := &fleetdb.DB{Bun: bunDB}

	fleetService := fleet.NewService(fleetStore, tripStore, log)
	reservationService := reservation.NewService(
		reservationStore,
		redis.NewRedis(redisClient, cfg.Redis.SeatLockTTL),
		tripStore,
		fleetService,
		reservationPublisher,
		log,
	)
	tripService := trip.NewService(
		tripStore,
		fleetService,
		tripredis.NewRedis(redisClient, 0),
		reservationService,
		tripPublisher,
		log,
	)
	analyticsService := analytics.NewService(bunDB)

	fleetHandler := &fleet_api.Handler{FleetService: fleetService, Logger: log}
	tripHandler := &trip_api.Handler{TripService: tripService, Logger: log}
	reservationHandler := &reservation_api.Handler{ReservationService: reservationService, Logger: log}
	analyticsHandler := analytics_api.NewHandler(analyticsService, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))

	r.Route("/api/buses", func(r chi.Router) {
		r.Get("/", fleetHandler.ListBuses)
		r.Post("/", fleetHandler.CreateBus)
		r.Get("/{busId}", fleetHandler.GetBus)
		r.Put("/{busId}", fleetHandler.UpdateBus)
		r.Delete("/{busId}", fleetHandler.DeleteBus)
	})
	log.Info("ROUTER", "Bus routes registered under /api/buses")

	r.Route("/api/drivers", func(r chi.Router) {
		r.Get("/", fleetHandler.ListDrivers)
		r.Post("/", fleetHandler.CreateDriver)
		r.Get("/available", fleetHandler.ListAvailableDrivers)
		r.Get("/{driverId}", fleetHandler.GetDriver)
		r.Put("/{driverId}", fleetHandler.UpdateDriver)
		r.Put("/{driverId}/bus", fleetHandler.AssignDriver)
		r.Delete("/{driverId}", fleetHandler.DeleteDriver)
	})
	log.Info("ROUTER", "Driver routes registered under /api/drivers")

	analyticsHandler.RegisterRoutes(r)
	log.Info("ROUTER", "Analytics routes registered under /api/trips/stats")

	r.Route("/api/trips", func(r chi.Router) {
		r.Get("/", tripHandler.ListTrips)
		r.Post("/", tripHandler.CreateTrip)
		r.Post("/import", tripHandler.ImportTrips)
		r.Post("/bulk-update-price", tripHandler.BulkUpdatePrices)
		r.Get("/{tripId}", tripHandler.GetTrip)
		r.Put("/{tripId}", tripHandler.UpdateTrip)
		r.Put("/{tripId}/drivers", tripHandler.UpdateTripDrivers)
		r.Delete("/{tripId}", tripHandler.DeleteTrip)
		r.Get("/{tripId}/seats", reservationHandler.OccupiedSeats)
	})
	log.Info("ROUTER", "Trip routes registered under /api/trips")

	r.Route("/api/reservations", func(r chi.Router) {
		r.Get("/", reservationHandler.ListReservations)
		r.Post("/", reservationHandler.CreateReservation)
		r.Get("/{reservationId}", reservationHandler.GetReservation)
		r.Put("/{reservationId}", reservationHandler.UpdateReservation)
		r.Delete("/{reservationId}", reservationHandler.CancelReservation)
	})
	log.Info("ROUTER", "Reservation routes registered under /api/reservations")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Busline Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.LogProcess("STARTUP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.LogProcess("SHUTDOWN", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Busline Service shutdown complete")
	}
}
