package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"foyer-backend/config"
	"foyer-backend/controllers"
	"foyer-backend/metrics"
	"foyer-backend/routes"
	"foyer-backend/services"
	"foyer-backend/store"
	"foyer-backend/utils"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env not found or couldn't load it; continuing with environment variables")
	}

	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	logger := utils.NewLogger(settings.LogLevel, settings.LogFormat)

	// Entity store
	db, err := config.ConnectDatabase(settings, logger)
	if err != nil {
		logger.Fatalf("❌ Database connect failed: %v", err)
	}
	if settings.DBDriver == config.DriverMemory {
		logger.Warn("⚠️  Using an in-memory SQLite database; data is lost on restart")
	}
	var st store.Store = store.NewGormStore(db)
	logger.WithField("driver", settings.DBDriver).Info("✅ Database connection established and migrations applied")

	if settings.SeedDemoData {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := config.SeedDatabase(ctx, st, logger); err != nil {
			logger.Warnf("warning: %v", err)
		}
		cancel()
	}

	// Student and room locks: redis when shared between instances, in-process otherwise
	var locker services.Locker = services.NewLocalLocker()
	if settings.RedisURL != "" {
		client, err := config.ConnectRedis(settings.RedisURL)
		if err != nil {
			logger.Fatalf("❌ Redis connect failed: %v", err)
		}
		defer client.Close()
		locker = services.NewRedisLocker(client, logger)
		logger.Info("✅ Redis reservation locks enabled")
	}

	clock := services.SystemClock{}

	// Initialize services
	universityService := services.NewUniversityService(st, logger)
	foyerService := services.NewFoyerService(st, logger)
	blocService := services.NewBlocService(st, logger)
	roomService := services.NewRoomService(st, logger)
	studentService := services.NewStudentService(st, logger)
	availabilityService := services.NewAvailabilityService(st, clock, logger, settings.StoreTimeout)
	reservationService := services.NewReservationService(st, locker, clock, logger, services.ReservationOptions{
		StoreTimeout: settings.StoreTimeout,
		LockTimeout:  settings.LockTimeout,
		Collision:    settings.Collision,
	})

	// Background jobs
	cronManager := services.NewCronManager(logger)
	snapshot := &services.AvailabilitySnapshotJob{
		Availability: availabilityService,
		Publish:      metrics.SetAvailableRooms,
		Record:       metrics.RecordSnapshotRun,
		Log:          logger,
	}
	if err := cronManager.Register("availability_snapshot", settings.SnapshotSchedule, snapshot.Run); err != nil {
		logger.Fatalf("❌ %v", err)
	}
	cronManager.Start()

	// Build router
	router := routes.SetupRouter(routes.Controllers{
		University:   controllers.NewUniversityController(universityService, logger),
		Foyer:        controllers.NewFoyerController(foyerService, logger),
		Bloc:         controllers.NewBlocController(blocService, logger),
		Room:         controllers.NewRoomController(roomService, logger),
		Student:      controllers.NewStudentController(studentService, logger),
		Reservation:  controllers.NewReservationController(reservationService, logger),
		Availability: controllers.NewAvailabilityController(availabilityService, logger),
	}, settings.CorsOrigins, logger)

	addr := ":" + settings.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Infof("🚀 Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("❌ ListenAndServe(): %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with timeout
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("⚠️  Shutdown signal received, shutting down server...")

	cronManager.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	logger.Info("✅ Server stopped gracefully")
}
