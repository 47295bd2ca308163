package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/medly/medly-api/internal/config"
	adminHandler "github.com/medly/medly-api/internal/handler/admin"
	bookingHandler "github.com/medly/medly-api/internal/handler/booking"
	healthHandler "github.com/medly/medly-api/internal/handler/health"
	hospitalHandler "github.com/medly/medly-api/internal/handler/hospital"
	scheduleHandler "github.com/medly/medly-api/internal/handler/schedule"
	userHandler "github.com/medly/medly-api/internal/handler/user"
	"github.com/medly/medly-api/internal/middleware"
	"github.com/medly/medly-api/internal/repository/postgres"
	"github.com/medly/medly-api/internal/router"
	"github.com/medly/medly-api/internal/seed"
	bookingService "github.com/medly/medly-api/internal/service/booking"
	hospitalService "github.com/medly/medly-api/internal/service/hospital"
	scheduleService "github.com/medly/medly-api/internal/service/schedule"
	userService "github.com/medly/medly-api/internal/service/user"
	"github.com/medly/medly-api/pkg/logger"
	"github.com/medly/medly-api/pkg/messaging"
	redisbroker "github.com/medly/medly-api/pkg/messaging/redis"
	"github.com/medly/medly-api/pkg/metrics"
	"github.com/medly/medly-api/pkg/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})
	log.Logger = *appLogger.Zerolog()

	if err := validator.Register(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	db, err := postgres.NewDB(postgres.DBConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := postgres.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	m := metrics.NewMetrics("medly")

	var broker messaging.Broker = messaging.NopBroker{}
	if cfg.Redis.URL != "" {
		broker, err = redisbroker.NewRedisBroker(redisbroker.Config{URL: cfg.Redis.URL}, appLogger.Zerolog())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer broker.Close()
	}

	base := postgres.NewBaseRepository(db, m)
	hospitalRepo := postgres.NewHospitalRepository(base)
	doctorRepo := postgres.NewDoctorRepository(base)
	roomRepo := postgres.NewRoomRepository(base)
	userRepo := postgres.NewUserRepository(base)
	windowRepo := postgres.NewWindowRepository(base)
	appointmentRepo := postgres.NewAppointmentRepository(base)

	bookingSvc := bookingService.NewService(&base, appointmentRepo, windowRepo, doctorRepo, userRepo, hospitalRepo, broker, m)
	scheduleSvc := scheduleService.NewService(&base, hospitalRepo, doctorRepo, windowRepo, appointmentRepo)
	userSvc := userService.NewService(userRepo)
	hospitalSvc := hospitalService.NewService(hospitalRepo, roomRepo, userRepo, appointmentRepo)
	seeder := seed.NewSeeder(&base, hospitalRepo, doctorRepo, roomRepo)

	r := router.New(
		router.Config{
			Mode:      cfg.Server.Mode,
			RateLimit: rateLimit(cfg.RateLimit),
			RateBurst: cfg.RateLimit.Burst,
			CORS:      middleware.DefaultCORSConfig(),
		},
		m,
		healthHandler.NewHandler(db),
		bookingHandler.NewHandler(bookingSvc),
		scheduleHandler.NewHandler(scheduleSvc),
		userHandler.NewHandler(userSvc),
		hospitalHandler.NewHandler(hospitalSvc),
		adminHandler.NewHandler(db, cfg.Database.SanitizedDSN(), seeder, scheduleSvc, bookingSvc, cfg.Seed.Path),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}

func rateLimit(cfg config.RateLimitConfig) rate.Limit {
	if !cfg.Enabled {
		return 0
	}
	return rate.Limit(cfg.RequestsPerSecond)
}
