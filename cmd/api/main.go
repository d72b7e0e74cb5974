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

	"github.com/openclinic/ehr-api/internal/config"
	"github.com/openclinic/ehr-api/internal/email"
	allergyHandler "github.com/openclinic/ehr-api/internal/handler/allergy"
	appointmentHandler "github.com/openclinic/ehr-api/internal/handler/appointment"
	authHandler "github.com/openclinic/ehr-api/internal/handler/auth"
	doctorHandler "github.com/openclinic/ehr-api/internal/handler/doctor"
	healthHandler "github.com/openclinic/ehr-api/internal/handler/health"
	patientHandler "github.com/openclinic/ehr-api/internal/handler/patient"
	radiologyHandler "github.com/openclinic/ehr-api/internal/handler/radiology"
	recordHandler "github.com/openclinic/ehr-api/internal/handler/record"
	"github.com/openclinic/ehr-api/internal/middleware"
	"github.com/openclinic/ehr-api/internal/repository/postgres"
	"github.com/openclinic/ehr-api/internal/router"
	"github.com/openclinic/ehr-api/internal/service/access"
	allergyService "github.com/openclinic/ehr-api/internal/service/allergy"
	appointmentService "github.com/openclinic/ehr-api/internal/service/appointment"
	authService "github.com/openclinic/ehr-api/internal/service/auth"
	doctorService "github.com/openclinic/ehr-api/internal/service/doctor"
	patientService "github.com/openclinic/ehr-api/internal/service/patient"
	radiologyService "github.com/openclinic/ehr-api/internal/service/radiology"
	recordService "github.com/openclinic/ehr-api/internal/service/record"
	"github.com/openclinic/ehr-api/internal/storage"
	"github.com/openclinic/ehr-api/pkg/logger"
	"github.com/openclinic/ehr-api/pkg/metrics"
	"github.com/openclinic/ehr-api/pkg/security"
	"github.com/openclinic/ehr-api/pkg/token"
)

func main() {
	logger.Setup()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	fileStore, err := storage.NewLocalStore(cfg.Upload.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize file storage")
	}

	// Repositories
	doctorRepo := postgres.NewDoctorRepository(db)
	specialtyRepo := postgres.NewSpecialtyRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	labResultRepo := postgres.NewLabResultRepository(db)
	historyRepo := postgres.NewMedicalHistoryRepository(db)
	allergyRepo := postgres.NewAllergyRepository(db)
	radiologyRepo := postgres.NewRadiologyRepository(db)

	// Shared infrastructure
	hasher := security.NewBcryptHasher(0)
	tokens := token.NewService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	mailer := email.NewSMTPService(cfg.SMTP)
	guard := access.NewGuard(patientRepo)
	m := metrics.NewMetrics("ehr")
	postgres.SetMetrics(m)

	// Services
	authSvc := authService.NewService(doctorRepo, hasher, tokens, mailer, cfg.Server.BaseURL)
	doctorSvc := doctorService.NewService(doctorRepo, specialtyRepo)
	patientSvc := patientService.NewService(patientRepo, guard, fileStore)
	appointmentSvc := appointmentService.NewService(appointmentRepo, guard)
	recordSvc := recordService.NewService(labResultRepo, historyRepo, allergyRepo, guard)
	radiologySvc := radiologyService.NewService(radiologyRepo, guard, fileStore)
	allergySvc := allergyService.NewService(allergyRepo, historyRepo)

	// HTTP layer
	authMw := middleware.NewAuthMiddleware(tokens)
	r := router.NewRouter(
		authMw,
		healthHandler.NewHandler(db),
		authHandler.NewHandler(authSvc),
		doctorHandler.NewHandler(doctorSvc),
		patientHandler.NewHandler(patientSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		recordHandler.NewHandler(recordSvc),
		radiologyHandler.NewHandler(radiologySvc, m),
		allergyHandler.NewHandler(allergySvc),
		m,
		router.Config{
			RateLimitRPS:     cfg.RateLimit.RequestsPerSecond,
			RateLimitBurst:   cfg.RateLimit.Burst,
			CORSAllowOrigins: cfg.CORS.AllowOrigins,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
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
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
