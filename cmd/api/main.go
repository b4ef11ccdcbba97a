package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/civicflow/api/internal/auth"
	"github.com/civicflow/api/internal/building"
	"github.com/civicflow/api/internal/complaint"
	"github.com/civicflow/api/internal/config"
	"github.com/civicflow/api/internal/db"
	apihttp "github.com/civicflow/api/internal/http"
	"github.com/civicflow/api/internal/identity"
	"github.com/civicflow/api/internal/occupancy"
	"github.com/civicflow/api/internal/rooms"
	"github.com/civicflow/api/internal/service"
	"github.com/civicflow/api/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api terminated")
	}
}

func run() error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_PRETTY") == "true" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	var uploader storage.Uploader = storage.NoopUploader{}
	if cfg.Storage.Endpoint != "" {
		s3, err := storage.NewS3Uploader(storage.S3Config{
			Endpoint:     cfg.Storage.Endpoint,
			Region:       cfg.Storage.Region,
			Bucket:       cfg.Storage.Bucket,
			AccessKey:    cfg.Storage.AccessKey,
			SecretKey:    cfg.Storage.SecretKey,
			PublicDomain: cfg.Storage.PublicDomain,
		})
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		uploader = s3
	}

	occupancyRepo := occupancy.NewRepository(pool)
	buildingRepo := building.NewRepository(pool)
	identityRepo := identity.NewRepository(pool)
	complaintRepo := complaint.NewRepository(pool)

	buildingSvc := building.NewService(buildingRepo, occupancyRepo)
	identitySvc := identity.NewService(identityRepo, occupancyRepo, buildingSvc)
	complaintSvc := complaint.NewService(complaintRepo, identitySvc, buildingSvc)
	allocator := rooms.NewAllocator(buildingSvc, occupancyRepo)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	authSvc := service.NewAuthService(identityRepo, redisClient, jwtManager, cfg.JWTRefreshTTL)

	router := apihttp.NewRouter(cfg, apihttp.RouterDeps{
		Auth:       authSvc,
		AuthH:      apihttp.NewAuthHandler(authSvc, identitySvc),
		Buildings:  apihttp.NewBuildingHandler(buildingSvc, allocator),
		Admin:      apihttp.NewAdminHandler(identitySvc, buildingSvc, complaintSvc),
		Complaints: complaint.NewHandler(complaintSvc, uploader),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
