package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/ridedash/internal/api"
	"example.com/ridedash/internal/auth"
	"example.com/ridedash/internal/config"
	"example.com/ridedash/internal/domain"
	"example.com/ridedash/internal/ingest"
	"example.com/ridedash/internal/logging"
	"example.com/ridedash/internal/peloton"
	"example.com/ridedash/internal/store/dynamo"
	httptransport "example.com/ridedash/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := dynamo.NewClient(ctx, dynamo.ClientConfig{
		Region:          cfg.AWSRegion,
		Endpoint:        cfg.DynamoEndpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build dynamodb client")
	}
	scanner := dynamo.NewScanner(client, dynamo.Options{
		Timeout:          cfg.StoreTimeout,
		FailureThreshold: uint32(max(cfg.StoreBreakerTrips, 1)),
	})

	service := domain.NewService(scanner, domain.Config{
		Tables: domain.Tables{
			Rides:     cfg.RideTable,
			Courses:   cfg.CourseTable,
			MusicSets: cfg.MusicTable,
		},
		DefaultUserID: cfg.DefaultUserID,
		Location:      cfg.Location,
	})

	var publisher ingest.Publisher = ingest.LogPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = ingest.NewKafkaPublisher(cfg.KafkaBrokers, cfg.SyncTopic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("closing sync publisher")
		}
	}()

	handler := api.NewHandler(service, peloton.NewClient(cfg.PelotonBaseURL, cfg.HTTPTimeout), publisher, api.Options{
		Auth:         auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, TTL: cfg.SessionTTL},
		DashboardURL: cfg.DashboardURL,
	})

	server := httptransport.NewServer(
		httptransport.DefaultServerConfig(cfg.HTTPAddress),
		handler.Routes(api.RouterConfig{AllowedOrigins: cfg.CORSAllowedOrigins}),
	)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logging.Info().
			Str("address", cfg.HTTPAddress).
			Str("default_user_id", service.DefaultUserID()).
			Str("timezone", cfg.Location.String()).
			Bool("kafka", len(cfg.KafkaBrokers) > 0).
			Msg("ridedash listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
}
