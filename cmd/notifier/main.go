package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/nats-io/nats.go"

	"github.com/AbhishekX2004/LearnatoForum/internal/api"
	"github.com/AbhishekX2004/LearnatoForum/internal/config"
	"github.com/AbhishekX2004/LearnatoForum/internal/notifier"
	"github.com/AbhishekX2004/LearnatoForum/internal/repository"
	"github.com/AbhishekX2004/LearnatoForum/internal/tracing"
)

const serviceName = "forum-notifier"

func main() {
	cfg := config.Load()

	api.SetupGlobalHandler(serviceName, cfg.IsProduction())

	shutdownTracer, err := tracing.InitTracerProvider(serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}
	defer shutdownTracer(context.Background())

	if cfg.NATSURL == "" {
		log.Fatal("NATS_URL environment variable is not set")
	}

	client, err := notifier.NewAPNsClient(notifier.APNsOptions{
		AuthKeyPath: cfg.APNSAuthKeyPath,
		KeyID:       cfg.APNSKeyID,
		TeamID:      cfg.APNSTeamID,
		Production:  cfg.APNSProduction,
	})
	if err != nil {
		log.Fatalf("Failed to start notifier: %v", err)
	}
	var pusher notifier.Pusher
	if client != nil {
		pusher = client
	}

	db, err := sqlx.Connect("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Notifier connected to the database.")

	nc, err := nats.Connect(cfg.NATSURL, nats.Name(serviceName))
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer nc.Drain()

	worker := notifier.NewWorker(repository.NewPostgresDeviceTokenRepository(db), pusher, cfg.APNSTopic)
	if _, err := worker.Subscribe(nc); err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	log.Println("Notifier started, waiting for events...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down notifier...")
}
