package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/AbhishekX2004/LearnatoForum/internal/api"
	"github.com/AbhishekX2004/LearnatoForum/internal/config"
	"github.com/AbhishekX2004/LearnatoForum/internal/events"
	"github.com/AbhishekX2004/LearnatoForum/internal/jwt"
	"github.com/AbhishekX2004/LearnatoForum/internal/oauth"
	"github.com/AbhishekX2004/LearnatoForum/internal/repository"
	"github.com/AbhishekX2004/LearnatoForum/internal/repository/memory"
	"github.com/AbhishekX2004/LearnatoForum/internal/s3"
	"github.com/AbhishekX2004/LearnatoForum/internal/search"
	"github.com/AbhishekX2004/LearnatoForum/internal/service"
	"github.com/AbhishekX2004/LearnatoForum/internal/session"
	"github.com/AbhishekX2004/LearnatoForum/internal/tracing"
	_ "github.com/AbhishekX2004/LearnatoForum/migrations"
)

const serviceName = "forum-api"

type stores struct {
	users   repository.UserRepository
	posts   repository.PostRepository
	replies repository.ReplyRepository
	tokens  repository.DeviceTokenRepository
}

func main() {
	cfg := config.Load()

	api.SetupGlobalHandler(serviceName, cfg.IsProduction())

	shutdownTracer, err := tracing.InitTracerProvider(serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}()

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		handleMigrations(cfg.DatabaseURL)
		return
	}

	st, closeStore := openStores(cfg)
	defer closeStore()

	publisher := events.EventPublisher(events.NopPublisher{})
	if cfg.NATSURL != "" {
		natsPublisher, nc, err := events.NewNatsPublisher(cfg.NATSURL)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer nc.Drain()
		publisher = natsPublisher
		log.Println("Successfully connected to NATS.")
	} else {
		log.Println("NATS_URL not set, events are not published.")
	}

	var revoker session.RevocationStore
	if cfg.RedisURL != "" {
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to configure Redis: %v", err)
		}
		defer redisStore.Close()
		if err := redisStore.Ping(context.Background()); err != nil {
			log.Printf("WARNING: Redis is not reachable yet: %v", err)
		}
		revoker = redisStore
	}

	var meili *search.Meili
	if cfg.MeiliURL != "" {
		meili = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meili.Close()
	}
	searchService := search.NewService(meili, st.posts)
	if meili != nil {
		go func() {
			if err := searchService.Reindex(context.Background()); err != nil {
				log.Printf("WARNING: initial search reindex failed: %v", err)
			}
		}()
	}

	presigner, err := s3.NewFilePresigner(context.Background(), s3.Options{
		Endpoint:     cfg.S3Endpoint,
		Region:       cfg.AWSRegion,
		BucketName:   cfg.S3BucketName,
		AccessKey:    cfg.AWSAccessKey,
		SecretKey:    cfg.AWSSecretKey,
		UsePathStyle: cfg.S3UsePathStyle,
	})
	if errors.Is(err, s3.ErrNotConfigured) {
		log.Println("S3 bucket not configured, avatar uploads are disabled.")
	} else if err != nil {
		log.Fatalf("Failed to configure S3: %v", err)
	}

	provider := oauth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)
	tokens := jwt.NewManager(cfg.JWTSecret)

	authService := service.NewAuthService(st.users, provider, tokens, revoker)
	postService := service.NewPostService(st.posts, st.replies, st.users, publisher, searchService)
	feedService := service.NewFeedService(st.posts, st.users, searchService)
	userService := service.NewUserService(st.users, st.tokens, presigner)

	app := api.NewApp(api.AppOptions{
		ServiceName:         serviceName,
		CORSOrigin:          cfg.CORSOrigin,
		RateLimitMax:        cfg.RateLimitMax,
		RateLimitExpiration: cfg.RateLimitExpiration,
	})
	api.SetupRoutes(app, authService, api.Handlers{
		Auth:   api.NewAuthHandler(authService, cfg.FrontendURL, cfg.IsProduction()),
		Posts:  api.NewPostHandler(postService, feedService),
		Search: api.NewSearchHandler(feedService),
		Users:  api.NewUserHandler(userService, feedService),
	})

	go func() {
		log.Printf("Listening %s on port %s", serviceName, cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}

// openStores connects the configured backend. A postgres connection failure
// is fatal.
func openStores(cfg config.Config) (stores, func()) {
	if cfg.Storage == "memory" {
		log.Println("Using in-memory storage; data is lost on restart.")
		mem := memory.New()
		return stores{
			users:   mem.Users(),
			posts:   mem.Posts(),
			replies: mem.Replies(),
			tokens:  mem.DeviceTokens(),
		}, func() {}
	}

	db, err := sqlx.Connect("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Successfully connected to the database.")

	return stores{
		users:   repository.NewPostgresUserRepository(db),
		posts:   repository.NewPostgresPostRepository(db),
		replies: repository.NewPostgresReplyRepository(db),
		tokens:  repository.NewPostgresDeviceTokenRepository(db),
	}, func() { db.Close() }
}

func handleMigrations(dbURL string) {
	fmt.Println("Running database migrations...")

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("failed to connect to database for migration: %v", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("failed to set goose dialect: %v", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		log.Fatalf("goose: failed to run migrations: %v", err)
	}

	fmt.Println("Migrations applied successfully!")
}
