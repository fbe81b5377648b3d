package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reflectio/config"
	"reflectio/database"
	adminapi "reflectio/internal/api/admin"
	authapi "reflectio/internal/api/auth"
	"reflectio/internal/api/billing"
	connectionsapi "reflectio/internal/api/connections"
	"reflectio/internal/api/plans"
	postsapi "reflectio/internal/api/posts"
	stripewebhooks "reflectio/internal/api/stripewebhook"
	"reflectio/internal/api/users"
	routes "reflectio/internal/app/http"
	"reflectio/internal/domain/entitlement"
	"reflectio/internal/events"
	"reflectio/internal/infra/classifier"
	"reflectio/internal/infra/kafka"
	"reflectio/internal/infra/postgres"
	redisinfra "reflectio/internal/infra/redis"
	stripeinfra "reflectio/internal/infra/stripe"
	"reflectio/internal/service/connection"
	"reflectio/internal/service/expiration"
	"reflectio/internal/service/moderation"
	"reflectio/internal/service/permission"
	"reflectio/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	config.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(config.DB_URL)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	pg := postgres.NewStore(db)

	var profiles store.ProfileStore = pg
	var locker expiration.Locker
	if config.REDIS_ADDR != "" {
		rdb, err := redisinfra.NewClient(config.REDIS_ADDR, config.REDIS_PASSWORD, config.REDIS_DB)
		if err != nil {
			log.Warn("redis unavailable, running without profile cache", "error", err)
		} else {
			defer rdb.Close()
			profiles = redisinfra.NewProfileCache(pg, rdb, config.PROFILE_CACHE_TTL, log)
			host, _ := os.Hostname()
			locker = redisinfra.NewLocker(rdb, host)
		}
	}

	var publisher events.Publisher = events.LogPublisher{Log: log}
	if len(config.KAFKA_BROKERS) > 0 {
		producer, err := kafka.NewProducer(kafka.Config{Brokers: config.KAFKA_BROKERS, Topic: config.KAFKA_TOPIC})
		if err != nil {
			log.Error("kafka producer init failed", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		publisher = producer
	}

	permissions := permission.NewService(profiles, pg, permission.Options{
		Resolver:     entitlement.Resolver{ExpiringSoonDays: config.EXPIRING_SOON_DAYS},
		TrustedLevel: config.TRUSTED_LEVEL_THRESHOLD,
		Events:       publisher,
		Log:          log,
	})
	connections := connection.NewService(profiles, pg, connection.NewManager(permissions, log), publisher, log)
	moderator := moderation.NewService(
		permissions,
		classifier.NewOpenAI(nil, config.MODERATION_API_URL, config.MODERATION_API_KEY, config.MODERATION_MODEL),
		publisher,
		moderation.Config{TrustedLevel: config.TRUSTED_LEVEL_THRESHOLD, LogDecisions: config.MODERATION_LOG_DECISIONS},
		log,
	)
	sweeper := expiration.NewSweeper(profiles, publisher, locker, config.SWEEP_INTERVAL, log)
	go sweeper.Run(ctx)

	stripeClient := stripeinfra.NewClient(config.STRIPE_SECRET_KEY)

	handlers := routes.Handlers{
		Auth: authapi.NewHandler(profiles, authapi.Options{
			JWTSecret:        config.JWT_SECRET,
			Google:           authapi.GoogleOAuthConfig(config.GOOGLE_CLIENT_ID, config.GOOGLE_CLIENT_SECRET, config.GOOGLE_REDIRECT_URL),
			FrontendRedirect: config.GOOGLE_FRONTEND_REDIRECT,
			Log:              log,
		}),
		Users:       users.NewHandler(profiles, permissions, log),
		Posts:       postsapi.NewHandler(pg, permissions, moderator, log),
		Connections: connectionsapi.NewHandler(connections, log),
		Billing:     billing.NewHandler(profiles, pg, stripeClient, config.APP_URL, log),
		Webhook:     stripewebhooks.NewHandler(profiles, stripeClient, config.STRIPE_WEBHOOK_SECRET, log),
		Plans:       plans.NewHandler(pg, stripeClient, config.STRIPE_PREMIUM_PRODUCT_ID, log),
		Admin:       adminapi.NewHandler(profiles, permissions, sweeper, log),
	}

	// gin.SetMode(gin.ReleaseMode) uncomment only in production
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.CORS_ORIGIN},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, handlers, config.JWT_SECRET)

	srv := &http.Server{
		Addr:              ":" + config.PORT,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
}
