package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/AnshRaj112/pashu-bazaar-backend/internal/config"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/database"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/handlers"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/logger"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/metrics"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/middleware"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/queue"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/repository"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/routes"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found")
	}
	cfg := config.Load()
	log := logger.SetupDefault(os.Stdout, cfg.Environment)

	if cfg.UsesDefaultSecret() {
		if cfg.IsProduction() {
			log.Error("JWT_SECRET must be set in production")
			os.Exit(1)
		}
		log.Warn("JWT_SECRET not set; signing tokens with the development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// MongoDB: an unreachable server is logged, not fatal. Requests fail with
	// 500 until the driver reconnects.
	log.Info("connecting to MongoDB", slog.String("uri", maskURI(cfg.MongoURI)), slog.String("db", cfg.MongoDB))
	mongoClient, db, err := database.Connect(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Error("MongoDB unavailable; continuing without it", slog.String("error", err.Error()))
	}
	if mongoClient == nil {
		log.Error("invalid MongoDB configuration")
		os.Exit(1)
	}
	defer func() { _ = database.Disconnect(mongoClient) }()

	// retried in the background until MongoDB answers; uniq_email guards registration
	go func() {
		ensure := func(ctx context.Context) error { return database.EnsureIndexes(ctx, db) }
		_ = database.EnsureIndexesUntilDone(ctx, ensure, database.IndexRetry{Initial: time.Second, Max: 30 * time.Second}, log)
	}()

	redisClient, err := database.ConnectRedis(cfg.RedisURI)
	if err != nil {
		log.Warn("Redis unavailable; cache, fan-out and shared rate limit disabled", slog.String("error", err.Error()))
		redisClient = nil
	}
	defer func() { _ = database.DisconnectRedis(redisClient) }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	users := repository.NewUserRepository(db)
	animals := repository.NewAnimalRepository(db)
	notificationsRepo := repository.NewNotificationRepository(db)

	authSvc := services.NewAuthService(users, services.AuthConfig{
		Secret:     cfg.JWTSecret,
		TokenTTL:   cfg.TokenTTL,
		BcryptCost: cfg.BcryptCost,
	})

	hub := services.NewNotificationHub(redisClient, log)
	go hub.Run(ctx)
	notificationSvc := services.NewNotificationService(notificationsRepo, hub, collector, log)

	events, closeEvents := listingEvents(ctx, cfg, notificationSvc, log)
	defer closeEvents()

	var cache services.ListingCache
	if redisClient != nil {
		cache = services.NewRedisListingCache(redisClient, cfg.ListingsCacheTTL, log)
	}
	listingSvc := services.NewListingService(animals, services.ListingOptions{
		Cache:       cache,
		Events:      events,
		Metrics:     collector,
		Logger:      log,
		RequireAuth: cfg.RequireAuthForListings,
	})

	mediaSvc := services.NewMediaService(mediaStore(cfg, log), services.MediaLimits{
		MaxFiles:     cfg.UploadMaxFiles,
		MaxFileBytes: cfg.UploadMaxFileBytes,
	}, collector, log)

	corsPolicy := middleware.NewCORSPolicy(cfg.AllowedOrigins, cfg.AllowedOriginSuffixes, cfg.CORSAllowCredentials, !cfg.IsProduction())
	limiters := middleware.DefaultLimiters()
	uploadLimits := middleware.DefaultUploadLimiters()
	for _, l := range []*middleware.IPRateLimiter{limiters.Global, limiters.Login, uploadLimits.Auth, uploadLimits.Anon} {
		go l.RunSweeper(ctx, 5*time.Minute)
	}

	var redisLimit *middleware.RedisRateLimit
	if redisClient != nil {
		redisLimit = &middleware.RedisRateLimit{
			Client:   redisClient,
			Window:   time.Minute,
			Max:      300,
			BlockFor: 10 * time.Minute,
		}
	}

	router := routes.NewRouter(routes.Handlers{
		Auth:          handlers.NewAuthHandler(authSvc),
		Animals:       handlers.NewAnimalHandler(listingSvc),
		Notifications: handlers.NewNotificationHandler(notificationSvc, hub, authSvc, corsPolicy, log),
		Upload:        handlers.NewUploadHandler(mediaSvc),
		Authenticator: authSvc,
		UploadLimits:  uploadLimits,
	}, routes.Options{
		Logger:         log,
		CORS:           corsPolicy,
		Production:     cfg.IsProduction(),
		AllowedHost:    cfg.AllowedHost,
		Limiters:       limiters,
		RedisRateLimit: redisLimit,
		Metrics:        collector,
		MetricsHandler: metrics.Handler(reg),

		// served even with Cloudinary so URLs issued before a switch keep working
		UploadDir: cfg.UploadDir,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("server listening",
			slog.String("addr", srv.Addr),
			slog.String("env", cfg.Environment),
			slog.Bool("require_auth_for_listings", cfg.RequireAuthForListings),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
}

// listingEvents wires listing.created through RabbitMQ when configured and
// straight into the notification service otherwise.
func listingEvents(ctx context.Context, cfg *config.Config, notifications *services.NotificationService, log *slog.Logger) (services.EventPublisher, func()) {
	inProcess := queue.NewInProcessPublisher(notifications.HandleListingCreated, log)
	if cfg.RabbitMQURL == "" {
		return inProcess, func() {}
	}

	pub, err := queue.NewAMQPPublisher(cfg.RabbitMQURL)
	if err != nil {
		log.Warn("RabbitMQ unavailable; handling listing events in-process", slog.String("error", err.Error()))
		return inProcess, func() {}
	}

	consumer := queue.NewConsumer(cfg.RabbitMQURL, notifications.HandleListingCreated, log)
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("listing consumer stopped", slog.String("error", err.Error()))
		}
	}()
	log.Info("listing events routed through RabbitMQ", slog.String("queue", queue.ListingCreatedQueue))
	return pub, func() { _ = pub.Close() }
}

func mediaStore(cfg *config.Config, log *slog.Logger) services.MediaStore {
	if cfg.MediaBackend == "cloudinary" {
		if !cfg.CloudinaryConfigured() {
			log.Warn("MEDIA_BACKEND=cloudinary but Cloudinary credentials are missing; storing uploads on disk")
		} else if store, err := services.NewCloudinaryStore(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder); err != nil {
			log.Warn("failed to initialize Cloudinary; storing uploads on disk", slog.String("error", err.Error()))
		} else {
			log.Info("media stored in Cloudinary", slog.String("folder", cfg.CloudinaryFolder))
			return store
		}
	}
	log.Info("media stored on disk", slog.String("dir", cfg.UploadDir))
	return services.NewDiskStore(cfg.UploadDir, "/uploads")
}

// maskURI hides the password of a mongodb:// URI for logging.
func maskURI(uri string) string {
	schemeEnd := strings.Index(uri, "://")
	at := strings.LastIndex(uri, "@")
	if schemeEnd == -1 || at == -1 || at < schemeEnd {
		return uri
	}
	creds := uri[schemeEnd+3 : at]
	if i := strings.Index(creds, ":"); i != -1 {
		return uri[:schemeEnd+3] + creds[:i] + ":***" + uri[at:]
	}
	return uri
}
