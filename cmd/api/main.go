package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"studiobooking/internal/config"
	"studiobooking/internal/database"
	"studiobooking/internal/middleware"
	"studiobooking/internal/modules/auth"
	"studiobooking/internal/modules/booking"
	"studiobooking/internal/modules/catalog"
	"studiobooking/internal/modules/notification"
	jwtsvc "studiobooking/internal/pkg/jwt"
	"studiobooking/internal/pkg/logger"
	"studiobooking/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.Init(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if config.IsProdLike(cfg.AppEnv) {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL, lg)
	if err != nil {
		lg.Fatal("db connect failed", zap.Error(err))
	}
	if err := repository.Migrate(db); err != nil {
		lg.Fatal("migration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := notification.NewHub(cfg.CORSAllowedOrigins)
	dispatcher := notification.NewDispatcher(
		repository.NewNotificationRepository(db),
		broadcaster(ctx, cfg, hub, lg),
		lg.Named("notify"),
		cfg.NotifyQueueSize,
	)
	dispatcher.Start(cfg.NotifyWorkers)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go pruneLoop(ctx, limiter)

	r := buildRouter(cfg, db, lg, hub, dispatcher, limiter)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("http server listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("http shutdown", zap.Error(err))
	}
	dispatcher.Close()
	hub.Close()
}

func buildRouter(
	cfg *config.Config,
	db *gorm.DB,
	lg *zap.Logger,
	hub *notification.Hub,
	notifier booking.Notifier,
	limiter *middleware.RateLimiter,
) *gin.Engine {
	jwt := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	dir := repository.NewDirectory(db)
	users := repository.NewUserRepository(db)

	authHandler := auth.NewHandler(auth.NewService(users, jwt, 0, lg.Named("auth")))

	catalogHandler := catalog.NewHandler(catalog.NewService(
		repository.NewStudioRepository(db),
		repository.NewRoomRepository(db),
		repository.NewEquipmentRepository(db),
		repository.NewStaffRepository(db),
		users,
		lg.Named("catalog"),
	))

	bookingHandler := booking.NewHandler(booking.NewService(
		repository.NewBookingRepository(db),
		dir,
		notifier,
		lg.Named("booking"),
	))

	notificationHandler := notification.NewHandler(
		notification.NewService(repository.NewNotificationRepository(db)),
		hub,
		jwt,
		lg.Named("ws"),
	)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.ErrorLogger(lg),
		middleware.RequestLogger(lg),
		middleware.Metrics(),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.Use(limiter.Middleware())
	{
		// public
		authHandler.RegisterPublicRoutes(v1)
		catalogHandler.RegisterRoutes(v1)
		bookingHandler.RegisterPublicRoutes(v1)
		notificationHandler.RegisterWSRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(jwt))
		{
			authHandler.RegisterProtectedRoutes(protected)
			catalogHandler.RegisterProtectedRoutes(protected, middleware.NewOwnershipChecker(dir))
			bookingHandler.RegisterRoutes(protected)
			notificationHandler.RegisterRoutes(protected)
		}
	}
	return r
}

// broadcaster picks redis fan-out when REDIS_ADDR is set and reachable,
// the in-process hub otherwise.
func broadcaster(ctx context.Context, cfg *config.Config, hub *notification.Hub, lg *zap.Logger) notification.Broadcaster {
	if cfg.RedisAddr == "" {
		return hub
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		lg.Warn("redis unavailable, falling back to local hub", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = client.Close()
		return hub
	}

	rb := notification.NewRedisBroadcaster(client, notification.DefaultChannel, hub, lg.Named("fanout"))
	go func() {
		defer client.Close()
		if err := rb.Run(ctx); err != nil {
			lg.Error("notification fan-out stopped", zap.Error(err))
		}
	}()
	return rb
}

func pruneLoop(ctx context.Context, limiter *middleware.RateLimiter) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			limiter.Prune(now)
		}
	}
}
