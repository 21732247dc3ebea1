package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"studiobooking/internal/config"
	"studiobooking/internal/database"
	"studiobooking/internal/domain"
	"studiobooking/internal/modules/booking"
	"studiobooking/internal/modules/notification"
	"studiobooking/internal/pkg/logger"
	"studiobooking/internal/repository"
)

// inboxOnly keeps notifications in the in-app store when there is no
// fan-out channel; the sweeper holds no websockets of its own.
type inboxOnly struct{}

func (inboxOnly) Publish(context.Context, *domain.Notification) error { return nil }

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.Init(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL, lg)
	if err != nil {
		lg.Fatal("db connect failed", zap.Error(err))
	}
	if err := repository.Migrate(db); err != nil {
		lg.Fatal("migration failed", zap.Error(err))
	}

	var bc notification.Broadcaster = inboxOnly{}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		// API instances subscribed to the channel push to connected users.
		bc = notification.NewRedisBroadcaster(client, notification.DefaultChannel, nil, lg.Named("fanout"))
	}

	dispatcher := notification.NewDispatcher(repository.NewNotificationRepository(db), bc, lg.Named("notify"), cfg.NotifyQueueSize)
	dispatcher.Start(cfg.NotifyWorkers)
	defer dispatcher.Close()

	svc := booking.NewService(
		repository.NewBookingRepository(db),
		repository.NewDirectory(db),
		dispatcher,
		lg.Named("booking"),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inbox := notification.NewService(repository.NewNotificationRepository(db))

	sweep := func(now time.Time) {
		n, err := svc.CompleteFinished(ctx, now)
		if err != nil {
			lg.Error("sweep failed", zap.Int("completed", n), zap.Error(err))
		} else {
			lg.Info("sweep completed", zap.Int("completed", n))
		}

		purged, err := inbox.PurgeRead(ctx, now, cfg.NotifyRetention)
		if err != nil {
			lg.Error("notification purge failed", zap.Error(err))
			return
		}
		if purged > 0 {
			lg.Info("old notifications purged", zap.Int64("deleted", purged))
		}
	}

	sweep(time.Now())
	if *once {
		return
	}

	t := time.NewTicker(cfg.SweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			lg.Info("sweeper stopping")
			return
		case now := <-t.C:
			sweep(now)
		}
	}
}
