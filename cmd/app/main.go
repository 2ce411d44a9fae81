package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkochetov/ticketbooking/config"
	"github.com/dkochetov/ticketbooking/internal/bootstrap"
	"github.com/dkochetov/ticketbooking/internal/cache"
	"github.com/dkochetov/ticketbooking/internal/kafka"
	"github.com/dkochetov/ticketbooking/internal/repository"
	"github.com/dkochetov/ticketbooking/internal/service/auth"
	"github.com/dkochetov/ticketbooking/internal/service/booking"
	"github.com/dkochetov/ticketbooking/internal/service/events"
	"github.com/dkochetov/ticketbooking/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.EventsCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	userRepo := repository.NewUserRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool, cfg.Booking.LockTimeout())

	authService := auth.NewAuthService(userRepo, cfg.Auth)
	eventService := events.NewEventService(eventRepo, redisCache)
	bookingService := booking.NewBookingService(
		bookingRepo,
		userRepo,
		redisCache,
		producer,
		cfg.Kafka.BookingEventsTopic,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	if err := bootstrap.Run(ctx, cfg, authService, eventService, bookingService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
