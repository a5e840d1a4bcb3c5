package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kmalyshev/flybooking/config"
	"github.com/kmalyshev/flybooking/internal/bootstrap"
	"github.com/kmalyshev/flybooking/internal/cache"
	"github.com/kmalyshev/flybooking/internal/kafka"
	"github.com/kmalyshev/flybooking/internal/repository"
	"github.com/kmalyshev/flybooking/internal/service/checkin"
	"github.com/kmalyshev/flybooking/internal/service/flights"
	"github.com/kmalyshev/flybooking/internal/service/orders"
	"github.com/kmalyshev/flybooking/internal/service/reschedule"
	"github.com/kmalyshev/flybooking/pkg/logger"
)

const publishRetries = 3

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.New(logger.Config{}).Fatal("load config", "error", err)
	}

	log := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "flybooking-app",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal("connect postgres", "error", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	publisher := kafka.NewRetryPublisher(producer, publishRetries)

	flightRepo := repository.NewFlightRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)

	flightService := flights.NewFlightService(flightRepo, redisCache)
	orderService := orders.NewOrderService(
		orderRepo,
		ticketRepo,
		flightRepo,
		publisher,
		cfg.Kafka.TicketEventsTopic,
		time.Duration(cfg.Booking.PayDeadlineMinutes)*time.Minute,
		orders.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	checkinService := checkin.NewCheckinService(
		ticketRepo,
		flightRepo,
		redisCache,
		publisher,
		cfg.Kafka.TicketEventsTopic,
		time.Duration(cfg.Checkin.OpensBeforeHours)*time.Hour,
		time.Duration(cfg.Checkin.ClosesBeforeMinutes)*time.Minute,
		time.Duration(cfg.Checkin.SeatLockSeconds)*time.Second,
		checkin.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	rescheduleService := reschedule.NewRescheduleService(
		ticketRepo,
		orderRepo,
		flightRepo,
		redisCache,
		publisher,
		cfg.Kafka.TicketEventsTopic,
		reschedule.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	if err := bootstrap.Run(ctx, cfg, log, flightService, orderService, checkinService, rescheduleService); err != nil {
		log.Fatal("server error", "error", err)
	}
}
