package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kmalyshev/flybooking/config"
	"github.com/kmalyshev/flybooking/internal/cache"
	"github.com/kmalyshev/flybooking/internal/email"
	"github.com/kmalyshev/flybooking/internal/kafka"
	"github.com/kmalyshev/flybooking/internal/repository"
	"github.com/kmalyshev/flybooking/internal/service/flights"
	"github.com/kmalyshev/flybooking/internal/service/orders"
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
		Service: "flybooking-worker",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal("connect postgres", "error", err)
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	publisher := kafka.NewRetryPublisher(producer, publishRetries)
	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)

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

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	emailSender := email.NewSender()

	go func() {
		if err := consumer.Consume(ctx, emailSender.Send); err != nil {
			log.Error("consumer stopped", "error", err)
		}
	}()

	expireTicker := time.NewTicker(time.Duration(cfg.Worker.ExpirationSweepMinutes) * time.Minute)
	defer expireTicker.Stop()

	flightTicker := time.NewTicker(time.Duration(cfg.Worker.FlightSweepMinutes) * time.Minute)
	defer flightTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-expireTicker.C:
			expired, err := orderService.ExpirePendingOrders(ctx)
			if err != nil {
				log.Error("expire orders", "error", err)
				continue
			}
			if len(expired) > 0 {
				log.Info("expired pending orders", "count", len(expired))
			}
		case <-flightTicker.C:
			res, err := flightService.SweepStatuses(ctx, time.Now())
			if err != nil {
				log.Error("sweep flight statuses", "error", err)
				continue
			}
			if res.Departed+res.Full+res.Restored > 0 {
				log.Info("flight status sweep",
					"departed", res.Departed,
					"full", res.Full,
					"restored", res.Restored,
				)
			}
		case s := <-sig:
			log.Info("shutting down", "signal", s.String())
			return
		}
	}
}
