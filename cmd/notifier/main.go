package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vakulkumar/price-alert-system/cmd/notifier/internal/channels"
	"github.com/vakulkumar/price-alert-system/cmd/notifier/internal/dispatcher"
	"github.com/vakulkumar/price-alert-system/pkg/config"
	"github.com/vakulkumar/price-alert-system/pkg/transport"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := config.NewLogger(cfg.App)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	telegram, err := channels.NewTelegramSender(cfg.Telegram, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Telegram sender", zap.Error(err))
	}
	senders := []channels.Sender{
		channels.NewEmailSender(cfg.SMTP, logger),
		channels.NewSMSSender(cfg.Twilio, logger),
		telegram,
	}

	limiter := dispatcher.NewRateLimiter(
		rdb,
		time.Duration(cfg.Redis.RateLimitWindow)*time.Second,
		int64(cfg.Redis.RateLimitMax),
		logger,
	)
	d := dispatcher.New(limiter, senders, logger)

	consumer := transport.NewConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.NotificationsTopic,
		cfg.Kafka.GroupPrefix+"-notifier",
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		logger.Info("Notifier started")
		if err := consumer.Run(ctx, d.HandleIntent); err != nil {
			logger.Error("Consumer stopped with error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("Shutdown signal received, stopping notifier...")

	cancel()
	<-done

	if err := consumer.Close(); err != nil {
		logger.Error("Error closing consumer", zap.Error(err))
	}
	rdb.Close()

	logger.Info("Notifier exited cleanly")
}
