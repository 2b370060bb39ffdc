package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vakulkumar/price-alert-system/cmd/evaluator/internal/matcher"
	"github.com/vakulkumar/price-alert-system/cmd/evaluator/internal/store"
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

	// Acquisition order: redis, store, producer, consumer.
	// Shutdown releases them in reverse.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	st, err := store.NewPostgresStore(cfg.Postgres.DSN, cfg.Postgres.MaxOpenConns)
	if err != nil {
		logger.Fatal("Failed to connect to Postgres", zap.Error(err))
	}

	producer := transport.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic, logger)
	consumer := transport.NewConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.PriceEventsTopic,
		cfg.Kafka.GroupPrefix+"-evaluator",
		logger,
	)

	cacheTTL := time.Duration(cfg.Redis.AlertCacheTTL) * time.Second
	m := matcher.New(rdb, st, producer, logger, cacheTTL)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		if err := consumer.Run(ctx, m.HandlePriceQuote); err != nil {
			logger.Error("Consumer stopped with error", zap.Error(err))
		}
	}()

	// Admin surface: the CRUD API calls this when alerts change so the
	// cached views don't serve stale definitions for a full TTL
	mux := http.NewServeMux()
	mux.HandleFunc("/cache/invalidate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			m.InvalidateAll(r.Context())
		} else {
			m.Invalidate(r.Context(), symbol)
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok"}`)
	})

	srv := &http.Server{Addr: cfg.App.Port, Handler: mux}
	go func() {
		logger.Info("Evaluator started", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("HTTP Error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("Shutdown signal received, stopping evaluator...")

	// Stop consuming, let the in-flight handler finish
	cancel()
	<-done

	srv.Shutdown(context.Background())

	if err := consumer.Close(); err != nil {
		logger.Error("Error closing consumer", zap.Error(err))
	}
	if err := producer.Close(); err != nil {
		logger.Error("Error closing producer", zap.Error(err))
	}
	st.Close()
	rdb.Close()

	logger.Info("Evaluator exited cleanly")
}
