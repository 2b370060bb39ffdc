package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gobwas/ws"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/vakulkumar/price-alert-system/cmd/gateway/internal/gateway"
	"github.com/vakulkumar/price-alert-system/cmd/gateway/internal/hub"
	"github.com/vakulkumar/price-alert-system/pkg/config"
	"github.com/vakulkumar/price-alert-system/pkg/models"
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

	wsHub := hub.NewHub(logger)

	// The gateway is its own consumer group on the price stream; it never
	// coordinates with the evaluator's group
	consumer := transport.NewConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.PriceEventsTopic,
		cfg.Kafka.GroupPrefix+"-gateway",
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		err := consumer.Run(ctx, func(ctx context.Context, msg kafka.Message) error {
			var quote models.PriceQuote
			if err := json.Unmarshal(msg.Value, &quote); err != nil {
				return fmt.Errorf("gateway: decode quote: %w", err)
			}
			wsHub.Broadcast(quote)
			return nil
		})
		if err != nil {
			logger.Error("Consumer stopped with error", zap.Error(err))
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			return
		}
		client := gateway.NewClient(conn, wsHub, logger)
		client.Start()
	})

	mux.HandleFunc("/prices", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"prices":    wsHub.Snapshot(),
			"timestamp": time.Now().UTC(),
		})
	})

	mux.HandleFunc("/prices/", func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.ToUpper(strings.TrimPrefix(r.URL.Path, "/prices/"))
		quote, ok := wsHub.Price(symbol)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]string{"symbol": symbol, "message": "Price not yet available"})
			return
		}
		writeJSON(w, quote)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"status":      "healthy",
			"subscribers": wsHub.SubscriberCount(),
			"timestamp":   time.Now().UTC(),
		})
	})

	srv := &http.Server{Addr: cfg.App.Port, Handler: mux}

	go func() {
		logger.Info("Gateway started", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("HTTP Error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("Shutdown signal received, stopping gateway...")

	cancel()
	<-done

	srv.Shutdown(context.Background())
	wsHub.Shutdown()

	if err := consumer.Close(); err != nil {
		logger.Error("Error closing consumer", zap.Error(err))
	}

	logger.Info("Gateway exited cleanly")
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
