package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/vakulkumar/price-alert-system/cmd/ingestor/internal/ingestor"
	"github.com/vakulkumar/price-alert-system/cmd/ingestor/internal/provider"
	"github.com/vakulkumar/price-alert-system/pkg/config"
	"github.com/vakulkumar/price-alert-system/pkg/transport"
)

// simulatedBasePrices seeds the test feed with symbols spanning crypto,
// commodities and equities.
var simulatedBasePrices = map[string]float64{
	"BTC":  50000.0,
	"ETH":  3000.0,
	"GOLD": 1950.0,
	"AAPL": 180.0,
	"TSLA": 250.0,
}

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

	// The ingestor sits at the head of the pipeline, so it bootstraps both
	// topics before any service consumes them
	tc := transport.NewTopicCreator(logger, &transport.RealKafkaDialer{Dialer: kafka.DefaultDialer}, transport.RealClock{})
	tc.Create(cfg.Kafka.Brokers, cfg.Kafka.PriceEventsTopic, 4)
	tc.Create(cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic, 4)

	producer := transport.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.PriceEventsTopic, logger)

	clock := provider.RealClock{}
	var providers []provider.Provider
	switch cfg.Ingestor.Mode {
	case "live":
		providers = append(providers, provider.NewCoinGeckoProvider(clock))
	default:
		rnd := provider.RealRand{Rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
		providers = append(providers, provider.NewSimulatedProvider(simulatedBasePrices, rnd, clock))
	}

	svc := ingestor.NewService(
		providers,
		producer,
		clock,
		time.Duration(cfg.Ingestor.IntervalSeconds)*time.Second,
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		svc.Run(ctx)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("Shutdown signal received, stopping ingestor...")

	cancel()
	<-done

	if err := producer.Close(); err != nil {
		logger.Error("Error closing producer", zap.Error(err))
	}

	logger.Info("Ingestor exited cleanly")
}
