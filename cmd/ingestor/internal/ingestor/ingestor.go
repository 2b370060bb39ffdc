package ingestor

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vakulkumar/price-alert-system/cmd/ingestor/internal/provider"
	"github.com/vakulkumar/price-alert-system/pkg/transport"
)

// Publisher pushes one keyed event onto the price stream.
type Publisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

// Service polls every configured provider on a fixed interval and fans
// the quotes onto the price stream, keyed by symbol so each symbol's
// updates land on one partition in order.
type Service struct {
	providers []provider.Provider
	publisher Publisher
	clock     provider.Clock
	interval  time.Duration
	logger    *zap.Logger
}

func NewService(
	providers []provider.Provider,
	publisher Publisher,
	clock provider.Clock,
	interval time.Duration,
	logger *zap.Logger,
) *Service {
	return &Service{
		providers: providers,
		publisher: publisher,
		clock:     clock,
		interval:  interval,
		logger:    logger,
	}
}

// Run polls immediately, then on every interval tick until ctx is done.
func (s *Service) Run(ctx context.Context) {
	names := make([]string, len(s.providers))
	for i, p := range s.providers {
		names[i] = p.Name()
	}
	s.logger.Info("Ingestor started",
		zap.String("providers", strings.Join(names, ",")),
		zap.Duration("interval", s.interval))

	s.pollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			s.clock.Sleep(s.interval)
			if ctx.Err() != nil {
				return
			}
			s.pollOnce(ctx)
		}
	}
}

// pollOnce fetches from every provider. One provider failing never blocks
// the others; the next tick retries it.
func (s *Service) pollOnce(ctx context.Context) {
	for _, p := range s.providers {
		quotes, err := p.FetchQuotes(ctx)
		if err != nil {
			s.logger.Error("Provider fetch failed",
				zap.String("provider", p.Name()),
				zap.Error(err))
			continue
		}

		for _, quote := range quotes {
			if err := s.publisher.Publish(ctx, quote.Symbol, quote); err != nil {
				var te *transport.TransportError
				if errors.As(err, &te) {
					s.logger.Error("Quote dropped after publish retries exhausted",
						zap.String("symbol", quote.Symbol),
						zap.String("topic", te.Topic),
						zap.Error(err))
					continue
				}
				s.logger.Error("Failed to publish quote",
					zap.String("symbol", quote.Symbol),
					zap.Error(err))
			}
		}
	}
}
