package provider

import (
	"context"
	"math/rand"
	"time"

	"github.com/vakulkumar/price-alert-system/pkg/models"
)

// Provider is one upstream source of market quotes. A provider owns its
// own previous-price bookkeeping: quotes it returns carry the prior value
// it handed out for the same symbol, or none on the first observation.
type Provider interface {
	Name() string
	Symbols() []string
	FetchQuotes(ctx context.Context) ([]models.PriceQuote, error)
}

// for deterministic testing
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// for deterministic values
type Rand interface {
	Intn(n int) int
	Float64() float64
}

type RealClock struct{}

func (RealClock) Now() time.Time        { return time.Now() }
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }

type RealRand struct{ *rand.Rand }

func (r RealRand) Intn(n int) int   { return r.Rand.Intn(n) }
func (r RealRand) Float64() float64 { return r.Rand.Float64() }
