package testutils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vakulkumar/price-alert-system/pkg/models"
)

// MockClock advances instantly on Sleep so poll loops spin without
// real waiting.
type MockClock struct {
	Mu          sync.Mutex
	CurrentTime time.Time
	Slept       []time.Duration
}

func (c *MockClock) Now() time.Time {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	return c.CurrentTime
}

func (c *MockClock) Sleep(d time.Duration) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.CurrentTime = c.CurrentTime.Add(d)
	c.Slept = append(c.Slept, d)
}

// MockRand returns fixed values for deterministic price walks.
type MockRand struct {
	ValInt   int
	ValFloat float64
}

func (r *MockRand) Intn(n int) int   { return r.ValInt }
func (r *MockRand) Float64() float64 { return r.ValFloat }

// MockProvider serves a scripted batch of quotes, or an error.
type MockProvider struct {
	ProviderName string
	Quotes       []models.PriceQuote
	Err          error
	FetchCalls   int
}

func (p *MockProvider) Name() string { return p.ProviderName }

func (p *MockProvider) Symbols() []string {
	syms := make([]string, len(p.Quotes))
	for i, q := range p.Quotes {
		syms[i] = q.Symbol
	}
	return syms
}

func (p *MockProvider) FetchQuotes(ctx context.Context) ([]models.PriceQuote, error) {
	p.FetchCalls++
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Quotes, nil
}

// MockPublisher records everything published to it.
type MockPublisher struct {
	Mu         sync.Mutex
	Keys       []string
	Values     []interface{}
	ShouldFail bool
}

func (p *MockPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	p.Mu.Lock()
	defer p.Mu.Unlock()
	if p.ShouldFail {
		return errors.New("publish failed")
	}
	p.Keys = append(p.Keys, key)
	p.Values = append(p.Values, value)
	return nil
}

func (p *MockPublisher) Published() int {
	p.Mu.Lock()
	defer p.Mu.Unlock()
	return len(p.Keys)
}
