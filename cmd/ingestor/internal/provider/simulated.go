package provider

import (
	"context"
	"sort"

	"github.com/vakulkumar/price-alert-system/pkg/models"
)

// SimulatedProvider drives the pipeline without any external feed. Each
// fetch walks every price by up to +/-1% of its base, so alerts near the
// base prices fire within a few ticks.
type SimulatedProvider struct {
	prices   map[string]float64
	previous map[string]float64
	symbols  []string
	rand     Rand
	clock    Clock
}

func NewSimulatedProvider(basePrices map[string]float64, rnd Rand, clock Clock) *SimulatedProvider {
	symbols := make([]string, 0, len(basePrices))
	prices := make(map[string]float64, len(basePrices))
	for sym, base := range basePrices {
		symbols = append(symbols, sym)
		prices[sym] = base
	}
	sort.Strings(symbols)

	return &SimulatedProvider{
		prices:   prices,
		previous: make(map[string]float64, len(basePrices)),
		symbols:  symbols,
		rand:     rnd,
		clock:    clock,
	}
}

func (p *SimulatedProvider) Name() string      { return "simulated" }
func (p *SimulatedProvider) Symbols() []string { return p.symbols }

func (p *SimulatedProvider) FetchQuotes(ctx context.Context) ([]models.PriceQuote, error) {
	now := p.clock.Now().UTC()

	quotes := make([]models.PriceQuote, 0, len(p.symbols))
	for _, sym := range p.symbols {
		current := p.prices[sym]
		step := (p.rand.Float64()*2 - 1) * current * 0.01
		next := current + step

		quote := models.PriceQuote{
			Symbol:    sym,
			Price:     next,
			Currency:  "USD",
			Source:    p.Name(),
			Timestamp: now,
		}
		if prev, ok := p.previous[sym]; ok {
			quote.PreviousPrice = &prev
		}

		p.previous[sym] = next
		p.prices[sym] = next
		quotes = append(quotes, quote)
	}

	return quotes, nil
}
