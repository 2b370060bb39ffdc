package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/vakulkumar/price-alert-system/pkg/models"
)

const defaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// coinIDs maps the symbols we quote to CoinGecko's coin identifiers.
var coinIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"DOGE": "dogecoin",
	"ADA":  "cardano",
}

// CoinGeckoProvider polls the public simple/price endpoint. No API key is
// required at the free tier; the poll interval keeps us well under its
// rate limits.
type CoinGeckoProvider struct {
	baseURL  string
	client   *http.Client
	symbols  []string
	previous map[string]float64
	clock    Clock
}

func NewCoinGeckoProvider(clock Clock) *CoinGeckoProvider {
	symbols := make([]string, 0, len(coinIDs))
	for sym := range coinIDs {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	return &CoinGeckoProvider{
		baseURL:  defaultCoinGeckoURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		symbols:  symbols,
		previous: make(map[string]float64, len(coinIDs)),
		clock:    clock,
	}
}

func (p *CoinGeckoProvider) Name() string      { return "coingecko" }
func (p *CoinGeckoProvider) Symbols() []string { return p.symbols }

func (p *CoinGeckoProvider) FetchQuotes(ctx context.Context) ([]models.PriceQuote, error) {
	ids := make([]string, 0, len(p.symbols))
	for _, sym := range p.symbols {
		ids = append(ids, coinIDs[sym])
	}

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd",
		p.baseURL, strings.Join(ids, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("coingecko: build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coingecko: fetch prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko: unexpected status %d", resp.StatusCode)
	}

	var body map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("coingecko: decode response: %w", err)
	}

	now := p.clock.Now().UTC()

	quotes := make([]models.PriceQuote, 0, len(p.symbols))
	for _, sym := range p.symbols {
		entry, ok := body[coinIDs[sym]]
		if !ok {
			// Missing coins are skipped; the rest of the batch still flows
			continue
		}

		quote := models.PriceQuote{
			Symbol:    sym,
			Price:     entry.USD,
			Currency:  "USD",
			Source:    p.Name(),
			Timestamp: now,
		}
		if prev, ok := p.previous[sym]; ok {
			quote.PreviousPrice = &prev
		}

		p.previous[sym] = entry.USD
		quotes = append(quotes, quote)
	}

	return quotes, nil
}
