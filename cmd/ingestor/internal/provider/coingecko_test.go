package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time        { return c.t }
func (c fixedClock) Sleep(d time.Duration) {}

func coinGeckoForTest(t *testing.T, handler http.HandlerFunc) (*CoinGeckoProvider, *httptest.Server) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewCoinGeckoProvider(fixedClock{t: time.Unix(1700000000, 0)})
	p.baseURL = srv.URL
	return p, srv
}

func TestCoinGecko_ParsesQuotes(t *testing.T) {
	p, _ := coinGeckoForTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("ids"), "bitcoin")
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		w.Write([]byte(`{"bitcoin":{"usd":50000.5},"ethereum":{"usd":3000.25}}`))
	})

	quotes, err := p.FetchQuotes(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	assert.Equal(t, "BTC", quotes[0].Symbol)
	assert.Equal(t, 50000.5, quotes[0].Price)
	assert.Nil(t, quotes[0].PreviousPrice)
	assert.Equal(t, "coingecko", quotes[0].Source)
	assert.Equal(t, "ETH", quotes[1].Symbol)
}

func TestCoinGecko_TracksPreviousAcrossFetches(t *testing.T) {
	prices := []string{
		`{"bitcoin":{"usd":50000}}`,
		`{"bitcoin":{"usd":51000}}`,
	}
	call := 0
	p, _ := coinGeckoForTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(prices[call]))
		call++
	})

	first, err := p.FetchQuotes(context.Background())
	require.NoError(t, err)
	assert.Nil(t, first[0].PreviousPrice)

	second, err := p.FetchQuotes(context.Background())
	require.NoError(t, err)
	require.NotNil(t, second[0].PreviousPrice)
	assert.Equal(t, 50000.0, *second[0].PreviousPrice)
	assert.Equal(t, 51000.0, second[0].Price)
}

func TestCoinGecko_UpstreamError(t *testing.T) {
	p, _ := coinGeckoForTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := p.FetchQuotes(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestCoinGecko_MissingCoinSkipped(t *testing.T) {
	p, _ := coinGeckoForTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bitcoin":{"usd":50000}}`))
	})

	quotes, err := p.FetchQuotes(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "BTC", quotes[0].Symbol)
}
