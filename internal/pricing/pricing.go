package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chainpilot/assistant-backend/internal/cache/redis"
)

const (
	// priceCacheKey is the Redis key for the cached native-asset quote.
	priceCacheKey = "assistant:pricing:native"
	// priceCacheTTL is the freshness window for quotes.
	priceCacheTTL = 5 * time.Minute
)

// Quote is a point-in-time fiat price for the native asset.
type Quote struct {
	Price     float64 `json:"price"`
	Change24h float64 `json:"change_24h"`
}

// Service resolves the native asset's USD price with a two-tier cache
// (in-memory then Redis) and multiple upstream sources. A stale quote is
// always preferred over an error.
type Service struct {
	redis      *redis.Client
	httpClient *http.Client
	logger     *logrus.Logger
	coinID     string // CoinGecko asset id, e.g. "ethereum"
	symbol     string // ticker symbol, e.g. "ETH"

	mu          sync.RWMutex
	cached      *Quote
	cacheExpiry time.Time
}

// NewService creates a pricing service for the given native asset.
func NewService(redisClient *redis.Client, logger *logrus.Logger, coinID, symbol string) *Service {
	return &Service{
		redis:  redisClient,
		logger: logger,
		coinID: coinID,
		symbol: symbol,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NativePrice returns the current native-asset quote, fetching from the
// upstream sources when both cache tiers are expired. The stale in-memory
// quote is served when every source fails.
func (s *Service) NativePrice(ctx context.Context) (*Quote, error) {
	s.mu.RLock()
	if s.cached != nil && time.Now().Before(s.cacheExpiry) {
		q := *s.cached
		s.mu.RUnlock()
		return &q, nil
	}
	s.mu.RUnlock()

	if s.redis != nil {
		cached, err := s.redis.Get(ctx, priceCacheKey)
		if err == nil && cached != "" {
			var q Quote
			if err := json.Unmarshal([]byte(cached), &q); err == nil {
				s.store(&q)
				return &q, nil
			}
		}
	}

	q, err := s.fetch(ctx)
	if err != nil {
		s.mu.RLock()
		stale := s.cached
		s.mu.RUnlock()
		if stale != nil {
			s.logger.WithError(err).Warn("price refresh failed, serving stale quote")
			out := *stale
			return &out, nil
		}
		return nil, err
	}

	s.store(q)
	if s.redis != nil {
		if data, err := json.Marshal(q); err == nil {
			if err := s.redis.Set(ctx, priceCacheKey, string(data), priceCacheTTL); err != nil {
				s.logger.WithError(err).Warn("failed to cache quote in Redis")
			}
		}
	}
	return q, nil
}

func (s *Service) store(q *Quote) {
	s.mu.Lock()
	s.cached = q
	s.cacheExpiry = time.Now().Add(priceCacheTTL)
	s.mu.Unlock()
}

// fetch tries each source in order and returns the first quote.
func (s *Service) fetch(ctx context.Context) (*Quote, error) {
	var errs []error
	for _, src := range []struct {
		name string
		fn   func(context.Context) (*Quote, error)
	}{
		{"coingecko", s.fetchCoinGecko},
		{"cryptocompare", s.fetchCryptoCompare},
	} {
		q, err := src.fn(ctx)
		if err == nil {
			return q, nil
		}
		s.logger.WithError(err).WithField("source", src.name).Warn("price source failed")
		errs = append(errs, fmt.Errorf("%s: %w", src.name, err))
	}
	return nil, errors.Join(errs...)
}

func (s *Service) fetchCoinGecko(ctx context.Context) (*Quote, error) {
	url := fmt.Sprintf("https://api.coingecko.com/api/v3/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true", s.coinID)

	body, err := s.getJSON(ctx, url)
	if err != nil {
		return nil, err
	}

	var parsed map[string]struct {
		USD       float64 `json:"usd"`
		USDChange float64 `json:"usd_24h_change"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	entry, ok := parsed[s.coinID]
	if !ok || entry.USD <= 0 {
		return nil, fmt.Errorf("no price for %s", s.coinID)
	}
	return &Quote{Price: entry.USD, Change24h: entry.USDChange}, nil
}

func (s *Service) fetchCryptoCompare(ctx context.Context) (*Quote, error) {
	url := fmt.Sprintf("https://min-api.cryptocompare.com/data/pricemultifull?fsyms=%s&tsyms=USD", s.symbol)

	body, err := s.getJSON(ctx, url)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Raw map[string]map[string]struct {
			Price       float64 `json:"PRICE"`
			ChangePct24 float64 `json:"CHANGEPCT24HOUR"`
		} `json:"RAW"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	entry, ok := parsed.Raw[s.symbol]["USD"]
	if !ok || entry.Price <= 0 {
		return nil, fmt.Errorf("no price for %s", s.symbol)
	}
	return &Quote{Price: entry.Price, Change24h: entry.ChangePct24}, nil
}

func (s *Service) getJSON(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
