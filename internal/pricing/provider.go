package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"exchange-ledger/pkg/config"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

var (
	ErrQuoteUnavailable = errors.New("quote unavailable")
	ErrInvalidSymbol    = errors.New("invalid symbol")
)

// Quote 单个币种的实时报价
type Quote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Volume24h decimal.Decimal `json:"volume_24h"`
	MarketCap decimal.Decimal `json:"market_cap"`
	Timestamp time.Time       `json:"timestamp"`
}

// Provider 价格数据源接口
type Provider interface {
	FetchPrice(ctx context.Context, symbol, quoteCurrency string) (*Quote, error)
}

// coinIDs 常用币种到CoinGecko ID的映射，未命中时退回小写symbol
var coinIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"USDT":  "tether",
	"USDC":  "usd-coin",
	"BNB":   "binancecoin",
	"SOL":   "solana",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"TRX":   "tron",
	"DOT":   "polkadot",
	"MATIC": "matic-network",
	"LTC":   "litecoin",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
}

type httpProvider struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewHTTPProvider 创建基于CoinGecko风格API的价格数据源
func NewHTTPProvider(cfg config.PricingConfig) Provider {
	perMin := cfg.RateLimitPerMin
	if perMin <= 0 {
		perMin = 50
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &httpProvider{
		baseURL: strings.TrimRight(cfg.ProviderURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), 1),
	}
}

type simplePriceEntry struct {
	USD          float64 `json:"usd"`
	USD24hVol    float64 `json:"usd_24h_vol"`
	USDMarketCap float64 `json:"usd_market_cap"`
}

// FetchPrice 拉取单个币种报价
func (p *httpProvider) FetchPrice(ctx context.Context, symbol, quoteCurrency string) (*Quote, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	if symbol == "" {
		return nil, ErrInvalidSymbol
	}
	coinID := symbolToCoinID(symbol)
	if quoteCurrency == "" {
		quoteCurrency = "usd"
	}

	endpoint := fmt.Sprintf(
		"%s/simple/price?ids=%s&vs_currencies=%s&include_24hr_vol=true&include_market_cap=true",
		p.baseURL, coinID, quoteCurrency,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price provider returned status %d: %w", resp.StatusCode, ErrQuoteUnavailable)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed map[string]simplePriceEntry
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse price response: %w", err)
	}

	entry, ok := parsed[coinID]
	if !ok {
		return nil, fmt.Errorf("no price data for %s: %w", symbol, ErrQuoteUnavailable)
	}

	return &Quote{
		Symbol:    strings.ToUpper(symbol),
		Price:     decimal.NewFromFloat(entry.USD),
		Volume24h: decimal.NewFromFloat(entry.USD24hVol),
		MarketCap: decimal.NewFromFloat(entry.USDMarketCap),
		Timestamp: time.Now(),
	}, nil
}

func symbolToCoinID(symbol string) string {
	if id, ok := coinIDs[strings.ToUpper(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}
