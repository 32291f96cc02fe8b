package pricing

import (
	"context"
	"sync"
	"time"

	"exchange-ledger/internal/notification"
	"exchange-ledger/internal/token"
	"exchange-ledger/pkg/config"
	"exchange-ledger/pkg/logger"

	"github.com/shopspring/decimal"
)

// Scheduler 价格刷新调度器接口
type Scheduler interface {
	// RefreshAll 刷新全部活跃币种价格。单个币种失败不会中断整轮，
	// 拉取失败的币种保留旧价格。
	RefreshAll(ctx context.Context) (*RefreshReport, error)
}

// RefreshReport 单轮刷新结果统计
type RefreshReport struct {
	Total     int      `json:"total"`
	Refreshed int      `json:"refreshed"`
	Failed    int      `json:"failed"`
	FailedSym []string `json:"failed_symbols,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Elapsed   string    `json:"elapsed"`
}

type scheduler struct {
	tokenRepo token.Repository
	provider  Provider
	cache     QuoteCache
	notifier  notification.Notifier
	cfg       config.PricingConfig
}

// NewScheduler 创建价格刷新调度器
func NewScheduler(
	tokenRepo token.Repository,
	provider Provider,
	quoteCache QuoteCache,
	notifier notification.Notifier,
	cfg config.PricingConfig,
) Scheduler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 3
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	return &scheduler{
		tokenRepo: tokenRepo,
		provider:  provider,
		cache:     quoteCache,
		notifier:  notifier,
		cfg:       cfg,
	}
}

// RefreshAll 刷新全部活跃币种
func (s *scheduler) RefreshAll(ctx context.Context) (*RefreshReport, error) {
	start := time.Now()

	tokens, err := s.tokenRepo.ListActiveByStaleness()
	if err != nil {
		return nil, err
	}

	report := &RefreshReport{Total: len(tokens), StartedAt: start}
	if len(tokens) == 0 {
		report.Elapsed = time.Since(start).String()
		return report, nil
	}

	logger.Infof("Price refresh started: %d active tokens, batch size %d", len(tokens), s.cfg.BatchSize)

	var mu sync.Mutex
	for i := 0; i < len(tokens); i += s.cfg.BatchSize {
		end := i + s.cfg.BatchSize
		if end > len(tokens) {
			end = len(tokens)
		}

		// 批内并发，批间串行加延迟，避免触发上游限流
		var wg sync.WaitGroup
		for _, t := range tokens[i:end] {
			wg.Add(1)
			go func(t *token.Token) {
				defer wg.Done()
				if err := s.refreshOne(ctx, t); err != nil {
					logger.Errorf("Price refresh failed for %s, keeping last known price: %v", t.Symbol, err)
					mu.Lock()
					report.Failed++
					report.FailedSym = append(report.FailedSym, t.Symbol)
					mu.Unlock()
					return
				}
				mu.Lock()
				report.Refreshed++
				mu.Unlock()
			}(t)
		}
		wg.Wait()

		if end < len(tokens) && s.cfg.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				report.Elapsed = time.Since(start).String()
				return report, ctx.Err()
			case <-time.After(s.cfg.BatchDelay):
			}
		}
	}

	report.Elapsed = time.Since(start).String()
	logger.Infof("Price refresh finished: %d/%d refreshed, %d failed, took %s",
		report.Refreshed, report.Total, report.Failed, report.Elapsed)

	if report.Failed > 0 && s.notifier != nil {
		if nerr := s.notifier.Notify(notification.EventPriceRefreshFailed, map[string]interface{}{
			"failed_count":   report.Failed,
			"failed_symbols": report.FailedSym,
			"total":          report.Total,
		}); nerr != nil {
			logger.Errorf("Failed to enqueue price refresh notification: %v", nerr)
		}
	}

	return report, nil
}

// refreshOne 刷新单个币种。拉取失败时不写库，旧价格原样保留。
func (s *scheduler) refreshOne(ctx context.Context, t *token.Token) error {
	quote, err := s.fetchWithRetry(ctx, t.BaseSymbol)
	if err != nil {
		return err
	}

	now := time.Now()
	current := quote.Price

	prevPrice, perr := decimal.NewFromString(t.CurrentPrice)
	if perr != nil {
		prevPrice = decimal.Zero
	}
	price24h, perr := decimal.NewFromString(t.Price24h)
	if perr != nil {
		price24h = decimal.Zero
	}

	// 24小时锚点只在超过24h或尚未建立时滚动，
	// 窗口内反复刷新不改变price24h
	if t.LastPriceUpdate == nil || now.Sub(*t.LastPriceUpdate) > 24*time.Hour || price24h.IsZero() {
		if prevPrice.IsPositive() {
			price24h = prevPrice
		} else {
			price24h = current
		}
	}

	changePercent := decimal.Zero
	if price24h.IsPositive() {
		changePercent = current.Sub(price24h).Div(price24h).Mul(decimal.NewFromInt(100))
	}

	if err := s.tokenRepo.UpdatePriceFields(
		t.ID,
		current.String(),
		price24h.String(),
		changePercent.String(),
		quote.Volume24h.String(),
		quote.MarketCap.String(),
		now,
	); err != nil {
		return err
	}

	if err := s.tokenRepo.AppendPricePoint(&token.PricePoint{
		TokenID:   t.ID,
		Price:     current.String(),
		Timestamp: now,
	}); err != nil {
		logger.Errorf("Failed to append price point for %s: %v", t.Symbol, err)
	}

	if s.cache != nil {
		if err := s.cache.PutQuote(ctx, t.Symbol, quote, s.cfg.CacheTTL); err != nil {
			logger.Errorf("Failed to cache quote for %s: %v", t.Symbol, err)
		}
	}

	return nil
}

// fetchWithRetry 有界重试，指数退避，零价视为无效结果
func (s *scheduler) fetchWithRetry(ctx context.Context, symbol string) (*Quote, error) {
	var lastErr error
	delay := s.cfg.RetryBaseDelay

	for attempt := 1; attempt <= s.cfg.RetryAttempts; attempt++ {
		quote, err := s.provider.FetchPrice(ctx, symbol, s.cfg.QuoteCurrency)
		if err == nil && quote != nil && quote.Price.IsPositive() {
			return quote, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = ErrQuoteUnavailable
		}

		if attempt < s.cfg.RetryAttempts {
			logger.Warnf("Price fetch attempt %d/%d failed for %s: %v, retrying in %s",
				attempt, s.cfg.RetryAttempts, symbol, lastErr, delay)
			if delay > 0 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(delay):
				}
			}
			delay *= 2
		}
	}

	return nil, lastErr
}
