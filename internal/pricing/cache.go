package pricing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"exchange-ledger/pkg/cache"

	"github.com/redis/go-redis/v9"
)

// QuoteCache 报价缓存。由调度器实例持有，不走全局状态。
type QuoteCache interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, bool, error)
	PutQuote(ctx context.Context, symbol string, quote *Quote, ttl time.Duration) error
}

type redisQuoteCache struct {
	prefix string
}

// NewRedisQuoteCache 创建Redis报价缓存
func NewRedisQuoteCache() QuoteCache {
	return &redisQuoteCache{prefix: "price"}
}

func (c *redisQuoteCache) key(symbol string) string {
	return fmt.Sprintf("%s:%s", c.prefix, strings.ToUpper(symbol))
}

// GetQuote 读取报价，未命中返回(nil, false, nil)
func (c *redisQuoteCache) GetQuote(ctx context.Context, symbol string) (*Quote, bool, error) {
	var q Quote
	if err := cache.Get(ctx, c.key(symbol), &q); err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &q, true, nil
}

// PutQuote 写入报价
func (c *redisQuoteCache) PutQuote(ctx context.Context, symbol string, quote *Quote, ttl time.Duration) error {
	return cache.Set(ctx, c.key(symbol), quote, ttl)
}

type memoryEntry struct {
	quote  *Quote
	expiry time.Time
}

type memoryQuoteCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryQuoteCache 创建进程内报价缓存，无Redis环境下使用
func NewMemoryQuoteCache() QuoteCache {
	return &memoryQuoteCache{entries: make(map[string]memoryEntry)}
}

func (c *memoryQuoteCache) GetQuote(_ context.Context, symbol string) (*Quote, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[strings.ToUpper(symbol)]
	if !ok || time.Now().After(e.expiry) {
		return nil, false, nil
	}
	return e.quote, true, nil
}

func (c *memoryQuoteCache) PutQuote(_ context.Context, symbol string, quote *Quote, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[strings.ToUpper(symbol)] = memoryEntry{quote: quote, expiry: time.Now().Add(ttl)}
	return nil
}
