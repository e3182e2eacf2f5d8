package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/cache"
)

const (
	spotKeyPrefix = "pricing:spot:"
	spotTTL       = 10 * time.Minute
)

type marketDataStore struct {
	cache *cache.RedisCache
}

// NewMarketDataStore 创建基于 Redis 的行情存储。
// 标的最新价带过期时间，行情中断后过期价不再用于定价。
func NewMarketDataStore(c *cache.RedisCache) domain.MarketDataStore {
	return &marketDataStore{cache: c}
}

func (s *marketDataStore) SetSpot(ctx context.Context, symbol string, price float64) error {
	return s.cache.Set(ctx, spotKeyPrefix+symbol, strconv.FormatFloat(price, 'g', -1, 64), spotTTL)
}

func (s *marketDataStore) GetSpot(ctx context.Context, symbol string) (float64, error) {
	val, err := s.cache.Get(ctx, spotKeyPrefix+symbol)
	if err != nil {
		return 0, err
	}
	if val == "" {
		return 0, fmt.Errorf("no spot price for symbol %s", symbol)
	}
	price, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt spot price for symbol %s: %w", symbol, err)
	}
	return price, nil
}
