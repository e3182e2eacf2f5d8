package redis

import (
	"context"
	"time"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/cache"
	"github.com/wyfcoding/optionpricing/pkg/logger"
)

const (
	latestResultKeyPrefix      = "pricing:result:latest:"
	latestCalibrationKeyPrefix = "pricing:calibration:latest:"
	readModelTTL               = 5 * time.Minute
)

// cachedPricingRepository 在 MySQL 仓储外套一层 redis 读模型。
// 写路径落库成功后回填缓存，读路径先查缓存再回源。
// 缓存故障只记日志，不影响主流程。
type cachedPricingRepository struct {
	inner domain.PricingRepository
	cache *cache.RedisCache
}

// NewCachedPricingRepository 创建带 redis 读模型的仓储装饰器
func NewCachedPricingRepository(inner domain.PricingRepository, c *cache.RedisCache) domain.PricingRepository {
	return &cachedPricingRepository{inner: inner, cache: c}
}

func (r *cachedPricingRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.inner.WithTx(ctx, fn)
}

func (r *cachedPricingRepository) SaveResult(ctx context.Context, res *domain.PricingResult) error {
	if err := r.inner.SaveResult(ctx, res); err != nil {
		return err
	}
	key := latestResultKeyPrefix + res.Symbol
	if err := r.cache.SetJSON(ctx, key, res, readModelTTL); err != nil {
		logger.Warn(ctx, "failed to refresh pricing result cache", "symbol", res.Symbol, "error", err)
	}
	return nil
}

func (r *cachedPricingRepository) GetLatestResult(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	key := latestResultKeyPrefix + symbol
	var cached domain.PricingResult
	if err := r.cache.GetJSON(ctx, key, &cached); err == nil && cached.Symbol == symbol {
		return &cached, nil
	}

	res, err := r.inner.GetLatestResult(ctx, symbol)
	if err != nil || res == nil {
		return res, err
	}
	if err := r.cache.SetJSON(ctx, key, res, readModelTTL); err != nil {
		logger.Warn(ctx, "failed to backfill pricing result cache", "symbol", symbol, "error", err)
	}
	return res, nil
}

func (r *cachedPricingRepository) GetResultHistory(ctx context.Context, symbol string, limit int) ([]*domain.PricingResult, error) {
	// 历史查询不走缓存，直接回源
	return r.inner.GetResultHistory(ctx, symbol, limit)
}

func (r *cachedPricingRepository) SaveCalibration(ctx context.Context, res *domain.CalibrationResult) error {
	if err := r.inner.SaveCalibration(ctx, res); err != nil {
		return err
	}
	key := latestCalibrationKeyPrefix + res.Symbol
	if err := r.cache.SetJSON(ctx, key, res, readModelTTL); err != nil {
		logger.Warn(ctx, "failed to refresh calibration cache", "symbol", res.Symbol, "error", err)
	}
	return nil
}

func (r *cachedPricingRepository) CleanupOldResults(ctx context.Context, retention time.Duration) error {
	return r.inner.CleanupOldResults(ctx, retention)
}

func (r *cachedPricingRepository) GetLatestCalibration(ctx context.Context, symbol string) (*domain.CalibrationResult, error) {
	key := latestCalibrationKeyPrefix + symbol
	var cached domain.CalibrationResult
	if err := r.cache.GetJSON(ctx, key, &cached); err == nil && cached.Symbol == symbol {
		return &cached, nil
	}

	res, err := r.inner.GetLatestCalibration(ctx, symbol)
	if err != nil || res == nil {
		return res, err
	}
	if err := r.cache.SetJSON(ctx, key, res, readModelTTL); err != nil {
		logger.Warn(ctx, "failed to backfill calibration cache", "symbol", symbol, "error", err)
	}
	return res, nil
}
