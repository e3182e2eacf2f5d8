package domain

import (
	"context"
	"time"
)

// PricingRepository 定价与校准结果仓储接口
type PricingRepository interface {
	// WithTx 在同一个数据库事务内执行 fn，事务对象通过 context 传递
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	SaveResult(ctx context.Context, result *PricingResult) error
	GetLatestResult(ctx context.Context, symbol string) (*PricingResult, error)
	GetResultHistory(ctx context.Context, symbol string, limit int) ([]*PricingResult, error)

	SaveCalibration(ctx context.Context, result *CalibrationResult) error
	GetLatestCalibration(ctx context.Context, symbol string) (*CalibrationResult, error)

	// CleanupOldResults 删除早于保留期的定价结果，由后台清扫任务调用
	CleanupOldResults(ctx context.Context, retention time.Duration) error
}

// MarketDataStore 实时标的价格存取接口，由行情消费端写入、定价读取
type MarketDataStore interface {
	SetSpot(ctx context.Context, symbol string, price float64) error
	GetSpot(ctx context.Context, symbol string) (float64, error)
}
