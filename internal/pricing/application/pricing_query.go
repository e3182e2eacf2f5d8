package application

import (
	"context"
	"errors"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

// PricingQueryService 处理所有定价相关的查询操作（Queries）。
type PricingQueryService struct {
	repo       domain.PricingRepository
	marketData domain.MarketDataStore
}

// NewPricingQueryService 构造函数。marketData 可为 nil，
// 此时查询方必须显式给出标的价格。
func NewPricingQueryService(repo domain.PricingRepository, marketData domain.MarketDataStore) *PricingQueryService {
	return &PricingQueryService{
		repo:       repo,
		marketData: marketData,
	}
}

// GetGreeks 用闭式解计算希腊字母。已到期合约返回全零。
// 查询未给出标的价格时回退到行情存储中的最新价。
func (q *PricingQueryService) GetGreeks(ctx context.Context, query GreeksQuery) (*domain.ValuationResult, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if query.TimeToExpiry <= 0 {
		return &domain.ValuationResult{}, nil
	}

	spot := query.Spot
	if spot <= 0 {
		if q.marketData == nil {
			return nil, errors.New("spot is required")
		}
		var err error
		spot, err = q.marketData.GetSpot(ctx, query.Symbol)
		if err != nil {
			return nil, err
		}
	}

	spec := toContractSpec(query.Type, string(domain.StyleEuropean),
		spot, query.Strike, query.TimeToExpiry, query.RiskFreeRate, query.DividendYield, query.Volatility)
	return domain.NewClosedFormEngine().Price(spec)
}

// GetLatestResult 获取最新定价结果
func (q *PricingQueryService) GetLatestResult(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	return q.repo.GetLatestResult(ctx, symbol)
}

// GetResultHistory 获取定价结果历史，按计算时间倒序
func (q *PricingQueryService) GetResultHistory(ctx context.Context, symbol string, limit int) ([]*domain.PricingResult, error) {
	if limit <= 0 {
		limit = 50
	}
	return q.repo.GetResultHistory(ctx, symbol, limit)
}

// GetLatestCalibration 获取最新校准结果
func (q *PricingQueryService) GetLatestCalibration(ctx context.Context, symbol string) (*domain.CalibrationResult, error) {
	return q.repo.GetLatestCalibration(ctx, symbol)
}
