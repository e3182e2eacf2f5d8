package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/contextx"
)

type pricingRepository struct {
	db *gorm.DB
}

// NewPricingRepository 创建并返回一个新的 pricingRepository 实例。
func NewPricingRepository(db *gorm.DB) domain.PricingRepository {
	return &pricingRepository{db: db}
}

// WithTx 在单个数据库事务内执行 fn，事务对象放入 context 向下传递
func (r *pricingRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		txCtx := contextx.WithTx(ctx, tx)
		return fn(txCtx)
	})
}

func (r *pricingRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}

// --- PricingResult ---

func (r *pricingRepository) SaveResult(ctx context.Context, res *domain.PricingResult) error {
	model := toPricingResultModel(res)
	if model == nil {
		return nil
	}
	db := r.getDB(ctx).WithContext(ctx)
	if model.ID == 0 {
		if err := db.Create(model).Error; err != nil {
			return err
		}
		res.ID = model.ID
		res.CreatedAt = model.CreatedAt
		res.UpdatedAt = model.UpdatedAt
		return nil
	}
	return db.Model(&PricingResultModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"symbol":        model.Symbol,
			"option_price":  model.OptionPrice,
			"delta":         model.Delta,
			"gamma":         model.Gamma,
			"theta":         model.Theta,
			"vega":          model.Vega,
			"rho":           model.Rho,
			"pricing_model": model.PricingModel,
			"lattice_steps": model.LatticeSteps,
			"calculated_at": model.CalculatedAt,
			"updated_at":    time.Now(),
		}).Error
}

func (r *pricingRepository) GetLatestResult(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	var m PricingResultModel
	if err := r.getDB(ctx).WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("calculated_at desc").
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toPricingResult(&m), nil
}

func (r *pricingRepository) GetResultHistory(ctx context.Context, symbol string, limit int) ([]*domain.PricingResult, error) {
	var models []PricingResultModel
	if err := r.getDB(ctx).WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("calculated_at desc").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]*domain.PricingResult, len(models))
	for i := range models {
		res[i] = toPricingResult(&models[i])
	}
	return res, nil
}

// --- CalibrationResult ---

func (r *pricingRepository) SaveCalibration(ctx context.Context, res *domain.CalibrationResult) error {
	model := toCalibrationResultModel(res)
	if model == nil {
		return nil
	}
	db := r.getDB(ctx).WithContext(ctx)
	if err := db.Create(model).Error; err != nil {
		return err
	}
	res.ID = model.ID
	res.CreatedAt = model.CreatedAt
	res.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *pricingRepository) GetLatestCalibration(ctx context.Context, symbol string) (*domain.CalibrationResult, error) {
	var m CalibrationResultModel
	if err := r.getDB(ctx).WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("calculated_at desc").
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toCalibrationResult(&m), nil
}

// CleanupOldResults 删除早于保留期的定价结果
func (r *pricingRepository) CleanupOldResults(ctx context.Context, retention time.Duration) error {
	cutoff := time.Now().Add(-retention)
	return r.getDB(ctx).WithContext(ctx).Where("created_at < ?", cutoff).Delete(&PricingResultModel{}).Error
}
