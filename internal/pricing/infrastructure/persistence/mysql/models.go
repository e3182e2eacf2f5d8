package mysql

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

// PricingResultModel 定价结果数据库模型
type PricingResultModel struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
	Symbol        string    `gorm:"column:symbol;type:varchar(32);index;not null"`
	OptionType    string    `gorm:"column:option_type;type:varchar(8);not null"`
	ExerciseStyle string    `gorm:"column:exercise_style;type:varchar(16);not null"`
	Spot          string    `gorm:"column:spot;type:decimal(32,18);not null"`
	Strike        string    `gorm:"column:strike;type:decimal(32,18);not null"`
	TimeToExpiry  string    `gorm:"column:time_to_expiry;type:decimal(32,18);not null"`
	RiskFreeRate  string    `gorm:"column:risk_free_rate;type:decimal(32,18)"`
	DividendYield string    `gorm:"column:dividend_yield;type:decimal(32,18)"`
	Volatility    string    `gorm:"column:volatility;type:decimal(32,18)"`
	OptionPrice   string    `gorm:"column:option_price;type:decimal(32,18);not null"`
	Delta         string    `gorm:"column:delta;type:decimal(32,18)"`
	Gamma         string    `gorm:"column:gamma;type:decimal(32,18)"`
	Theta         string    `gorm:"column:theta;type:decimal(32,18)"`
	Vega          string    `gorm:"column:vega;type:decimal(32,18)"`
	Rho           string    `gorm:"column:rho;type:decimal(32,18)"`
	PricingModel  string    `gorm:"column:pricing_model;type:varchar(32);index"`
	LatticeSteps  int       `gorm:"column:lattice_steps;type:int"`
	CalculatedAt  int64     `gorm:"column:calculated_at;type:bigint;index;not null"`
}

func (PricingResultModel) TableName() string { return "pricing_results" }

// CalibrationResultModel 校准结果数据库模型
type CalibrationResultModel struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
	Symbol       string    `gorm:"column:symbol;type:varchar(32);index;not null"`
	Parameter    string    `gorm:"column:parameter;type:varchar(32);not null"`
	TargetPrice  string    `gorm:"column:target_price;type:decimal(32,18);not null"`
	SolvedValue  string    `gorm:"column:solved_value;type:decimal(32,18);not null"`
	Residual     string    `gorm:"column:residual;type:decimal(32,18)"`
	Iterations   int       `gorm:"column:iterations;type:int"`
	Converged    bool      `gorm:"column:converged"`
	PricingModel string    `gorm:"column:pricing_model;type:varchar(32)"`
	CalculatedAt int64     `gorm:"column:calculated_at;type:bigint;index;not null"`
}

func (CalibrationResultModel) TableName() string { return "calibration_results" }

// mapping helpers

func toPricingResultModel(res *domain.PricingResult) *PricingResultModel {
	if res == nil {
		return nil
	}
	return &PricingResultModel{
		ID:            res.ID,
		CreatedAt:     res.CreatedAt,
		UpdatedAt:     res.UpdatedAt,
		Symbol:        res.Symbol,
		OptionType:    string(res.Type),
		ExerciseStyle: string(res.Style),
		Spot:          res.Spot.String(),
		Strike:        res.Strike.String(),
		TimeToExpiry:  res.TimeToExpiry.String(),
		RiskFreeRate:  res.RiskFreeRate.String(),
		DividendYield: res.DividendYield.String(),
		Volatility:    res.Volatility.String(),
		OptionPrice:   res.OptionPrice.String(),
		Delta:         res.Delta.String(),
		Gamma:         res.Gamma.String(),
		Theta:         res.Theta.String(),
		Vega:          res.Vega.String(),
		Rho:           res.Rho.String(),
		PricingModel:  res.PricingModel,
		LatticeSteps:  res.LatticeSteps,
		CalculatedAt:  res.CalculatedAt,
	}
}

func toPricingResult(m *PricingResultModel) *domain.PricingResult {
	if m == nil {
		return nil
	}
	spot, _ := decimal.NewFromString(m.Spot)
	strike, _ := decimal.NewFromString(m.Strike)
	tte, _ := decimal.NewFromString(m.TimeToExpiry)
	rate, _ := decimal.NewFromString(m.RiskFreeRate)
	div, _ := decimal.NewFromString(m.DividendYield)
	vol, _ := decimal.NewFromString(m.Volatility)
	price, _ := decimal.NewFromString(m.OptionPrice)
	delta, _ := decimal.NewFromString(m.Delta)
	gamma, _ := decimal.NewFromString(m.Gamma)
	theta, _ := decimal.NewFromString(m.Theta)
	vega, _ := decimal.NewFromString(m.Vega)
	rho, _ := decimal.NewFromString(m.Rho)

	return &domain.PricingResult{
		ID:            m.ID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		Symbol:        m.Symbol,
		Type:          domain.OptionType(m.OptionType),
		Style:         domain.ExerciseStyle(m.ExerciseStyle),
		Spot:          spot,
		Strike:        strike,
		TimeToExpiry:  tte,
		RiskFreeRate:  rate,
		DividendYield: div,
		Volatility:    vol,
		OptionPrice:   price,
		Delta:         delta,
		Gamma:         gamma,
		Theta:         theta,
		Vega:          vega,
		Rho:           rho,
		PricingModel:  m.PricingModel,
		LatticeSteps:  m.LatticeSteps,
		CalculatedAt:  m.CalculatedAt,
	}
}

func toCalibrationResultModel(res *domain.CalibrationResult) *CalibrationResultModel {
	if res == nil {
		return nil
	}
	return &CalibrationResultModel{
		ID:           res.ID,
		CreatedAt:    res.CreatedAt,
		UpdatedAt:    res.UpdatedAt,
		Symbol:       res.Symbol,
		Parameter:    res.Parameter,
		TargetPrice:  res.TargetPrice.String(),
		SolvedValue:  res.SolvedValue.String(),
		Residual:     res.Residual.String(),
		Iterations:   res.Iterations,
		Converged:    res.Converged,
		PricingModel: res.PricingModel,
		CalculatedAt: res.CalculatedAt,
	}
}

func toCalibrationResult(m *CalibrationResultModel) *domain.CalibrationResult {
	if m == nil {
		return nil
	}
	target, _ := decimal.NewFromString(m.TargetPrice)
	solved, _ := decimal.NewFromString(m.SolvedValue)
	residual, _ := decimal.NewFromString(m.Residual)

	return &domain.CalibrationResult{
		ID:           m.ID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		Symbol:       m.Symbol,
		Parameter:    m.Parameter,
		TargetPrice:  target,
		SolvedValue:  solved,
		Residual:     residual,
		Iterations:   m.Iterations,
		Converged:    m.Converged,
		PricingModel: m.PricingModel,
		CalculatedAt: m.CalculatedAt,
	}
}
