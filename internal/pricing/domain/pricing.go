package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingResult 定价结果实体
type PricingResult struct {
	ID            uint            `json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Symbol        string          `json:"symbol"`
	Type          OptionType      `json:"type"`
	Style         ExerciseStyle   `json:"style"`
	Spot          decimal.Decimal `json:"spot"`
	Strike        decimal.Decimal `json:"strike"`
	TimeToExpiry  decimal.Decimal `json:"time_to_expiry"`
	RiskFreeRate  decimal.Decimal `json:"risk_free_rate"`
	DividendYield decimal.Decimal `json:"dividend_yield"`
	Volatility    decimal.Decimal `json:"volatility"`
	OptionPrice   decimal.Decimal `json:"option_price"`
	Delta         decimal.Decimal `json:"delta"`
	Gamma         decimal.Decimal `json:"gamma"`
	Theta         decimal.Decimal `json:"theta"`
	Vega          decimal.Decimal `json:"vega"`
	Rho           decimal.Decimal `json:"rho"`
	PricingModel  string          `json:"pricing_model"`
	LatticeSteps  int             `json:"lattice_steps"`
	CalculatedAt  int64           `json:"calculated_at"`
}

// NewPricingResult 由合约与估值输出组装结果实体
func NewPricingResult(symbol string, spec ContractSpec, model string, steps int, v *ValuationResult) *PricingResult {
	return &PricingResult{
		Symbol:        symbol,
		Type:          spec.Type,
		Style:         spec.Style,
		Spot:          decimal.NewFromFloat(spec.Spot),
		Strike:        decimal.NewFromFloat(spec.Strike),
		TimeToExpiry:  decimal.NewFromFloat(spec.TimeToExpiry),
		RiskFreeRate:  decimal.NewFromFloat(spec.RiskFreeRate),
		DividendYield: decimal.NewFromFloat(spec.DividendYield),
		Volatility:    decimal.NewFromFloat(spec.Volatility),
		OptionPrice:   decimal.NewFromFloat(v.Price),
		Delta:         decimal.NewFromFloat(v.Delta),
		Gamma:         decimal.NewFromFloat(v.Gamma),
		Theta:         decimal.NewFromFloat(v.Theta),
		Vega:          decimal.NewFromFloat(v.Vega),
		Rho:           decimal.NewFromFloat(v.Rho),
		PricingModel:  model,
		LatticeSteps:  steps,
		CalculatedAt:  time.Now().UnixMilli(),
	}
}

// CalibrationResult 校准结果实体
type CalibrationResult struct {
	ID           uint            `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Symbol       string          `json:"symbol"`
	Parameter    string          `json:"parameter"`
	TargetPrice  decimal.Decimal `json:"target_price"`
	SolvedValue  decimal.Decimal `json:"solved_value"`
	Residual     decimal.Decimal `json:"residual"`
	Iterations   int             `json:"iterations"`
	Converged    bool            `json:"converged"`
	PricingModel string          `json:"pricing_model"`
	CalculatedAt int64           `json:"calculated_at"`
}

// NewCalibrationResult 由求根结果组装校准实体
func NewCalibrationResult(symbol string, param CalibrationParameter, target float64, model string, r *RootResult) *CalibrationResult {
	return &CalibrationResult{
		Symbol:       symbol,
		Parameter:    string(param),
		TargetPrice:  decimal.NewFromFloat(target),
		SolvedValue:  decimal.NewFromFloat(r.Root),
		Residual:     decimal.NewFromFloat(r.Residual),
		Iterations:   r.Iterations,
		Converged:    r.Converged,
		PricingModel: model,
		CalculatedAt: time.Now().UnixMilli(),
	}
}
