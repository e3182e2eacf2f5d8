package application

import "github.com/wyfcoding/optionpricing/internal/pricing/domain"

// 定价模型标识
const (
	ModelBlackScholes = "black_scholes"
	ModelLeisenReimer = "leisen_reimer"
)

// PriceOptionCommand 期权定价命令
type PriceOptionCommand struct {
	Symbol        string  `json:"symbol"`
	Type          string  `json:"type"`
	Style         string  `json:"style"`
	Spot          float64 `json:"spot"`
	Strike        float64 `json:"strike"`
	TimeToExpiry  float64 `json:"time_to_expiry"`
	RiskFreeRate  float64 `json:"risk_free_rate"`
	DividendYield float64 `json:"dividend_yield"`
	Volatility    float64 `json:"volatility"`
	PricingModel  string  `json:"pricing_model"`
	LatticeSteps  int     `json:"lattice_steps"`
}

// BatchPriceOptionsCommand 批量定价命令。数值字段为等长切片，
// 整批共享期权类型与行权方式。
type BatchPriceOptionsCommand struct {
	BatchID       string    `json:"batch_id"`
	Symbols       []string  `json:"symbols"`
	Type          string    `json:"type"`
	Style         string    `json:"style"`
	Spot          []float64 `json:"spot"`
	Strike        []float64 `json:"strike"`
	TimeToExpiry  []float64 `json:"time_to_expiry"`
	RiskFreeRate  []float64 `json:"risk_free_rate"`
	DividendYield []float64 `json:"dividend_yield"`
	Volatility    []float64 `json:"volatility"`
	LatticeSteps  int       `json:"lattice_steps"`
}

// BatchPricingResult 批量定价结果
type BatchPricingResult struct {
	BatchID string                  `json:"batch_id"`
	Results []*domain.PricingResult `json:"results"`
}

// CalibrateCommand 参数校准命令。Parameter 为空时默认校准波动率，
// 括号区间为空时使用服务配置的默认区间。
type CalibrateCommand struct {
	Symbol        string  `json:"symbol"`
	Type          string  `json:"type"`
	Style         string  `json:"style"`
	Spot          float64 `json:"spot"`
	Strike        float64 `json:"strike"`
	TimeToExpiry  float64 `json:"time_to_expiry"`
	RiskFreeRate  float64 `json:"risk_free_rate"`
	DividendYield float64 `json:"dividend_yield"`
	Volatility    float64 `json:"volatility"`
	TargetPrice   float64 `json:"target_price"`
	Parameter     string  `json:"parameter"`
	BracketLow    float64 `json:"bracket_low"`
	BracketHigh   float64 `json:"bracket_high"`
	PricingModel  string  `json:"pricing_model"`
	LatticeSteps  int     `json:"lattice_steps"`
}

// BatchCalibrateCommand 批量隐含波动率校准命令
type BatchCalibrateCommand struct {
	BatchID       string    `json:"batch_id"`
	Symbols       []string  `json:"symbols"`
	Type          string    `json:"type"`
	Style         string    `json:"style"`
	Spot          []float64 `json:"spot"`
	Strike        []float64 `json:"strike"`
	TimeToExpiry  []float64 `json:"time_to_expiry"`
	RiskFreeRate  []float64 `json:"risk_free_rate"`
	DividendYield []float64 `json:"dividend_yield"`
	TargetPrices  []float64 `json:"target_prices"`
	BracketLow    float64   `json:"bracket_low"`
	BracketHigh   float64   `json:"bracket_high"`
	LatticeSteps  int       `json:"lattice_steps"`
}

// BatchCalibrationResult 批量校准结果
type BatchCalibrationResult struct {
	BatchID        string                      `json:"batch_id"`
	Results        []*domain.CalibrationResult `json:"results"`
	ConvergedCount int                         `json:"converged_count"`
	DivergedCount  int                         `json:"diverged_count"`
}

// GreeksQuery 希腊字母查询
type GreeksQuery struct {
	Symbol        string  `json:"symbol"`
	Type          string  `json:"type"`
	Spot          float64 `json:"spot"`
	Strike        float64 `json:"strike"`
	TimeToExpiry  float64 `json:"time_to_expiry"`
	RiskFreeRate  float64 `json:"risk_free_rate"`
	DividendYield float64 `json:"dividend_yield"`
	Volatility    float64 `json:"volatility"`
}
