package domain

import "time"

const (
	OptionPricedEventType              = "OptionPriced"
	GreeksCalculatedEventType          = "GreeksCalculated"
	VolatilityCalibratedEventType      = "VolatilityCalibrated"
	BatchCalibrationCompletedEventType = "BatchCalibrationCompleted"
	PricingErrorEventType              = "PricingError"
)

// OptionPricedEvent 期权定价完成事件
type OptionPricedEvent struct {
	Symbol       string        `json:"symbol"`
	OptionType   OptionType    `json:"option_type"`
	Style        ExerciseStyle `json:"style"`
	Spot         float64       `json:"spot"`
	Strike       float64       `json:"strike"`
	TimeToExpiry float64       `json:"time_to_expiry"`
	Volatility   float64       `json:"volatility"`
	OptionPrice  float64       `json:"option_price"`
	PricingModel string        `json:"pricing_model"`
	CalculatedAt int64         `json:"calculated_at"`
	OccurredOn   time.Time     `json:"occurred_on"`
}

// GreeksCalculatedEvent 希腊字母计算完成事件
type GreeksCalculatedEvent struct {
	Symbol       string     `json:"symbol"`
	OptionType   OptionType `json:"option_type"`
	Spot         float64    `json:"spot"`
	Strike       float64    `json:"strike"`
	Delta        float64    `json:"delta"`
	Gamma        float64    `json:"gamma"`
	Theta        float64    `json:"theta"`
	Vega         float64    `json:"vega"`
	Rho          float64    `json:"rho"`
	CalculatedAt int64      `json:"calculated_at"`
	OccurredOn   time.Time  `json:"occurred_on"`
}

// VolatilityCalibratedEvent 隐含波动率校准完成事件
type VolatilityCalibratedEvent struct {
	Symbol       string    `json:"symbol"`
	TargetPrice  float64   `json:"target_price"`
	ImpliedVol   float64   `json:"implied_vol"`
	Residual     float64   `json:"residual"`
	Iterations   int       `json:"iterations"`
	Converged    bool      `json:"converged"`
	PricingModel string    `json:"pricing_model"`
	CalibratedAt int64     `json:"calibrated_at"`
	OccurredOn   time.Time `json:"occurred_on"`
}

// BatchCalibrationCompletedEvent 批量校准完成事件
type BatchCalibrationCompletedEvent struct {
	BatchID        string    `json:"batch_id"`
	Symbols        []string  `json:"symbols"`
	TotalContracts int       `json:"total_contracts"`
	ConvergedCount int       `json:"converged_count"`
	DivergedCount  int       `json:"diverged_count"`
	CompletedAt    int64     `json:"completed_at"`
	OccurredOn     time.Time `json:"occurred_on"`
}

// PricingErrorEvent 定价错误事件
type PricingErrorEvent struct {
	Symbol     string     `json:"symbol"`
	OptionType OptionType `json:"option_type"`
	Strike     float64    `json:"strike"`
	Error      string     `json:"error"`
	ErrorCode  string     `json:"error_code"`
	OccurredAt int64      `json:"occurred_at"`
	OccurredOn time.Time  `json:"occurred_on"`
}
