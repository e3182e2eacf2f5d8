package domain

import "fmt"

// OptionType 期权类型
type OptionType string

const (
	OptionTypeCall OptionType = "CALL" // 看涨期权
	OptionTypePut  OptionType = "PUT"  // 看跌期权
)

// ExerciseStyle 行权方式
type ExerciseStyle string

const (
	StyleEuropean ExerciseStyle = "EUROPEAN" // 只能到期行权
	StyleAmerican ExerciseStyle = "AMERICAN" // 可提前行权
)

// ContractSpec 单个期权合约的估值输入。
// 值类型，所有 With* 方法返回修改后的副本，原值不变。
type ContractSpec struct {
	Spot          float64       `json:"spot"`
	Strike        float64       `json:"strike"`
	TimeToExpiry  float64       `json:"time_to_expiry"` // 年化
	RiskFreeRate  float64       `json:"risk_free_rate"`
	DividendYield float64       `json:"dividend_yield"` // 连续股息率
	Volatility    float64       `json:"volatility"`
	Type          OptionType    `json:"type"`
	Style         ExerciseStyle `json:"style"`
}

// WithVolatility 返回替换波动率后的副本
func (s ContractSpec) WithVolatility(v float64) ContractSpec {
	s.Volatility = v
	return s
}

// WithSpot 返回替换标的价格后的副本
func (s ContractSpec) WithSpot(v float64) ContractSpec {
	s.Spot = v
	return s
}

// WithRate 返回替换无风险利率后的副本
func (s ContractSpec) WithRate(v float64) ContractSpec {
	s.RiskFreeRate = v
	return s
}

// WithDividendYield 返回替换股息率后的副本
func (s ContractSpec) WithDividendYield(v float64) ContractSpec {
	s.DividendYield = v
	return s
}

// WithTimeToExpiry 返回替换到期时间后的副本
func (s ContractSpec) WithTimeToExpiry(v float64) ContractSpec {
	s.TimeToExpiry = v
	return s
}

// TypeSign 看涨为 +1，看跌为 -1
func (s ContractSpec) TypeSign() float64 {
	if s.Type == OptionTypePut {
		return -1
	}
	return 1
}

// Validate 校验合约参数，返回第一个非法字段的描述性错误。
// 必须在任何数值计算之前调用，避免除零。
func (s ContractSpec) Validate() error {
	if s.Spot <= 0 {
		return fmt.Errorf("invalid contract: spot must be positive, got %g", s.Spot)
	}
	if s.Strike <= 0 {
		return fmt.Errorf("invalid contract: strike must be positive, got %g", s.Strike)
	}
	if s.TimeToExpiry <= 0 {
		return fmt.Errorf("invalid contract: time_to_expiry must be positive, got %g", s.TimeToExpiry)
	}
	if s.Volatility <= 0 {
		return fmt.Errorf("invalid contract: volatility must be positive, got %g", s.Volatility)
	}
	switch s.Type {
	case OptionTypeCall, OptionTypePut:
	default:
		return fmt.Errorf("invalid contract: unknown option type %q", s.Type)
	}
	switch s.Style {
	case StyleEuropean, StyleAmerican, "":
	default:
		return fmt.Errorf("invalid contract: unknown exercise style %q", s.Style)
	}
	return nil
}
