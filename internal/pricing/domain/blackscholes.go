package domain

import (
	"fmt"
	"math"
)

// ClosedFormEngine Black-Scholes-Merton 闭式解估值引擎。
// 只支持欧式行权，含连续股息率修正。
type ClosedFormEngine struct{}

// NewClosedFormEngine 创建闭式解引擎
func NewClosedFormEngine() *ClosedFormEngine {
	return &ClosedFormEngine{}
}

// Name 引擎标识
func (e *ClosedFormEngine) Name() string {
	return "black_scholes"
}

// Price 计算期权理论价格及全量希腊字母。
// Vega/Rho 按 1% 变动折算，Theta 按日折算。
func (e *ClosedFormEngine) Price(spec ContractSpec) (*ValuationResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if spec.Style == StyleAmerican {
		return nil, fmt.Errorf("closed-form engine supports european exercise only, got %s", spec.Style)
	}

	S, K := spec.Spot, spec.Strike
	T, r, q, sigma := spec.TimeToExpiry, spec.RiskFreeRate, spec.DividendYield, spec.Volatility

	sqrtT := math.Sqrt(T)
	d1 := (math.Log(S/K) + (r-q+sigma*sigma/2)*T) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	discR := math.Exp(-r * T) // 利率贴现因子
	discQ := math.Exp(-q * T) // 股息贴现因子

	res := &ValuationResult{}
	if spec.Type == OptionTypeCall {
		res.Price = S*discQ*normCDF(d1) - K*discR*normCDF(d2)
		res.Delta = discQ * normCDF(d1)
		res.Theta = (-S*discQ*normPDF(d1)*sigma/(2*sqrtT) -
			r*K*discR*normCDF(d2) + q*S*discQ*normCDF(d1)) / 365
		res.Rho = K * T * discR * normCDF(d2) / 100
	} else {
		res.Price = K*discR*normCDF(-d2) - S*discQ*normCDF(-d1)
		res.Delta = -discQ * normCDF(-d1)
		res.Theta = (-S*discQ*normPDF(d1)*sigma/(2*sqrtT) +
			r*K*discR*normCDF(-d2) - q*S*discQ*normCDF(-d1)) / 365
		res.Rho = -K * T * discR * normCDF(-d2) / 100
	}
	res.Gamma = discQ * normPDF(d1) / (S * sigma * sqrtT)
	res.Vega = S * discQ * normPDF(d1) * sqrtT / 100

	return res, nil
}
