package domain

import (
	"fmt"
	"math"
)

// CalibrationParameter 可校准的合约参数
type CalibrationParameter string

const (
	ParamVolatility    CalibrationParameter = "volatility"
	ParamRiskFreeRate  CalibrationParameter = "risk_free_rate"
	ParamDividendYield CalibrationParameter = "dividend_yield"
	ParamSpot          CalibrationParameter = "spot"
)

// BatchValuationEngine 批量估值引擎接口
type BatchValuationEngine interface {
	PriceBatch(batch BatchContractSpec) ([]ValuationResult, error)
}

// CalibrationSolver 参数校准求解器。给定市场观察价，反解使模型价
// 等于观察价的合约参数，残差定义为模型价减观察价。
// 不做自动扩界，括号区间由调用方给出。
type CalibrationSolver struct {
	engine      ValuationEngine
	batchEngine BatchValuationEngine
	solver      *BrentSolver
}

// NewCalibrationSolver 创建校准求解器，batchEngine 可为 nil，
// 此时批量校准不可用
func NewCalibrationSolver(engine ValuationEngine, batchEngine BatchValuationEngine, solver *BrentSolver) *CalibrationSolver {
	return &CalibrationSolver{engine: engine, batchEngine: batchEngine, solver: solver}
}

func applyParam(spec ContractSpec, param CalibrationParameter, x float64) (ContractSpec, error) {
	switch param {
	case ParamVolatility, "":
		return spec.WithVolatility(x), nil
	case ParamRiskFreeRate:
		return spec.WithRate(x), nil
	case ParamDividendYield:
		return spec.WithDividendYield(x), nil
	case ParamSpot:
		return spec.WithSpot(x), nil
	default:
		return spec, fmt.Errorf("unknown calibration parameter %q", param)
	}
}

// SolveFor 在 [lo,hi] 内反解 param，使模型价等于 target。
// 目标价不在区间对应的价格范围内时返回 *EqualSignsError。
func (c *CalibrationSolver) SolveFor(spec ContractSpec, param CalibrationParameter, target, lo, hi float64) (*RootResult, error) {
	if target <= 0 {
		return nil, fmt.Errorf("target price must be positive, got %g", target)
	}
	if lo >= hi {
		return nil, fmt.Errorf("invalid bracket [%g, %g]", lo, hi)
	}
	// 先用区间下端做一次完整估值，把合约本身的参数错误在迭代前暴露
	probe, err := applyParam(spec, param, lo)
	if err != nil {
		return nil, err
	}
	if _, err := c.engine.Price(probe); err != nil {
		return nil, err
	}

	var evalErr error
	residual := func(x float64) float64 {
		s, err := applyParam(spec, param, x)
		if err != nil {
			evalErr = err
			return math.NaN()
		}
		v, err := c.engine.Price(s)
		if err != nil {
			evalErr = err
			return math.NaN()
		}
		return v.Price - target
	}

	result, err := c.solver.Solve(residual, lo, hi)
	if evalErr != nil {
		return nil, evalErr
	}
	return result, err
}

// SolveVolatilityBatch 批量隐含波动率校准，整批共享同一个括号区间。
// 残差向量由批量引擎一次求值得到。
func (c *CalibrationSolver) SolveVolatilityBatch(batch BatchContractSpec, targets []float64, lo, hi float64) ([]RootResult, error) {
	if c.batchEngine == nil {
		return nil, fmt.Errorf("batch calibration not configured")
	}
	m := batch.Len()
	if len(targets) != m {
		return nil, fmt.Errorf("targets length %d does not match batch size %d", len(targets), m)
	}
	if lo >= hi {
		return nil, fmt.Errorf("invalid bracket [%g, %g]", lo, hi)
	}
	for j, t := range targets {
		if t <= 0 {
			return nil, fmt.Errorf("target price %d must be positive, got %g", j, t)
		}
	}

	var evalErr error
	residual := func(x []float64) []float64 {
		out := make([]float64, m)
		if evalErr != nil {
			return out
		}
		results, err := c.batchEngine.PriceBatch(batch.WithVolatility(x))
		if err != nil {
			evalErr = err
			return out
		}
		for j := range results {
			out[j] = results[j].Price - targets[j]
		}
		return out
	}

	los := make([]float64, m)
	his := make([]float64, m)
	for j := 0; j < m; j++ {
		los[j] = lo
		his[j] = hi
	}

	results, err := c.solver.SolveBatch(residual, los, his)
	if evalErr != nil {
		return nil, evalErr
	}
	return results, err
}
