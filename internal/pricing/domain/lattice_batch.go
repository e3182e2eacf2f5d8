package domain

import (
	"fmt"
	"math"
)

// BatchContractSpec 一批同类型、同行权方式的期权合约。
// 各数值字段为等长切片，第 i 个元素共同描述第 i 份合约。
type BatchContractSpec struct {
	Spot          []float64     `json:"spot"`
	Strike        []float64     `json:"strike"`
	TimeToExpiry  []float64     `json:"time_to_expiry"`
	RiskFreeRate  []float64     `json:"risk_free_rate"`
	DividendYield []float64     `json:"dividend_yield"`
	Volatility    []float64     `json:"volatility"`
	Type          OptionType    `json:"type"`
	Style         ExerciseStyle `json:"style"`
}

// Len 批量大小
func (b BatchContractSpec) Len() int {
	return len(b.Spot)
}

// At 取出第 i 份合约的标量视图
func (b BatchContractSpec) At(i int) ContractSpec {
	return ContractSpec{
		Spot:          b.Spot[i],
		Strike:        b.Strike[i],
		TimeToExpiry:  b.TimeToExpiry[i],
		RiskFreeRate:  b.RiskFreeRate[i],
		DividendYield: b.DividendYield[i],
		Volatility:    b.Volatility[i],
		Type:          b.Type,
		Style:         b.Style,
	}
}

// WithVolatility 返回替换整批波动率后的副本
func (b BatchContractSpec) WithVolatility(v []float64) BatchContractSpec {
	b.Volatility = v
	return b
}

// Validate 校验批量合约：各字段等长、批量非空、逐元素合法
func (b BatchContractSpec) Validate() error {
	m := b.Len()
	if m == 0 {
		return fmt.Errorf("invalid batch: empty")
	}
	for name, field := range map[string][]float64{
		"strike":         b.Strike,
		"time_to_expiry": b.TimeToExpiry,
		"risk_free_rate": b.RiskFreeRate,
		"dividend_yield": b.DividendYield,
		"volatility":     b.Volatility,
	} {
		if len(field) != m {
			return fmt.Errorf("invalid batch: %s has length %d, want %d", name, len(field), m)
		}
	}
	for i := 0; i < m; i++ {
		if err := b.At(i).Validate(); err != nil {
			return fmt.Errorf("batch element %d: %w", i, err)
		}
	}
	return nil
}

// VectorizedLatticeEngine 批量 Leisen-Reimer 树估值引擎。
// 整批合约在同一个时间步循环内同步倒推，每层对所有合约做一次
// 两点加权求和，避免逐合约重复建树的调度开销。
type VectorizedLatticeEngine struct {
	steps int
}

// NewVectorizedLatticeEngine 创建批量二叉树引擎，步数约束与标量引擎一致
func NewVectorizedLatticeEngine(steps int) (*VectorizedLatticeEngine, error) {
	if steps < 3 {
		return nil, fmt.Errorf("lattice steps must be at least 3, got %d", steps)
	}
	if steps%2 == 0 {
		return nil, fmt.Errorf("lattice steps must be odd, got %d", steps)
	}
	return &VectorizedLatticeEngine{steps: steps}, nil
}

// Steps 树的步数
func (e *VectorizedLatticeEngine) Steps() int {
	return e.steps
}

// PriceBatch 对整批合约估值，返回与批量等长的结果切片。
// 任一元素非法时整批失败，不返回部分结果。
func (e *VectorizedLatticeEngine) PriceBatch(batch BatchContractSpec) ([]ValuationResult, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	n := e.steps
	m := batch.Len()
	american := batch.Style == StyleAmerican

	params := make([]latticeParams, m)
	for j := 0; j < m; j++ {
		params[j] = deriveLatticeParams(batch.At(j), n)
	}

	// values[j] 是第 j 份合约当前层的节点值，整批在同一层上推进
	values := make([][]float64, m)
	for j := 0; j < m; j++ {
		sign := batch.At(j).TypeSign()
		vj := make([]float64, n+1)
		for i := 0; i <= n; i++ {
			s := batch.Spot[j] * math.Pow(params[j].up, float64(n-i)) * math.Pow(params[j].down, float64(i))
			vj[i] = intrinsic(s, batch.Strike[j], sign)
		}
		values[j] = vj
	}

	level1 := make([][]float64, m)
	level2 := make([][]float64, m)
	for t := n - 1; t >= 0; t-- {
		for j := 0; j < m; j++ {
			lp := params[j]
			vj := values[j]
			for i := 0; i <= t; i++ {
				v := lp.disc * (lp.p*vj[i] + (1-lp.p)*vj[i+1])
				if american {
					s := batch.Spot[j] * math.Pow(lp.up, float64(t-i)) * math.Pow(lp.down, float64(i))
					if ex := intrinsic(s, batch.Strike[j], batch.At(j).TypeSign()); ex > v {
						v = ex
					}
				}
				vj[i] = v
			}
			switch t {
			case 2:
				level2[j] = []float64{vj[0], vj[1], vj[2]}
			case 1:
				level1[j] = []float64{vj[0], vj[1]}
			}
		}
	}

	results := make([]ValuationResult, m)
	for j := 0; j < m; j++ {
		lp := params[j]
		spot := batch.Spot[j]
		res := ValuationResult{Price: values[j][0]}

		res.Delta = (level1[j][0] - level1[j][1]) / (spot*lp.up - spot*lp.down)

		sUU := spot * lp.up * lp.up
		sUD := spot * lp.up * lp.down
		sDD := spot * lp.down * lp.down
		deltaUp := (level2[j][0] - level2[j][1]) / (sUU - sUD)
		deltaDown := (level2[j][1] - level2[j][2]) / (sUD - sDD)
		res.Gamma = (deltaUp - deltaDown) / ((sUU - sDD) / 2)

		results[j] = res
	}
	return results, nil
}
