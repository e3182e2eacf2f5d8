package domain

import (
	"fmt"
	"math"
)

// latticeParams Leisen-Reimer 树的单步参数
type latticeParams struct {
	up   float64 // 上行乘数
	down float64 // 下行乘数
	p    float64 // 上行风险中性概率
	disc float64 // 单步贴现因子
	dt   float64
}

// deriveLatticeParams 由合约参数推导 n 步 Leisen-Reimer 树参数。
// 概率来自对 d1/d2 的 Peizer-Pratt 反演，up/down 由鞅条件反解，
// 保证单步期望增长率等于 (r-q)。
func deriveLatticeParams(spec ContractSpec, steps int) latticeParams {
	dt := spec.TimeToExpiry / float64(steps)
	sigma := spec.Volatility
	sqrtT := math.Sqrt(spec.TimeToExpiry)

	d1 := (math.Log(spec.Spot/spec.Strike) +
		(spec.RiskFreeRate-spec.DividendYield+sigma*sigma/2)*spec.TimeToExpiry) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	p := peizerPratt(d2, steps)
	pbar := peizerPratt(d1, steps)

	growth := math.Exp((spec.RiskFreeRate - spec.DividendYield) * dt)
	up := growth * pbar / p
	down := (growth - p*up) / (1 - p)

	return latticeParams{
		up:   up,
		down: down,
		p:    p,
		disc: math.Exp(-spec.RiskFreeRate * dt),
		dt:   dt,
	}
}

// LatticeEngine Leisen-Reimer 二叉树估值引擎，支持美式与欧式行权。
// 步数必须为正奇数，奇数步才能保证 Peizer-Pratt 反演的收敛性质。
type LatticeEngine struct {
	steps int
}

// NewLatticeEngine 创建指定步数的二叉树引擎
func NewLatticeEngine(steps int) (*LatticeEngine, error) {
	if steps < 3 {
		return nil, fmt.Errorf("lattice steps must be at least 3, got %d", steps)
	}
	if steps%2 == 0 {
		return nil, fmt.Errorf("lattice steps must be odd, got %d", steps)
	}
	return &LatticeEngine{steps: steps}, nil
}

// Name 引擎标识
func (e *LatticeEngine) Name() string {
	return "leisen_reimer"
}

// Steps 树的步数
func (e *LatticeEngine) Steps() int {
	return e.steps
}

// intrinsic 行权收益，深度虚值时截断为 0
func intrinsic(spot, strike, sign float64) float64 {
	v := sign * (spot - strike)
	if v < 0 {
		return 0
	}
	return v
}

// Price 树上倒推估值。美式行权在每个节点取持有价值与行权收益的较大者。
// Delta/Gamma 由倒推保留的第一、二层节点差分得到，其余希腊字母不在
// 树上计算，保持为零。
func (e *LatticeEngine) Price(spec ContractSpec) (*ValuationResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	n := e.steps
	lp := deriveLatticeParams(spec, n)
	sign := spec.TypeSign()
	american := spec.Style == StyleAmerican

	// 到期层收益。节点 i 对应 i 次下行，价格 S*up^(n-i)*down^i。
	values := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		s := spec.Spot * math.Pow(lp.up, float64(n-i)) * math.Pow(lp.down, float64(i))
		values[i] = intrinsic(s, spec.Strike, sign)
	}

	// 倒推。保留 t=1、t=2 两层节点值用于差分希腊字母。
	var level1, level2 []float64
	for t := n - 1; t >= 0; t-- {
		for i := 0; i <= t; i++ {
			v := lp.disc * (lp.p*values[i] + (1-lp.p)*values[i+1])
			if american {
				s := spec.Spot * math.Pow(lp.up, float64(t-i)) * math.Pow(lp.down, float64(i))
				if ex := intrinsic(s, spec.Strike, sign); ex > v {
					v = ex
				}
			}
			values[i] = v
		}
		switch t {
		case 2:
			level2 = append(level2[:0], values[0], values[1], values[2])
		case 1:
			level1 = append(level1[:0], values[0], values[1])
		}
	}

	res := &ValuationResult{Price: values[0]}

	sUp := spec.Spot * lp.up
	sDown := spec.Spot * lp.down
	res.Delta = (level1[0] - level1[1]) / (sUp - sDown)

	sUU := spec.Spot * lp.up * lp.up
	sUD := spec.Spot * lp.up * lp.down
	sDD := spec.Spot * lp.down * lp.down
	deltaUp := (level2[0] - level2[1]) / (sUU - sUD)
	deltaDown := (level2[1] - level2[2]) / (sUD - sDD)
	res.Gamma = (deltaUp - deltaDown) / ((sUU - sDD) / 2)

	return res, nil
}
