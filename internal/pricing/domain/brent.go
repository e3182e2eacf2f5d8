package domain

import (
	"fmt"
	"math"
)

// EqualSignsError 区间两端函数值同号，无法保证区间内存在根
type EqualSignsError struct {
	A  float64
	B  float64
	FA float64
	FB float64
}

func (e *EqualSignsError) Error() string {
	return fmt.Sprintf("root not bracketed: f(%g)=%g and f(%g)=%g have equal signs",
		e.A, e.FA, e.B, e.FB)
}

// RootResult 求根结果。未在迭代上限内收敛时返回当前最优估计，
// Converged 置 false，由调用方决定是否接受。
type RootResult struct {
	Root       float64 `json:"root"`
	Residual   float64 `json:"residual"`
	Iterations int     `json:"iterations"`
	Converged  bool    `json:"converged"`
}

// BrentSolver Brent 方法求根器，在反二次插值、割线法与二分之间
// 自适应切换。每步都保持根被区间包住，最坏情况退化为二分。
type BrentSolver struct {
	tolerance     float64
	maxIterations int
}

// NewBrentSolver 创建求根器
func NewBrentSolver(tolerance float64, maxIterations int) (*BrentSolver, error) {
	if tolerance <= 0 {
		return nil, fmt.Errorf("tolerance must be positive, got %g", tolerance)
	}
	if maxIterations <= 0 {
		return nil, fmt.Errorf("max iterations must be positive, got %d", maxIterations)
	}
	return &BrentSolver{tolerance: tolerance, maxIterations: maxIterations}, nil
}

// Solve 在 [a,b] 内求 f 的根。两端函数值必须异号，否则返回
// *EqualSignsError。同号判断用 signbit，f=0 视为正号。
// Converged 在 |f(b)| ≤ tol 或区间宽度 |b−a| ≤ tol 任一成立时置位；
// 需要严格残差保证的调用方应自行检查 Residual。
func (s *BrentSolver) Solve(f func(float64) float64, a, b float64) (*RootResult, error) {
	fa := f(a)
	fb := f(b)

	if fa == 0 {
		return &RootResult{Root: a, Residual: 0, Converged: true}, nil
	}
	if fb == 0 {
		return &RootResult{Root: b, Residual: 0, Converged: true}, nil
	}
	if math.Signbit(fa) == math.Signbit(fb) {
		return nil, &EqualSignsError{A: a, B: b, FA: fa, FB: fb}
	}

	// b 始终是当前最优估计
	if math.Abs(fa) < math.Abs(fb) {
		a, b = b, a
		fa, fb = fb, fa
	}

	// 历史点与 b 重合，首步的插值候选必然触发二分兜底
	c, fc := b, fb
	d := b
	mflag := true

	result := &RootResult{Root: b, Residual: fb}
	for iter := 1; iter <= s.maxIterations; iter++ {
		result.Iterations = iter

		var cand float64
		if fa != fc && fb != fc {
			// 三点互异，反二次插值
			cand = a*fb*fc/((fa-fb)*(fa-fc)) +
				b*fa*fc/((fb-fa)*(fb-fc)) +
				c*fa*fb/((fc-fa)*(fc-fb))
		} else {
			// 割线法。历史点退化时分母可能为零，NaN 由下方兜底吸收
			cand = b - fb*(b-a)/(fb-fa)
		}

		lo := (3*a + b) / 4
		hi := b
		if lo > hi {
			lo, hi = hi, lo
		}
		// 取反写法保证 cand 为 NaN 时同样落入二分
		forceBisect := !(cand > lo && cand < hi) ||
			(mflag && math.Abs(cand-b) >= math.Abs(b-c)/2) ||
			(!mflag && math.Abs(cand-b) >= math.Abs(c-d)/2) ||
			(mflag && math.Abs(b-c) < s.tolerance) ||
			(!mflag && math.Abs(c-d) < s.tolerance)
		if forceBisect {
			cand = (a + b) / 2
			mflag = true
		} else {
			mflag = false
		}

		fcand := f(cand)

		// 先移历史再收缩区间
		d = c
		c, fc = b, fb
		if math.Signbit(fa) == math.Signbit(fcand) {
			a, fa = cand, fcand
		} else {
			b, fb = cand, fcand
		}
		if math.Abs(fa) < math.Abs(fb) {
			a, b = b, a
			fa, fb = fb, fa
		}

		result.Root = b
		result.Residual = fb
		if math.Abs(fb) <= s.tolerance || math.Abs(b-a) <= s.tolerance {
			result.Converged = true
			return result, nil
		}
	}

	// 迭代耗尽，返回最优估计并让调用方检查 Converged
	return result, nil
}
