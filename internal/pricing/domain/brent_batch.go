package domain

import (
	"fmt"
	"math"
)

// SolveBatch 对一批独立的一维求根问题做同步迭代。目标函数一次性
// 接收整批候选点并返回整批残差，便于上层用批量估值引擎实现。
// 所有元素共享同一个迭代计数，已收敛的元素停止更新但仍参与
// 目标函数求值，保持向量长度不变。收敛判据与 Solve 相同：
// |f(b)| ≤ tol 或区间宽度 |b−a| ≤ tol。
//
// 任一元素区间两端同号时整批失败，错误中带上元素下标。
func (s *BrentSolver) SolveBatch(f func(x []float64) []float64, lo, hi []float64) ([]RootResult, error) {
	m := len(lo)
	if m == 0 {
		return nil, fmt.Errorf("empty bracket batch")
	}
	if len(hi) != m {
		return nil, fmt.Errorf("bracket length mismatch: lo=%d hi=%d", m, len(hi))
	}

	flo := f(append([]float64(nil), lo...))
	fhi := f(append([]float64(nil), hi...))
	if len(flo) != m || len(fhi) != m {
		return nil, fmt.Errorf("objective returned %d/%d values, want %d", len(flo), len(fhi), m)
	}

	a := append([]float64(nil), lo...)
	b := append([]float64(nil), hi...)
	fa := append([]float64(nil), flo...)
	fb := append([]float64(nil), fhi...)
	c := make([]float64, m)
	d := make([]float64, m)
	fc := make([]float64, m)
	mflag := make([]bool, m)
	done := make([]bool, m)

	results := make([]RootResult, m)
	remaining := m
	for j := 0; j < m; j++ {
		if fa[j] == 0 {
			results[j] = RootResult{Root: a[j], Converged: true}
			done[j] = true
			remaining--
			continue
		}
		if fb[j] == 0 {
			results[j] = RootResult{Root: b[j], Converged: true}
			done[j] = true
			remaining--
			continue
		}
		if math.Signbit(fa[j]) == math.Signbit(fb[j]) {
			return nil, fmt.Errorf("batch element %d: %w", j,
				&EqualSignsError{A: a[j], B: b[j], FA: fa[j], FB: fb[j]})
		}
		if math.Abs(fa[j]) < math.Abs(fb[j]) {
			a[j], b[j] = b[j], a[j]
			fa[j], fb[j] = fb[j], fa[j]
		}
		c[j], fc[j] = b[j], fb[j]
		d[j] = b[j]
		mflag[j] = true
		results[j] = RootResult{Root: b[j], Residual: fb[j]}
	}

	cand := make([]float64, m)
	for iter := 1; iter <= s.maxIterations && remaining > 0; iter++ {
		for j := 0; j < m; j++ {
			if done[j] {
				// 保持长度，目标函数对已收敛元素重复求值
				cand[j] = results[j].Root
				continue
			}

			var x float64
			if fa[j] != fc[j] && fb[j] != fc[j] {
				x = a[j]*fb[j]*fc[j]/((fa[j]-fb[j])*(fa[j]-fc[j])) +
					b[j]*fa[j]*fc[j]/((fb[j]-fa[j])*(fb[j]-fc[j])) +
					c[j]*fa[j]*fb[j]/((fc[j]-fa[j])*(fc[j]-fb[j]))
			} else {
				x = b[j] - fb[j]*(b[j]-a[j])/(fb[j]-fa[j])
			}

			low := (3*a[j] + b[j]) / 4
			high := b[j]
			if low > high {
				low, high = high, low
			}
			forceBisect := !(x > low && x < high) ||
				(mflag[j] && math.Abs(x-b[j]) >= math.Abs(b[j]-c[j])/2) ||
				(!mflag[j] && math.Abs(x-b[j]) >= math.Abs(c[j]-d[j])/2) ||
				(mflag[j] && math.Abs(b[j]-c[j]) < s.tolerance) ||
				(!mflag[j] && math.Abs(c[j]-d[j]) < s.tolerance)
			if forceBisect {
				x = (a[j] + b[j]) / 2
				mflag[j] = true
			} else {
				mflag[j] = false
			}
			cand[j] = x
		}

		fcand := f(cand)
		if len(fcand) != m {
			return nil, fmt.Errorf("objective returned %d values, want %d", len(fcand), m)
		}

		for j := 0; j < m; j++ {
			if done[j] {
				continue
			}
			d[j] = c[j]
			c[j], fc[j] = b[j], fb[j]
			if math.Signbit(fa[j]) == math.Signbit(fcand[j]) {
				a[j], fa[j] = cand[j], fcand[j]
			} else {
				b[j], fb[j] = cand[j], fcand[j]
			}
			if math.Abs(fa[j]) < math.Abs(fb[j]) {
				a[j], b[j] = b[j], a[j]
				fa[j], fb[j] = fb[j], fa[j]
			}

			results[j].Root = b[j]
			results[j].Residual = fb[j]
			results[j].Iterations = iter
			if math.Abs(fb[j]) <= s.tolerance || math.Abs(b[j]-a[j]) <= s.tolerance {
				results[j].Converged = true
				done[j] = true
				remaining--
			}
		}
	}

	return results, nil
}
