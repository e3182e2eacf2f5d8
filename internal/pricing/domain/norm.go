package domain

import "math"

// normCDF 标准正态分布累积分布函数
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// normPDF 标准正态分布概率密度函数
func normPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

// peizerPratt Peizer-Pratt 第二类反演，把连续分布的分位点 z 映射为
// n 步二项树上的节点概率。Leisen-Reimer 树用它放置 p 与 p'，
// 使离散化误差随步数单调收敛而不震荡。要求 n 为奇数。
func peizerPratt(z float64, n int) float64 {
	nf := float64(n)
	t := z / (nf + 1.0/3.0 + 0.1/(nf+1))
	v := 0.25 - 0.25*math.Exp(-t*t*(nf+1.0/6.0))
	if z >= 0 {
		return 0.5 + math.Sqrt(v)
	}
	return 0.5 - math.Sqrt(v)
}
