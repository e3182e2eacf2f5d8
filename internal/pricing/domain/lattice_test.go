package domain

import (
	"math"
	"testing"
)

func TestNewLatticeEngine_StepValidation(t *testing.T) {
	for _, steps := range []int{-1, 0, 1, 2, 100} {
		if _, err := NewLatticeEngine(steps); err == nil {
			t.Errorf("steps=%d: expected error, got nil", steps)
		}
	}
	if _, err := NewLatticeEngine(101); err != nil {
		t.Errorf("steps=101: unexpected error: %v", err)
	}
}

func TestLatticeEngine_ConvergesToClosedForm(t *testing.T) {
	closed := NewClosedFormEngine()
	want, err := closed.Price(atmSpec(OptionTypeCall))
	if err != nil {
		t.Fatalf("closed form: %v", err)
	}

	var prevErr float64
	for i, steps := range []int{25, 101, 853} {
		engine, err := NewLatticeEngine(steps)
		if err != nil {
			t.Fatalf("steps=%d: %v", steps, err)
		}
		got, err := engine.Price(atmSpec(OptionTypeCall))
		if err != nil {
			t.Fatalf("steps=%d: %v", steps, err)
		}
		absErr := math.Abs(got.Price - want.Price)
		if i > 0 && absErr > prevErr {
			t.Errorf("steps=%d: error %v grew from %v", steps, absErr, prevErr)
		}
		prevErr = absErr
	}
	// 853 步时离散化误差应远小于一个基点
	if prevErr > 1e-3 {
		t.Errorf("lattice error at 853 steps = %v, want <= 1e-3", prevErr)
	}
}

func TestLatticeEngine_EuropeanPutMatchesClosedForm(t *testing.T) {
	engine, err := NewLatticeEngine(101)
	if err != nil {
		t.Fatal(err)
	}
	got, err := engine.Price(atmSpec(OptionTypePut))
	if err != nil {
		t.Fatal(err)
	}
	want, err := NewClosedFormEngine().Price(atmSpec(OptionTypePut))
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(got.Price, want.Price, 5e-3) {
		t.Errorf("lattice put = %v, closed form = %v", got.Price, want.Price)
	}
}

func TestLatticeEngine_AmericanPutPremium(t *testing.T) {
	engine, err := NewLatticeEngine(101)
	if err != nil {
		t.Fatal(err)
	}

	european, err := engine.Price(atmSpec(OptionTypePut))
	if err != nil {
		t.Fatal(err)
	}
	americanSpec := atmSpec(OptionTypePut)
	americanSpec.Style = StyleAmerican
	american, err := engine.Price(americanSpec)
	if err != nil {
		t.Fatal(err)
	}

	// 正利率下美式看跌有提前行权溢价
	if american.Price <= european.Price {
		t.Errorf("american put %v <= european put %v", american.Price, european.Price)
	}
}

func TestLatticeEngine_EarlyExercisePremiumAcrossStrikes(t *testing.T) {
	engine, err := NewLatticeEngine(853)
	if err != nil {
		t.Fatal(err)
	}
	for _, strike := range []float64{80, 90, 100, 110, 120} {
		spec := atmSpec(OptionTypePut)
		spec.Strike = strike

		european, err := engine.Price(spec)
		if err != nil {
			t.Fatalf("strike %v european: %v", strike, err)
		}
		spec.Style = StyleAmerican
		american, err := engine.Price(spec)
		if err != nil {
			t.Fatalf("strike %v american: %v", strike, err)
		}

		if american.Price < european.Price {
			t.Errorf("strike %v: american put %v < european put %v", strike, american.Price, european.Price)
		}
		// 平值及实值看跌的提前行权溢价严格为正
		if strike >= 100 && american.Price <= european.Price {
			t.Errorf("strike %v: expected strict early-exercise premium", strike)
		}
		if strike == 100 {
			if !approxEqual(american.Price, 7.0286, 1e-2) {
				t.Errorf("atm american put = %v, want ~7.0286", american.Price)
			}
			if !approxEqual(european.Price, 6.6937, 1e-2) {
				t.Errorf("atm european put = %v, want ~6.6937", european.Price)
			}
		}
	}
}

func TestLatticeEngine_AmericanCallNoDividendMatchesEuropean(t *testing.T) {
	engine, err := NewLatticeEngine(853)
	if err != nil {
		t.Fatal(err)
	}
	americanSpec := atmSpec(OptionTypeCall)
	americanSpec.Style = StyleAmerican
	american, err := engine.Price(americanSpec)
	if err != nil {
		t.Fatal(err)
	}

	// 无股息时美式看涨不应提前行权，价格与闭式解一致
	want, err := NewClosedFormEngine().Price(atmSpec(OptionTypeCall))
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(american.Price, want.Price, 1e-3) {
		t.Errorf("american call = %v, closed form = %v", american.Price, want.Price)
	}
}

func TestLatticeEngine_DeepITMAmericanPutFloorsAtIntrinsic(t *testing.T) {
	engine, err := NewLatticeEngine(101)
	if err != nil {
		t.Fatal(err)
	}
	spec := atmSpec(OptionTypePut).WithSpot(50)
	spec.Style = StyleAmerican
	res, err := engine.Price(spec)
	if err != nil {
		t.Fatal(err)
	}
	if res.Price < 50 {
		t.Errorf("deep ITM american put %v below intrinsic 50", res.Price)
	}
}

func TestLatticeEngine_DeltaGamma(t *testing.T) {
	engine, err := NewLatticeEngine(101)
	if err != nil {
		t.Fatal(err)
	}
	got, err := engine.Price(atmSpec(OptionTypeCall))
	if err != nil {
		t.Fatal(err)
	}
	want, err := NewClosedFormEngine().Price(atmSpec(OptionTypeCall))
	if err != nil {
		t.Fatal(err)
	}

	if !approxEqual(got.Delta, want.Delta, 5e-3) {
		t.Errorf("lattice delta = %v, closed form = %v", got.Delta, want.Delta)
	}
	if !approxEqual(got.Gamma, want.Gamma, 5e-3) {
		t.Errorf("lattice gamma = %v, closed form = %v", got.Gamma, want.Gamma)
	}
	// 树上只有 delta/gamma，其余保持零值
	if got.Vega != 0 || got.Theta != 0 || got.Rho != 0 {
		t.Errorf("unexpected non-zero higher greeks: vega=%v theta=%v rho=%v", got.Vega, got.Theta, got.Rho)
	}
}

func TestLatticeEngine_RejectsInvalidContract(t *testing.T) {
	engine, err := NewLatticeEngine(101)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Price(atmSpec(OptionTypeCall).WithVolatility(-0.1)); err == nil {
		t.Error("expected error for negative volatility, got nil")
	}
}
