package domain

import (
	"errors"
	"testing"
)

func TestCalibrationSolver_ImpliedVolRoundTrip(t *testing.T) {
	engine := NewClosedFormEngine()
	solver := newTestSolver(t)
	calibrator := NewCalibrationSolver(engine, nil, solver)

	trueVol := 0.3
	priced, err := engine.Price(atmSpec(OptionTypeCall).WithVolatility(trueVol))
	if err != nil {
		t.Fatal(err)
	}

	brackets := [][2]float64{
		{0.01, 4.0},  // 宽区间
		{0.25, 0.35}, // 贴近真值
		{0.29, 3.0},  // 下端靠近真值
		{0.02, 0.31}, // 上端靠近真值
	}
	for _, br := range brackets {
		res, err := calibrator.SolveFor(atmSpec(OptionTypeCall), ParamVolatility, priced.Price, br[0], br[1])
		if err != nil {
			t.Fatalf("bracket %v: %v", br, err)
		}
		if !res.Converged {
			t.Errorf("bracket %v: not converged: %+v", br, res)
		}
		if !approxEqual(res.Root, trueVol, 1e-6) {
			t.Errorf("bracket %v: implied vol = %v, want %v", br, res.Root, trueVol)
		}
	}
}

func TestCalibrationSolver_ImpliedVolPut(t *testing.T) {
	engine := NewClosedFormEngine()
	solver := newTestSolver(t)
	calibrator := NewCalibrationSolver(engine, nil, solver)

	trueVol := 0.3
	priced, err := engine.Price(atmSpec(OptionTypePut).WithVolatility(trueVol))
	if err != nil {
		t.Fatal(err)
	}
	res, err := calibrator.SolveFor(atmSpec(OptionTypePut), ParamVolatility, priced.Price, 0.01, 4.0)
	if err != nil {
		t.Fatalf("SolveFor: %v", err)
	}
	if !approxEqual(res.Root, trueVol, 1e-6) {
		t.Errorf("implied vol = %v, want %v", res.Root, trueVol)
	}
}

func TestCalibrationSolver_LatticeAmericanPut(t *testing.T) {
	engine, err := NewLatticeEngine(101)
	if err != nil {
		t.Fatal(err)
	}
	solver := newTestSolver(t)
	calibrator := NewCalibrationSolver(engine, nil, solver)

	spec := atmSpec(OptionTypePut)
	spec.Style = StyleAmerican
	trueVol := 0.25
	priced, err := engine.Price(spec.WithVolatility(trueVol))
	if err != nil {
		t.Fatal(err)
	}

	res, err := calibrator.SolveFor(spec, ParamVolatility, priced.Price, 0.01, 4.0)
	if err != nil {
		t.Fatalf("SolveFor: %v", err)
	}
	if !res.Converged {
		t.Errorf("not converged: %+v", res)
	}
	if !approxEqual(res.Root, trueVol, 1e-6) {
		t.Errorf("implied vol = %v, want %v", res.Root, trueVol)
	}
}

func TestCalibrationSolver_ImpliedRate(t *testing.T) {
	engine := NewClosedFormEngine()
	solver := newTestSolver(t)
	calibrator := NewCalibrationSolver(engine, nil, solver)

	trueRate := 0.07
	priced, err := engine.Price(atmSpec(OptionTypeCall))
	if err != nil {
		t.Fatal(err)
	}

	res, err := calibrator.SolveFor(atmSpec(OptionTypeCall), ParamRiskFreeRate, priced.Price, 0.001, 0.5)
	if err != nil {
		t.Fatalf("SolveFor: %v", err)
	}
	if !approxEqual(res.Root, trueRate, 1e-6) {
		t.Errorf("implied rate = %v, want %v", res.Root, trueRate)
	}
}

func TestCalibrationSolver_TargetOutOfRange(t *testing.T) {
	engine := NewClosedFormEngine()
	solver := newTestSolver(t)
	calibrator := NewCalibrationSolver(engine, nil, solver)

	// 目标价超出括号区间能达到的价格范围
	_, err := calibrator.SolveFor(atmSpec(OptionTypeCall), ParamVolatility, 1000, 0.01, 4.0)
	var signsErr *EqualSignsError
	if !errors.As(err, &signsErr) {
		t.Fatalf("error = %v, want *EqualSignsError", err)
	}
}

func TestCalibrationSolver_InputValidation(t *testing.T) {
	engine := NewClosedFormEngine()
	solver := newTestSolver(t)
	calibrator := NewCalibrationSolver(engine, nil, solver)

	t.Run("non-positive target", func(t *testing.T) {
		if _, err := calibrator.SolveFor(atmSpec(OptionTypeCall), ParamVolatility, 0, 0.01, 4.0); err == nil {
			t.Error("expected error for zero target")
		}
	})

	t.Run("inverted bracket", func(t *testing.T) {
		if _, err := calibrator.SolveFor(atmSpec(OptionTypeCall), ParamVolatility, 10, 4.0, 0.01); err == nil {
			t.Error("expected error for inverted bracket")
		}
	})

	t.Run("unknown parameter", func(t *testing.T) {
		if _, err := calibrator.SolveFor(atmSpec(OptionTypeCall), "theta", 10, 0.01, 4.0); err == nil {
			t.Error("expected error for unknown parameter")
		}
	})

	t.Run("invalid contract surfaces before iterating", func(t *testing.T) {
		spec := atmSpec(OptionTypeCall).WithSpot(-5)
		if _, err := calibrator.SolveFor(spec, ParamVolatility, 10, 0.01, 4.0); err == nil {
			t.Error("expected error for invalid contract")
		}
	})
}

func TestCalibrationSolver_BatchImpliedVol(t *testing.T) {
	engine, err := NewVectorizedLatticeEngine(101)
	if err != nil {
		t.Fatal(err)
	}
	solver := newTestSolver(t)
	calibrator := NewCalibrationSolver(nil, engine, solver)

	trueVol := 0.3
	batch := strikesBatch(OptionTypePut, StyleAmerican, trueVol)
	priced, err := engine.PriceBatch(batch)
	if err != nil {
		t.Fatal(err)
	}
	targets := make([]float64, len(priced))
	for j := range priced {
		targets[j] = priced[j].Price
	}

	results, err := calibrator.SolveVolatilityBatch(batch, targets, 0.01, 4.0)
	if err != nil {
		t.Fatalf("SolveVolatilityBatch: %v", err)
	}
	for j := range results {
		if !results[j].Converged {
			t.Errorf("element %d not converged: %+v", j, results[j])
		}
		if !approxEqual(results[j].Root, trueVol, 1e-6) {
			t.Errorf("element %d: implied vol = %v, want %v", j, results[j].Root, trueVol)
		}
	}
}

func TestCalibrationSolver_BatchValidation(t *testing.T) {
	engine, err := NewVectorizedLatticeEngine(101)
	if err != nil {
		t.Fatal(err)
	}
	solver := newTestSolver(t)

	t.Run("missing batch engine", func(t *testing.T) {
		calibrator := NewCalibrationSolver(NewClosedFormEngine(), nil, solver)
		if _, err := calibrator.SolveVolatilityBatch(strikesBatch(OptionTypeCall, StyleEuropean, 0.3), []float64{1, 2, 3, 4, 5}, 0.01, 4.0); err == nil {
			t.Error("expected error without batch engine")
		}
	})

	t.Run("targets length mismatch", func(t *testing.T) {
		calibrator := NewCalibrationSolver(nil, engine, solver)
		if _, err := calibrator.SolveVolatilityBatch(strikesBatch(OptionTypeCall, StyleEuropean, 0.3), []float64{1, 2}, 0.01, 4.0); err == nil {
			t.Error("expected error for targets length mismatch")
		}
	})
}
