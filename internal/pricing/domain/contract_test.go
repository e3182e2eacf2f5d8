package domain

import (
	"strings"
	"testing"
)

func TestContractSpec_WithReturnsCopy(t *testing.T) {
	spec := atmSpec(OptionTypeCall)
	modified := spec.WithVolatility(0.5).WithSpot(120).WithRate(0.01)

	if spec.Volatility != 0.3 || spec.Spot != 100 || spec.RiskFreeRate != 0.07 {
		t.Errorf("original mutated: %+v", spec)
	}
	if modified.Volatility != 0.5 || modified.Spot != 120 || modified.RiskFreeRate != 0.01 {
		t.Errorf("copy missing updates: %+v", modified)
	}
}

func TestContractSpec_TypeSign(t *testing.T) {
	if got := atmSpec(OptionTypeCall).TypeSign(); got != 1 {
		t.Errorf("call sign = %v, want 1", got)
	}
	if got := atmSpec(OptionTypePut).TypeSign(); got != -1 {
		t.Errorf("put sign = %v, want -1", got)
	}
}

func TestContractSpec_ValidateNamesField(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(ContractSpec) ContractSpec
		keyword string
	}{
		{"spot", func(s ContractSpec) ContractSpec { return s.WithSpot(0) }, "spot"},
		{"strike", func(s ContractSpec) ContractSpec { s.Strike = 0; return s }, "strike"},
		{"expiry", func(s ContractSpec) ContractSpec { return s.WithTimeToExpiry(-1) }, "time_to_expiry"},
		{"volatility", func(s ContractSpec) ContractSpec { return s.WithVolatility(0) }, "volatility"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.mutate(atmSpec(OptionTypeCall)).Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.keyword) {
				t.Errorf("error %q does not name field %q", err.Error(), tc.keyword)
			}
		})
	}

	// 负利率与负股息率是合法输入
	valid := atmSpec(OptionTypeCall).WithRate(-0.01).WithDividendYield(-0.02)
	if err := valid.Validate(); err != nil {
		t.Errorf("negative rates rejected: %v", err)
	}
}
