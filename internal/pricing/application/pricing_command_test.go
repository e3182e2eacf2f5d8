package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

// fakeRepository 内存仓储，事务退化为直接执行
type fakeRepository struct {
	results      []*domain.PricingResult
	calibrations []*domain.CalibrationResult
	txDepth      int
	failSave     bool
}

func (r *fakeRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.txDepth++
	return fn(ctx)
}

func (r *fakeRepository) SaveResult(_ context.Context, res *domain.PricingResult) error {
	if r.failSave {
		return assert.AnError
	}
	res.ID = uint(len(r.results) + 1)
	r.results = append(r.results, res)
	return nil
}

func (r *fakeRepository) GetLatestResult(_ context.Context, symbol string) (*domain.PricingResult, error) {
	for i := len(r.results) - 1; i >= 0; i-- {
		if r.results[i].Symbol == symbol {
			return r.results[i], nil
		}
	}
	return nil, nil
}

func (r *fakeRepository) GetResultHistory(_ context.Context, symbol string, limit int) ([]*domain.PricingResult, error) {
	var out []*domain.PricingResult
	for i := len(r.results) - 1; i >= 0 && len(out) < limit; i-- {
		if r.results[i].Symbol == symbol {
			out = append(out, r.results[i])
		}
	}
	return out, nil
}

func (r *fakeRepository) CleanupOldResults(_ context.Context, retention time.Duration) error {
	cutoff := time.Now().Add(-retention).UnixMilli()
	kept := r.results[:0]
	for _, res := range r.results {
		if res.CalculatedAt >= cutoff {
			kept = append(kept, res)
		}
	}
	r.results = kept
	return nil
}

func (r *fakeRepository) SaveCalibration(_ context.Context, res *domain.CalibrationResult) error {
	res.ID = uint(len(r.calibrations) + 1)
	r.calibrations = append(r.calibrations, res)
	return nil
}

func (r *fakeRepository) GetLatestCalibration(_ context.Context, symbol string) (*domain.CalibrationResult, error) {
	for i := len(r.calibrations) - 1; i >= 0; i-- {
		if r.calibrations[i].Symbol == symbol {
			return r.calibrations[i], nil
		}
	}
	return nil, nil
}

// fakePublisher 记录发布的事件
type fakePublisher struct {
	events []publishedEvent
}

type publishedEvent struct {
	eventType string
	key       string
	payload   any
	inTx      bool
}

func (p *fakePublisher) Publish(_ context.Context, eventType, key string, payload any) error {
	p.events = append(p.events, publishedEvent{eventType: eventType, key: key, payload: payload})
	return nil
}

func (p *fakePublisher) PublishInTx(_ context.Context, _ any, eventType, key string, payload any) error {
	p.events = append(p.events, publishedEvent{eventType: eventType, key: key, payload: payload, inTx: true})
	return nil
}

func testOptions() Options {
	return Options{
		LatticeSteps:        101,
		SolverTolerance:     1e-9,
		SolverMaxIterations: 100,
		VolBracketLow:       0.01,
		VolBracketHigh:      4.0,
	}
}

func atmCommand() PriceOptionCommand {
	return PriceOptionCommand{
		Symbol:       "AAPL-C-100",
		Type:         "CALL",
		Spot:         100,
		Strike:       100,
		TimeToExpiry: 0.5,
		RiskFreeRate: 0.07,
		Volatility:   0.3,
	}
}

func TestPriceOption_BlackScholesDefault(t *testing.T) {
	repo := &fakeRepository{}
	pub := &fakePublisher{}
	svc := NewPricingCommandService(repo, pub, nil, testOptions())

	result, err := svc.PriceOption(context.Background(), atmCommand())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, ModelBlackScholes, result.PricingModel)
	assert.InDelta(t, 10.1337, result.OptionPrice.InexactFloat64(), 1e-3)
	assert.Len(t, repo.results, 1)
	assert.Equal(t, 1, repo.txDepth)

	require.Len(t, pub.events, 2)
	assert.Equal(t, domain.OptionPricedEventType, pub.events[0].eventType)
	assert.Equal(t, domain.GreeksCalculatedEventType, pub.events[1].eventType)
	assert.True(t, pub.events[0].inTx, "events must go through the outbox transaction")
}

func TestPriceOption_AmericanDefaultsToLattice(t *testing.T) {
	repo := &fakeRepository{}
	svc := NewPricingCommandService(repo, nil, nil, testOptions())

	cmd := atmCommand()
	cmd.Type = "PUT"
	cmd.Style = "AMERICAN"
	result, err := svc.PriceOption(context.Background(), cmd)
	require.NoError(t, err)

	assert.Equal(t, ModelLeisenReimer, result.PricingModel)
	assert.Equal(t, 101, result.LatticeSteps)
}

func TestPriceOption_Validation(t *testing.T) {
	svc := NewPricingCommandService(&fakeRepository{}, nil, nil, testOptions())

	t.Run("missing symbol", func(t *testing.T) {
		cmd := atmCommand()
		cmd.Symbol = ""
		_, err := svc.PriceOption(context.Background(), cmd)
		assert.Error(t, err)
	})

	t.Run("invalid contract publishes error event", func(t *testing.T) {
		repo := &fakeRepository{}
		pub := &fakePublisher{}
		svcWithPub := NewPricingCommandService(repo, pub, nil, testOptions())

		cmd := atmCommand()
		cmd.Volatility = -1
		_, err := svcWithPub.PriceOption(context.Background(), cmd)
		require.Error(t, err)
		assert.Empty(t, repo.results)
		require.Len(t, pub.events, 1)
		assert.Equal(t, domain.PricingErrorEventType, pub.events[0].eventType)
	})

	t.Run("unknown model", func(t *testing.T) {
		cmd := atmCommand()
		cmd.PricingModel = "heston"
		_, err := svc.PriceOption(context.Background(), cmd)
		assert.Error(t, err)
	})
}

func TestPriceOption_SaveFailureAbortsTx(t *testing.T) {
	repo := &fakeRepository{failSave: true}
	pub := &fakePublisher{}
	svc := NewPricingCommandService(repo, pub, nil, testOptions())

	_, err := svc.PriceOption(context.Background(), atmCommand())
	assert.Error(t, err)
	assert.Empty(t, pub.events)
}

func TestBatchPriceOptions(t *testing.T) {
	repo := &fakeRepository{}
	pub := &fakePublisher{}
	svc := NewPricingCommandService(repo, pub, nil, testOptions())

	cmd := BatchPriceOptionsCommand{
		BatchID:       "batch-1",
		Symbols:       []string{"P80", "P90", "P100", "P110", "P120"},
		Type:          "PUT",
		Style:         "AMERICAN",
		Spot:          []float64{100, 100, 100, 100, 100},
		Strike:        []float64{80, 90, 100, 110, 120},
		TimeToExpiry:  []float64{0.5, 0.5, 0.5, 0.5, 0.5},
		RiskFreeRate:  []float64{0.07, 0.07, 0.07, 0.07, 0.07},
		DividendYield: []float64{0, 0, 0, 0, 0},
		Volatility:    []float64{0.3, 0.3, 0.3, 0.3, 0.3},
	}
	result, err := svc.BatchPriceOptions(context.Background(), cmd)
	require.NoError(t, err)
	require.Len(t, result.Results, 5)
	assert.Len(t, repo.results, 5)
	assert.Len(t, pub.events, 5)

	// 看跌价格随行权价递增
	for j := 1; j < 5; j++ {
		prev := result.Results[j-1].OptionPrice.InexactFloat64()
		cur := result.Results[j].OptionPrice.InexactFloat64()
		assert.Greater(t, cur, prev, "put prices must increase in strike")
	}
}

func TestBatchPriceOptions_SymbolLengthMismatch(t *testing.T) {
	svc := NewPricingCommandService(&fakeRepository{}, nil, nil, testOptions())
	_, err := svc.BatchPriceOptions(context.Background(), BatchPriceOptionsCommand{
		Symbols: []string{"A", "B"},
		Type:    "CALL",
		Spot:    []float64{100},
	})
	assert.Error(t, err)
}

func TestCalibrate_RoundTrip(t *testing.T) {
	repo := &fakeRepository{}
	pub := &fakePublisher{}
	svc := NewPricingCommandService(repo, pub, nil, testOptions())

	// 先用已知波动率定价，再用该价格反解
	priced, err := svc.PriceOption(context.Background(), atmCommand())
	require.NoError(t, err)

	result, err := svc.Calibrate(context.Background(), CalibrateCommand{
		Symbol:       "AAPL-C-100",
		Type:         "CALL",
		Spot:         100,
		Strike:       100,
		TimeToExpiry: 0.5,
		RiskFreeRate: 0.07,
		TargetPrice:  priced.OptionPrice.InexactFloat64(),
	})
	require.NoError(t, err)

	assert.True(t, result.Converged)
	assert.Equal(t, string(domain.ParamVolatility), result.Parameter)
	assert.InDelta(t, 0.3, result.SolvedValue.InexactFloat64(), 1e-6)
	assert.Len(t, repo.calibrations, 1)

	var volEvent *publishedEvent
	for i := range pub.events {
		if pub.events[i].eventType == domain.VolatilityCalibratedEventType {
			volEvent = &pub.events[i]
		}
	}
	require.NotNil(t, volEvent, "expected VolatilityCalibrated event")
	assert.True(t, volEvent.inTx)
}

func TestCalibrate_UnbracketedTarget(t *testing.T) {
	svc := NewPricingCommandService(&fakeRepository{}, nil, nil, testOptions())

	_, err := svc.Calibrate(context.Background(), CalibrateCommand{
		Symbol:       "AAPL-C-100",
		Type:         "CALL",
		Spot:         100,
		Strike:       100,
		TimeToExpiry: 0.5,
		RiskFreeRate: 0.07,
		TargetPrice:  1000,
	})
	require.Error(t, err)
	var signsErr *domain.EqualSignsError
	assert.ErrorAs(t, err, &signsErr)
}

func TestBatchCalibrate_RecoversVolatility(t *testing.T) {
	repo := &fakeRepository{}
	pub := &fakePublisher{}
	svc := NewPricingCommandService(repo, pub, nil, testOptions())

	price := BatchPriceOptionsCommand{
		BatchID:       "batch-iv",
		Symbols:       []string{"P80", "P90", "P100", "P110", "P120"},
		Type:          "PUT",
		Style:         "AMERICAN",
		Spot:          []float64{100, 100, 100, 100, 100},
		Strike:        []float64{80, 90, 100, 110, 120},
		TimeToExpiry:  []float64{0.5, 0.5, 0.5, 0.5, 0.5},
		RiskFreeRate:  []float64{0.07, 0.07, 0.07, 0.07, 0.07},
		DividendYield: []float64{0, 0, 0, 0, 0},
		Volatility:    []float64{0.3, 0.3, 0.3, 0.3, 0.3},
	}
	priced, err := svc.BatchPriceOptions(context.Background(), price)
	require.NoError(t, err)

	targets := make([]float64, len(priced.Results))
	for j := range priced.Results {
		targets[j] = priced.Results[j].OptionPrice.InexactFloat64()
	}

	result, err := svc.BatchCalibrate(context.Background(), BatchCalibrateCommand{
		BatchID:       "batch-iv",
		Symbols:       price.Symbols,
		Type:          price.Type,
		Style:         price.Style,
		Spot:          price.Spot,
		Strike:        price.Strike,
		TimeToExpiry:  price.TimeToExpiry,
		RiskFreeRate:  price.RiskFreeRate,
		DividendYield: price.DividendYield,
		TargetPrices:  targets,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, result.ConvergedCount)
	assert.Zero(t, result.DivergedCount)
	for j := range result.Results {
		assert.InDelta(t, 0.3, result.Results[j].SolvedValue.InexactFloat64(), 1e-6,
			"element %d should recover the volatility it was priced with", j)
	}

	last := pub.events[len(pub.events)-1]
	assert.Equal(t, domain.BatchCalibrationCompletedEventType, last.eventType)
}

func TestCleanupOldResults_SweepsExpiredThroughPort(t *testing.T) {
	repo := &fakeRepository{}
	svc := NewPricingCommandService(repo, nil, nil, testOptions())

	_, err := svc.PriceOption(context.Background(), atmCommand())
	require.NoError(t, err)
	require.Len(t, repo.results, 1)

	// 把结果拨到保留期之外再清扫
	repo.results[0].CalculatedAt = time.Now().Add(-48 * time.Hour).UnixMilli()

	var port domain.PricingRepository = repo
	require.NoError(t, port.CleanupOldResults(context.Background(), 24*time.Hour))

	latest, err := port.GetLatestResult(context.Background(), "AAPL-C-100")
	require.NoError(t, err)
	assert.Nil(t, latest, "expired result should be swept")
}
