package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMarketData struct {
	spots map[string]float64
}

func (m *fakeMarketData) SetSpot(_ context.Context, symbol string, price float64) error {
	m.spots[symbol] = price
	return nil
}

func (m *fakeMarketData) GetSpot(_ context.Context, symbol string) (float64, error) {
	price, ok := m.spots[symbol]
	if !ok {
		return 0, errors.New("no spot price")
	}
	return price, nil
}

func TestGetGreeks(t *testing.T) {
	q := NewPricingQueryService(&fakeRepository{}, nil)

	t.Run("expired contract returns zeros", func(t *testing.T) {
		res, err := q.GetGreeks(context.Background(), GreeksQuery{
			Symbol: "X", Type: "CALL", Spot: 100, Strike: 100, TimeToExpiry: 0, Volatility: 0.3,
		})
		require.NoError(t, err)
		assert.Zero(t, res.Delta)
		assert.Zero(t, res.Gamma)
	})

	t.Run("atm call delta", func(t *testing.T) {
		res, err := q.GetGreeks(context.Background(), GreeksQuery{
			Symbol: "X", Type: "CALL", Spot: 100, Strike: 100,
			TimeToExpiry: 0.5, RiskFreeRate: 0.07, Volatility: 0.3,
		})
		require.NoError(t, err)
		assert.Greater(t, res.Delta, 0.5)
		assert.Less(t, res.Delta, 0.7)
	})

	t.Run("missing spot without market data", func(t *testing.T) {
		_, err := q.GetGreeks(context.Background(), GreeksQuery{
			Symbol: "X", Type: "CALL", Strike: 100, TimeToExpiry: 0.5, Volatility: 0.3,
		})
		assert.Error(t, err)
	})
}

func TestGetGreeks_SpotFallsBackToMarketData(t *testing.T) {
	md := &fakeMarketData{spots: map[string]float64{"AAPL": 100}}
	q := NewPricingQueryService(&fakeRepository{}, md)

	res, err := q.GetGreeks(context.Background(), GreeksQuery{
		Symbol: "AAPL", Type: "CALL", Strike: 100,
		TimeToExpiry: 0.5, RiskFreeRate: 0.07, Volatility: 0.3,
	})
	require.NoError(t, err)
	assert.Greater(t, res.Delta, 0.5)

	_, err = q.GetGreeks(context.Background(), GreeksQuery{
		Symbol: "MSFT", Type: "CALL", Strike: 100,
		TimeToExpiry: 0.5, RiskFreeRate: 0.07, Volatility: 0.3,
	})
	assert.Error(t, err, "unknown symbol has no stored spot")
}

func TestQueryService_Results(t *testing.T) {
	repo := &fakeRepository{}
	svc := NewPricingCommandService(repo, nil, nil, testOptions())
	q := NewPricingQueryService(repo, nil)

	_, err := svc.PriceOption(context.Background(), atmCommand())
	require.NoError(t, err)

	latest, err := q.GetLatestResult(context.Background(), "AAPL-C-100")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "AAPL-C-100", latest.Symbol)

	history, err := q.GetResultHistory(context.Background(), "AAPL-C-100", 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	missing, err := q.GetLatestResult(context.Background(), "UNKNOWN")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
