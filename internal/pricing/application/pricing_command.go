package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/contextx"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/messagequeue"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
)

// Options 定价服务的数值参数，来自配置文件
type Options struct {
	LatticeSteps        int
	SolverTolerance     float64
	SolverMaxIterations int
	VolBracketLow       float64
	VolBracketHigh      float64
}

// PricingCommandService 处理定价相关的命令操作
// 使用 Outbox 发布领域事件
type PricingCommandService struct {
	repo      domain.PricingRepository
	publisher messagequeue.EventPublisher
	metrics   *metrics.Metrics
	opts      Options
}

// NewPricingCommandService 创建新的 PricingCommandService 实例
func NewPricingCommandService(repo domain.PricingRepository, publisher messagequeue.EventPublisher, m *metrics.Metrics, opts Options) *PricingCommandService {
	return &PricingCommandService{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		opts:      opts,
	}
}

// toContractSpec 把命令字段装配为合约，行权方式缺省为欧式
func toContractSpec(typ, style string, spot, strike, t, r, q, vol float64) domain.ContractSpec {
	if style == "" {
		style = string(domain.StyleEuropean)
	}
	return domain.ContractSpec{
		Spot:          spot,
		Strike:        strike,
		TimeToExpiry:  t,
		RiskFreeRate:  r,
		DividendYield: q,
		Volatility:    vol,
		Type:          domain.OptionType(typ),
		Style:         domain.ExerciseStyle(style),
	}
}

// resolveModel 模型缺省规则：美式行权用二叉树，欧式用闭式解
func resolveModel(model string, style domain.ExerciseStyle) string {
	if model != "" {
		return model
	}
	if style == domain.StyleAmerican {
		return ModelLeisenReimer
	}
	return ModelBlackScholes
}

// engineFor 按模型名与步数构造估值引擎
func (c *PricingCommandService) engineFor(model string, steps int) (domain.ValuationEngine, error) {
	if steps <= 0 {
		steps = c.opts.LatticeSteps
	}
	switch model {
	case ModelBlackScholes:
		return domain.NewClosedFormEngine(), nil
	case ModelLeisenReimer:
		return domain.NewLatticeEngine(steps)
	default:
		return nil, fmt.Errorf("unknown pricing model %q", model)
	}
}

// PriceOption 期权定价。估值结果落库并通过 Outbox 发布
// OptionPriced 与 GreeksCalculated 事件。
func (c *PricingCommandService) PriceOption(ctx context.Context, cmd PriceOptionCommand) (*domain.PricingResult, error) {
	if cmd.Symbol == "" {
		return nil, errors.New("symbol is required")
	}

	spec := toContractSpec(cmd.Type, cmd.Style,
		cmd.Spot, cmd.Strike, cmd.TimeToExpiry, cmd.RiskFreeRate, cmd.DividendYield, cmd.Volatility)
	model := resolveModel(cmd.PricingModel, spec.Style)
	steps := cmd.LatticeSteps
	if steps <= 0 {
		steps = c.opts.LatticeSteps
	}

	engine, err := c.engineFor(model, steps)
	if err != nil {
		return nil, err
	}
	if model == ModelBlackScholes {
		steps = 0
	}

	start := time.Now()
	valuation, err := engine.Price(spec)
	if err != nil {
		c.publishPricingError(ctx, cmd.Symbol, spec, err)
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.ValuationsTotal.WithLabelValues(model).Inc()
		c.metrics.ValuationDuration.Observe(time.Since(start).Seconds())
		if steps > 0 {
			c.metrics.LatticeSteps.Observe(float64(steps))
		}
	}

	result := domain.NewPricingResult(cmd.Symbol, spec, model, steps, valuation)

	err = c.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := c.repo.SaveResult(txCtx, result); err != nil {
			return err
		}
		if c.publisher == nil {
			return nil
		}
		tx := contextx.GetTx(txCtx)
		now := time.Now()
		priced := domain.OptionPricedEvent{
			Symbol:       cmd.Symbol,
			OptionType:   spec.Type,
			Style:        spec.Style,
			Spot:         spec.Spot,
			Strike:       spec.Strike,
			TimeToExpiry: spec.TimeToExpiry,
			Volatility:   spec.Volatility,
			OptionPrice:  valuation.Price,
			PricingModel: model,
			CalculatedAt: result.CalculatedAt,
			OccurredOn:   now,
		}
		if err := c.publisher.PublishInTx(txCtx, tx, domain.OptionPricedEventType, cmd.Symbol, priced); err != nil {
			return err
		}
		greeks := domain.GreeksCalculatedEvent{
			Symbol:       cmd.Symbol,
			OptionType:   spec.Type,
			Spot:         spec.Spot,
			Strike:       spec.Strike,
			Delta:        valuation.Delta,
			Gamma:        valuation.Gamma,
			Theta:        valuation.Theta,
			Vega:         valuation.Vega,
			Rho:          valuation.Rho,
			CalculatedAt: result.CalculatedAt,
			OccurredOn:   now,
		}
		return c.publisher.PublishInTx(txCtx, tx, domain.GreeksCalculatedEventType, cmd.Symbol, greeks)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// BatchPriceOptions 批量定价。整批合约走向量化二叉树引擎一次估值，
// 结果在同一个事务中落库。
func (c *PricingCommandService) BatchPriceOptions(ctx context.Context, cmd BatchPriceOptionsCommand) (*BatchPricingResult, error) {
	if len(cmd.Symbols) == 0 {
		return nil, errors.New("symbols are required")
	}
	if len(cmd.Symbols) != len(cmd.Spot) {
		return nil, fmt.Errorf("symbols length %d does not match batch size %d", len(cmd.Symbols), len(cmd.Spot))
	}

	style := cmd.Style
	if style == "" {
		style = string(domain.StyleEuropean)
	}
	batch := domain.BatchContractSpec{
		Spot:          cmd.Spot,
		Strike:        cmd.Strike,
		TimeToExpiry:  cmd.TimeToExpiry,
		RiskFreeRate:  cmd.RiskFreeRate,
		DividendYield: cmd.DividendYield,
		Volatility:    cmd.Volatility,
		Type:          domain.OptionType(cmd.Type),
		Style:         domain.ExerciseStyle(style),
	}

	steps := cmd.LatticeSteps
	if steps <= 0 {
		steps = c.opts.LatticeSteps
	}
	engine, err := domain.NewVectorizedLatticeEngine(steps)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	valuations, err := engine.PriceBatch(batch)
	if err != nil {
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.ValuationsTotal.WithLabelValues(ModelLeisenReimer).Add(float64(batch.Len()))
		c.metrics.ValuationDuration.Observe(time.Since(start).Seconds())
		c.metrics.LatticeSteps.Observe(float64(steps))
	}

	results := make([]*domain.PricingResult, batch.Len())
	for j := range valuations {
		results[j] = domain.NewPricingResult(cmd.Symbols[j], batch.At(j), ModelLeisenReimer, steps, &valuations[j])
	}

	err = c.repo.WithTx(ctx, func(txCtx context.Context) error {
		tx := contextx.GetTx(txCtx)
		now := time.Now()
		for j, result := range results {
			if err := c.repo.SaveResult(txCtx, result); err != nil {
				return err
			}
			if c.publisher == nil {
				continue
			}
			spec := batch.At(j)
			event := domain.OptionPricedEvent{
				Symbol:       cmd.Symbols[j],
				OptionType:   spec.Type,
				Style:        spec.Style,
				Spot:         spec.Spot,
				Strike:       spec.Strike,
				TimeToExpiry: spec.TimeToExpiry,
				Volatility:   spec.Volatility,
				OptionPrice:  valuations[j].Price,
				PricingModel: ModelLeisenReimer,
				CalculatedAt: result.CalculatedAt,
				OccurredOn:   now,
			}
			if err := c.publisher.PublishInTx(txCtx, tx, domain.OptionPricedEventType, cmd.Symbols[j], event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &BatchPricingResult{BatchID: cmd.BatchID, Results: results}, nil
}

// Calibrate 参数校准。给定市场观察价，反解合约参数（缺省为波动率）。
// 迭代未收敛时结果照常落库，Converged 字段置 false。
func (c *PricingCommandService) Calibrate(ctx context.Context, cmd CalibrateCommand) (*domain.CalibrationResult, error) {
	if cmd.Symbol == "" {
		return nil, errors.New("symbol is required")
	}

	param := domain.CalibrationParameter(cmd.Parameter)
	if param == "" {
		param = domain.ParamVolatility
	}
	lo, hi := cmd.BracketLow, cmd.BracketHigh
	if lo == 0 && hi == 0 {
		if param != domain.ParamVolatility {
			return nil, fmt.Errorf("bracket is required when calibrating %s", param)
		}
		lo, hi = c.opts.VolBracketLow, c.opts.VolBracketHigh
	}

	vol := cmd.Volatility
	if vol <= 0 && param == domain.ParamVolatility {
		// 波动率由求解器覆盖，这里只需要一个通过参数校验的占位值
		vol = lo
	}
	spec := toContractSpec(cmd.Type, cmd.Style,
		cmd.Spot, cmd.Strike, cmd.TimeToExpiry, cmd.RiskFreeRate, cmd.DividendYield, vol)
	model := resolveModel(cmd.PricingModel, spec.Style)

	engine, err := c.engineFor(model, cmd.LatticeSteps)
	if err != nil {
		return nil, err
	}
	solver, err := domain.NewBrentSolver(c.opts.SolverTolerance, c.opts.SolverMaxIterations)
	if err != nil {
		return nil, err
	}

	root, err := domain.NewCalibrationSolver(engine, nil, solver).SolveFor(spec, param, cmd.TargetPrice, lo, hi)
	if err != nil {
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.CalibrationsTotal.Inc()
		c.metrics.CalibrationIterations.Observe(float64(root.Iterations))
		if !root.Converged {
			c.metrics.CalibrationFailures.Inc()
		}
	}
	if !root.Converged {
		logger.Warn(ctx, "calibration hit iteration cap",
			"symbol", cmd.Symbol, "parameter", string(param), "residual", root.Residual)
	}

	result := domain.NewCalibrationResult(cmd.Symbol, param, cmd.TargetPrice, model, root)
	err = c.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := c.repo.SaveCalibration(txCtx, result); err != nil {
			return err
		}
		if c.publisher == nil || param != domain.ParamVolatility {
			return nil
		}
		event := domain.VolatilityCalibratedEvent{
			Symbol:       cmd.Symbol,
			TargetPrice:  cmd.TargetPrice,
			ImpliedVol:   root.Root,
			Residual:     root.Residual,
			Iterations:   root.Iterations,
			Converged:    root.Converged,
			PricingModel: model,
			CalibratedAt: result.CalculatedAt,
			OccurredOn:   time.Now(),
		}
		return c.publisher.PublishInTx(txCtx, contextx.GetTx(txCtx), domain.VolatilityCalibratedEventType, cmd.Symbol, event)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// BatchCalibrate 批量隐含波动率校准。残差向量由向量化二叉树引擎
// 一次求值，整批根同步迭代。
func (c *PricingCommandService) BatchCalibrate(ctx context.Context, cmd BatchCalibrateCommand) (*BatchCalibrationResult, error) {
	if len(cmd.Symbols) == 0 {
		return nil, errors.New("symbols are required")
	}
	if len(cmd.Symbols) != len(cmd.Spot) {
		return nil, fmt.Errorf("symbols length %d does not match batch size %d", len(cmd.Symbols), len(cmd.Spot))
	}

	lo, hi := cmd.BracketLow, cmd.BracketHigh
	if lo == 0 && hi == 0 {
		lo, hi = c.opts.VolBracketLow, c.opts.VolBracketHigh
	}

	style := cmd.Style
	if style == "" {
		style = string(domain.StyleEuropean)
	}
	vols := make([]float64, len(cmd.Spot))
	for j := range vols {
		vols[j] = lo
	}
	batch := domain.BatchContractSpec{
		Spot:          cmd.Spot,
		Strike:        cmd.Strike,
		TimeToExpiry:  cmd.TimeToExpiry,
		RiskFreeRate:  cmd.RiskFreeRate,
		DividendYield: cmd.DividendYield,
		Volatility:    vols,
		Type:          domain.OptionType(cmd.Type),
		Style:         domain.ExerciseStyle(style),
	}

	steps := cmd.LatticeSteps
	if steps <= 0 {
		steps = c.opts.LatticeSteps
	}
	engine, err := domain.NewVectorizedLatticeEngine(steps)
	if err != nil {
		return nil, err
	}
	solver, err := domain.NewBrentSolver(c.opts.SolverTolerance, c.opts.SolverMaxIterations)
	if err != nil {
		return nil, err
	}

	roots, err := domain.NewCalibrationSolver(nil, engine, solver).
		SolveVolatilityBatch(batch, cmd.TargetPrices, lo, hi)
	if err != nil {
		return nil, err
	}

	converged, diverged := 0, 0
	results := make([]*domain.CalibrationResult, len(roots))
	for j := range roots {
		if roots[j].Converged {
			converged++
		} else {
			diverged++
		}
		if c.metrics != nil {
			c.metrics.CalibrationsTotal.Inc()
			c.metrics.CalibrationIterations.Observe(float64(roots[j].Iterations))
			if !roots[j].Converged {
				c.metrics.CalibrationFailures.Inc()
			}
		}
		results[j] = domain.NewCalibrationResult(cmd.Symbols[j], domain.ParamVolatility,
			cmd.TargetPrices[j], ModelLeisenReimer, &roots[j])
	}

	err = c.repo.WithTx(ctx, func(txCtx context.Context) error {
		tx := contextx.GetTx(txCtx)
		for _, result := range results {
			if err := c.repo.SaveCalibration(txCtx, result); err != nil {
				return err
			}
		}
		if c.publisher == nil {
			return nil
		}
		event := domain.BatchCalibrationCompletedEvent{
			BatchID:        cmd.BatchID,
			Symbols:        cmd.Symbols,
			TotalContracts: len(results),
			ConvergedCount: converged,
			DivergedCount:  diverged,
			CompletedAt:    time.Now().UnixMilli(),
			OccurredOn:     time.Now(),
		}
		return c.publisher.PublishInTx(txCtx, tx, domain.BatchCalibrationCompletedEventType, cmd.BatchID, event)
	})
	if err != nil {
		return nil, err
	}

	return &BatchCalibrationResult{
		BatchID:        cmd.BatchID,
		Results:        results,
		ConvergedCount: converged,
		DivergedCount:  diverged,
	}, nil
}

// publishPricingError 估值失败时发布错误事件，尽力而为
func (c *PricingCommandService) publishPricingError(ctx context.Context, symbol string, spec domain.ContractSpec, cause error) {
	if c.publisher == nil {
		return
	}
	event := domain.PricingErrorEvent{
		Symbol:     symbol,
		OptionType: spec.Type,
		Strike:     spec.Strike,
		Error:      cause.Error(),
		ErrorCode:  "VALUATION_FAILED",
		OccurredAt: time.Now().UnixMilli(),
		OccurredOn: time.Now(),
	}
	if err := c.publisher.Publish(ctx, domain.PricingErrorEventType, symbol, event); err != nil {
		logger.Error(ctx, "failed to publish pricing error event", "symbol", symbol, "error", err)
	}
}
