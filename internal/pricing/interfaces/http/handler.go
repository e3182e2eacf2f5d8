package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/optionpricing/internal/pricing/application"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/response"
)

// HTTP 处理器
// 负责处理与定价相关的 HTTP 请求
type PricingHandler struct {
	cmd   *application.PricingCommandService
	query *application.PricingQueryService
}

// 创建 HTTP 处理器实例
func NewPricingHandler(cmd *application.PricingCommandService, query *application.PricingQueryService) *PricingHandler {
	return &PricingHandler{cmd: cmd, query: query}
}

// 注册路由
// 将处理器方法绑定到 Gin 路由引擎
func (h *PricingHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/pricing")
	{
		api.POST("/option/price", h.PriceOption)
		api.POST("/option/price/batch", h.BatchPriceOptions)
		api.POST("/option/greeks", h.GetGreeks)
		api.POST("/option/implied-vol", h.Calibrate)
		api.POST("/option/implied-vol/batch", h.BatchCalibrate)
		api.GET("/results/:symbol", h.GetLatestResult)
		api.GET("/results/:symbol/history", h.GetResultHistory)
		api.GET("/calibrations/:symbol", h.GetLatestCalibration)
	}
}

// PriceRequest 定价请求
type PriceRequest struct {
	Symbol        string  `json:"symbol" binding:"required"`
	Type          string  `json:"type" binding:"required"`
	Style         string  `json:"style"`
	Spot          float64 `json:"spot" binding:"required"`
	Strike        float64 `json:"strike" binding:"required"`
	TimeToExpiry  float64 `json:"time_to_expiry" binding:"required"`
	RiskFreeRate  float64 `json:"risk_free_rate"`
	DividendYield float64 `json:"dividend_yield"`
	Volatility    float64 `json:"volatility" binding:"required"`
	PricingModel  string  `json:"pricing_model"`
	LatticeSteps  int     `json:"lattice_steps"`
}

// PriceOption 期权定价
func (h *PricingHandler) PriceOption(c *gin.Context) {
	var req PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.cmd.PriceOption(c.Request.Context(), application.PriceOptionCommand{
		Symbol:        req.Symbol,
		Type:          req.Type,
		Style:         req.Style,
		Spot:          req.Spot,
		Strike:        req.Strike,
		TimeToExpiry:  req.TimeToExpiry,
		RiskFreeRate:  req.RiskFreeRate,
		DividendYield: req.DividendYield,
		Volatility:    req.Volatility,
		PricingModel:  req.PricingModel,
		LatticeSteps:  req.LatticeSteps,
	})
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to price option", "symbol", req.Symbol, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, result)
}

// BatchPriceRequest 批量定价请求
type BatchPriceRequest struct {
	BatchID       string    `json:"batch_id"`
	Symbols       []string  `json:"symbols" binding:"required"`
	Type          string    `json:"type" binding:"required"`
	Style         string    `json:"style"`
	Spot          []float64 `json:"spot" binding:"required"`
	Strike        []float64 `json:"strike" binding:"required"`
	TimeToExpiry  []float64 `json:"time_to_expiry" binding:"required"`
	RiskFreeRate  []float64 `json:"risk_free_rate" binding:"required"`
	DividendYield []float64 `json:"dividend_yield" binding:"required"`
	Volatility    []float64 `json:"volatility" binding:"required"`
	LatticeSteps  int       `json:"lattice_steps"`
}

// BatchPriceOptions 批量定价
func (h *PricingHandler) BatchPriceOptions(c *gin.Context) {
	var req BatchPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.cmd.BatchPriceOptions(c.Request.Context(), application.BatchPriceOptionsCommand{
		BatchID:       req.BatchID,
		Symbols:       req.Symbols,
		Type:          req.Type,
		Style:         req.Style,
		Spot:          req.Spot,
		Strike:        req.Strike,
		TimeToExpiry:  req.TimeToExpiry,
		RiskFreeRate:  req.RiskFreeRate,
		DividendYield: req.DividendYield,
		Volatility:    req.Volatility,
		LatticeSteps:  req.LatticeSteps,
	})
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to batch price options", "batch_id", req.BatchID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, result)
}

// GreeksRequest 希腊字母请求。spot 缺省时使用行情存储中的最新价。
type GreeksRequest struct {
	Symbol        string  `json:"symbol" binding:"required"`
	Type          string  `json:"type" binding:"required"`
	Spot          float64 `json:"spot"`
	Strike        float64 `json:"strike" binding:"required"`
	TimeToExpiry  float64 `json:"time_to_expiry" binding:"required"`
	RiskFreeRate  float64 `json:"risk_free_rate"`
	DividendYield float64 `json:"dividend_yield"`
	Volatility    float64 `json:"volatility" binding:"required"`
}

// GetGreeks 获取希腊字母
func (h *PricingHandler) GetGreeks(c *gin.Context) {
	var req GreeksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	greeks, err := h.query.GetGreeks(c.Request.Context(), application.GreeksQuery{
		Symbol:        req.Symbol,
		Type:          req.Type,
		Spot:          req.Spot,
		Strike:        req.Strike,
		TimeToExpiry:  req.TimeToExpiry,
		RiskFreeRate:  req.RiskFreeRate,
		DividendYield: req.DividendYield,
		Volatility:    req.Volatility,
	})
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to calculate Greeks", "symbol", req.Symbol, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, greeks)
}

// CalibrateRequest 校准请求
type CalibrateRequest struct {
	Symbol        string  `json:"symbol" binding:"required"`
	Type          string  `json:"type" binding:"required"`
	Style         string  `json:"style"`
	Spot          float64 `json:"spot" binding:"required"`
	Strike        float64 `json:"strike" binding:"required"`
	TimeToExpiry  float64 `json:"time_to_expiry" binding:"required"`
	RiskFreeRate  float64 `json:"risk_free_rate"`
	DividendYield float64 `json:"dividend_yield"`
	Volatility    float64 `json:"volatility"`
	TargetPrice   float64 `json:"target_price" binding:"required"`
	Parameter     string  `json:"parameter"`
	BracketLow    float64 `json:"bracket_low"`
	BracketHigh   float64 `json:"bracket_high"`
	PricingModel  string  `json:"pricing_model"`
	LatticeSteps  int     `json:"lattice_steps"`
}

// Calibrate 参数校准，缺省反解隐含波动率
func (h *PricingHandler) Calibrate(c *gin.Context) {
	var req CalibrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.cmd.Calibrate(c.Request.Context(), application.CalibrateCommand{
		Symbol:        req.Symbol,
		Type:          req.Type,
		Style:         req.Style,
		Spot:          req.Spot,
		Strike:        req.Strike,
		TimeToExpiry:  req.TimeToExpiry,
		RiskFreeRate:  req.RiskFreeRate,
		DividendYield: req.DividendYield,
		Volatility:    req.Volatility,
		TargetPrice:   req.TargetPrice,
		Parameter:     req.Parameter,
		BracketLow:    req.BracketLow,
		BracketHigh:   req.BracketHigh,
		PricingModel:  req.PricingModel,
		LatticeSteps:  req.LatticeSteps,
	})
	if err != nil {
		var signsErr *domain.EqualSignsError
		if errors.As(err, &signsErr) {
			// 观察价落在括号区间可达的价格范围之外
			response.ErrorWithStatus(c, http.StatusUnprocessableEntity, err.Error(), "")
			return
		}
		logger.Error(c.Request.Context(), "Failed to calibrate", "symbol", req.Symbol, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, result)
}

// BatchCalibrateRequest 批量校准请求
type BatchCalibrateRequest struct {
	BatchID       string    `json:"batch_id"`
	Symbols       []string  `json:"symbols" binding:"required"`
	Type          string    `json:"type" binding:"required"`
	Style         string    `json:"style"`
	Spot          []float64 `json:"spot" binding:"required"`
	Strike        []float64 `json:"strike" binding:"required"`
	TimeToExpiry  []float64 `json:"time_to_expiry" binding:"required"`
	RiskFreeRate  []float64 `json:"risk_free_rate" binding:"required"`
	DividendYield []float64 `json:"dividend_yield" binding:"required"`
	TargetPrices  []float64 `json:"target_prices" binding:"required"`
	BracketLow    float64   `json:"bracket_low"`
	BracketHigh   float64   `json:"bracket_high"`
	LatticeSteps  int       `json:"lattice_steps"`
}

// BatchCalibrate 批量隐含波动率校准
func (h *PricingHandler) BatchCalibrate(c *gin.Context) {
	var req BatchCalibrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.cmd.BatchCalibrate(c.Request.Context(), application.BatchCalibrateCommand{
		BatchID:       req.BatchID,
		Symbols:       req.Symbols,
		Type:          req.Type,
		Style:         req.Style,
		Spot:          req.Spot,
		Strike:        req.Strike,
		TimeToExpiry:  req.TimeToExpiry,
		RiskFreeRate:  req.RiskFreeRate,
		DividendYield: req.DividendYield,
		TargetPrices:  req.TargetPrices,
		BracketLow:    req.BracketLow,
		BracketHigh:   req.BracketHigh,
		LatticeSteps:  req.LatticeSteps,
	})
	if err != nil {
		var signsErr *domain.EqualSignsError
		if errors.As(err, &signsErr) {
			response.ErrorWithStatus(c, http.StatusUnprocessableEntity, err.Error(), "")
			return
		}
		logger.Error(c.Request.Context(), "Failed to batch calibrate", "batch_id", req.BatchID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, result)
}

// GetLatestResult 查询最新定价结果
func (h *PricingHandler) GetLatestResult(c *gin.Context) {
	symbol := c.Param("symbol")
	result, err := h.query.GetLatestResult(c.Request.Context(), symbol)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to get latest result", "symbol", symbol, "error", err)
		response.InternalError(c, err.Error())
		return
	}
	if result == nil {
		response.ErrorWithStatus(c, http.StatusNotFound, "no pricing result for symbol", symbol)
		return
	}
	response.Success(c, result)
}

// GetResultHistory 查询定价结果历史
func (h *PricingHandler) GetResultHistory(c *gin.Context) {
	symbol := c.Param("symbol")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	results, err := h.query.GetResultHistory(c.Request.Context(), symbol, limit)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to get result history", "symbol", symbol, "error", err)
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, results)
}

// GetLatestCalibration 查询最新校准结果
func (h *PricingHandler) GetLatestCalibration(c *gin.Context) {
	symbol := c.Param("symbol")
	result, err := h.query.GetLatestCalibration(c.Request.Context(), symbol)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to get latest calibration", "symbol", symbol, "error", err)
		response.InternalError(c, err.Error())
		return
	}
	if result == nil {
		response.ErrorWithStatus(c, http.StatusNotFound, "no calibration result for symbol", symbol)
		return
	}
	response.Success(c, result)
}
