package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/logger"
)

// MarketPriceMessage 行情价格消息
type MarketPriceMessage struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
}

// MarketPriceHandler 消费行情价格并写入行情存储，
// 供后续定价请求在未显式给出标的价格时读取
type MarketPriceHandler struct {
	store domain.MarketDataStore
}

// NewMarketPriceHandler 创建行情消费处理器
func NewMarketPriceHandler(store domain.MarketDataStore) *MarketPriceHandler {
	return &MarketPriceHandler{store: store}
}

// Handle 处理单条行情消息。非法消息记录日志后丢弃，不阻塞消费。
func (h *MarketPriceHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var m MarketPriceMessage
	if err := json.Unmarshal(msg.Value, &m); err != nil {
		logger.Warn(ctx, "discarding malformed market price message",
			"topic", msg.Topic, "offset", msg.Offset, "error", err)
		return nil
	}
	if m.Symbol == "" || m.Price <= 0 {
		logger.Warn(ctx, "discarding invalid market price",
			"symbol", m.Symbol, "price", m.Price)
		return nil
	}

	if err := h.store.SetSpot(ctx, m.Symbol, m.Price); err != nil {
		return fmt.Errorf("store spot %s: %w", m.Symbol, err)
	}
	logger.Debug(ctx, "market price updated", "symbol", m.Symbol, "price", m.Price)
	return nil
}
