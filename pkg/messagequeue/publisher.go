// Package messagequeue 提供基于 Outbox 模式的事件发布。
// 事件先随业务事务写入本地 outbox 表，由后台中继轮询投递到 Kafka，
// 保证业务写入与事件发布的原子性。
package messagequeue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/mq"
)

// EventPublisher 事件发布接口
type EventPublisher interface {
	// Publish 在独立事务中发布事件
	Publish(ctx context.Context, eventType, key string, payload any) error
	// PublishInTx 在给定事务中发布事件，tx 必须是 *gorm.DB
	PublishInTx(ctx context.Context, tx any, eventType, key string, payload any) error
}

// OutboxMessage outbox 表记录
type OutboxMessage struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	EventType string    `gorm:"type:varchar(100);index"`
	EventKey  string    `gorm:"type:varchar(100)"`
	Payload   string    `gorm:"type:text"`
	Status    string    `gorm:"type:varchar(20);index;default:'pending'"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName 指定表名
func (OutboxMessage) TableName() string {
	return "pricing_outbox_messages"
}

const (
	statusPending = "pending"
	statusSent    = "sent"

	// 已投递记录的保留期与清扫周期
	sentRetention = 24 * time.Hour
	cleanupEvery  = time.Hour
)

// OutboxPublisher EventPublisher 的 Outbox 实现
type OutboxPublisher struct {
	db *gorm.DB
}

// NewOutboxPublisher 创建 Outbox 发布器
func NewOutboxPublisher(db *gorm.DB) *OutboxPublisher {
	return &OutboxPublisher{db: db}
}

// Publish 在独立事务中写入 outbox
func (p *OutboxPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	return p.insert(ctx, p.db, eventType, key, payload)
}

// PublishInTx 在业务事务中写入 outbox，与业务数据同生共死
func (p *OutboxPublisher) PublishInTx(ctx context.Context, tx any, eventType, key string, payload any) error {
	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return fmt.Errorf("messagequeue: tx is not *gorm.DB")
	}
	return p.insert(ctx, gormTx, eventType, key, payload)
}

func (p *OutboxPublisher) insert(ctx context.Context, db *gorm.DB, eventType, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", eventType, err)
	}
	msg := OutboxMessage{
		ID:        uuid.NewString(),
		EventType: eventType,
		EventKey:  key,
		Payload:   string(data),
		Status:    statusPending,
	}
	return db.WithContext(ctx).Create(&msg).Error
}

// OutboxRelay 后台中继，把待发送的 outbox 记录投递到 Kafka
type OutboxRelay struct {
	db        *gorm.DB
	producer  *mq.KafkaProducer
	topic     string
	batchSize int
	interval  time.Duration
}

// NewOutboxRelay 创建中继，topic 为事件统一投递的 Kafka 主题
func NewOutboxRelay(db *gorm.DB, producer *mq.KafkaProducer, topic string, batchSize int, interval time.Duration) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxRelay{db: db, producer: producer, topic: topic, batchSize: batchSize, interval: interval}
}

// Run 轮询投递并周期性清理过期的已投递记录，直到 ctx 取消
func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	cleanup := time.NewTicker(cleanupEvery)
	defer cleanup.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.relayOnce(ctx); err != nil {
				logger.Error(ctx, "outbox relay failed", "error", err)
			}
		case <-cleanup.C:
			if err := r.Cleanup(ctx, time.Now().Add(-sentRetention)); err != nil {
				logger.Error(ctx, "outbox cleanup failed", "error", err)
			}
		}
	}
}

func (r *OutboxRelay) relayOnce(ctx context.Context) error {
	var messages []OutboxMessage
	if err := r.db.WithContext(ctx).
		Where("status = ?", statusPending).
		Order("created_at asc").
		Limit(r.batchSize).
		Find(&messages).Error; err != nil {
		return err
	}
	for i := range messages {
		msg := &messages[i]
		if err := r.producer.SendRaw(ctx, r.topic, msg.EventKey, []byte(msg.Payload)); err != nil {
			// 投递失败保持 pending，下一轮重试
			return err
		}
		if err := r.db.WithContext(ctx).Model(msg).Update("status", statusSent).Error; err != nil {
			return err
		}
	}
	return nil
}

// Cleanup 删除已投递且早于 before 的记录
func (r *OutboxRelay) Cleanup(ctx context.Context, before time.Time) error {
	return r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", statusSent, before).
		Delete(&OutboxMessage{}).Error
}
