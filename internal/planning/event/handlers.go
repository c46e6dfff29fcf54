package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LogHandler 通知落结构化日志
type LogHandler struct {
	logger *zap.Logger
}

func NewLogHandler(logger *zap.Logger) *LogHandler {
	return &LogHandler{logger: logger}
}

func (h *LogHandler) Handle(n Notification) error {
	h.logger.Info("planning notification",
		zap.String("type", n.Type),
		zap.String("client_id", n.ClientID),
		zap.String("aggregate_id", n.AggregateID),
		zap.Time("occurred_at", n.OccurredAt),
		zap.Any("payload", n.Payload),
	)
	return nil
}

// RedisChannel 通知发布频道
const RedisChannel = "capline:events"

// RedisHandler 通知以JSON发布到Redis，供下游（看板、消息推送）订阅
type RedisHandler struct {
	rdb *redis.Client
}

func NewRedisHandler(rdb *redis.Client) *RedisHandler {
	return &RedisHandler{rdb: rdb}
}

func (h *RedisHandler) Handle(n Notification) error {
	if h.rdb == nil {
		return nil
	}
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := h.rdb.Publish(context.Background(), RedisChannel, data).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
