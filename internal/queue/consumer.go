package queue

import (
	"context"
	"encoding/json"

	"dryfruit_store/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler 处理一条订单事件；返回错误时该消息不提交 offset。
type Handler interface {
	Handle(ctx context.Context, ev OrderEvent) error
}

// HandlerFunc 函数适配器。
type HandlerFunc func(ctx context.Context, ev OrderEvent) error

func (f HandlerFunc) Handle(ctx context.Context, ev OrderEvent) error { return f(ctx, ev) }

type Consumer struct {
	r        *kafka.Reader
	handlers []Handler
}

func NewConsumer(brokers []string, topic, groupID string, handlers ...Handler) *Consumer {
	return &Consumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 1e6,
		}),
		handlers: handlers,
	}
}

func (c *Consumer) Close() error { return c.r.Close() }

// Run 至少一次语义：全部 handler 成功后才提交 offset，handler 自己负责幂等。
func (c *Consumer) Run(ctx context.Context) {
	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			return // ctx cancel / 连接断开等
		}

		var ev OrderEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			logger.Warn("consumer unmarshal", zap.Error(err), zap.Int64("offset", m.Offset))
			_ = c.r.CommitMessages(ctx, m)
			continue
		}
		if err := ev.Validate(); err != nil {
			logger.Warn("consumer drop invalid event", zap.Error(err), zap.Int64("offset", m.Offset))
			_ = c.r.CommitMessages(ctx, m)
			continue
		}

		if err := Dispatch(ctx, ev, c.handlers...); err != nil {
			logger.Error("consumer handle", zap.String("event_id", ev.ID), zap.Error(err))
			continue
		}
		if err := c.r.CommitMessages(ctx, m); err != nil {
			logger.Warn("consumer commit", zap.Error(err))
		}
	}
}

// Dispatch 顺序调用 handler，遇错即停。
func Dispatch(ctx context.Context, ev OrderEvent, handlers ...Handler) error {
	for _, h := range handlers {
		if err := h.Handle(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
