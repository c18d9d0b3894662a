package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher 是 Relay 依赖的最小发布接口，测试里可替换。
type Publisher interface {
	Publish(ctx context.Context, ev OrderEvent) error
}

// Producer 把订单事件同步写入 Kafka。
// 以订单号为 key + Hash 分区：同一订单的事件进同一分区，消费端按序看到。
type Producer struct {
	w *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{w: &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
		// outbox 只在 Publish 成功后 ACK，这里必须等全部 ISR 确认
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            3,
		WriteTimeout:           5 * time.Second,
		BatchTimeout:           20 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}}
}

func (p *Producer) Close() error { return p.w.Close() }

func (p *Producer) Publish(ctx context.Context, ev OrderEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", ev.ID, err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.OrderNumber),
		Value: b,
		Time:  ev.At,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(ev.ID)},
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write %s: %w", ev.Type, err)
	}
	return nil
}
