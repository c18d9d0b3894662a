package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"dryfruit_store/pkg/logger"

	rd "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// noBlock 让 XREADGROUP 不带 BLOCK 参数，立即返回。
const noBlock = -1

// Relay 将 outbox stream 中的订单事件转发到 Kafka。
// Publish 成功才 XACK + XDEL；失败的条目留在 PEL 里，下一轮从 "0" 重新读出。
type Relay struct {
	rdb       *rd.Client
	publisher Publisher

	stream   string
	group    string
	consumer string
	batch    int64
}

func NewRelay(rdb *rd.Client, publisher Publisher, stream, group, consumer string) *Relay {
	return &Relay{
		rdb:       rdb,
		publisher: publisher,
		stream:    stream,
		group:     group,
		consumer:  consumer,
		batch:     32,
	}
}

// Run 阻塞直到 ctx 取消。
func (r *Relay) Run(ctx context.Context) {
	if err := r.ensureGroup(ctx); err != nil {
		logger.Error("relay ensure group", zap.String("stream", r.stream), zap.Error(err))
		return
	}
	logger.Info("relay started", zap.String("stream", r.stream), zap.String("consumer", r.consumer))

	backoff := 300 * time.Millisecond
	for ctx.Err() == nil {
		if _, err := r.pollOnce(ctx, 2*time.Second); err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			logger.Warn("relay poll", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
		}
	}
}

// pollOnce 处理一批，返回成功转发的条数。
// 本消费者的 pending 优先；pending 清空后才读新消息。
func (r *Relay) pollOnce(ctx context.Context, block time.Duration) (int, error) {
	msgs, err := r.read(ctx, "0", noBlock)
	if err != nil {
		return 0, fmt.Errorf("read pending: %w", err)
	}
	if len(msgs) == 0 {
		if msgs, err = r.read(ctx, ">", block); err != nil {
			return 0, fmt.Errorf("read new: %w", err)
		}
	}

	forwarded := 0
	for _, xm := range msgs {
		ok, err := r.forward(ctx, xm)
		if err != nil {
			// 保持顺序：同批后面的条目也不处理，等下一轮
			return forwarded, fmt.Errorf("forward %s: %w", xm.ID, err)
		}
		if ok {
			forwarded++
		}
	}
	return forwarded, nil
}

func (r *Relay) ensureGroup(ctx context.Context) error {
	err := r.rdb.XGroupCreateMkStream(ctx, r.stream, r.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (r *Relay) read(ctx context.Context, from string, block time.Duration) ([]rd.XMessage, error) {
	res, err := r.rdb.XReadGroup(ctx, &rd.XReadGroupArgs{
		Group:    r.group,
		Consumer: r.consumer,
		Streams:  []string{r.stream, from},
		Count:    r.batch,
		Block:    block,
	}).Result()
	if errors.Is(err, rd.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var msgs []rd.XMessage
	for _, s := range res {
		msgs = append(msgs, s.Messages...)
	}
	return msgs, nil
}

// forward 发布一条；脏消息记日志后直接确认丢弃，返回 false。
func (r *Relay) forward(ctx context.Context, xm rd.XMessage) (bool, error) {
	ev, err := parseOrderEvent(xm.Values)
	if err != nil {
		logger.Warn("relay drop malformed event", zap.String("stream_id", xm.ID), zap.Error(err))
		return false, r.settle(ctx, xm.ID)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.publisher.Publish(pubCtx, ev); err != nil {
		return false, err
	}
	return true, r.settle(ctx, xm.ID)
}

// settle 确认并删除，stream 只保留未转发的事件。
func (r *Relay) settle(ctx context.Context, id string) error {
	_, err := r.rdb.TxPipelined(ctx, func(p rd.Pipeliner) error {
		p.XAck(ctx, r.stream, r.group, id)
		p.XDel(ctx, r.stream, id)
		return nil
	})
	return err
}

func parseOrderEvent(values map[string]interface{}) (OrderEvent, error) {
	var raw []byte
	switch v := values["payload"].(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	case nil:
		return OrderEvent{}, errors.New("missing field payload")
	default:
		return OrderEvent{}, fmt.Errorf("unsupported payload type %T", v)
	}
	var ev OrderEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return OrderEvent{}, fmt.Errorf("invalid payload: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return OrderEvent{}, err
	}
	return ev, nil
}
