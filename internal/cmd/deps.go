package cmd

import (
	"context"
	"fmt"
	"sync"

	"dryfruit_store/internal/database"
	"dryfruit_store/internal/notify"
	"dryfruit_store/internal/queue"
	"dryfruit_store/pkg/logger"

	rd "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func openDB() (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func openRedis(ctx context.Context) (*rd.Client, error) {
	rdb := rd.NewClient(&rd.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	return rdb, nil
}

func newRelay(rdb *rd.Client) (*queue.Relay, *queue.Producer) {
	producer := queue.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	return queue.NewRelay(rdb, producer, cfg.OrderEventStream, cfg.OrderEventGroup, cfg.OrderEventConsumer), producer
}

// newConsumer 投影到 daily_sales；hub 非空时同时推送给后台实时订单页。
func newConsumer(db *gorm.DB, rdb *rd.Client, hub *notify.Hub) *queue.Consumer {
	handlers := []queue.Handler{queue.NewSalesProjector(db, rdb)}
	if hub != nil {
		handlers = append(handlers, queue.HandlerFunc(func(_ context.Context, ev queue.OrderEvent) error {
			hub.Broadcast(ev)
			return nil
		}))
	}
	return queue.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, handlers...)
}

// startEventWorkers 后台启动 relay 与 consumer，返回的函数等待它们退出并释放连接。
func startEventWorkers(ctx context.Context, db *gorm.DB, rdb *rd.Client, hub *notify.Hub) func() {
	relay, producer := newRelay(rdb)
	consumer := newConsumer(db, rdb, hub)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		relay.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		consumer.Run(ctx)
	}()
	logger.Info("event workers started",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopic),
		zap.String("stream", cfg.OrderEventStream))

	return func() {
		wg.Wait()
		if err := producer.Close(); err != nil {
			logger.Warn("close kafka producer", zap.Error(err))
		}
		if err := consumer.Close(); err != nil {
			logger.Warn("close kafka consumer", zap.Error(err))
		}
	}
}
