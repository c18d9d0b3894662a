package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"dryfruit_store/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// relay / consume 独立部署时使用；serve 默认会在进程内启动两者。
var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Forward the order-event outbox stream to Kafka",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rdb, err := openRedis(ctx)
		if err != nil {
			return err
		}
		defer rdb.Close()

		relay, producer := newRelay(rdb)
		defer producer.Close()
		logger.Info("relay started", zap.String("stream", cfg.OrderEventStream), zap.String("topic", cfg.KafkaTopic))
		relay.Run(ctx)
		return nil
	},
}

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Project Kafka order events into daily sales",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, err := openDB()
		if err != nil {
			return err
		}
		rdb, err := openRedis(ctx)
		if err != nil {
			return err
		}
		defer rdb.Close()

		consumer := newConsumer(db, rdb, nil)
		defer consumer.Close()
		logger.Info("consumer started", zap.String("topic", cfg.KafkaTopic), zap.String("group", cfg.KafkaGroupID))
		consumer.Run(ctx)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(relayCmd, consumeCmd)
}
