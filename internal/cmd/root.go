package cmd

import (
	"fmt"
	"os"

	"dryfruit_store/internal/config"
	"dryfruit_store/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// cfg 在 PersistentPreRunE 中加载，子命令直接使用。
var cfg config.AppConfig

var rootCmd = &cobra.Command{
	Use:   "dryfruit",
	Short: "Dry-fruits storefront backend",
	Long: `Backend for the dry-fruits storefront.

serve    starts the HTTP API (and the event relay/consumer when EVENTS_ENABLED)
migrate  creates or updates tables
seed     inserts demo catalogue data and prints a dev admin token
checkout drives the UPI payment confirmation flow from a terminal
relay    forwards the order-event outbox to Kafka
consume  projects Kafka order events into daily sales`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env 可选
		_ = godotenv.Load()
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
		return logger.Init(cfg.LogLevel, cfg.LogDev)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
