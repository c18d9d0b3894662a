package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// AppConfig 聚合运行时配置，优先读环境变量，其次 config.yaml，最后是默认值。
type AppConfig struct {
	HTTPAddr string
	// DBDriver 取值 sqlite 或 postgres
	DBDriver string
	DBDSN    string

	RedisAddr string
	RedisDB   int

	// EventsEnabled=false 时不写 outbox，也不启动 relay/consumer
	EventsEnabled bool

	// Kafka 集群地址（逗号分隔）、Topic、消费者组
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Redis Stream outbox（下单成功后入流，Relay 异步转 Kafka）
	OrderEventStream   string
	OrderEventGroup    string
	OrderEventConsumer string

	// 下单接口限流、公开查单接口的进程内限流、商品列表缓存
	// 草稿自动保存单独一个桶，不占下单额度
	OrderRateLimit  int
	DraftRateLimit  int
	OrderRateWindow time.Duration
	TrackRatePerSec float64
	TrackRateBurst  int
	ProductCacheTTL time.Duration

	JWTSecret   string
	CORSOrigins []string

	// 计价规则：满额包邮，否则收固定运费；税按小计百分比
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	TaxPercent            decimal.Decimal

	LogLevel string
	LogDev   bool
}

var defaults = map[string]any{
	"HTTP_ADDR":               ":8080",
	"DB_DRIVER":               "sqlite",
	"DB_DSN":                  "dryfruit.db?_busy_timeout=5000",
	"REDIS_ADDR":              "localhost:6379",
	"REDIS_DB":                0,
	"EVENTS_ENABLED":          true,
	"KAFKA_BROKERS":           "localhost:9092",
	"KAFKA_TOPIC":             "dryfruit-order-events",
	"KAFKA_GROUP_ID":          "dryfruit-sales-projector",
	"ORDER_EVENT_STREAM":      "dryfruit:order_events",
	"ORDER_EVENT_GROUP":       "dryfruit-relay-group",
	"ORDER_EVENT_CONSUMER":    "dryfruit-relay-1",
	"ORDER_RATE_LIMIT":        10,
	"DRAFT_RATE_LIMIT":        60,
	"ORDER_RATE_WINDOW_SEC":   60,
	"TRACK_RATE_PER_SEC":      2.0,
	"TRACK_RATE_BURST":        5,
	"PRODUCT_CACHE_TTL_SEC":   300,
	"JWT_SECRET":              "dev-jwt-secret",
	"CORS_ORIGINS":            "http://localhost:3000",
	"FREE_SHIPPING_THRESHOLD": "500",
	"SHIPPING_FEE":            "50",
	"TAX_PERCENT":             "0",
	"LOG_LEVEL":               "info",
	"LOG_DEV":                 false,
}

// Load 读取并校验配置，缺失时使用默认值。
func Load() (AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./deploy/")
	v.AddConfigPath("./")
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return AppConfig{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := AppConfig{
		HTTPAddr:           v.GetString("HTTP_ADDR"),
		DBDriver:           strings.ToLower(v.GetString("DB_DRIVER")),
		DBDSN:              v.GetString("DB_DSN"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisDB:            v.GetInt("REDIS_DB"),
		EventsEnabled:      v.GetBool("EVENTS_ENABLED"),
		KafkaBrokers:       splitCSV(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:         v.GetString("KAFKA_TOPIC"),
		KafkaGroupID:       v.GetString("KAFKA_GROUP_ID"),
		OrderEventStream:   v.GetString("ORDER_EVENT_STREAM"),
		OrderEventGroup:    v.GetString("ORDER_EVENT_GROUP"),
		OrderEventConsumer: v.GetString("ORDER_EVENT_CONSUMER"),
		OrderRateLimit:     v.GetInt("ORDER_RATE_LIMIT"),
		DraftRateLimit:     v.GetInt("DRAFT_RATE_LIMIT"),
		TrackRatePerSec:    v.GetFloat64("TRACK_RATE_PER_SEC"),
		TrackRateBurst:     v.GetInt("TRACK_RATE_BURST"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		CORSOrigins:        splitCSV(v.GetString("CORS_ORIGINS")),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogDev:             v.GetBool("LOG_DEV"),
	}

	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "postgres" {
		return AppConfig{}, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", cfg.DBDriver)
	}
	if cfg.DBDSN == "" {
		return AppConfig{}, fmt.Errorf("DB_DSN must not be empty")
	}
	if cfg.OrderRateLimit <= 0 {
		return AppConfig{}, fmt.Errorf("ORDER_RATE_LIMIT must be > 0")
	}
	if cfg.DraftRateLimit <= 0 {
		return AppConfig{}, fmt.Errorf("DRAFT_RATE_LIMIT must be > 0")
	}

	windowSec := v.GetInt("ORDER_RATE_WINDOW_SEC")
	if windowSec <= 0 {
		return AppConfig{}, fmt.Errorf("ORDER_RATE_WINDOW_SEC must be > 0")
	}
	cfg.OrderRateWindow = time.Duration(windowSec) * time.Second

	if cfg.TrackRatePerSec <= 0 || cfg.TrackRateBurst <= 0 {
		return AppConfig{}, fmt.Errorf("TRACK_RATE_PER_SEC and TRACK_RATE_BURST must be > 0")
	}

	ttlSec := v.GetInt("PRODUCT_CACHE_TTL_SEC")
	if ttlSec < 0 {
		return AppConfig{}, fmt.Errorf("PRODUCT_CACHE_TTL_SEC must be >= 0")
	}
	cfg.ProductCacheTTL = time.Duration(ttlSec) * time.Second

	if cfg.JWTSecret == "" {
		return AppConfig{}, fmt.Errorf("JWT_SECRET must not be empty")
	}

	var err error
	if cfg.FreeShippingThreshold, err = getDecimal(v, "FREE_SHIPPING_THRESHOLD"); err != nil {
		return AppConfig{}, err
	}
	if cfg.ShippingFee, err = getDecimal(v, "SHIPPING_FEE"); err != nil {
		return AppConfig{}, err
	}
	if cfg.TaxPercent, err = getDecimal(v, "TAX_PERCENT"); err != nil {
		return AppConfig{}, err
	}
	if cfg.TaxPercent.GreaterThan(decimal.NewFromInt(100)) {
		return AppConfig{}, fmt.Errorf("TAX_PERCENT must be <= 100")
	}

	if cfg.EventsEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return AppConfig{}, fmt.Errorf("KAFKA_BROKERS must not be empty")
		}
		if cfg.KafkaTopic == "" {
			return AppConfig{}, fmt.Errorf("KAFKA_TOPIC must not be empty")
		}
		if cfg.KafkaGroupID == "" {
			return AppConfig{}, fmt.Errorf("KAFKA_GROUP_ID must not be empty")
		}
		if cfg.OrderEventStream == "" {
			return AppConfig{}, fmt.Errorf("ORDER_EVENT_STREAM must not be empty")
		}
		if cfg.OrderEventGroup == "" {
			return AppConfig{}, fmt.Errorf("ORDER_EVENT_GROUP must not be empty")
		}
		if cfg.OrderEventConsumer == "" {
			return AppConfig{}, fmt.Errorf("ORDER_EVENT_CONSUMER must not be empty")
		}
	}

	return cfg, nil
}

// getDecimal 读取非负金额/百分比配置。
func getDecimal(v *viper.Viper, key string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must be >= 0", key)
	}
	return d, nil
}

// splitCSV 将逗号分隔字符串解析为字符串切片。
func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
