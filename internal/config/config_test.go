package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 60*time.Second, cfg.OrderRateWindow)
	assert.Equal(t, 10, cfg.OrderRateLimit)
	assert.Equal(t, 60, cfg.DraftRateLimit)
	assert.Equal(t, 5*time.Minute, cfg.ProductCacheTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.True(t, decimal.NewFromInt(500).Equal(cfg.FreeShippingThreshold))
	assert.True(t, decimal.NewFromInt(50).Equal(cfg.ShippingFee))
	assert.True(t, cfg.TaxPercent.IsZero())
	assert.True(t, cfg.EventsEnabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_DSN", "host=db user=shop dbname=shop")
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("CORS_ORIGINS", "https://shop.example,https://admin.shop.example")
	t.Setenv("TAX_PERCENT", "5.5")
	t.Setenv("ORDER_RATE_WINDOW_SEC", "30")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Len(t, cfg.CORSOrigins, 2)
	assert.Equal(t, "5.5", cfg.TaxPercent.String())
	assert.Equal(t, 30*time.Second, cfg.OrderRateWindow)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"driver":      {"DB_DRIVER", "mysql"},
		"rate limit":  {"ORDER_RATE_LIMIT", "0"},
		"draft limit": {"DRAFT_RATE_LIMIT", "-5"},
		"window":      {"ORDER_RATE_WINDOW_SEC", "-1"},
		"fee":         {"SHIPPING_FEE", "-10"},
		"fee format":  {"SHIPPING_FEE", "fifty"},
		"tax":         {"TAX_PERCENT", "101"},
		"track burst": {"TRACK_RATE_BURST", "0"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestEventsDisabledSkipsKafkaChecks(t *testing.T) {
	t.Setenv("EVENTS_ENABLED", "false")
	t.Setenv("KAFKA_BROKERS", " , ")
	_, err := Load()
	require.NoError(t, err)

	t.Setenv("EVENTS_ENABLED", "true")
	_, err = Load()
	assert.Error(t, err)
}
