package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dryfruit_store/internal/catalog"
	"dryfruit_store/internal/middleware"
	"dryfruit_store/internal/notify"
	"dryfruit_store/internal/order"
	"dryfruit_store/internal/queue"
	"dryfruit_store/internal/router"
	"dryfruit_store/pkg/logger"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB()
	if err != nil {
		return err
	}

	// Redis 不可用时降级：无缓存、无限流、订单号随机后缀、不发事件
	var rdb *rd.Client
	if c, err := openRedis(ctx); err != nil {
		logger.Warn("redis unavailable, running degraded", zap.Error(err))
	} else {
		rdb = c
		defer rdb.Close()
	}

	hub := notify.NewHub(cfg.CORSOrigins)
	cache := catalog.NewCache(rdb, cfg.ProductCacheTTL)
	opts := order.Options{
		Pricing: order.Pricing{
			FreeShippingThreshold: cfg.FreeShippingThreshold,
			ShippingFee:           cfg.ShippingFee,
			TaxPercent:            cfg.TaxPercent,
		},
		Numbers:       order.NewNumberGenerator(rdb),
		OnStockChange: cache.Invalidate,
	}

	waitWorkers := func() {}
	if cfg.EventsEnabled && rdb != nil {
		opts.Events = queue.NewOutbox(rdb, cfg.OrderEventStream)
		waitWorkers = startEventWorkers(ctx, db, rdb, hub)
	}
	svc := order.NewService(db, opts)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.AccessLog())
	router.Setup(r, router.Deps{
		DB:      db,
		Redis:   rdb,
		Orders:  svc,
		Catalog: cache,
		Hub:     hub,
		Config:  cfg,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
	}()

	logger.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.Bool("events", opts.Events != nil))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		waitWorkers()
		return err
	}
	waitWorkers()
	return nil
}
