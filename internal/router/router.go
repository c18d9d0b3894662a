package router

import (
	"net/http"
	"time"

	"dryfruit_store/internal/catalog"
	"dryfruit_store/internal/config"
	"dryfruit_store/internal/middleware"
	"dryfruit_store/internal/notify"
	"dryfruit_store/internal/order"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps 路由依赖。Redis 为 nil 时下单限流与商品缓存关闭。
type Deps struct {
	DB      *gorm.DB
	Redis   *rd.Client
	Orders  *order.Service
	Catalog *catalog.Cache
	Hub     *notify.Hub
	Config  config.AppConfig
}

// Setup 注册全部 HTTP 路由。
func Setup(r *gin.Engine, d Deps) {
	registerValidators()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	// WebSocket 和 xlsx 下载不压缩
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/admin/orders/live", "/api/admin/orders/export"})))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "pong"})
	})

	secret := d.Config.JWTSecret
	optional := middleware.Auth(secret, false)
	required := middleware.Auth(secret, true)
	admin := []gin.HandlerFunc{required, middleware.RequireAdmin()}

	api := r.Group("/api")

	// Catalog
	api.GET("/categories", listCategories(d.DB))
	api.GET("/products", listProducts(d.DB, d.Catalog))
	api.GET("/products/:id", getProduct(d.DB))
	api.GET("/products/:id/reviews", listReviews(d.DB))
	api.POST("/products/:id/reviews", required, createReview(d.DB))
	api.GET("/payment-settings", getPaymentSettings(d.DB, d.Orders))

	// Cart
	api.GET("/cart", required, getCart(d.DB))
	api.PUT("/cart", required, putCart(d.DB))

	// Orders
	orders := api.Group("/orders")
	placeLimit := []gin.HandlerFunc{optional}
	draftLimit := []gin.HandlerFunc{optional}
	if d.Redis != nil {
		placeLimit = append(placeLimit, middleware.RedisRateLimit(d.Redis, "orders", d.Config.OrderRateLimit, d.Config.OrderRateWindow))
		draftLimit = append(draftLimit, middleware.RedisRateLimit(d.Redis, "drafts", d.Config.DraftRateLimit, d.Config.OrderRateWindow))
	}
	orders.POST("", with(placeLimit, createOrder(d.Orders))...)
	orders.POST("/draft", with(draftLimit, saveDraft(d.Orders))...)
	orders.GET("/my", required, listMyOrders(d.Orders))
	orders.GET("/track/:mobileNumber",
		middleware.NewIPLimiter(d.Config.TrackRatePerSec, d.Config.TrackRateBurst).Middleware(),
		trackOrders(d.Orders))
	orders.GET("/:id", required, getOrder(d.Orders))
	orders.POST("/:id/cancel", required, cancelOrder(d.Orders))
	orders.PUT("/:id/status", with(admin, updateOrderStatus(d.Orders))...)

	// Admin
	adm := api.Group("/admin", admin...)
	adm.GET("/orders", listOrders(d.Orders))
	adm.GET("/orders/statuses", orderStatusTable())
	adm.GET("/orders/export", exportOrders(d.Orders))
	if d.Hub != nil {
		api.GET("/admin/orders/live", middleware.SocketAuth(secret), middleware.RequireAdmin(), d.Hub.Handle)
	}
	adm.GET("/dashboard", dashboard(d.DB))
	adm.POST("/categories", createCategory(d.DB))
	adm.POST("/products", createProduct(d.DB, d.Catalog))
	adm.PUT("/products/:id", updateProduct(d.DB, d.Catalog))
	adm.DELETE("/products/:id", deactivateProduct(d.DB, d.Catalog))
	adm.PUT("/products/:id/sizes/:sizeId/stock", setStock(d.DB, d.Catalog))
	adm.PUT("/payment-settings", putPaymentSettings(d.DB))
}

// with 复制一份中间件链再追加 handler，避免多个路由共用底层数组。
func with(chain []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(chain)+1)
	out = append(out, chain...)
	return append(out, h)
}
