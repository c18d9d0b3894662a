package router

import (
	"fmt"
	"time"

	"dryfruit_store/internal/inventory"
	"dryfruit_store/internal/model"
	"dryfruit_store/internal/order"
	"dryfruit_store/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

const lowStockThreshold = 5

// dashboard 订单状态分布、营收、低库存预警、最近 7 天销售。
func dashboard(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := db.WithContext(c.Request.Context())

		var rows []struct {
			Status model.OrderStatus
			N      int64
		}
		if err := q.Model(&model.Order{}).Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error; err != nil {
			response.Error(c, err)
			return
		}
		byStatus := make(map[model.OrderStatus]int64, len(rows))
		for _, r := range rows {
			byStatus[r.Status] = r.N
		}

		var rev struct {
			Total decimal.Decimal
		}
		if err := q.Model(&model.Order{}).
			Select("COALESCE(SUM(total), 0) AS total").
			Where("status NOT IN ?", []model.OrderStatus{model.OrderStatusDraft, model.OrderStatusCancelled}).
			Scan(&rev).Error; err != nil {
			response.Error(c, err)
			return
		}

		low, err := inventory.LowStock(q, lowStockThreshold)
		if err != nil {
			response.Error(c, err)
			return
		}

		var daily []model.DailySales
		if err := q.Order("day DESC").Limit(7).Find(&daily).Error; err != nil {
			response.Error(c, err)
			return
		}

		response.Success(c, gin.H{
			"orders_by_status": byStatus,
			"revenue":          rev.Total.StringFixed(2),
			"low_stock":        low,
			"daily_sales":      daily,
		})
	}
}

var exportHeaders = []string{
	"Order Number", "Created At", "Status", "Customer", "Phone", "City", "Pincode",
	"Items", "Subtotal", "Shipping", "Tax", "Total", "Payment Method", "UTR",
}

// exportOrders 导出订单为 xlsx，?status= 过滤，最多 100 页 * 100 条。
func exportOrders(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Orders")
		if err != nil {
			response.Error(c, err)
			return
		}
		header := sheet.AddRow()
		for _, h := range exportHeaders {
			header.AddCell().SetValue(h)
		}

		for page := 1; page <= 100; page++ {
			list, total, err := svc.List(c.Request.Context(), order.ListFilter{Status: c.Query("status"), Page: page, PageSize: 100})
			if err != nil {
				response.Error(c, err)
				return
			}
			for _, o := range list {
				qty := 0
				for _, it := range o.Items {
					qty += it.Quantity
				}
				row := sheet.AddRow()
				row.AddCell().SetValue(o.OrderNumber)
				row.AddCell().SetValue(o.CreatedAt.Format("2006-01-02 15:04:05"))
				row.AddCell().SetValue(string(o.Status))
				row.AddCell().SetValue(o.ShippingAddress.FullName)
				row.AddCell().SetValue(o.ShippingAddress.Phone)
				row.AddCell().SetValue(o.ShippingAddress.City)
				row.AddCell().SetValue(o.ShippingAddress.Pincode)
				row.AddCell().SetValue(qty)
				row.AddCell().SetValue(o.Pricing.Subtotal.StringFixed(2))
				row.AddCell().SetValue(o.Pricing.ShippingCharges.StringFixed(2))
				row.AddCell().SetValue(o.Pricing.Tax.StringFixed(2))
				row.AddCell().SetValue(o.Pricing.Total.StringFixed(2))
				row.AddCell().SetValue(string(o.Payment.Method))
				row.AddCell().SetValue(o.Payment.UTRNumber)
			}
			if int64(page*100) >= total {
				break
			}
		}

		name := fmt.Sprintf("orders-%s.xlsx", time.Now().Format("20060102"))
		c.Header("Content-Disposition", "attachment; filename="+name)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		if err := file.Write(c.Writer); err != nil {
			_ = c.Error(err)
		}
	}
}
