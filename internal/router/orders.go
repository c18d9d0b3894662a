package router

import (
	"dryfruit_store/internal/model"
	"dryfruit_store/internal/order"
	"dryfruit_store/pkg/response"

	"github.com/gin-gonic/gin"
)

// createOrder 正式下单：校验全部商品后在一个事务内扣减库存。
func createOrder(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
		o, err := svc.Create(c.Request.Context(), req, actorOf(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, o)
	}
}

// saveDraft 结账页自动保存，不占库存。
func saveDraft(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
		o, err := svc.SaveDraft(c.Request.Context(), req, actorOf(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, o)
	}
}

func listMyOrders(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.ListMine(c.Request.Context(), actorOf(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, list)
	}
}

// trackOrders 公开查单，按手机号精确匹配。
func trackOrders(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.TrackByPhone(c.Request.Context(), c.Param("mobileNumber"))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, list)
	}
}

func getOrder(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		o, err := svc.Get(c.Request.Context(), id, actorOf(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, o)
	}
}

func cancelOrder(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req struct {
			Reason string `json:"reason" binding:"max=255"`
		}
		// body 可以为空
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				bindFailed(c, err)
				return
			}
		}
		o, err := svc.Cancel(c.Request.Context(), id, actorOf(c), req.Reason)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, o)
	}
}

func updateOrderStatus(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req order.StatusUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
		o, err := svc.UpdateStatus(c.Request.Context(), id, req, actorOf(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, o)
	}
}

// listOrders 管理后台分页，?status=&page=&page_size=
func listOrders(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := order.ListFilter{
			Status:   c.Query("status"),
			Page:     queryInt(c, "page", 1),
			PageSize: queryInt(c, "page_size", 20),
		}
		list, total, err := svc.List(c.Request.Context(), f)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, gin.H{
			"items":     list,
			"total":     total,
			"page":      f.Page,
			"page_size": f.PageSize,
		})
	}
}

// orderStatusTable 每个状态允许去往的下一状态，后台下拉框用。
func orderStatusTable() gin.HandlerFunc {
	return func(c *gin.Context) {
		table := make(map[model.OrderStatus][]model.OrderStatus)
		for _, s := range model.OrderStatuses() {
			table[s] = order.NextStatuses(s)
		}
		response.Success(c, table)
	}
}
