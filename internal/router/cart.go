package router

import (
	"errors"

	"dryfruit_store/internal/model"
	"dryfruit_store/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// getCart 没有购物车时返回空列表。
func getCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorOf(c)
		var cart model.Cart
		err := db.WithContext(c.Request.Context()).First(&cart, "user_id = ?", actor.UserID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Success(c, model.Cart{UserID: actor.UserID, Items: []model.CartItem{}})
			return
		}
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, cart)
	}
}

// putCart 整体覆盖。
func putCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Items []struct {
				ProductID uint   `json:"product_id" binding:"required,min=1"`
				Size      string `json:"size" binding:"required"`
				Quantity  int    `json:"quantity" binding:"required,min=1,max=99"`
			} `json:"items" binding:"dive"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
		cart := model.Cart{UserID: actorOf(c).UserID, Items: make([]model.CartItem, 0, len(req.Items))}
		for _, it := range req.Items {
			cart.Items = append(cart.Items, model.CartItem{ProductID: it.ProductID, Size: it.Size, Quantity: it.Quantity})
		}
		err := db.WithContext(c.Request.Context()).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"items", "updated_at"}),
		}).Create(&cart).Error
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, cart)
	}
}
