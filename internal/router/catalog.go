package router

import (
	"errors"
	"strings"

	"dryfruit_store/internal/model"
	"dryfruit_store/internal/order"
	"dryfruit_store/pkg/apperr"
	"dryfruit_store/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var errDuplicateReview = apperr.Conflict("duplicate_review", "You have already reviewed this product")

func listCategories(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var list []model.Category
		if err := db.WithContext(c.Request.Context()).Order("name ASC").Find(&list).Error; err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, list)
	}
}

func createCategory(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name        string `json:"name" binding:"required,max=64"`
			Slug        string `json:"slug" binding:"required,max=64"`
			Description string `json:"description" binding:"max=512"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
		cat := &model.Category{
			Name:        strings.TrimSpace(req.Name),
			Slug:        strings.ToLower(strings.TrimSpace(req.Slug)),
			Description: req.Description,
		}
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			var n int64
			if err := tx.Model(&model.Category{}).Where("slug = ?", cat.Slug).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return errDuplicateSlug
			}
			return tx.Create(cat).Error
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, cat)
	}
}

func listReviews(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := findProduct(db.WithContext(c.Request.Context()), c.Param("id"))
		if err != nil {
			response.Error(c, err)
			return
		}
		var list []model.Review
		if err := db.WithContext(c.Request.Context()).
			Where("product_id = ?", p.ID).
			Order("created_at DESC").
			Find(&list).Error; err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, list)
	}
}

// createReview 每人每个商品一条。
func createReview(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name    string `json:"name" binding:"max=64"`
			Rating  int    `json:"rating" binding:"required,min=1,max=5"`
			Comment string `json:"comment" binding:"max=2000"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
		ctx := c.Request.Context()
		p, err := findProduct(db.WithContext(ctx), c.Param("id"))
		if err != nil {
			response.Error(c, err)
			return
		}
		if !p.IsActive {
			response.Error(c, order.ErrProductNotFound)
			return
		}

		actor := actorOf(c)
		rv := &model.Review{
			ProductID: p.ID,
			UserID:    actor.UserID,
			Name:      strings.TrimSpace(req.Name),
			Rating:    req.Rating,
			Comment:   strings.TrimSpace(req.Comment),
		}
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var existing model.Review
			err := tx.Where("product_id = ? AND user_id = ?", p.ID, actor.UserID).First(&existing).Error
			if err == nil {
				return errDuplicateReview
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			return tx.Create(rv).Error
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, rv)
	}
}
