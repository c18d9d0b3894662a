package router

import (
	"errors"
	"strconv"
	"strings"

	"dryfruit_store/internal/catalog"
	"dryfruit_store/internal/inventory"
	"dryfruit_store/internal/model"
	"dryfruit_store/internal/order"
	"dryfruit_store/pkg/apperr"
	"dryfruit_store/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var errDuplicateSlug = apperr.Conflict("duplicate_slug", "Slug already exists")

type sizeInput struct {
	Label         string          `json:"label" binding:"required,max=32"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Stock         int             `json:"stock" binding:"min=0"`
}

type productInput struct {
	Name        string      `json:"name" binding:"required,max=128"`
	Slug        string      `json:"slug" binding:"required,max=128"`
	Description string      `json:"description"`
	CategoryID  *uint       `json:"category_id"`
	ImageURL    string      `json:"image_url" binding:"omitempty,url"`
	Sizes       []sizeInput `json:"sizes" binding:"required,min=1,dive"`
}

// listProducts 在售商品列表，?category=<slug>，走 Redis 缓存。
func listProducts(db *gorm.DB, cache *catalog.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		category := strings.TrimSpace(c.Query("category"))
		list, err := cache.List(c.Request.Context(), category, func() ([]model.Product, error) {
			return catalog.ListActive(db.WithContext(c.Request.Context()), category)
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, list)
	}
}

// getProduct :id 可以是数字 ID 也可以是 slug。下架商品对外 404。
func getProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := findProduct(db.WithContext(c.Request.Context()), c.Param("id"))
		if err != nil {
			response.Error(c, err)
			return
		}
		if !p.IsActive {
			response.Error(c, order.ErrProductNotFound)
			return
		}
		response.Success(c, p)
	}
}

func createProduct(db *gorm.DB, cache *catalog.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req productInput
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
		sizes, err := buildSizes(req.Sizes)
		if err != nil {
			response.Error(c, err)
			return
		}
		p := &model.Product{
			Name:        strings.TrimSpace(req.Name),
			Slug:        strings.ToLower(strings.TrimSpace(req.Slug)),
			Description: req.Description,
			CategoryID:  req.CategoryID,
			ImageURL:    req.ImageURL,
			IsActive:    true,
			Sizes:       sizes,
		}

		ctx := c.Request.Context()
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var n int64
			if err := tx.Model(&model.Product{}).Where("slug = ?", p.Slug).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return errDuplicateSlug
			}
			return tx.Create(p).Error
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		cache.Invalidate(ctx)
		response.Created(c, p)
	}
}

// updateProduct 只改展示信息；规格和库存走单独的接口。
func updateProduct(db *gorm.DB, cache *catalog.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req struct {
			Name        *string `json:"name" binding:"omitempty,max=128"`
			Description *string `json:"description"`
			CategoryID  *uint   `json:"category_id"`
			ImageURL    *string `json:"image_url" binding:"omitempty,url"`
			IsActive    *bool   `json:"is_active"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
		updates := map[string]any{}
		if req.Name != nil {
			updates["name"] = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if req.CategoryID != nil {
			updates["category_id"] = *req.CategoryID
		}
		if req.ImageURL != nil {
			updates["image_url"] = *req.ImageURL
		}
		if req.IsActive != nil {
			updates["is_active"] = *req.IsActive
		}
		if len(updates) == 0 {
			response.BadRequest(c, "nothing to update")
			return
		}

		ctx := c.Request.Context()
		res := db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			response.Error(c, res.Error)
			return
		}
		if res.RowsAffected == 0 {
			response.Error(c, order.ErrProductNotFound)
			return
		}
		cache.Invalidate(ctx)

		var p model.Product
		if err := db.WithContext(ctx).Preload("Sizes").First(&p, id).Error; err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, p)
	}
}

// deactivateProduct 商品不物理删除，历史订单仍引用它。
func deactivateProduct(db *gorm.DB, cache *catalog.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		res := db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("is_active", false)
		if res.Error != nil {
			response.Error(c, res.Error)
			return
		}
		if res.RowsAffected == 0 {
			response.Error(c, order.ErrProductNotFound)
			return
		}
		cache.Invalidate(ctx)
		response.Message(c, "product deactivated")
	}
}

// setStock 盘点改库存。
func setStock(db *gorm.DB, cache *catalog.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := paramID(c, "id")
		if !ok {
			return
		}
		sizeID, ok := paramID(c, "sizeId")
		if !ok {
			return
		}
		var req struct {
			Stock *int `json:"stock" binding:"required,min=0"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}

		ctx := c.Request.Context()
		err := inventory.SetStock(db.WithContext(ctx), productID, sizeID, *req.Stock)
		if errors.Is(err, inventory.ErrUnknownSize) {
			response.Error(c, order.ErrSizeUnavailable.With("Size not found"))
			return
		}
		if err != nil {
			response.Error(c, err)
			return
		}
		cache.Invalidate(ctx)
		response.Success(c, gin.H{"product_id": productID, "size_id": sizeID, "stock": *req.Stock})
	}
}

func findProduct(db *gorm.DB, idOrSlug string) (*model.Product, error) {
	q := db.Preload("Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("price ASC") })
	var p model.Product
	var err error
	if id, convErr := strconv.ParseUint(idOrSlug, 10, 32); convErr == nil {
		err = q.First(&p, id).Error
	} else {
		err = q.Where("slug = ?", strings.ToLower(idOrSlug)).First(&p).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, order.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func buildSizes(in []sizeInput) ([]model.ProductSize, error) {
	seen := make(map[string]bool, len(in))
	out := make([]model.ProductSize, 0, len(in))
	for _, s := range in {
		label := strings.TrimSpace(s.Label)
		if seen[label] {
			return nil, apperr.Validation("duplicate_size", "Duplicate size label "+label)
		}
		seen[label] = true
		if !s.Price.IsPositive() {
			return nil, apperr.Validation("invalid_price", "Price must be greater than 0")
		}
		original := s.OriginalPrice
		if original.LessThan(s.Price) {
			original = s.Price
		}
		out = append(out, model.ProductSize{
			Label:         label,
			Price:         s.Price.Round(2),
			OriginalPrice: original.Round(2),
			Stock:         s.Stock,
		})
	}
	return out, nil
}
