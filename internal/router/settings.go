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

var errSettingsMissing = apperr.NotFound("payment_settings_missing", "Payment settings are not configured")

// getPaymentSettings 公开：收款 VPA 与计价规则，客户端据此拼深链、算金额。
func getPaymentSettings(db *gorm.DB, svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var s model.PaymentSetting
		err := db.WithContext(c.Request.Context()).First(&s, model.PaymentSettingID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, errSettingsMissing)
			return
		}
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, gin.H{
			"upi_id":      s.UPIID,
			"payee_name":  s.PayeeName,
			"cod_enabled": s.CODEnabled,
			"pricing":     svc.Pricing(),
		})
	}
}

func putPaymentSettings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			UPIID      string `json:"upi_id" binding:"required,upi_vpa"`
			PayeeName  string `json:"payee_name" binding:"required,max=128"`
			CODEnabled bool   `json:"cod_enabled"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
		s := model.PaymentSetting{
			ID:         model.PaymentSettingID,
			UPIID:      strings.TrimSpace(req.UPIID),
			PayeeName:  strings.TrimSpace(req.PayeeName),
			CODEnabled: req.CODEnabled,
		}
		if err := db.WithContext(c.Request.Context()).Save(&s).Error; err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, s)
	}
}
