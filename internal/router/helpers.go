package router

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"dryfruit_store/internal/middleware"
	"dryfruit_store/internal/order"
	"dryfruit_store/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func actorOf(c *gin.Context) order.Actor {
	if claims := middleware.CurrentClaims(c); claims != nil {
		return order.Actor{UserID: claims.UserID, Role: claims.Role}
	}
	return order.Actor{}
}

// paramID 解析路径里的数字 ID，失败时已经写好 400 响应。
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

// bindFailed 把 binding 错误翻译成业务错误，商品行相关的错误沿用下单时的错误码，
// 前端据此给出一致的提示。
func bindFailed(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		response.BadRequest(c, "request body is not valid JSON")
		return
	}
	fe := verrs[0]
	ns := fe.StructNamespace()
	switch {
	case strings.Contains(ns, ".Items") && fe.Field() == "Quantity":
		response.Error(c, order.ErrInvalidQuantity)
	case strings.Contains(ns, ".Items"):
		response.Error(c, order.ErrNoItems)
	case fe.Field() == "Pincode":
		response.Error(c, order.ErrMissingAddress.With("Pincode must be 6 digits"))
	case fe.Field() == "Phone":
		response.Error(c, order.ErrMissingAddress.With("Shipping phone is required"))
	default:
		response.BadRequest(c, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
