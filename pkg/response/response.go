package response

import (
	"net/http"

	"dryfruit_store/pkg/apperr"
	"dryfruit_store/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一返回结构：code=0 表示成功，否则与 HTTP 状态码一致。
type Response struct {
	Code  int    `json:"code"`
	Msg   string `json:"msg,omitempty"`
	Error string `json:"error,omitempty"` // 业务错误码，前端据此给出指引
	Data  any    `json:"data,omitempty"`
}

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: 0, Data: data})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Code: 0, Data: data})
}

func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, Response{Code: 0, Msg: msg})
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Msg: msg, Error: "validation_error"})
}

func Unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Code: http.StatusUnauthorized, Msg: msg, Error: "unauthorized"})
}

func Forbidden(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusForbidden, Response{Code: http.StatusForbidden, Msg: msg, Error: "access_denied"})
}

// Error 将业务错误映射为 HTTP 响应；非业务错误记录日志后返回 500 的通用文案。
func Error(c *gin.Context, err error) {
	e, ok := apperr.From(err)
	if !ok {
		logger.Error("unhandled error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	status := e.HTTPStatus()
	c.JSON(status, Response{Code: status, Msg: e.Msg, Error: e.Code})
}
