package middleware

import (
	"errors"
	"strings"
	"time"

	"dryfruit_store/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const claimsKey = "claims"

// Claims 登录令牌里只放用户 ID 与角色。
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Auth 解析 Bearer token。required=false 时没有 token 视为游客放行，
// 但带了无效 token 仍然拒绝。
func Auth(secret string, required bool) gin.HandlerFunc {
	return authenticate(secret, required, false)
}

// SocketAuth 供 WebSocket 路由使用：浏览器无法自定义请求头，
// 额外接受 ?access_token=。其他路由不要用，token 会出现在 URL 里。
func SocketAuth(secret string) gin.HandlerFunc {
	return authenticate(secret, true, true)
}

func authenticate(secret string, required, fromQuery bool) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" && fromQuery && c.Query("access_token") != "" {
			header = "Bearer " + c.Query("access_token")
		}
		if header == "" {
			if required {
				response.Unauthorized(c, "Authorization header is missing")
				return
			}
			c.Next()
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid token signing method")
			}
			return key, nil
		})
		if err != nil || !token.Valid || claims.UserID == "" {
			response.Unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireAdmin 必须挂在 Auth 之后。
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil || claims.Role != "admin" {
			response.Forbidden(c, "Admin access required")
			return
		}
		c.Next()
	}
}

// CurrentClaims 游客返回 nil。
func CurrentClaims(c *gin.Context) *Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

// SignToken 签发 HS256 令牌，用于 seed 命令和测试。
func SignToken(secret, userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
