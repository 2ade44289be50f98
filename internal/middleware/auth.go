package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// gin context 中的身份字段
const (
	ContextUserId = "auth_user_id"
	ContextRole   = "auth_role"
)

// Auth 解析 Bearer token 并把身份写入请求上下文。
// 只做身份解码，会话管理在网关侧。
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "缺少认证信息"})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "认证信息无效"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "认证信息无效"})
			return
		}

		userId, ok := claims["sub"].(float64)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "认证信息缺少用户标识"})
			return
		}

		role, _ := claims["role"].(string)
		if role == "" {
			role = "user"
		}

		c.Set(ContextUserId, int64(userId))
		c.Set(ContextRole, role)
		c.Next()
	}
}

// RequireAdmin 管理端路由的角色闸门
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "需要管理员权限"})
			return
		}
		c.Next()
	}
}

// UserId 从上下文取当前用户ID
func UserId(c *gin.Context) int64 {
	return c.GetInt64(ContextUserId)
}
