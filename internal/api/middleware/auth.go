package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/coa_server/internal/pkg/jwt"
	"github.com/qs3c/coa_server/internal/pkg/response"
)

const (
	MemberIDKey = "memberID"
)

// Auth JWT 认证中间件
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AuthError(c, "请提供认证信息")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			response.AuthError(c, "认证格式错误")
			c.Abort()
			return
		}

		claims, err := jwt.ParseToken(tokenString, jwtSecret)
		if err != nil {
			response.AuthError(c, "认证失败或已过期")
			c.Abort()
			return
		}

		c.Set(MemberIDKey, claims.MemberID)
		c.Next()
	}
}

// OptionalAuth 可选认证中间件（不强制要求登录）
func OptionalAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if tokenString == "" || tokenString == c.GetHeader("Authorization") {
			c.Next()
			return
		}

		if claims, err := jwt.ParseToken(tokenString, jwtSecret); err == nil {
			c.Set(MemberIDKey, claims.MemberID)
		}
		c.Next()
	}
}

// GetMemberID 从上下文获取会员 ID
func GetMemberID(c *gin.Context) (int64, bool) {
	memberID, exists := c.Get(MemberIDKey)
	if !exists {
		return 0, false
	}
	id, ok := memberID.(int64)
	return id, ok
}
