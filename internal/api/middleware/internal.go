package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/coa_server/internal/pkg/response"
)

const InternalTokenHeader = "X-Internal-Token"

// InternalToken 校验 AI 服务回调携带的共享密钥，未配置密钥时拒绝所有请求
func InternalToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(InternalTokenHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			response.AuthError(c, "内部接口认证失败")
			c.Abort()
			return
		}
		c.Next()
	}
}
