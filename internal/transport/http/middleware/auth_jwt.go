package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"user-admin-api/internal/core/auth"
	resp "user-admin-api/internal/transport/http/response"
)

// AuthJWT 守卫状态机：有 token？→ 验得过？→ 角色够？→ 放行。
// 任一分支拒绝都在这里终止，后续 handler（以及存储层）碰不到请求。
func AuthJWT(j *auth.JWTer, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			CountReject("missing_token")
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			CountReject("invalid_token")
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		if requireRole != "" && claims.Role != requireRole {
			CountReject("insufficient_role")
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		c.Set("userId", claims.UID)
		c.Set("role", claims.Role)
		c.Next()
	}
}
