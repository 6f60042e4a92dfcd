package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"user-admin-api/internal/domain"
	mdw "user-admin-api/internal/transport/http/middleware"
)

// NewAdminEngine 运维端：prometheus 指标 + 管理员列表，统一要求 admin 角色
func NewAdminEngine(l *zap.Logger, d Deps) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(50, 100),
		mdw.ConcurrencyLimit(100),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(10*time.Second),
		mdw.SimpleRecovery(),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	// 健康检查 + 指标（内网端口，不走角色校验）
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(d.JWTer, domain.RoleAdmin))

	reg := &Registry{}
	reg.Register(&UsersModule{Store: d.Store, Authn: d.Authn, JWTer: d.JWTer, Cache: d.Cache})
	reg.MountAllAdmin(admin)

	return r
}
