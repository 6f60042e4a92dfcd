package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-admin-api/internal/core/auth"
	"user-admin-api/internal/core/cache"
	"user-admin-api/internal/domain"
	"user-admin-api/internal/service"
	mdw "user-admin-api/internal/transport/http/middleware"
)

type Deps struct {
	Store domain.Store
	Authn *service.Authenticator
	JWTer *auth.JWTer
	Cache *cache.Cache // 可为 nil
}

func NewAPIEngine(l *zap.Logger, d Deps) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(10*time.Second),
		ginzap.RecoveryWithZap(l, true),
		mdw.Metrics(),
		mdw.AccessLog(l),
		cors.Default(),
	)

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	api := r.Group("/api/v1")

	reg := &Registry{}
	reg.Register(&UsersModule{Store: d.Store, Authn: d.Authn, JWTer: d.JWTer, Cache: d.Cache})
	reg.MountAllAPI(api)

	return r
}
