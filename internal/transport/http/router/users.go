package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"user-admin-api/internal/core/auth"
	"user-admin-api/internal/core/cache"
	"user-admin-api/internal/domain"
	"user-admin-api/internal/service"
	httpez "user-admin-api/internal/transport/http/ez"
	mdw "user-admin-api/internal/transport/http/middleware"
)

const listCacheKey = "users:list"
const listCacheTTL = 30 * time.Second

// UsersModule 账号域的全部接口：登录 + 名册 CRUD + 种子
type UsersModule struct {
	Store domain.Store
	Authn *service.Authenticator
	JWTer *auth.JWTer
	Cache *cache.Cache // 可为 nil（测试 / 无 redis 环境直接回源）
}

func (m *UsersModule) Priority() int { return 10 }

func (m *UsersModule) MountAPI(api *gin.RouterGroup) {
	ezPublic := httpez.New(api)

	// --- POST /auth/login（公共）---
	type loginIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	httpez.RegisterAction[loginIn, service.LoginResult](ezPublic, httpez.Action[loginIn, service.LoginResult]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (service.LoginResult, error) {
			return m.Authn.Login(in.Email, in.Password)
		},
	})

	// 鉴权分组：token 缺失/无效在中间件终止，handler 和存储层都碰不到
	authed := api.Group("")
	authed.Use(mdw.AuthJWT(m.JWTer, ""))
	ezAuth := httpez.New(authed)

	// --- GET /me ---
	httpez.RegisterAction[struct{}, domain.Projection](ezAuth, httpez.Action[struct{}, domain.Projection]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (domain.Projection, error) {
			return m.Store.FindByID(c.GetString("userId"))
		},
	})

	// --- GET /users 名册（redis 读穿缓存 + singleflight 合并回源）---
	httpez.RegisterAction[struct{}, []domain.Projection](ezAuth, httpez.Action[struct{}, []domain.Projection]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Projection, error) {
			if m.Cache == nil {
				return m.Store.List()
			}
			out, err := cache.GetOrLoadJSON[[]domain.Projection](m.Cache, c, listCacheKey, listCacheTTL,
				func(context.Context) (*[]domain.Projection, error) {
					ps, e := m.Store.List()
					if e != nil {
						return nil, e
					}
					return &ps, nil
				})
			if err != nil || out == nil {
				// 缓存故障降级回源，名册读取不因 redis 挂掉而失败
				return m.Store.List()
			}
			return *out, nil
		},
	})

	// --- GET /users/:id ---
	httpez.RegisterAction[struct{}, domain.Projection](ezAuth, httpez.Action[struct{}, domain.Projection]{
		Method: http.MethodGet,
		Path:   "/users/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (domain.Projection, error) {
			return m.Store.FindByID(c.Param("id"))
		},
	})

	// --- POST /users（仅 admin）---
	type createIn struct {
		Email     string `json:"email"     binding:"required,email"`
		Password  string `json:"password"  binding:"required,min=6"`
		FirstName string `json:"firstName" binding:"required,max=64"`
		LastName  string `json:"lastName"  binding:"required,max=64"`
		Role      string `json:"role"      binding:"omitempty,oneof=admin user"`
	}
	httpez.RegisterAction[createIn, domain.Projection](ezAuth, httpez.Action[createIn, domain.Projection]{
		Method: http.MethodPost,
		Path:   "/users",
		Binder: httpez.BindJSON,
		Auth:   true,
		Roles:  []string{domain.RoleAdmin},
		Handler: func(c *gin.Context, in *createIn) (domain.Projection, error) {
			p, err := m.Store.Create(domain.NewAccount{
				Email:     in.Email,
				Password:  in.Password,
				FirstName: in.FirstName,
				LastName:  in.LastName,
				Role:      in.Role,
			})
			if err == nil {
				m.invalidate(c)
			}
			return p, err
		},
	})

	// --- PATCH /users/:id（鉴权 + 守卫判定，拒绝不触存储）---
	// omitnil：字段没发就跳过，发了就按创建同款规则校验（空串同样拒）
	type patchIn struct {
		Email     *string `json:"email"     binding:"omitnil,email"`
		Password  *string `json:"password"  binding:"omitnil,min=6"`
		FirstName *string `json:"firstName" binding:"omitnil,min=1,max=64"`
		LastName  *string `json:"lastName"  binding:"omitnil,min=1,max=64"`
		Role      *string `json:"role"      binding:"omitnil,oneof=admin user"`
	}
	httpez.RegisterAction[patchIn, domain.Projection](ezAuth, httpez.Action[patchIn, domain.Projection]{
		Method: http.MethodPatch,
		Path:   "/users/:id",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *patchIn) (domain.Projection, error) {
			patch := domain.Patch{
				Email:     in.Email,
				Password:  in.Password,
				FirstName: in.FirstName,
				LastName:  in.LastName,
				Role:      in.Role,
			}
			id := c.Param("id")
			if err := service.AuthorizeUpdate(c.GetString("userId"), c.GetString("role"), id, patch); err != nil {
				mdw.CountReject("insufficient_role")
				return domain.Projection{}, err
			}
			p, err := m.Store.Update(id, patch)
			if err == nil {
				m.invalidate(c)
			}
			return p, err
		},
	})

	// --- DELETE /users/:id（仅 admin，硬删）---
	httpez.RegisterAction[struct{}, gin.H](ezAuth, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/users/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Roles:  []string{domain.RoleAdmin},
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := m.Store.Delete(id); err != nil {
				return nil, err
			}
			m.invalidate(c)
			return gin.H{"id": id}, nil
		},
	})

	// --- POST /users/seed（仅 admin，按 email 幂等）---
	type seedOut struct {
		Message string `json:"message"`
		Count   int    `json:"count"`
	}
	httpez.RegisterAction[struct{}, seedOut](ezAuth, httpez.Action[struct{}, seedOut]{
		Method: http.MethodPost,
		Path:   "/users/seed",
		Binder: httpez.BindNone,
		Auth:   true,
		Roles:  []string{domain.RoleAdmin},
		Handler: func(c *gin.Context, _ *struct{}) (seedOut, error) {
			n, err := m.Store.SeedSyntheticAccounts()
			if err != nil {
				return seedOut{}, err
			}
			m.invalidate(c)
			return seedOut{
				Message: fmt.Sprintf("Successfully seeded %d test users", n),
				Count:   n,
			}, nil
		},
	})
}

// MountAdmin 运维端列表：分组已挂 AuthJWT(admin)
func (m *UsersModule) MountAdmin(admin *gin.RouterGroup) {
	ezAdmin := httpez.New(admin)

	type listQ struct {
		Offset int    `form:"offset,default=0"`
		Limit  int    `form:"limit,default=20"`
		Q      string `form:"q"` // 按 email/姓名模糊搜
	}
	type listOut struct {
		Total int64               `json:"total"`
		Items []domain.Projection `json:"items"`
	}
	httpez.RegisterAction[listQ, listOut](ezAdmin, httpez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *listQ) (listOut, error) {
			items, total, err := m.Store.Search(in.Q, in.Offset, in.Limit)
			if err != nil {
				return listOut{}, httpez.Internal("list users failed", err)
			}
			return listOut{Total: total, Items: items}, nil
		},
	})
}

// 写路径成功后把名册缓存打掉，读路径下次回源
func (m *UsersModule) invalidate(c *gin.Context) {
	if m.Cache != nil {
		m.Cache.Invalidate(c, listCacheKey)
	}
}
