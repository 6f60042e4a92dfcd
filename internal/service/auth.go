package service

import (
	"user-admin-api/internal/core/auth"
	"user-admin-api/internal/domain"
	"user-admin-api/pkg/utils"
)

// CredentialReader 认证链路需要的最小存储能力：
// 这是唯一允许拿到完整记录（含哈希）的出口
type CredentialReader interface {
	FindByEmail(email string) (*domain.Account, error)
}

// Authenticator 对凭据存储只读，签发/校验本身无共享可变状态
type Authenticator struct {
	store CredentialReader
	jwter *auth.JWTer
}

func NewAuthenticator(store CredentialReader, jwter *auth.JWTer) *Authenticator {
	return &Authenticator{store: store, jwter: jwter}
}

type LoginResult struct {
	Token string            `json:"token"`
	User  domain.Projection `json:"user"`
}

// Login 查无此人和密码不对同一个错，不给枚举 email 的机会
func (a *Authenticator) Login(email, password string) (LoginResult, error) {
	rec, err := a.store.FindByEmail(email)
	if err != nil {
		return LoginResult{}, err
	}
	if rec == nil || !utils.CheckPassword(password, rec.PasswordHash) {
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	tok, err := a.jwter.Issue(rec.ID, rec.Role)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: tok, User: rec.Projection()}, nil
}

// Verify 返回签发时嵌入的 uid 和 role
func (a *Authenticator) Verify(token string) (uid, role string, err error) {
	c, err := a.jwter.Parse(token)
	if err != nil {
		return "", "", err
	}
	return c.UID, c.Role, nil
}
