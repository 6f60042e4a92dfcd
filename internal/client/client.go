// Package client 会话同步器：持有登录态 + 名册两份客户端缓存，
// 给每个受保护请求挂 token，并用服务端确认过的结果调和本地状态。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// APIError 服务端 resp 信封里的业务错误
type APIError struct {
	Code int
	Msg  string
}

func (e *APIError) Error() string { return e.Msg }

type Synchronizer struct {
	base string
	hc   *http.Client

	mu        sync.Mutex
	state     State
	listeners map[int]func(State)
	nextSub   int
}

type Option func(*Synchronizer)

// WithHTTPClient 超时等传输参数是外部协作者的旋钮，这里不定默认值
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Synchronizer) { s.hc = hc }
}

func New(baseURL string, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		base:      baseURL,
		hc:        http.DefaultClient,
		listeners: map[int]func(State){},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State 当前状态快照（深拷贝，拿走随便改）
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe 注册状态监听；返回的 cancel 就是视图离场时的退订：
// 退订之后的响应不会再推给这个监听者
func (s *Synchronizer) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// apply 在锁内换状态，锁外广播快照
func (s *Synchronizer) apply(f func(State) State) {
	s.mu.Lock()
	s.state = f(s.state)
	snapshot := s.state.clone()
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(snapshot)
	}
}

// ---------- 会话 ----------

type loginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (s *Synchronizer) Login(ctx context.Context, email, password string) error {
	s.apply(func(st State) State {
		st.Session.Loading = true
		st.Session.Err = ""
		return st
	})
	var out loginResult
	// 登录是公开端点：不挂旧 token。重新登录失败吃到的 401 是凭据错误，
	// 不是 token 失效，不能把还在手里的会话冲掉
	err := s.send(ctx, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": email, "password": password,
	}, &out, false)
	if err != nil {
		s.apply(func(st State) State { return applyLoginFailure(st, err.Error()) })
		return err
	}
	s.apply(func(st State) State { return applyLoginSuccess(st, out.Token, out.User) })
	return nil
}

func (s *Synchronizer) Logout() {
	s.apply(applyLogout)
}

// ---------- 名册 ----------

func (s *Synchronizer) LoadUsers(ctx context.Context) error {
	s.apply(func(st State) State {
		st.Roster.Loading = true
		st.Roster.Err = ""
		return st
	})
	var users []User
	if err := s.do(ctx, http.MethodGet, "/api/v1/users", nil, &users); err != nil {
		s.apply(func(st State) State {
			st.Roster.Loading = false
			st.Roster.Err = err.Error()
			return st
		})
		return err
	}
	s.apply(func(st State) State { return applyUsersLoaded(st, users) })
	return nil
}

type CreateUserRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role,omitempty"`
}

func (s *Synchronizer) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	var u User
	if err := s.do(ctx, http.MethodPost, "/api/v1/users", req, &u); err != nil {
		s.setRosterErr(err)
		return nil, err
	}
	s.apply(func(st State) State { return applyCreateSuccess(st, u) })
	return &u, nil
}

// UpdateUserRequest 部分补丁：nil 字段不发
type UpdateUserRequest struct {
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"password,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Role      *string `json:"role,omitempty"`
}

func (s *Synchronizer) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*User, error) {
	var u User
	if err := s.do(ctx, http.MethodPatch, "/api/v1/users/"+id, req, &u); err != nil {
		s.setRosterErr(err)
		return nil, err
	}
	// 改到的是会话本人时，公开字段一并并进登录态
	s.apply(func(st State) State { return applyUpdateSuccess(st, u) })
	return &u, nil
}

func (s *Synchronizer) DeleteUser(ctx context.Context, id string) error {
	if err := s.do(ctx, http.MethodDelete, "/api/v1/users/"+id, nil, nil); err != nil {
		s.setRosterErr(err)
		return err
	}
	s.apply(func(st State) State { return applyDeleteSuccess(st, id) })
	return nil
}

type SeedResult struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

func (s *Synchronizer) SeedTestData(ctx context.Context) (SeedResult, error) {
	var out SeedResult
	if err := s.do(ctx, http.MethodPost, "/api/v1/users/seed", nil, &out); err != nil {
		s.setRosterErr(err)
		return SeedResult{}, err
	}
	return out, nil
}

func (s *Synchronizer) setRosterErr(err error) {
	s.apply(func(st State) State {
		st.Roster.Err = err.Error()
		return st
	})
}

// ---------- 传输 ----------

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// do 发受保护请求：持有 token 就挂上（没有就裸发，由服务端守卫拒绝）。
// 带 token 的请求吃到 401 说明 token 已失效 → 强制登出，别让过期凭据赖在界面上。
func (s *Synchronizer) do(ctx context.Context, method, path string, in, out any) error {
	return s.send(ctx, method, path, in, out, true)
}

func (s *Synchronizer) send(ctx context.Context, method, path string, in, out any, attach bool) error {
	var body *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	s.mu.Lock()
	token := s.state.Session.Token
	s.mu.Unlock()
	authed := attach && token != ""
	if authed {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := s.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if env.Code != 0 {
		if authed && env.Code == http.StatusUnauthorized {
			s.apply(applyLogout)
		}
		return &APIError{Code: env.Code, Msg: env.Msg}
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}
