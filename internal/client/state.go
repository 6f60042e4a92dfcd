package client

import "time"

// User 服务端投影的客户端镜像，永远不含密码哈希
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Session 客户端持有的登录态。
// 不变量：IsAuthenticated 当且仅当持有 token
type Session struct {
	User            *User
	Token           string
	IsAuthenticated bool
	Loading         bool
	Err             string
}

// Roster 名册缓存：每个 id 至多一条，顺序即拉取/插入顺序
type Roster struct {
	Users   []User
	Loading bool
	Err     string
}

type State struct {
	Session Session
	Roster  Roster
}

// ---------- 纯函数式调和：只吃服务端确认过的结果 ----------

// applyLoginSuccess 填充会话，清错误
func applyLoginSuccess(s State, token string, u User) State {
	s.Session = Session{
		User:            &u,
		Token:           token,
		IsAuthenticated: true,
	}
	return s
}

func applyLoginFailure(s State, msg string) State {
	s.Session.Loading = false
	s.Session.Err = msg
	return s
}

// applyLogout 无条件回到未认证初始态（名册保留，与后端无回合）
func applyLogout(s State) State {
	s.Session = Session{}
	return s
}

func applyUsersLoaded(s State, users []User) State {
	s.Roster = Roster{Users: users}
	return s
}

// applyCreateSuccess 末尾追加；同 id 已存在则替换，保持"至多一条"。
// 写成功即清掉上一次失败留下的名册错误
func applyCreateSuccess(s State, u User) State {
	s.Roster.Err = ""
	for i := range s.Roster.Users {
		if s.Roster.Users[i].ID == u.ID {
			s.Roster.Users[i] = u
			return s
		}
	}
	s.Roster.Users = append(s.Roster.Users, u)
	return s
}

// applyUpdateSuccess 按 id 替换名册条目；被改的是会话本人时，
// 把公开字段逐项并进会话投影（不整体替换，登录态标志不动）
func applyUpdateSuccess(s State, u User) State {
	s.Roster.Err = ""
	for i := range s.Roster.Users {
		if s.Roster.Users[i].ID == u.ID {
			s.Roster.Users[i] = u
			break
		}
	}
	if su := s.Session.User; su != nil && su.ID == u.ID {
		merged := *su
		merged.Email = u.Email
		merged.FirstName = u.FirstName
		merged.LastName = u.LastName
		merged.Role = u.Role
		merged.UpdatedAt = u.UpdatedAt
		s.Session.User = &merged
	}
	return s
}

func applyDeleteSuccess(s State, id string) State {
	s.Roster.Err = ""
	users := s.Roster.Users[:0:0]
	for _, u := range s.Roster.Users {
		if u.ID != id {
			users = append(users, u)
		}
	}
	s.Roster.Users = users
	return s
}

// clone 对外快照：切片和会话 User 都复制，调用方随便改
func (s State) clone() State {
	if s.Session.User != nil {
		u := *s.Session.User
		s.Session.User = &u
	}
	s.Roster.Users = append([]User(nil), s.Roster.Users...)
	return s
}
