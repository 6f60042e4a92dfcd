package domain

import "time"

// 角色只有两档："admin" 全量管理，"user" 只能看/改自己
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

func ValidRole(r string) bool { return r == RoleAdmin || r == RoleUser }

type Account struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	FirstName    string    `gorm:"size:64" json:"firstName"`
	LastName     string    `gorm:"size:64" json:"lastName"`
	PasswordHash string    `gorm:"size:191;not null" json:"-"`
	Role         string    `gorm:"size:16;not null;default:user" json:"role"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Account) TableName() string { return "users" }

// Projection 对外投影：绝不带 PasswordHash
type Projection struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Account) Projection() Projection {
	return Projection{
		ID:        a.ID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// NewAccount 新建账号入参（明文密码只在这里出现，入库前必须哈希）
type NewAccount struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string // 留空默认 "user"
}

// Patch 部分更新：nil 字段不动
type Patch struct {
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      *string `json:"role"`
}

// Store 凭据存储契约。FindByEmail 返回完整记录（含哈希），
// 只允许认证链路调用；其余一律投影。
type Store interface {
	Create(in NewAccount) (Projection, error)
	FindByEmail(email string) (*Account, error)
	FindByID(id string) (Projection, error)
	List() ([]Projection, error)
	Search(q string, offset, limit int) ([]Projection, int64, error)
	Update(id string, p Patch) (Projection, error)
	Delete(id string) error
	EnsureSeedAdmin() error
	SeedSyntheticAccounts() (int, error)
}
