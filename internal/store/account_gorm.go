package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"user-admin-api/internal/domain"
	"user-admin-api/pkg/utils"
)

// 种子管理员（每次启动都跑一遍，幂等）
const (
	SeedAdminEmail    = "admin@deskbird.com"
	SeedAdminPassword = "admin123"
)

// 演示数据统一默认密码
const syntheticPassword = "password123"

type AccountStore struct{ db *gorm.DB }

func NewAccountStore(db *gorm.DB) *AccountStore { return &AccountStore{db: db} }

func (s *AccountStore) AutoMigrate() error { return s.db.AutoMigrate(&domain.Account{}) }

func (s *AccountStore) Create(in domain.NewAccount) (domain.Projection, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !domain.ValidRole(role) {
		return domain.Projection{}, fmt.Errorf("unknown role %q", role)
	}
	a := domain.Account{
		ID:           utils.NewID(),
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: utils.HashPassword(in.Password),
		Role:         role,
	}
	// 唯一索引是 create 的线性化点，并发重复 email 直接冲突
	if err := s.db.Create(&a).Error; err != nil {
		if isDupKey(err) {
			return domain.Projection{}, domain.ErrDuplicateIdentity
		}
		return domain.Projection{}, err
	}
	return a.Projection(), nil
}

// FindByEmail 返回完整记录（含哈希），只给认证链路用
func (s *AccountStore) FindByEmail(email string) (*domain.Account, error) {
	var a domain.Account
	err := s.db.First(&a, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AccountStore) FindByID(id string) (domain.Projection, error) {
	var a domain.Account
	err := s.db.First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Projection{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Projection{}, err
	}
	return a.Projection(), nil
}

func (s *AccountStore) List() ([]domain.Projection, error) {
	var as []domain.Account
	if err := s.db.Order("created_at asc").Find(&as).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Projection, 0, len(as))
	for i := range as {
		out = append(out, as[i].Projection())
	}
	return out, nil
}

// Search 管理端分页列表，q 按 email / 姓名模糊匹配
func (s *AccountStore) Search(q string, offset, limit int) ([]domain.Projection, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	tx := s.db.Model(&domain.Account{})
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + q + "%"
		tx = tx.Where("email LIKE ? OR first_name LIKE ? OR last_name LIKE ?", like, like, like)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var as []domain.Account
	if err := tx.Order("created_at asc").Offset(offset).Limit(limit).Find(&as).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Projection, 0, len(as))
	for i := range as {
		out = append(out, as[i].Projection())
	}
	return out, total, nil
}

// Update 部分更新：nil 字段保持原值；password 先重哈希。
// 读-改-写包在事务里，保证单条记录的原子性。
func (s *AccountStore) Update(id string, p domain.Patch) (domain.Projection, error) {
	var a domain.Account
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&a, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if p.Email != nil {
			a.Email = *p.Email
		}
		if p.FirstName != nil {
			a.FirstName = *p.FirstName
		}
		if p.LastName != nil {
			a.LastName = *p.LastName
		}
		if p.Role != nil {
			if !domain.ValidRole(*p.Role) {
				return fmt.Errorf("unknown role %q", *p.Role)
			}
			a.Role = *p.Role
		}
		if p.Password != nil {
			a.PasswordHash = utils.HashPassword(*p.Password)
		}
		if err := tx.Save(&a).Error; err != nil {
			if isDupKey(err) {
				return domain.ErrDuplicateIdentity
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.Projection{}, err
	}
	return a.Projection(), nil
}

// Delete 硬删，无软删恢复
func (s *AccountStore) Delete(id string) error {
	res := s.db.Where("id = ?", id).Delete(&domain.Account{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// EnsureSeedAdmin 幂等：没有管理员就种一个，有则不动
func (s *AccountStore) EnsureSeedAdmin() error {
	existing, err := s.FindByEmail(SeedAdminEmail)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	_, err = s.Create(domain.NewAccount{
		Email:     SeedAdminEmail,
		Password:  SeedAdminPassword,
		FirstName: "Admin",
		LastName:  "User",
		Role:      domain.RoleAdmin,
	})
	// 并发启动兜底：别的实例先种上了也算成功
	if errors.Is(err, domain.ErrDuplicateIdentity) {
		return nil
	}
	return err
}

// SeedSyntheticAccounts 按 email 幂等：已存在的跳过，返回本次新建数
func (s *AccountStore) SeedSyntheticAccounts() (int, error) {
	count := 0
	for _, m := range syntheticAccounts {
		existing, err := s.FindByEmail(m.Email)
		if err != nil {
			return count, err
		}
		if existing != nil {
			continue
		}
		_, err = s.Create(domain.NewAccount{
			Email:     m.Email,
			Password:  syntheticPassword,
			FirstName: m.FirstName,
			LastName:  m.LastName,
			Role:      domain.RoleUser,
		})
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			continue
		}
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// 不依赖 gorm.ErrDuplicatedKey，mysql/postgres/sqlite 报错文案各不相同
func isDupKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}

var _ domain.Store = (*AccountStore)(nil)
