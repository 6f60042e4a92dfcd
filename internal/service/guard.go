package service

import "user-admin-api/internal/domain"

// 更新操作的准入判定。拒绝必须发生在碰存储之前。
//
// 规则：
//   - admin 可以改任何人，但不能改自己的 role（防呆：避免把唯一管理员降级锁死后台）
//   - user 只能改自己，且动不了 role
func AuthorizeUpdate(actorID, actorRole, targetID string, p domain.Patch) error {
	if actorRole != domain.RoleAdmin {
		if actorID != targetID {
			return domain.ErrInsufficientRole
		}
		if p.Role != nil {
			return domain.ErrInsufficientRole
		}
		return nil
	}
	// 自己的 role 字段出现在 patch 里就拒，哪怕值没变
	if targetID == actorID && p.Role != nil {
		return domain.ErrInsufficientRole
	}
	return nil
}
