package domain

import "errors"

// 统一错误口径，transport 层映射到 resp code
var (
	ErrDuplicateIdentity  = errors.New("user with this email already exists") // 409
	ErrNotFound           = errors.New("user not found")                      // 404
	ErrInvalidCredentials = errors.New("invalid credentials")                 // 401
	ErrInvalidToken       = errors.New("invalid token")                       // 401
	ErrInsufficientRole   = errors.New("insufficient role")                   // 403
)
