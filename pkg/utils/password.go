package utils

import "golang.org/x/crypto/bcrypt"

// bcrypt 自带盐 + 慢哈希；Compare 内部恒定时间，避免时序泄漏
func HashPassword(pw string) string {
	b, _ := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b)
}
func CheckPassword(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}
