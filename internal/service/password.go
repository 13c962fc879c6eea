// File: internal/service/password.go
package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes bcrypt 只接受 72 bytes 以內的密碼
const MaxPasswordBytes = 72

// ErrPasswordTooLong 明文密碼超過 MaxPasswordBytes
var ErrPasswordTooLong = fmt.Errorf("password exceeds %d bytes", MaxPasswordBytes)

var (
	bcryptGenerateFromPassword   = bcrypt.GenerateFromPassword
	bcryptCompareHashAndPassword = bcrypt.CompareHashAndPassword
)

// HashPassword 接收明文密碼，回傳 bcrypt 哈希字串
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashBytes, err := bcryptGenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

// ComparePassword 比對明文密碼與 bcrypt 哈希，成功回傳 nil，失敗則回傳錯誤
func ComparePassword(hash, password string) error {
	return bcryptCompareHashAndPassword([]byte(hash), []byte(password))
}

// VerifyPassword 密碼不符、超過長度或哈希格式錯誤時一律回傳 false
func VerifyPassword(password, hash string) bool {
	// 超長密碼不可能是註冊時的密碼，避免只比對前 72 bytes
	if len(password) > MaxPasswordBytes {
		return false
	}
	return ComparePassword(hash, password) == nil
}
