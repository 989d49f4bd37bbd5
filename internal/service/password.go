package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher 单向密码哈希
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Matches(plaintext, hashed string) bool
}

// BcryptHasher bcrypt 实现
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher 创建 bcrypt 哈希器，cost 非法时使用默认值
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

// Hash 生成密码哈希
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.Cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrInvalidPassword
		}
		return "", err
	}
	return string(hashed), nil
}

// Matches 校验明文与哈希是否匹配
func (h *BcryptHasher) Matches(plaintext, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext)) == nil
}
