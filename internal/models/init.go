package models

import (
	"errors"
	"strings"

	"github.com/storecase-identity/internal/constants"
	"github.com/storecase-identity/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// InitDefaultAdmin 初始化管理员账号
// 已存在 ADMIN 角色用户时不做任何修改；未配置邮箱时跳过。
func InitDefaultAdmin(email, password string) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		logger.Debugw("default_admin_skip_no_email")
		return nil
	}
	if password == "" {
		return errors.New("default admin password is empty")
	}

	var count int64
	if err := DB.Model(&User{}).Where("role = ?", constants.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         "admin",
		Role:         constants.RoleAdmin,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}
	logger.Warnw("default_admin_created", "email", email, "password_hidden", true)
	return nil
}
