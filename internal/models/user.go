package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表
type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                                                        // 主键
	Email        string         `gorm:"type:varchar(255);uniqueIndex:uk_users_email,where:deleted_at IS NULL;not null" json:"email"` // 邮箱（区分大小写，仅未删除用户唯一）
	PasswordHash string         `gorm:"not null" json:"-"`                                                                           // 密码哈希（不返回给前端）
	Name         string         `gorm:"type:varchar(100);default:''" json:"name"`                                                    // 姓名
	Phone        string         `gorm:"type:varchar(32);default:''" json:"phone"`                                                    // 手机号
	Role         string         `gorm:"type:varchar(16);not null;default:'USER';index" json:"role"`                                  // 角色（USER/ADMIN）
	IsWithdraw   bool           `gorm:"not null;default:false" json:"is_withdraw"`                                                   // 是否已注销
	IsSocial     bool           `gorm:"not null;default:false" json:"is_social"`                                                     // 是否社交账号
	SNSType      string         `gorm:"type:varchar(32);default:''" json:"sns_type"`                                                 // 社交平台类型
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                                                     // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                                                                     // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                                                              // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
