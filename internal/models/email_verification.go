package models

import "time"

// EmailVerification 邮箱验证记录
// 说明：同一 (email, purpose) 保留历史行，业务只操作 id 最大的一行。
type EmailVerification struct {
	ID           uint       `gorm:"primarykey" json:"id"`                                                                  // 主键
	Email        string     `gorm:"type:varchar(255);not null;index:idx_email_verifications_key,priority:1" json:"email"`  // 邮箱
	Purpose      string     `gorm:"type:varchar(32);not null;index:idx_email_verifications_key,priority:2" json:"purpose"` // 用途（SIGNUP）
	Code         string     `gorm:"type:varchar(6);not null" json:"-"`                                                     // 验证码（不返回给前端）
	Status       string     `gorm:"type:varchar(16);not null;index" json:"status"`                                         // 状态
	AttemptCount int        `gorm:"not null;default:0" json:"attempt_count"`                                               // 失败次数
	ExpiresAt    time.Time  `gorm:"not null" json:"expires_at"`                                                            // 过期时间
	LockedUntil  *time.Time `json:"locked_until"`                                                                          // 锁定截止时间
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`                                                               // 创建时间
	UpdatedAt    time.Time  `json:"updated_at"`                                                                            // 更新时间
}

// TableName 指定表名
func (EmailVerification) TableName() string {
	return "email_verifications"
}
