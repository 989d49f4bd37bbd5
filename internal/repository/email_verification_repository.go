package repository

import (
	"errors"

	"github.com/storecase-identity/internal/models"

	"gorm.io/gorm"
)

// EmailVerificationRepository 邮箱验证记录数据访问接口
type EmailVerificationRepository interface {
	GetLatest(email, purpose string) (*models.EmailVerification, error)
	Create(record *models.EmailVerification) error
	Save(record *models.EmailVerification) error
}

// GormEmailVerificationRepository GORM 实现
type GormEmailVerificationRepository struct {
	db *gorm.DB
}

// NewEmailVerificationRepository 创建邮箱验证记录仓库
func NewEmailVerificationRepository(db *gorm.DB) *GormEmailVerificationRepository {
	return &GormEmailVerificationRepository{db: db}
}

// GetLatest 获取 (email, purpose) 最新的一行
func (r *GormEmailVerificationRepository) GetLatest(email, purpose string) (*models.EmailVerification, error) {
	var record models.EmailVerification
	if err := r.db.Where("email = ? AND purpose = ?", email, purpose).
		Order("id desc").
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Create 新增验证记录
func (r *GormEmailVerificationRepository) Create(record *models.EmailVerification) error {
	return r.db.Create(record).Error
}

// Save 整行写回验证记录
func (r *GormEmailVerificationRepository) Save(record *models.EmailVerification) error {
	return r.db.Save(record).Error
}
