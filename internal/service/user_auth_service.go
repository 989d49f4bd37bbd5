package service

import (
	"context"
	"errors"
	"strings"

	"github.com/storecase-identity/internal/cache"
	"github.com/storecase-identity/internal/config"
	"github.com/storecase-identity/internal/constants"
	"github.com/storecase-identity/internal/logger"
	"github.com/storecase-identity/internal/metrics"
	"github.com/storecase-identity/internal/models"
	"github.com/storecase-identity/internal/repository"

	"gorm.io/gorm"
)

// JoinInput 注册参数
type JoinInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// UserSnapshot 登录后返回的用户公开字段
type UserSnapshot struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// LoginResult 登录/刷新结果
type LoginResult struct {
	Tokens *TokenPair
	User   UserSnapshot
}

// UserAuthService 用户认证服务
type UserAuthService struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	tokens   *TokenService
	policy   config.PasswordPolicyConfig
}

// NewUserAuthService 创建用户认证服务
func NewUserAuthService(userRepo repository.UserRepository, hasher PasswordHasher, tokens *TokenService) *UserAuthService {
	return &UserAuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
	}
}

// SetPasswordPolicy 设置注册密码策略
func (s *UserAuthService) SetPasswordPolicy(policy config.PasswordPolicyConfig) {
	s.policy = policy
}

// Join 注册用户
func (s *UserAuthService) Join(input JoinInput) (*models.User, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if input.Password == "" {
		return nil, ErrInvalidPassword
	}
	if err := validatePassword(s.policy, input.Password); err != nil {
		return nil, err
	}

	exist, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrUserAlreadyExists
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        email,
		PasswordHash: hashed,
		Name:         strings.TrimSpace(input.Name),
		Phone:        strings.TrimSpace(input.Phone),
		Role:         constants.RoleUser,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	logger.Infow("user_joined", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Authenticate 校验邮箱密码并签发 Token
func (s *UserAuthService) Authenticate(email, password string) (*LoginResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, err
	}
	if user == nil {
		metrics.LoginAttempts.WithLabelValues("not_found").Inc()
		return nil, ErrNotFound
	}
	if !s.hasher.Matches(password, user.PasswordHash) {
		metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
		logger.Infow("user_login_rejected", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return result, nil
}

// Refresh 使用刷新 Token 换取新的 Token 对，角色以库中数据为准
func (s *UserAuthService) Refresh(refreshToken string) (*LoginResult, error) {
	principal, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(principal.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return s.issue(user)
}

// GetUserByID 获取用户信息
func (s *UserAuthService) GetUserByID(id uint) (*models.User, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// GetProfile 获取用户资料，优先读取缓存
func (s *UserAuthService) GetProfile(ctx context.Context, id uint) (*cache.UserProfile, error) {
	if profile, hit, err := cache.GetUserProfile(ctx, id); err == nil && hit {
		return profile, nil
	} else if err != nil {
		logger.Warnw("user_profile_cache_get_failed", "user_id", id, "error", err)
	}

	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	profile := &cache.UserProfile{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Phone: user.Phone,
		Role:  user.Role,
	}
	if err := cache.SetUserProfile(ctx, profile); err != nil {
		logger.Warnw("user_profile_cache_set_failed", "user_id", id, "error", err)
	}
	return profile, nil
}

func (s *UserAuthService) issue(user *models.User) (*LoginResult, error) {
	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Tokens: pair, User: SnapshotUser(user)}, nil
}

// SnapshotUser 提取用户公开字段
func SnapshotUser(user *models.User) UserSnapshot {
	if user == nil {
		return UserSnapshot{}
	}
	return UserSnapshot{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}
}
