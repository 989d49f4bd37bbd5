package cache

import (
	"context"
	"fmt"
	"time"
)

const userProfileCacheTTL = time.Minute

// UserProfile 用户资料快照（GET /me 读取）
type UserProfile struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

func userProfileKey(userID uint) string {
	return fmt.Sprintf("user:profile:%d", userID)
}

// GetUserProfile 读取用户资料缓存
func GetUserProfile(ctx context.Context, userID uint) (*UserProfile, bool, error) {
	var profile UserProfile
	hit, err := GetJSON(ctx, userProfileKey(userID), &profile)
	if err != nil || !hit {
		return nil, false, err
	}
	return &profile, true, nil
}

// SetUserProfile 写入用户资料缓存
func SetUserProfile(ctx context.Context, profile *UserProfile) error {
	if profile == nil || profile.ID == 0 {
		return nil
	}
	return SetJSON(ctx, userProfileKey(profile.ID), profile, userProfileCacheTTL)
}
