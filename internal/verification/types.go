// Package verification 邮箱验证码状态机
//
// 包内只包含纯函数：给定最新记录、当前时间与策略，计算新的记录状态以及需要执行的写入和通知，
// 持久化、加锁与发信由 service 层负责。
package verification

import (
	"errors"
	"fmt"
	"time"
)

// Status 验证记录状态
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusVerified Status = "VERIFIED"
	StatusExpired  Status = "EXPIRED"
	StatusLocked   Status = "LOCKED"
)

// Valid 是否为已知状态
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusExpired, StatusLocked:
		return true
	default:
		return false
	}
}

// Purpose 验证用途
type Purpose string

const (
	PurposeSignup Purpose = "SIGNUP"
)

// Record 验证记录快照
type Record struct {
	Email        string
	Purpose      Purpose
	Code         string
	Status       Status
	AttemptCount int
	ExpiresAt    time.Time
	LockedUntil  *time.Time
}

// Expired 在 now 时刻是否已过期（expiresAt <= now）
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// LockActive 在 now 时刻锁定是否仍然生效
func (r Record) LockActive(now time.Time) bool {
	return r.LockedUntil != nil && now.Before(*r.LockedUntil)
}

// Policy 状态机参数
type Policy struct {
	ExpireWindow time.Duration
	LockDuration time.Duration
	MaxAttempts  int
}

var (
	ErrAlreadyVerified      = errors.New("email verification already verified")
	ErrLocked               = errors.New("email verification locked")
	ErrExpired              = errors.New("email verification expired")
	ErrAttemptLimitExceeded = errors.New("email verification attempt limit exceeded")
)

// LockedError 锁定错误，携带解锁时间
type LockedError struct {
	LockedUntil time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s until %s", ErrLocked.Error(), e.LockedUntil.Format(time.RFC3339))
}

// Is 使 errors.Is(err, ErrLocked) 成立
func (e *LockedError) Is(target error) bool {
	return target == ErrLocked
}

// AttemptLimitError 失败次数超限错误，携带解锁时间
type AttemptLimitError struct {
	LockedUntil time.Time
}

func (e *AttemptLimitError) Error() string {
	return ErrAttemptLimitExceeded.Error()
}

// Is 使 errors.Is(err, ErrAttemptLimitExceeded) 成立
func (e *AttemptLimitError) Is(target error) bool {
	return target == ErrAttemptLimitExceeded
}

// AsLocked 提取锁定截止时间
func AsLocked(err error) (time.Time, bool) {
	var locked *LockedError
	if errors.As(err, &locked) {
		return locked.LockedUntil, true
	}
	return time.Time{}, false
}

// RetryAt 锁定或超限错误对应的可重试时间
func RetryAt(err error) (time.Time, bool) {
	if until, ok := AsLocked(err); ok {
		return until, true
	}
	var limit *AttemptLimitError
	if errors.As(err, &limit) {
		return limit.LockedUntil, true
	}
	return time.Time{}, false
}
