package service

import (
	"errors"
	"fmt"

	"github.com/storecase-identity/internal/verification"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidPassword    = errors.New("invalid password")

	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")

	ErrVerificationNotFound         = fmt.Errorf("email verification %w", ErrNotFound)
	ErrVerificationAlreadyVerified  = verification.ErrAlreadyVerified
	ErrVerificationLocked           = verification.ErrLocked
	ErrVerificationExpired          = verification.ErrExpired
	ErrVerificationAttemptsExceeded = verification.ErrAttemptLimitExceeded
	ErrVerificationBusy             = errors.New("email verification busy")

	ErrNotificationFailed        = errors.New("notification failed")
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
)
