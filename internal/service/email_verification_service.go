package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/storecase-identity/internal/config"
	"github.com/storecase-identity/internal/logger"
	"github.com/storecase-identity/internal/metrics"
	"github.com/storecase-identity/internal/models"
	"github.com/storecase-identity/internal/repository"
	"github.com/storecase-identity/internal/verification"
)

// RequestResult 发送验证码结果
type RequestResult struct {
	Action    string    `json:"action"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ConfirmResult 校验验证码结果，验证码错误但未超限时也通过它返回
type ConfirmResult struct {
	Status    string     `json:"status"`
	Attempts  int        `json:"attempts"`
	RetryAt   *time.Time `json:"retry_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// EmailVerificationService 注册邮箱验证服务
type EmailVerificationService struct {
	repo      repository.EmailVerificationRepository
	notifier  Notifier
	locker    KeyLocker
	policy    config.VerificationPolicy
	brandName string
	subject   string

	now          func() time.Time
	generateCode func() (string, error)
}

// NewEmailVerificationService 创建邮箱验证服务
func NewEmailVerificationService(cfg *config.Config, repo repository.EmailVerificationRepository, notifier Notifier, locker KeyLocker) *EmailVerificationService {
	if locker == nil {
		locker = NewLocalKeyLocker()
	}
	return &EmailVerificationService{
		repo:         repo,
		notifier:     notifier,
		locker:       locker,
		policy:       cfg.VerificationPolicy(),
		brandName:    cfg.Email.ResolveBrandName(),
		subject:      cfg.Email.ResolveVerifySubject(),
		now:          time.Now,
		generateCode: verification.GenerateCode,
	}
}

// RequestVerification 发送注册验证码
func (s *EmailVerificationService) RequestVerification(ctx context.Context, email string) (*RequestResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	issued, action, err := s.planAndPersistRequest(ctx, normalized)
	if err != nil {
		metrics.VerificationRequests.WithLabelValues(requestFailureOutcome(err)).Inc()
		return nil, err
	}

	if err := s.notify(ctx, issued); err != nil {
		metrics.VerificationRequests.WithLabelValues("notify_failed").Inc()
		logger.Warnw("verify_code_notify_failed", "email", normalized, "action", action.String(), "error", err)
		return nil, fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}

	metrics.VerificationRequests.WithLabelValues(action.String()).Inc()
	logger.Infow("verify_code_sent", "email", normalized, "action", action.String(), "expires_at", issued.ExpiresAt)
	return &RequestResult{Action: action.String(), ExpiresAt: issued.ExpiresAt}, nil
}

func (s *EmailVerificationService) planAndPersistRequest(ctx context.Context, email string) (verification.Record, verification.RequestAction, error) {
	unlock, err := s.lock(ctx, email)
	if err != nil {
		return verification.Record{}, 0, err
	}
	defer unlock()

	now := s.now()
	latest, err := s.repo.GetLatest(email, string(verification.PurposeSignup))
	if err != nil {
		return verification.Record{}, 0, err
	}
	code, err := s.generateCode()
	if err != nil {
		return verification.Record{}, 0, err
	}

	var current *verification.Record
	if latest != nil {
		snapshot := toVerificationRecord(latest)
		current = &snapshot
	}
	plan, err := verification.PlanRequest(current, email, verification.PurposeSignup, code, now, s.policy.ToMachinePolicy())
	if err != nil {
		return verification.Record{}, 0, err
	}

	switch plan.Action {
	case verification.ActionCreate:
		if err := s.repo.Create(newVerificationRow(plan.Fresh)); err != nil {
			return verification.Record{}, 0, err
		}
	case verification.ActionReissue:
		applyVerificationRecord(latest, plan.Current)
		if err := s.repo.Save(latest); err != nil {
			return verification.Record{}, 0, err
		}
	case verification.ActionReplace:
		if plan.RetireCurrent {
			applyVerificationRecord(latest, plan.Current)
			if err := s.repo.Save(latest); err != nil {
				return verification.Record{}, 0, err
			}
		}
		if err := s.repo.Create(newVerificationRow(plan.Fresh)); err != nil {
			return verification.Record{}, 0, err
		}
	}
	return plan.Issued(), plan.Action, nil
}

// ConfirmVerification 校验注册验证码
func (s *EmailVerificationService) ConfirmVerification(ctx context.Context, email, code string) (*ConfirmResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, normalized)
	if err != nil {
		metrics.VerificationConfirms.WithLabelValues("busy").Inc()
		return nil, err
	}
	defer unlock()

	now := s.now()
	row, err := s.repo.GetLatest(normalized, string(verification.PurposeSignup))
	if err != nil {
		return nil, err
	}
	if row == nil {
		metrics.VerificationConfirms.WithLabelValues("not_found").Inc()
		return nil, ErrVerificationNotFound
	}

	plan, planErr := verification.Confirm(toVerificationRecord(row), code, now, s.policy.ToMachinePolicy())
	if plan.Persist {
		applyVerificationRecord(row, plan.Record)
		if err := s.repo.Save(row); err != nil {
			return nil, err
		}
	}
	if planErr != nil {
		outcome := confirmFailureOutcome(planErr)
		metrics.VerificationConfirms.WithLabelValues(outcome).Inc()
		logger.Infow("verify_code_rejected", "email", normalized, "outcome", outcome, "attempts", row.AttemptCount)
		return nil, planErr
	}

	metrics.VerificationConfirms.WithLabelValues(plan.Outcome.String()).Inc()
	if plan.Outcome == verification.OutcomeVerified {
		logger.Infow("verify_code_verified", "email", normalized)
	}
	return toConfirmResult(row), nil
}

func (s *EmailVerificationService) lock(ctx context.Context, email string) (func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	waitCtx := ctx
	if s.policy.LockWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.policy.LockWait)
		defer cancel()
	}
	unlock, err := s.locker.Lock(waitCtx, verificationLockKey(verification.PurposeSignup, email))
	if err != nil {
		logger.Warnw("verify_lock_acquire_failed", "email", email, "error", err)
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrVerificationBusy, err)
	}
	return unlock, nil
}

func (s *EmailVerificationService) notify(ctx context.Context, issued verification.Record) error {
	if s.notifier == nil {
		return ErrEmailServiceNotConfigured
	}
	html, err := renderVerificationMail(verificationMailData{
		BrandName:     s.brandName,
		Email:         issued.Email,
		Code:          issued.Code,
		ExpireMinutes: int(s.policy.ExpireWindow / time.Minute),
		Year:          s.now().Year(),
	})
	if err != nil {
		return err
	}
	return s.notifier.Send(ctx, issued.Email, s.subject, html)
}

func verificationLockKey(purpose verification.Purpose, email string) string {
	return "verify:" + string(purpose) + ":" + email
}

func normalizeEmail(email string) (string, error) {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", ErrInvalidEmail
	}
	return trimmed, nil
}

func toVerificationRecord(row *models.EmailVerification) verification.Record {
	return verification.Record{
		Email:        row.Email,
		Purpose:      verification.Purpose(row.Purpose),
		Code:         row.Code,
		Status:       verification.Status(row.Status),
		AttemptCount: row.AttemptCount,
		ExpiresAt:    row.ExpiresAt,
		LockedUntil:  row.LockedUntil,
	}
}

func applyVerificationRecord(row *models.EmailVerification, rec verification.Record) {
	row.Code = rec.Code
	row.Status = string(rec.Status)
	row.AttemptCount = rec.AttemptCount
	row.ExpiresAt = rec.ExpiresAt
	row.LockedUntil = rec.LockedUntil
}

func newVerificationRow(rec verification.Record) *models.EmailVerification {
	row := &models.EmailVerification{
		Email:   rec.Email,
		Purpose: string(rec.Purpose),
	}
	applyVerificationRecord(row, rec)
	return row
}

func toConfirmResult(row *models.EmailVerification) *ConfirmResult {
	return &ConfirmResult{
		Status:    row.Status,
		Attempts:  row.AttemptCount,
		RetryAt:   row.LockedUntil,
		ExpiresAt: row.ExpiresAt,
	}
}

func requestFailureOutcome(err error) string {
	switch {
	case errors.Is(err, ErrVerificationAlreadyVerified):
		return "already_verified"
	case errors.Is(err, ErrVerificationLocked):
		return "locked"
	case errors.Is(err, ErrVerificationBusy):
		return "busy"
	default:
		return "error"
	}
}

func confirmFailureOutcome(err error) string {
	switch {
	case errors.Is(err, ErrVerificationLocked):
		return "locked"
	case errors.Is(err, ErrVerificationExpired):
		return "expired"
	case errors.Is(err, ErrVerificationAttemptsExceeded):
		return "attempt_limit_exceeded"
	default:
		return "error"
	}
}
