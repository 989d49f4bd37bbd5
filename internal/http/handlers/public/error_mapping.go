package public

import (
	"errors"
	"fmt"
	"time"

	"github.com/storecase-identity/internal/http/response"
	"github.com/storecase-identity/internal/service"
	"github.com/storecase-identity/internal/verification"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
// withRetryAt 为 true 时在 data 中附带锁定截止时间。
type mappedHandlerError struct {
	target      error
	code        int
	key         string
	withRetryAt bool
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if !errors.Is(err, rule.target) {
			continue
		}
		if rule.withRetryAt {
			if retryAt, ok := verification.RetryAt(err); ok {
				respondErrorWithData(c, rule.code, rule.key, gin.H{"retry_at": retryAt.UTC().Format(time.RFC3339)}, nil)
				return
			}
		}
		respondError(c, rule.code, rule.key, nil)
		return
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var emailInputErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, key: "error.email_invalid"},
}

var tokenErrorRules = []mappedHandlerError{
	{target: service.ErrTokenExpired, code: response.CodeUnauthorized, key: "error.token_expired"},
	{target: service.ErrTokenInvalid, code: response.CodeUnauthorized, key: "error.token_invalid"},
}

var joinErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidPassword, code: response.CodeBadRequest, key: "error.password_invalid"},
	{target: service.ErrUserAlreadyExists, code: response.CodeConflict, key: "error.email_exists"},
}

var loginErrorRules = []mappedHandlerError{
	{target: service.ErrNotFound, code: response.CodeNotFound, key: "error.user_not_found"},
	{target: service.ErrInvalidCredentials, code: response.CodeUnauthorized, key: "error.login_invalid"},
}

var refreshErrorRules = []mappedHandlerError{
	{target: service.ErrNotFound, code: response.CodeNotFound, key: "error.user_not_found"},
}

var verificationCommonErrorRules = []mappedHandlerError{
	{target: service.ErrVerificationBusy, code: response.CodeServiceUnavailable, key: "error.verify_busy"},
	{target: service.ErrVerificationAlreadyVerified, code: response.CodeConflict, key: "error.verify_already_verified"},
	{target: service.ErrVerificationLocked, code: response.CodeLocked, key: "error.verify_locked", withRetryAt: true},
}

var verificationRequestExtraErrorRules = []mappedHandlerError{
	{target: service.ErrNotificationFailed, code: response.CodeBadGateway, key: "error.notification_failed"},
}

var verificationConfirmExtraErrorRules = []mappedHandlerError{
	{target: service.ErrVerificationNotFound, code: response.CodeNotFound, key: "error.verify_not_found"},
	{target: service.ErrVerificationExpired, code: response.CodeGone, key: "error.verify_expired"},
	{target: service.ErrVerificationAttemptsExceeded, code: response.CodeTooManyRequests, key: "error.verify_attempts_exceeded", withRetryAt: true},
}

func respondJoinError(c *gin.Context, err error) {
	var policyErr service.PasswordPolicyError
	if errors.As(err, &policyErr) {
		msg := response.Message(policyErr.Key())
		if args := policyErr.Args(); len(args) > 0 {
			msg = fmt.Sprintf(msg, args...)
		}
		response.Error(c, response.CodeBadRequest, msg)
		return
	}
	respondWithMappedError(c, err, concatMappedHandlerErrors(emailInputErrorRules, joinErrorRules), response.CodeInternal, "error.join_failed")
}

func respondLoginError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(emailInputErrorRules, loginErrorRules), response.CodeInternal, "error.login_failed")
}

func respondRefreshError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(tokenErrorRules, refreshErrorRules), response.CodeInternal, "error.refresh_failed")
}

func respondVerificationRequestError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(emailInputErrorRules, verificationCommonErrorRules, verificationRequestExtraErrorRules), response.CodeInternal, "error.send_verify_code_failed")
}

func respondVerificationConfirmError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(emailInputErrorRules, verificationCommonErrorRules, verificationConfirmExtraErrorRules), response.CodeInternal, "error.verify_failed")
}
