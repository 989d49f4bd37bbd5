package response

var messages = map[string]string{
	"error.bad_request":              "invalid request",
	"error.unauthorized":             "authentication required",
	"error.forbidden":                "permission denied",
	"error.internal":                 "internal server error",
	"error.too_many_requests":        "too many requests, please retry later",
	"error.login_too_many":           "too many login attempts, please retry later",
	"error.send_code_too_many":       "too many verification requests, please retry later",
	"error.email_invalid":            "invalid email address",
	"error.password_invalid":         "invalid password",
	"error.password_min_length":      "password must be at least %d characters",
	"error.password_require_upper":   "password must contain an uppercase letter",
	"error.password_require_lower":   "password must contain a lowercase letter",
	"error.password_require_number":  "password must contain a digit",
	"error.password_require_special": "password must contain a special character",
	"error.email_exists":             "email already registered",
	"error.user_not_found":           "user not found",
	"error.login_invalid":            "invalid email or password",
	"error.join_failed":              "sign-up failed",
	"error.login_failed":             "login failed",
	"error.token_expired":            "token expired",
	"error.token_invalid":            "invalid token",
	"error.refresh_token_missing":    "refresh token missing",
	"error.refresh_failed":           "token refresh failed",
	"error.user_id_invalid":          "invalid user id",
	"error.user_id_type_invalid":     "invalid user id type",
	"error.verify_code_invalid":      "invalid verification code",
	"error.verify_not_found":         "verification not requested",
	"error.verify_already_verified":  "email already verified",
	"error.verify_locked":            "verification locked, please retry later",
	"error.verify_expired":           "verification code expired",
	"error.verify_attempts_exceeded": "too many wrong attempts, verification locked",
	"error.verify_busy":              "verification in progress, please retry",
	"error.verify_failed":            "verification failed",
	"error.send_verify_code_failed":  "failed to send verification code",
	"error.notification_failed":      "failed to deliver verification email",
	"error.email_recipient_rejected": "email recipient rejected",
	"error.route_not_found":          "route not found",
	"error.rate_limit_unavailable":   "rate limiter unavailable",
	"error.authz_unavailable":        "authorization unavailable",
}

// Message 根据消息键返回提示文案，未登记的键原样返回
func Message(key string) string {
	if msg, ok := messages[key]; ok {
		return msg
	}
	return key
}
