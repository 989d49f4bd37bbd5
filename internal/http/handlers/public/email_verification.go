package public

import (
	"time"

	"github.com/storecase-identity/internal/http/response"
	"github.com/storecase-identity/internal/verification"

	"github.com/gin-gonic/gin"
)

// JoinEmailRequest 注册验证码发送请求
type JoinEmailRequest struct {
	Email string `json:"email" binding:"required"`
}

// SendJoinEmailCode 发送注册邮箱验证码
func (h *Handler) SendJoinEmailCode(c *gin.Context) {
	var req JoinEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	result, err := h.EmailVerificationService.RequestVerification(c.Request.Context(), req.Email)
	if err != nil {
		respondVerificationRequestError(c, err)
		return
	}

	response.SuccessWithMsg(c, "verification code sent", gin.H{
		"action":     result.Action,
		"expires_at": result.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// JoinEmailVerifyRequest 注册验证码校验请求
type JoinEmailVerifyRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// VerifyJoinEmailCode 校验注册邮箱验证码，验证码错误时仍返回当前状态与次数
func (h *Handler) VerifyJoinEmailCode(c *gin.Context) {
	var req JoinEmailVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	result, err := h.EmailVerificationService.ConfirmVerification(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		respondVerificationConfirmError(c, err)
		return
	}

	msg := "verification code mismatch"
	if result.Status == string(verification.StatusVerified) {
		msg = "email verified"
	}
	response.SuccessWithMsg(c, msg, result)
}
