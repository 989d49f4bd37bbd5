package public

import (
	"net/http"
	"strings"
	"time"

	"github.com/storecase-identity/internal/config"
	"github.com/storecase-identity/internal/constants"
	"github.com/storecase-identity/internal/http/response"
	"github.com/storecase-identity/internal/service"

	"github.com/gin-gonic/gin"
)

// JoinRequest 注册请求
type JoinRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

// Join 用户注册
func (h *Handler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	user, err := h.UserAuthService.Join(service.JoinInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		respondJoinError(c, err)
		return
	}

	response.SuccessWithMsg(c, "created", service.SnapshotUser(user))
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 用户登录，刷新 Token 通过 HttpOnly Cookie 下发
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	result, err := h.UserAuthService.Authenticate(req.Email, req.Password)
	if err != nil {
		respondLoginError(c, err)
		return
	}

	h.setRefreshCookie(c, result.Tokens)
	response.SuccessWithMsg(c, "login success", loginPayload(result))
}

// Refresh 使用 Cookie 中的刷新 Token 轮换 Token 对
func (h *Handler) Refresh(c *gin.Context) {
	cookieCfg := h.refreshCookieConfig()
	refreshToken, err := c.Cookie(cookieCfg.Name)
	if err != nil || strings.TrimSpace(refreshToken) == "" {
		h.clearRefreshCookie(c)
		respondError(c, response.CodeUnauthorized, "error.refresh_token_missing", nil)
		return
	}

	result, err := h.UserAuthService.Refresh(refreshToken)
	if err != nil {
		h.clearRefreshCookie(c)
		respondRefreshError(c, err)
		return
	}

	h.setRefreshCookie(c, result.Tokens)
	response.SuccessWithMsg(c, "tokens reissued", loginPayload(result))
}

// GetCurrentUser 获取当前登录用户
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	profile, err := h.UserAuthService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondWithMappedError(c, err, refreshErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, profile)
}

func loginPayload(result *service.LoginResult) gin.H {
	return gin.H{
		"access_token": constants.TokenPrefix + result.Tokens.AccessToken,
		"expires_at":   result.Tokens.AccessExpiresAt.UTC().Format(time.RFC3339),
		"user":         result.User,
	}
}

func (h *Handler) refreshCookieConfig() config.RefreshCookieConfig {
	if h.Config == nil {
		return config.RefreshCookieConfig{}.ResolveRefreshCookie()
	}
	return h.Config.RefreshCookie.ResolveRefreshCookie()
}

func (h *Handler) setRefreshCookie(c *gin.Context, tokens *service.TokenPair) {
	cookieCfg := h.refreshCookieConfig()
	maxAge := int(time.Until(tokens.RefreshExpiresAt) / time.Second)
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(resolveSameSite(cookieCfg.SameSite))
	c.SetCookie(cookieCfg.Name, tokens.RefreshToken, maxAge, cookieCfg.Path, cookieCfg.Domain, cookieCfg.Secure, true)
}

func (h *Handler) clearRefreshCookie(c *gin.Context) {
	cookieCfg := h.refreshCookieConfig()
	c.SetSameSite(resolveSameSite(cookieCfg.SameSite))
	c.SetCookie(cookieCfg.Name, "", -1, cookieCfg.Path, cookieCfg.Domain, cookieCfg.Secure, true)
}

func resolveSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}
