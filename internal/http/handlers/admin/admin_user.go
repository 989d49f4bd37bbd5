package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/storecase-identity/internal/http/response"
	"github.com/storecase-identity/internal/models"
	"github.com/storecase-identity/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminUserResponse 管理端用户详情
type AdminUserResponse struct {
	ID         uint      `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Role       string    `json:"role"`
	IsWithdraw bool      `json:"is_withdraw"`
	IsSocial   bool      `json:"is_social"`
	SNSType    string    `json:"sns_type"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GetAdminUser 获取用户详情
func (h *Handler) GetAdminUser(c *gin.Context) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.user_id_invalid", nil)
		return
	}

	user, err := h.UserAuthService.GetUserByID(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.user_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.Success(c, toAdminUserResponse(user))
}

func toAdminUserResponse(user *models.User) AdminUserResponse {
	return AdminUserResponse{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Phone:      user.Phone,
		Role:       user.Role,
		IsWithdraw: user.IsWithdraw,
		IsSocial:   user.IsSocial,
		SNSType:    user.SNSType,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}
