package admin

import (
	"strings"

	"github.com/storecase-identity/internal/constants"
	"github.com/storecase-identity/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetAuthzPolicies 查看角色生效的接口权限（含继承），默认 ADMIN
func (h *Handler) GetAuthzPolicies(c *gin.Context) {
	role := strings.TrimSpace(c.DefaultQuery("role", constants.RoleAdmin))
	if h.Authz == nil {
		respondError(c, response.CodeServiceUnavailable, "error.authz_unavailable", nil)
		return
	}
	policies, err := h.Authz.GetRolePolicies(role)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	response.Success(c, gin.H{
		"role":     strings.ToUpper(role),
		"policies": policies,
	})
}
