package router

import (
	"strings"

	"github.com/storecase-identity/internal/authz"
	"github.com/storecase-identity/internal/constants"
	"github.com/storecase-identity/internal/http/response"
	"github.com/storecase-identity/internal/logger"

	"github.com/gin-gonic/gin"
)

// RoleAuthzMiddleware 基于角色的接口授权，需挂在 UserJWTAuthMiddleware 之后
func RoleAuthzMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(constants.ContextKeyUserRole)
		roleName, _ := role.(string)
		if strings.TrimSpace(roleName) == "" {
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		path := c.Request.URL.Path
		allowed, err := authzService.Enforce(roleName, path, c.Request.Method)
		if err != nil {
			logger.Errorw("authz_enforce_failed",
				"role", roleName,
				"path", path,
				"request_id", getRequestID(c),
				"error", err,
			)
			response.Error(c, response.CodeServiceUnavailable, response.Message("error.authz_unavailable"))
			c.Abort()
			return
		}
		if !allowed {
			logger.Warnw("authz_denied",
				"role", roleName,
				"method", c.Request.Method,
				"path", path,
				"request_id", getRequestID(c),
			)
			response.Error(c, response.CodeForbidden, response.Message("error.forbidden"))
			c.Abort()
			return
		}
		c.Next()
	}
}
