package router

import (
	"context"
	"net/http"
	"time"

	"github.com/storecase-identity/internal/cache"
	"github.com/storecase-identity/internal/config"
	adminhandlers "github.com/storecase-identity/internal/http/handlers/admin"
	publichandlers "github.com/storecase-identity/internal/http/handlers/public"
	"github.com/storecase-identity/internal/http/response"
	"github.com/storecase-identity/internal/logger"
	"github.com/storecase-identity/internal/metrics"
	"github.com/storecase-identity/internal/provider"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := cfg.Redis.Prefix
	if redisPrefix == "" {
		redisPrefix = "sci"
	}
	redisClient := cache.Client()
	loginRule := NewRateLimitRule(redisPrefix, "login", cfg.Security.LoginRateLimit, "error.login_too_many")
	sendCodeRule := NewRateLimitRule(redisPrefix, "join_email", cfg.Security.SendCodeRateLimit, "error.send_code_too_many")

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(MetricsMiddleware())
	r.Use(CORSMiddleware(cfg.CORS))

	r.NoRoute(func(ctx *gin.Context) {
		response.Error(ctx, response.CodeNotFound, response.Message("error.route_not_found"))
	})

	auth := r.Group("/api/auth")
	{
		auth.POST("/join", publicHandler.Join)
		auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
		auth.POST("/refresh", publicHandler.Refresh)
		auth.POST("/join/email", RateLimitMiddleware(redisClient, sendCodeRule, KeyByIPAndJSONField("email")), publicHandler.SendJoinEmailCode)
		auth.POST("/join/email/verify", publicHandler.VerifyJoinEmailCode)

		authorized := auth.Group("")
		authorized.Use(UserJWTAuthMiddleware(c.TokenService), RoleAuthzMiddleware(c.Authz))
		{
			authorized.GET("/me", publicHandler.GetCurrentUser)
		}
	}

	admin := r.Group("/api/admin")
	admin.Use(UserJWTAuthMiddleware(c.TokenService), RoleAuthzMiddleware(c.Authz))
	{
		admin.GET("/users/:id", adminHandler.GetAdminUser)
		admin.GET("/authz/policies", adminHandler.GetAuthzPolicies)
	}

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// 健康检查
	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, healthStatus(ctx.Request.Context(), c))
	})

	return r
}

func healthStatus(ctx context.Context, c *provider.Container) gin.H {
	status := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}
	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if c == nil || c.DB == nil {
		status["database"] = "unavailable"
		status["status"] = "degraded"
	} else if sqlDB, err := c.DB.DB(); err != nil || sqlDB.PingContext(checkCtx) != nil {
		status["database"] = "unavailable"
		status["status"] = "degraded"
	}
	if cache.Enabled() {
		status["redis"] = "ok"
		if err := cache.Ping(checkCtx); err != nil {
			status["redis"] = "unavailable"
			status["status"] = "degraded"
		}
	}
	return status
}
