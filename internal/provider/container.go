package provider

import (
	"context"
	"strings"
	"time"

	"github.com/storecase-identity/internal/authz"
	"github.com/storecase-identity/internal/cache"
	"github.com/storecase-identity/internal/config"
	"github.com/storecase-identity/internal/constants"
	"github.com/storecase-identity/internal/logger"
	"github.com/storecase-identity/internal/models"
	"github.com/storecase-identity/internal/queue"
	"github.com/storecase-identity/internal/repository"
	"github.com/storecase-identity/internal/service"

	"gorm.io/gorm"
)

const redisPingTimeout = 2 * time.Second

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	QueueClient *queue.Client
	KeyLocker   service.KeyLocker
	Notifier    service.Notifier
	Authz       *authz.Service

	// Repositories
	UserRepo         repository.UserRepository
	VerificationRepo repository.EmailVerificationRepository

	// Services
	TokenService             *service.TokenService
	UserAuthService          *service.UserAuthService
	EmailService             *service.EmailService
	EmailVerificationService *service.EmailVerificationService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	return NewContainerWithDB(cfg, models.DB)
}

// NewContainerWithDB 使用指定数据库初始化容器
func NewContainerWithDB(cfg *config.Config, db *gorm.DB) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		DB:          db,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initInfrastructure()
	c.initAuthz()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	c.UserRepo = repository.NewUserRepository(c.DB)
	c.VerificationRepo = repository.NewEmailVerificationRepository(c.DB)
}

func (c *Container) initInfrastructure() {
	c.EmailService = service.NewEmailService(&c.Config.Email)

	// 多实例部署时使用 Redis 锁串行化同一邮箱的验证操作
	if redisReachable() {
		c.KeyLocker = cache.NewRedisLocker(cache.Client(), 0)
		logger.Infow("provider_key_locker", "backend", "redis")
	} else {
		c.KeyLocker = service.NewLocalKeyLocker()
		logger.Infow("provider_key_locker", "backend", "local")
	}

	delivery := strings.ToLower(strings.TrimSpace(c.Config.Email.Delivery))
	if delivery == constants.EmailDeliveryQueue {
		if c.QueueClient == nil || !c.QueueClient.Enabled() {
			logger.Warnw("provider_email_delivery_queue_unavailable", "fallback", constants.EmailDeliverySync)
			c.Notifier = c.EmailService
			return
		}
		c.Notifier = service.NewQueueNotifier(c.QueueClient)
		return
	}
	c.Notifier = c.EmailService
}

func (c *Container) initAuthz() {
	if c.DB == nil {
		return
	}
	svc, err := authz.NewService(c.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		return
	}
	if err := svc.Bootstrap(authz.BuiltinRoleSeeds()); err != nil {
		logger.Errorw("provider_authz_bootstrap_failed", "error", err)
		return
	}
	c.Authz = svc
}

func (c *Container) initServices() {
	c.TokenService = service.NewTokenService(c.Config.UserJWT, c.Config.TokenTTLs())
	c.UserAuthService = service.NewUserAuthService(c.UserRepo, service.NewBcryptHasher(0), c.TokenService)
	c.UserAuthService.SetPasswordPolicy(c.Config.Security.PasswordPolicy)
	c.EmailVerificationService = service.NewEmailVerificationService(c.Config, c.VerificationRepo, c.Notifier, c.KeyLocker)
}

func redisReachable() bool {
	if !cache.Enabled() {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := cache.Ping(ctx); err != nil {
		logger.Warnw("provider_redis_ping_failed", "error", err)
		return false
	}
	return true
}

// Close 释放容器持有的外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
