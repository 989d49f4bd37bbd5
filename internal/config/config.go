package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/storecase-identity/internal/logger"
	"github.com/storecase-identity/internal/verification"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultVerifyExpireMinutes  = 5
	defaultVerifyLockMinutes    = 10
	defaultVerifyMaxAttempts    = 5
	defaultVerifyLockWaitMS     = 3000
	defaultAccessTTLMinutes     = 30
	defaultRefreshTTLMinutes    = 14 * 24 * 60
	defaultRefreshCookieName    = "refreshToken"
	defaultRefreshCookiePath    = "/api/auth/refresh"
	defaultEmailBrandName       = "Store Case"
	defaultEmailTimeoutSeconds  = 10
	defaultEmailVerifySubject   = "[StoreCase] Your sign-up verification code"
	defaultRateLimitWindowSecs  = 60
	defaultRateLimitMaxRequests = 5
)

// Config 应用配置结构
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	Database      DatabaseConfig      `mapstructure:"database"`
	UserJWT       JWTConfig           `mapstructure:"user_jwt"`
	RefreshCookie RefreshCookieConfig `mapstructure:"refresh_cookie"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Queue         QueueConfig         `mapstructure:"queue"`
	CORS          CORSConfig          `mapstructure:"cors"`
	Security      SecurityConfig      `mapstructure:"security"`
	Email         EmailConfig         `mapstructure:"email"`
	Admin         AdminConfig         `mapstructure:"admin"`
}

// AdminConfig 初始管理员账号（仅在不存在管理员时创建）
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig 用户 Token 配置
type JWTConfig struct {
	SecretKey         string `mapstructure:"secret"`
	Issuer            string `mapstructure:"issuer"`
	AccessTTLMinutes  int    `mapstructure:"access_ttl_minutes"`
	RefreshTTLMinutes int    `mapstructure:"refresh_ttl_minutes"`
}

// RefreshCookieConfig 刷新 Token Cookie 配置
type RefreshCookieConfig struct {
	Name     string `mapstructure:"name"`
	Path     string `mapstructure:"path"`
	Domain   string `mapstructure:"domain"`
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site"` // none / lax / strict
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// EmailConfig 邮件服务配置
type EmailConfig struct {
	Enabled    bool             `mapstructure:"enabled"`
	Host       string           `mapstructure:"host"`
	Port       int              `mapstructure:"port"`
	Username   string           `mapstructure:"username"`
	Password   string           `mapstructure:"password"`
	From       string           `mapstructure:"from"`
	FromName   string           `mapstructure:"from_name"`
	UseTLS     bool             `mapstructure:"use_tls"`
	UseSSL     bool             `mapstructure:"use_ssl"`
	BrandName  string           `mapstructure:"brand_name"`
	Delivery   string           `mapstructure:"delivery"` // sync / queue
	TimeoutSec int              `mapstructure:"timeout_seconds"`
	VerifyCode VerifyCodeConfig `mapstructure:"verify_code"`
}

// VerifyCodeConfig 邮箱验证码配置
type VerifyCodeConfig struct {
	Subject       string `mapstructure:"subject"`
	ExpireMinutes int    `mapstructure:"expire_minutes"`
	LockMinutes   int    `mapstructure:"lock_minutes"`
	MaxAttempts   int    `mapstructure:"max_attempts"`
	LockWaitMS    int    `mapstructure:"lock_wait_ms"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	LoginRateLimit    RateLimitConfig      `mapstructure:"login_rate_limit"`
	SendCodeRateLimit RateLimitConfig      `mapstructure:"send_code_rate_limit"`
	PasswordPolicy    PasswordPolicyConfig `mapstructure:"password_policy"`
}

// PasswordPolicyConfig 注册密码策略，全部为零值时只要求非空
type PasswordPolicyConfig struct {
	MinLength      int  `mapstructure:"min_length"`
	RequireUpper   bool `mapstructure:"require_upper"`
	RequireLower   bool `mapstructure:"require_lower"`
	RequireNumber  bool `mapstructure:"require_number"`
	RequireSpecial bool `mapstructure:"require_special"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// VerificationPolicy 邮箱验证状态机参数（启动后只读）
type VerificationPolicy struct {
	ExpireWindow time.Duration
	LockDuration time.Duration
	MaxAttempts  int
	LockWait     time.Duration
}

// ToMachinePolicy 转换为状态机参数
func (p VerificationPolicy) ToMachinePolicy() verification.Policy {
	return verification.Policy{
		ExpireWindow: p.ExpireWindow,
		LockDuration: p.LockDuration,
		MaxAttempts:  p.MaxAttempts,
	}
}

// TokenTTLs 访问/刷新 Token 有效期
type TokenTTLs struct {
	Access  time.Duration
	Refresh time.Duration
}

// VerificationPolicy 生成邮箱验证策略
func (c *Config) VerificationPolicy() VerificationPolicy {
	cfg := c.Email.VerifyCode
	return VerificationPolicy{
		ExpireWindow: time.Duration(positiveOr(cfg.ExpireMinutes, defaultVerifyExpireMinutes)) * time.Minute,
		LockDuration: time.Duration(positiveOr(cfg.LockMinutes, defaultVerifyLockMinutes)) * time.Minute,
		MaxAttempts:  positiveOr(cfg.MaxAttempts, defaultVerifyMaxAttempts),
		LockWait:     time.Duration(positiveOr(cfg.LockWaitMS, defaultVerifyLockWaitMS)) * time.Millisecond,
	}
}

// TokenTTLs 生成 Token 有效期
func (c *Config) TokenTTLs() TokenTTLs {
	return TokenTTLs{
		Access:  time.Duration(positiveOr(c.UserJWT.AccessTTLMinutes, defaultAccessTTLMinutes)) * time.Minute,
		Refresh: time.Duration(positiveOr(c.UserJWT.RefreshTTLMinutes, defaultRefreshTTLMinutes)) * time.Minute,
	}
}

// ResolveRefreshCookie 补齐刷新 Cookie 默认值
func (c RefreshCookieConfig) ResolveRefreshCookie() RefreshCookieConfig {
	if strings.TrimSpace(c.Name) == "" {
		c.Name = defaultRefreshCookieName
	}
	if strings.TrimSpace(c.Path) == "" {
		c.Path = defaultRefreshCookiePath
	}
	return c
}

// ResolveTimeout SMTP 单次发送超时（拨号到 QUIT）
func (c EmailConfig) ResolveTimeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return defaultEmailTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// ResolveBrandName 邮件品牌名
func (c EmailConfig) ResolveBrandName() string {
	if name := strings.TrimSpace(c.BrandName); name != "" {
		return name
	}
	return defaultEmailBrandName
}

// ResolveVerifySubject 验证码邮件标题
func (c EmailConfig) ResolveVerifySubject() string {
	if subject := strings.TrimSpace(c.VerifyCode.Subject); subject != "" {
		return subject
	}
	return defaultEmailVerifySubject
}

// Resolve 补齐限流默认值
func (c RateLimitConfig) Resolve() RateLimitConfig {
	c.WindowSeconds = positiveOr(c.WindowSeconds, defaultRateLimitWindowSecs)
	c.MaxRequests = positiveOr(c.MaxRequests, defaultRateLimitMaxRequests)
	return c
}

func positiveOr(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

// Load 从 config.yml 加载配置
func Load() *Config {
	// .env 仅作为环境变量补充，缺失时忽略
	if err := godotenv.Load(); err != nil {
		logger.Debugw("dotenv_not_loaded", "error", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./")
	v.AddConfigPath("../") // 如果从 cmd/server 运行
	v.AddConfigPath("./etc")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // server.port -> SERVER_PORT

	if err := v.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("config unmarshal failed: %w", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "identity.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/identity.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("user_jwt.secret", "user-change-me-in-production")
	v.SetDefault("user_jwt.issuer", "storecase-identity")
	v.SetDefault("user_jwt.access_ttl_minutes", defaultAccessTTLMinutes)
	v.SetDefault("user_jwt.refresh_ttl_minutes", defaultRefreshTTLMinutes)
	v.SetDefault("refresh_cookie.name", defaultRefreshCookieName)
	v.SetDefault("refresh_cookie.path", defaultRefreshCookiePath)
	v.SetDefault("refresh_cookie.domain", "")
	v.SetDefault("refresh_cookie.secure", true)
	v.SetDefault("refresh_cookie.same_site", "none")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "sci")
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Authorization", "Content-Type", "X-Requested-With"})
	v.SetDefault("cors.exposed_headers", []string{"Authorization"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.login_rate_limit.window_seconds", 300)
	v.SetDefault("security.login_rate_limit.max_requests", 10)
	v.SetDefault("security.send_code_rate_limit.window_seconds", defaultRateLimitWindowSecs)
	v.SetDefault("security.send_code_rate_limit.max_requests", defaultRateLimitMaxRequests)
	v.SetDefault("security.password_policy.min_length", 0)
	v.SetDefault("security.password_policy.require_upper", false)
	v.SetDefault("security.password_policy.require_lower", false)
	v.SetDefault("security.password_policy.require_number", false)
	v.SetDefault("security.password_policy.require_special", false)
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.host", "")
	v.SetDefault("email.port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.from", "")
	v.SetDefault("email.from_name", "")
	v.SetDefault("email.use_tls", true)
	v.SetDefault("email.use_ssl", false)
	v.SetDefault("email.brand_name", defaultEmailBrandName)
	v.SetDefault("email.delivery", "sync")
	v.SetDefault("email.timeout_seconds", defaultEmailTimeoutSeconds)
	v.SetDefault("email.verify_code.subject", defaultEmailVerifySubject)
	v.SetDefault("email.verify_code.expire_minutes", defaultVerifyExpireMinutes)
	v.SetDefault("email.verify_code.lock_minutes", defaultVerifyLockMinutes)
	v.SetDefault("email.verify_code.max_attempts", defaultVerifyMaxAttempts)
	v.SetDefault("email.verify_code.lock_wait_ms", defaultVerifyLockWaitMS)
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
}
