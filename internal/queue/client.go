package queue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/storecase-identity/internal/config"
	"github.com/storecase-identity/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 高优先级队列（验证码邮件）
	CriticalQueue = constants.QueueCritical

	defaultEmailMaxRetry = 3
)

// ErrQueueDisabled 队列未启用
var ErrQueueDisabled = errors.New("queue disabled")

// Client 队列客户端封装
type Client struct {
	client  *asynq.Client
	enabled bool
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false}, nil
	}
	return &Client{
		client:  asynq.NewClient(buildRedisOpt(cfg)),
		enabled: true,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueSendEmail 推送邮件发送任务
// 队列未启用时返回 ErrQueueDisabled，调用方据此判定投递失败。
func (c *Client) EnqueueSendEmail(payload SendEmailPayload, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if !c.Enabled() {
		return nil, ErrQueueDisabled
	}
	task, err := NewSendEmailTask(payload)
	if err != nil {
		return nil, err
	}
	options := append([]asynq.Option{
		asynq.Queue(CriticalQueue),
		asynq.MaxRetry(defaultEmailMaxRetry),
	}, opts...)
	return c.client.Enqueue(task, options...)
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	opt := buildRedisOpt(cfg)
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{DefaultQueue: 1, CriticalQueue: 2}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Host) != "" {
			host = strings.TrimSpace(cfg.Host)
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}
