package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/storecase-identity/internal/config"
	"github.com/storecase-identity/internal/logger"
	"github.com/storecase-identity/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 异步队列消费服务
// 说明：使用 Start 而非 Run，信号由 app.Runner 统一处理。
type Service struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	stopOnce sync.Once
}

// NewService 创建异步队列消费服务，队列未启用时报错
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	serverCfg.Logger = logger.S()

	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		server: asynq.NewServer(opt, serverCfg),
		mux:    mux,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	return "worker"
}

// Start 启动消费并阻塞到 ctx 结束
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	logger.Infow("worker_started", "task", queue.TaskSendEmail)
	<-ctx.Done()
	return nil
}

// Stop 等待进行中的任务结束后停止
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		s.stopOnce.Do(s.server.Shutdown)
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
