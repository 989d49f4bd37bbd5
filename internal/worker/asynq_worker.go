package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/storecase-identity/internal/logger"
	"github.com/storecase-identity/internal/provider"
	"github.com/storecase-identity/internal/queue"
	"github.com/storecase-identity/internal/service"

	"github.com/hibiken/asynq"
)

// HTMLSender 同步发送 HTML 邮件
type HTMLSender interface {
	SendHTML(ctx context.Context, toEmail, subject, html string) error
}

// Consumer 异步任务消费者
type Consumer struct {
	sender HTMLSender
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	if c == nil || c.EmailService == nil {
		return &Consumer{}
	}
	return &Consumer{sender: c.EmailService}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskSendEmail, c.handleSendEmail)
}

func (c *Consumer) handleSendEmail(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_send_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseSendEmailPayload(task)
	if err != nil {
		logger.Warnw("worker_send_email_unmarshal_failed", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if c.sender == nil {
		logger.Warnw("worker_send_email_skip_sender_nil", "to", payload.To)
		return fmt.Errorf("email sender not configured: %w", asynq.SkipRetry)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := c.sender.SendHTML(ctx, payload.To, payload.Subject, payload.HTML); err != nil {
		if isPermanentSendError(err) {
			logger.Warnw("worker_send_email_rejected", "to", payload.To, "error", err)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		logger.Warnw("worker_send_email_failed", "to", payload.To, "error", err)
		return err
	}
	logger.Infow("worker_send_email_done", "to", payload.To)
	return nil
}

func isPermanentSendError(err error) bool {
	return errors.Is(err, service.ErrEmailRecipientRejected) ||
		errors.Is(err, service.ErrInvalidEmail) ||
		errors.Is(err, service.ErrEmailServiceDisabled) ||
		errors.Is(err, service.ErrEmailServiceNotConfigured)
}
