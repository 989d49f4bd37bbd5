package service

import (
	"context"
	"fmt"

	"github.com/storecase-identity/internal/logger"
	"github.com/storecase-identity/internal/queue"

	"github.com/hibiken/asynq"
)

// Notifier 邮件通知能力
type Notifier interface {
	Send(ctx context.Context, toEmail, subject, html string) error
}

// EmailEnqueuer 邮件任务入队能力
type EmailEnqueuer interface {
	EnqueueSendEmail(payload queue.SendEmailPayload, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier 通过异步队列投递邮件，入队成功即视为已通知
type QueueNotifier struct {
	client EmailEnqueuer
}

// NewQueueNotifier 创建队列通知器
func NewQueueNotifier(client EmailEnqueuer) *QueueNotifier {
	return &QueueNotifier{client: client}
}

// Send 入队邮件发送任务
func (n *QueueNotifier) Send(ctx context.Context, toEmail, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.client == nil {
		return queue.ErrQueueDisabled
	}
	info, err := n.client.EnqueueSendEmail(queue.SendEmailPayload{
		To:      toEmail,
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("enqueue send email: %w", err)
	}
	if info != nil {
		logger.Debugw("email_task_enqueued", "to", toEmail, "task_id", info.ID, "queue", info.Queue)
	}
	return nil
}
