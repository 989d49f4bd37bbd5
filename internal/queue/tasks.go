package queue

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/storecase-identity/internal/constants"

	"github.com/hibiken/asynq"
)

// TaskSendEmail 邮件发送任务
const TaskSendEmail = constants.TaskSendEmail

// SendEmailPayload 邮件发送任务载荷
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// NewSendEmailTask 创建邮件发送任务
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	if strings.TrimSpace(payload.To) == "" {
		return nil, fmt.Errorf("send email task: empty recipient")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSendEmail, body), nil
}

// ParseSendEmailPayload 解析邮件发送任务载荷
func ParseSendEmailPayload(task *asynq.Task) (SendEmailPayload, error) {
	var payload SendEmailPayload
	if task == nil {
		return payload, fmt.Errorf("send email task: nil task")
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("send email task: %w", err)
	}
	return payload, nil
}
