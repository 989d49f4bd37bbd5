package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/storecase-identity/internal/config"
	"github.com/storecase-identity/internal/queue"
	"github.com/storecase-identity/internal/service"

	"github.com/hibiken/asynq"
)

type fakeSender struct {
	err   error
	calls []queue.SendEmailPayload
}

func (f *fakeSender) SendHTML(_ context.Context, toEmail, subject, html string) error {
	f.calls = append(f.calls, queue.SendEmailPayload{To: toEmail, Subject: subject, HTML: html})
	return f.err
}

func newSendEmailTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, err := queue.NewSendEmailTask(queue.SendEmailPayload{To: "a@x.com", Subject: "code", HTML: "<p>123456</p>"})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	return task
}

func TestHandleSendEmailDelivers(t *testing.T) {
	sender := &fakeSender{}
	consumer := &Consumer{sender: sender}

	if err := consumer.handleSendEmail(context.Background(), newSendEmailTask(t)); err != nil {
		t.Fatalf("handle send email failed: %v", err)
	}
	if len(sender.calls) != 1 || sender.calls[0].To != "a@x.com" || sender.calls[0].HTML != "<p>123456</p>" {
		t.Fatalf("unexpected sender calls: %+v", sender.calls)
	}
}

func TestHandleSendEmailRetryPolicy(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		skipRetry bool
	}{
		{name: "transient", err: errors.New("dial tcp timeout"), skipRetry: false},
		{name: "recipient_rejected", err: service.ErrEmailRecipientRejected, skipRetry: true},
		{name: "disabled", err: service.ErrEmailServiceDisabled, skipRetry: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			consumer := &Consumer{sender: &fakeSender{err: tc.err}}
			err := consumer.handleSendEmail(context.Background(), newSendEmailTask(t))
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := errors.Is(err, asynq.SkipRetry); got != tc.skipRetry {
				t.Fatalf("skip retry want %v got %v (%v)", tc.skipRetry, got, err)
			}
		})
	}
}

func TestHandleSendEmailMalformedPayload(t *testing.T) {
	consumer := &Consumer{sender: &fakeSender{}}
	err := consumer.handleSendEmail(context.Background(), asynq.NewTask(queue.TaskSendEmail, []byte("not json")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("malformed payload should skip retry, got %v", err)
	}
}

func TestHandleSendEmailWithoutSender(t *testing.T) {
	consumer := NewConsumer(nil)
	if err := consumer.handleSendEmail(context.Background(), newSendEmailTask(t)); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("missing sender should skip retry, got %v", err)
	}
}

func TestNewServiceRequiresQueue(t *testing.T) {
	if _, err := NewService(nil, &Consumer{}); err == nil {
		t.Fatalf("nil queue config should fail")
	}
	if _, err := NewService(&config.QueueConfig{Enabled: false}, &Consumer{}); err == nil {
		t.Fatalf("disabled queue should fail")
	}
	if _, err := NewService(&config.QueueConfig{Enabled: true}, nil); err == nil {
		t.Fatalf("nil consumer should fail")
	}
}
