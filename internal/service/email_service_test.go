package service

import (
	"context"
	"encoding/base64"
	"errors"
	"net"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/storecase-identity/internal/config"
)

func TestBuildHTMLMessage(t *testing.T) {
	date := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	html := "<p>" + strings.Repeat("123456", 30) + "</p>"
	msg := buildHTMLMessage("noreply@storecase.dev", "a@x.com", "[StoreCase] code", html, date)

	for _, header := range []string{
		"From: noreply@storecase.dev\r\n",
		"To: a@x.com\r\n",
		"Content-Type: text/html; charset=UTF-8\r\n",
		"Content-Transfer-Encoding: base64\r\n",
		"Date: " + date.Format(time.RFC1123Z) + "\r\n",
	} {
		if !strings.Contains(msg, header) {
			t.Fatalf("message missing header %q", header)
		}
	}

	parts := strings.SplitN(msg, "\r\n\r\n", 2)
	if len(parts) != 2 {
		t.Fatalf("message should contain header/body separator")
	}
	for _, line := range strings.Split(strings.TrimRight(parts[1], "\r\n"), "\r\n") {
		if len(line) > 76 {
			t.Fatalf("body line exceeds 76 chars: %d", len(line))
		}
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(parts[1], "\r\n", ""))
	if err != nil {
		t.Fatalf("decode body failed: %v", err)
	}
	if string(decoded) != html {
		t.Fatalf("decoded body mismatch")
	}
}

func TestBuildFromAddress(t *testing.T) {
	if got := buildFromAddress("noreply@storecase.dev", ""); got != "noreply@storecase.dev" {
		t.Fatalf("unexpected plain from: %s", got)
	}
	got := buildFromAddress("noreply@storecase.dev", "Store Case")
	if !strings.Contains(got, "<noreply@storecase.dev>") {
		t.Fatalf("named from should keep address, got %s", got)
	}
}

func TestEmailServiceSendHTML(t *testing.T) {
	cfg := &config.EmailConfig{
		Enabled:  true,
		Host:     "smtp.storecase.dev",
		Port:     587,
		Username: "user",
		Password: "pass",
		From:     "noreply@storecase.dev",
	}
	svc := NewEmailService(cfg)

	var gotAddr string
	var gotTo []string
	var gotAuth smtp.Auth
	svc.send = func(_ context.Context, addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotTo = to
		gotAuth = auth
		return nil
	}

	if err := svc.Send(context.Background(), "a@x.com", "subject", "<p>hi</p>"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if gotAddr != "smtp.storecase.dev:587" {
		t.Fatalf("unexpected addr: %s", gotAddr)
	}
	if len(gotTo) != 1 || gotTo[0] != "a@x.com" {
		t.Fatalf("unexpected recipients: %v", gotTo)
	}
	if gotAuth == nil {
		t.Fatalf("expected smtp auth when credentials configured")
	}

	svc.send = func(_ context.Context, addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
		return errors.New("550 No such recipient here")
	}
	if err := svc.SendHTML(context.Background(), "a@x.com", "subject", "<p>hi</p>"); !errors.Is(err, ErrEmailRecipientRejected) {
		t.Fatalf("want ErrEmailRecipientRejected got %v", err)
	}
}

// silentSMTPServer 接受连接但从不发送问候
func silentSMTPServer(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, conn := range conns {
			conn.Close()
		}
	})
	return ln.Addr().(*net.TCPAddr).Port
}

func TestEmailServiceSendStopsOnSilentServer(t *testing.T) {
	cases := []struct {
		name    string
		timeout int
		ctx     func() (context.Context, context.CancelFunc)
	}{
		{
			name:    "context deadline",
			timeout: 30,
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), 300*time.Millisecond)
			},
		},
		{
			name:    "configured timeout",
			timeout: 1,
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithCancel(context.Background())
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			port := silentSMTPServer(t)
			svc := NewEmailService(&config.EmailConfig{
				Enabled:    true,
				Host:       "127.0.0.1",
				Port:       port,
				From:       "noreply@storecase.dev",
				TimeoutSec: tc.timeout,
			})
			ctx, cancel := tc.ctx()
			defer cancel()

			result := make(chan error, 1)
			started := time.Now()
			go func() {
				result <- svc.Send(ctx, "a@x.com", "subject", "<p>hi</p>")
			}()
			select {
			case err := <-result:
				if err == nil {
					t.Fatalf("send against a silent server should fail")
				}
				if elapsed := time.Since(started); elapsed > 3*time.Second {
					t.Fatalf("send returned too late: %s", elapsed)
				}
			case <-time.After(5 * time.Second):
				t.Fatalf("send still blocked after 5s")
			}
		})
	}
}

func TestEmailServiceSendHTMLConfigErrors(t *testing.T) {
	if err := NewEmailService(&config.EmailConfig{}).SendHTML(context.Background(), "a@x.com", "s", "b"); !errors.Is(err, ErrEmailServiceDisabled) {
		t.Fatalf("want ErrEmailServiceDisabled got %v", err)
	}
	if err := NewEmailService(&config.EmailConfig{Enabled: true}).SendHTML(context.Background(), "a@x.com", "s", "b"); !errors.Is(err, ErrEmailServiceNotConfigured) {
		t.Fatalf("want ErrEmailServiceNotConfigured got %v", err)
	}
	enabled := &config.EmailConfig{Enabled: true, Host: "smtp", Port: 25, From: "noreply@storecase.dev"}
	if err := NewEmailService(enabled).SendHTML(context.Background(), "not-an-email", "s", "b"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("want ErrInvalidEmail got %v", err)
	}
}

func TestIsEmailRecipientRejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "smtp_550_no_such_recipient",
			err:  errors.New("550 No such recipient here"),
			want: true,
		},
		{
			name: "smtp_user_unknown",
			err:  errors.New("SMTP 5.1.1 user unknown"),
			want: true,
		},
		{
			name: "smtp_550_mailbox_unavailable",
			err:  errors.New("550 mailbox unavailable"),
			want: true,
		},
		{
			name: "network_timeout",
			err:  errors.New("dial tcp timeout"),
			want: false,
		},
		{
			name: "nil_error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isEmailRecipientRejected(tt.err); got != tt.want {
				t.Fatalf("isEmailRecipientRejected() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeEmailSendError(t *testing.T) {
	rejected := errors.New("550 No such recipient here")
	if got := normalizeEmailSendError(rejected); !errors.Is(got, ErrEmailRecipientRejected) {
		t.Fatalf("normalizeEmailSendError() expected ErrEmailRecipientRejected, got %v", got)
	}

	networkErr := errors.New("dial tcp timeout")
	if got := normalizeEmailSendError(networkErr); !errors.Is(got, networkErr) {
		t.Fatalf("normalizeEmailSendError() should keep original error, got %v", got)
	}

	if got := normalizeEmailSendError(nil); got != nil {
		t.Fatalf("normalizeEmailSendError(nil) should be nil, got %v", got)
	}
}
