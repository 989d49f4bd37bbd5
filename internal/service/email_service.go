package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/storecase-identity/internal/config"
	"github.com/storecase-identity/internal/logger"
)

type smtpTransport func(ctx context.Context, addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error

// EmailService SMTP 邮件发送服务
type EmailService struct {
	cfg  *config.EmailConfig
	send smtpTransport
	now  func() time.Time
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	svc := &EmailService{cfg: cfg, now: time.Now}
	svc.send = svc.resolveTransport()
	return svc
}

// Send 实现 Notifier，同步发送 HTML 邮件
func (s *EmailService) Send(ctx context.Context, toEmail, subject, html string) error {
	return s.SendHTML(ctx, toEmail, subject, html)
}

// SendHTML 发送 HTML 邮件，整个 SMTP 会话受 ctx 与 email.timeout_seconds 约束
func (s *EmailService) SendHTML(ctx context.Context, toEmail, subject, html string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailServiceNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrInvalidEmail
	}

	from := buildFromAddress(s.cfg.From, s.cfg.FromName)
	msg := buildHTMLMessage(from, toEmail, subject, html, s.now())

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var auth smtp.Auth
	if s.cfg.Username != "" || s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.ResolveTimeout())
	defer cancel()
	if err := normalizeEmailSendError(s.send(sendCtx, addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg))); err != nil {
		logger.Warnw("email_send_failed", "to", toEmail, "host", s.cfg.Host, "error", err)
		return err
	}
	logger.Debugw("email_sent", "to", toEmail)
	return nil
}

func (s *EmailService) resolveTransport() smtpTransport {
	if s.cfg != nil && s.cfg.UseSSL {
		return sendMailWithSSL
	}
	if s.cfg != nil && s.cfg.UseTLS {
		return sendMailWithStartTLS
	}
	return sendMailPlain
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildHTMLMessage(from, to, subject, html string, date time.Time) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString(fmt.Sprintf("Date: %s\r\n", date.Format(time.RFC1123Z)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(wrapBase64(base64.StdEncoding.EncodeToString([]byte(html)), 76))
	return buf.String()
}

func wrapBase64(encoded string, width int) string {
	var buf strings.Builder
	for len(encoded) > width {
		buf.WriteString(encoded[:width])
		buf.WriteString("\r\n")
		encoded = encoded[width:]
	}
	buf.WriteString(encoded)
	buf.WriteString("\r\n")
	return buf.String()
}

// dialSMTP 建立 SMTP 连接；ctx 的截止时间同时作为连接读写期限，取消时关闭连接
func dialSMTP(ctx context.Context, addr, host string, implicitTLS bool) (*smtp.Client, func(), error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return nil, nil, err
		}
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	if implicitTLS {
		tlsConn := tls.Client(conn, &tls.Config{ServerName: host})
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			stop()
			conn.Close()
			return nil, nil, err
		}
		conn = tlsConn
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		stop()
		conn.Close()
		return nil, nil, ctxError(ctx, err)
	}
	release := func() {
		stop()
		client.Close()
	}
	return client, release, nil
}

// ctxError 连接因 ctx 结束而中断时返回 ctx 的错误
func ctxError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	return err
}

func sendMailWithSSL(ctx context.Context, addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, release, err := dialSMTP(ctx, addr, host, true)
	if err != nil {
		return err
	}
	defer release()

	if err := authenticate(client, auth); err != nil {
		return ctxError(ctx, err)
	}
	return ctxError(ctx, sendSMTPData(client, from, to, msg))
}

func sendMailWithStartTLS(ctx context.Context, addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, release, err := dialSMTP(ctx, addr, host, false)
	if err != nil {
		return err
	}
	defer release()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return ctxError(ctx, err)
	}
	if err := authenticate(client, auth); err != nil {
		return ctxError(ctx, err)
	}
	return ctxError(ctx, sendSMTPData(client, from, to, msg))
}

func sendMailPlain(ctx context.Context, addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, release, err := dialSMTP(ctx, addr, host, false)
	if err != nil {
		return err
	}
	defer release()

	if err := authenticate(client, auth); err != nil {
		return ctxError(ctx, err)
	}
	return ctxError(ctx, sendSMTPData(client, from, to, msg))
}

func authenticate(client *smtp.Client, auth smtp.Auth) error {
	if auth == nil {
		return nil
	}
	if ok, _ := client.Extension("AUTH"); !ok {
		return nil
	}
	return client.Auth(auth)
}

func sendSMTPData(client *smtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func normalizeEmailSendError(err error) error {
	if err == nil {
		return nil
	}
	if isEmailRecipientRejected(err) {
		return ErrEmailRecipientRejected
	}
	return err
}

func isEmailRecipientRejected(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	if message == "" {
		return false
	}
	directKeywords := []string{
		"no such recipient",
		"no such user",
		"recipient not found",
		"recipient address rejected",
		"invalid recipient",
		"user unknown",
		"unknown user",
		"unknown mailbox",
		"mailbox unavailable",
	}
	for _, keyword := range directKeywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	if strings.Contains(message, "550") {
		hints := []string{"recipient", "user", "mailbox", "address", "rcpt"}
		for _, hint := range hints {
			if strings.Contains(message, hint) {
				return true
			}
		}
	}
	return false
}
