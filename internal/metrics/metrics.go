// Package metrics 暴露 Prometheus 指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "identity"

// Registry 进程级指标注册表
var Registry = prometheus.NewRegistry()

var (
	// VerificationRequests 发送验证码结果（create/reissue/replace/already_verified/locked/notify_failed/error）
	VerificationRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verification_requests_total",
		Help:      "Email verification code requests by outcome.",
	}, []string{"outcome"})

	// VerificationConfirms 校验验证码结果
	VerificationConfirms = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verification_confirms_total",
		Help:      "Email verification confirmations by outcome.",
	}, []string{"outcome"})

	// TokensIssued 签发 Token 数量
	TokensIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Signed tokens by class.",
	}, []string{"type"})

	// LoginAttempts 登录结果
	LoginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Login attempts by outcome.",
	}, []string{"outcome"})

	// HTTPRequests HTTP 请求计数
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		VerificationRequests,
		VerificationConfirms,
		TokensIssued,
		LoginAttempts,
		HTTPRequests,
	)
}

// Handler /metrics 处理器
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
