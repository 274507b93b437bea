package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// 📊 网关指标收集器
// =============================================================================

// Collector 网关指标收集器。所有方法对 nil 接收者安全，
// 便于在未启用指标时直接传 nil。
type Collector struct {
	sessionsActive  prometheus.Gauge
	sessionsTotal   prometheus.Counter
	eventsInbound   *prometheus.CounterVec
	eventsOutbound  *prometheus.CounterVec
	responseSeconds prometheus.Histogram
	tokensConsumed  prometheus.Counter
	rateLimitDenied prometheus.Counter
	audioBytes      *prometheus.CounterVec
	secretsIssued   prometheus.Counter
	secretsRedeemed *prometheus.CounterVec
}

// NewCollector 创建并注册指标收集器
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if namespace == "" {
		namespace = "voicegate"
	}
	factory := promauto.With(reg)

	return &Collector{
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of live realtime sessions",
		}),
		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of sessions created",
		}),
		eventsInbound: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_inbound_total",
			Help:      "Inbound protocol events by type",
		}, []string{"type"}),
		eventsOutbound: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_outbound_total",
			Help:      "Outbound protocol events by type",
		}, []string{"type"}),
		responseSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "response_duration_seconds",
			Help:      "Response orchestration duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		tokensConsumed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_consumed_total",
			Help:      "Tokens charged against session quotas",
		}),
		rateLimitDenied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_denied_total",
			Help:      "Responses denied by the rate limiter",
		}),
		audioBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_total",
			Help:      "Audio bytes transcoded by direction",
		}, []string{"direction"}),
		secretsIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_secrets_issued_total",
			Help:      "Client secrets issued",
		}),
		secretsRedeemed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_secrets_redeemed_total",
			Help:      "Client secret redemption attempts by outcome",
		}, []string{"outcome"}),
	}
}

// SessionOpened 记录会话创建
func (c *Collector) SessionOpened() {
	if c == nil {
		return
	}
	c.sessionsActive.Inc()
	c.sessionsTotal.Inc()
}

// SessionClosed 记录会话关闭
func (c *Collector) SessionClosed() {
	if c == nil {
		return
	}
	c.sessionsActive.Dec()
}

// EventInbound 记录入站事件
func (c *Collector) EventInbound(eventType string) {
	if c == nil {
		return
	}
	c.eventsInbound.WithLabelValues(eventType).Inc()
}

// EventOutbound 记录出站事件
func (c *Collector) EventOutbound(eventType string) {
	if c == nil {
		return
	}
	c.eventsOutbound.WithLabelValues(eventType).Inc()
}

// ResponseFinished 记录一次响应编排耗时
func (c *Collector) ResponseFinished(seconds float64) {
	if c == nil {
		return
	}
	c.responseSeconds.Observe(seconds)
}

// TokensConsumed 记录配额消耗
func (c *Collector) TokensConsumed(tokens int) {
	if c == nil || tokens <= 0 {
		return
	}
	c.tokensConsumed.Add(float64(tokens))
}

// RateLimitDenied 记录限流拒绝
func (c *Collector) RateLimitDenied() {
	if c == nil {
		return
	}
	c.rateLimitDenied.Inc()
}

// AudioTranscoded 记录音频转码字节数
func (c *Collector) AudioTranscoded(direction string, bytes int) {
	if c == nil || bytes <= 0 {
		return
	}
	c.audioBytes.WithLabelValues(direction).Add(float64(bytes))
}

// SecretIssued 记录密钥签发
func (c *Collector) SecretIssued() {
	if c == nil {
		return
	}
	c.secretsIssued.Inc()
}

// SecretRedeemed 记录密钥兑换结果
func (c *Collector) SecretRedeemed(outcome string) {
	if c == nil {
		return
	}
	c.secretsRedeemed.WithLabelValues(outcome).Inc()
}
