// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordArticleSaved()
	RecordArticleDeleted()
	RecordUpstreamSuccess(upstream string)
	RecordUpstreamFailure(upstream string)
	RecordUpstreamLatency(upstream string, duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	articlesSaved   prometheus.Counter
	articlesDeleted prometheus.Counter
	upstreamSuccess *prometheus.CounterVec
	upstreamFail    *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		articlesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "locallens_articles_saved_total",
			Help: "保存された記事の合計数",
		}),
		articlesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "locallens_articles_deleted_total",
			Help: "削除された記事の合計数",
		}),
		upstreamSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "locallens_upstream_success_total",
			Help: "上流API呼び出し成功の合計数",
		}, []string{"upstream"}),
		upstreamFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "locallens_upstream_fail_total",
			Help: "上流API呼び出し失敗の合計数",
		}, []string{"upstream"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "locallens_upstream_latency_seconds",
			Help:    "上流API呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"upstream"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "locallens_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.articlesSaved,
		c.articlesDeleted,
		c.upstreamSuccess,
		c.upstreamFail,
		c.upstreamLatency,
		c.httpStatus,
	)

	return c
}

// RecordArticleSaved は記事の保存を記録する。
func (c *Collector) RecordArticleSaved() {
	c.articlesSaved.Inc()
}

// RecordArticleDeleted は記事の削除を記録する。
func (c *Collector) RecordArticleDeleted() {
	c.articlesDeleted.Inc()
}

// RecordUpstreamSuccess は上流API呼び出し成功を記録する。
func (c *Collector) RecordUpstreamSuccess(upstream string) {
	c.upstreamSuccess.WithLabelValues(upstream).Inc()
}

// RecordUpstreamFailure は上流API呼び出し失敗を記録する。
func (c *Collector) RecordUpstreamFailure(upstream string) {
	c.upstreamFail.WithLabelValues(upstream).Inc()
}

// RecordUpstreamLatency は上流API呼び出しのレイテンシを記録する。
func (c *Collector) RecordUpstreamLatency(upstream string, duration time.Duration) {
	c.upstreamLatency.WithLabelValues(upstream).Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
