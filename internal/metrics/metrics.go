// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はストアとAPIクライアントから利用するメトリクス収集のインターフェース。
type MetricsCollector interface {
	RecordSignIn(provider string, outcome string)
	RecordRefresh(result string)
	RecordStaleDropped()
	RecordTodoCreated()
	RecordAPIStatus(statusCode int)
	RecordAPILatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	signIn       *prometheus.CounterVec
	refresh      *prometheus.CounterVec
	staleDropped prometheus.Counter
	todoCreated  prometheus.Counter
	apiStatus    *prometheus.CounterVec
	apiLatency   prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devoot_signin_total",
			Help: "プロバイダー・結果別のログイン試行数",
		}, []string{"provider", "outcome"}),
		refresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devoot_inprogress_refresh_total",
			Help: "進行中講義リフレッシュの結果別の合計数",
		}, []string{"result"}),
		staleDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devoot_stale_response_dropped_total",
			Help: "世代不一致で破棄されたレスポンスの合計数",
		}),
		todoCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devoot_todo_created_total",
			Help: "登録に成功したTodoの合計数",
		}),
		apiStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devoot_api_status_total",
			Help: "バックエンドAPIのHTTPステータスコード別レスポンス数",
		}, []string{"status_code"}),
		apiLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "devoot_api_latency_seconds",
			Help:    "バックエンドAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.signIn,
		c.refresh,
		c.staleDropped,
		c.todoCreated,
		c.apiStatus,
		c.apiLatency,
	)

	return c
}

// RecordSignIn はログイン試行の結果を記録する。
// outcomeは "signed_in", "needs_profile", "cancelled", "failed" のいずれか。
func (c *Collector) RecordSignIn(provider string, outcome string) {
	c.signIn.WithLabelValues(provider, outcome).Inc()
}

// RecordRefresh は進行中講義リフレッシュの結果を記録する。
func (c *Collector) RecordRefresh(result string) {
	c.refresh.WithLabelValues(result).Inc()
}

// RecordStaleDropped は世代不一致で破棄したレスポンスを記録する。
func (c *Collector) RecordStaleDropped() {
	c.staleDropped.Inc()
}

// RecordTodoCreated はTodo登録成功を記録する。
func (c *Collector) RecordTodoCreated() {
	c.todoCreated.Inc()
}

// RecordAPIStatus はバックエンドAPIのHTTPステータスコードを記録する。
func (c *Collector) RecordAPIStatus(statusCode int) {
	c.apiStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordAPILatency はバックエンドAPI呼び出しのレイテンシを記録する。
func (c *Collector) RecordAPILatency(duration time.Duration) {
	c.apiLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop は何も記録しないコレクター。メトリクス不要なテストや組み込み利用向け。
type Noop struct{}

func (Noop) RecordSignIn(string, string)    {}
func (Noop) RecordRefresh(string)           {}
func (Noop) RecordStaleDropped()            {}
func (Noop) RecordTodoCreated()             {}
func (Noop) RecordAPIStatus(int)            {}
func (Noop) RecordAPILatency(time.Duration) {}

// compile-time interface checks
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Noop{}
)
