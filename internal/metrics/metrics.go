// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AnalysisRecorder は夢解析リクエストの結果を記録するインターフェース。
// outcomeには "success" または解析失敗の分類名を渡す。
type AnalysisRecorder interface {
	RecordAnalysis(outcome string, duration time.Duration)
}

// PersistenceRecorder は夢日記の永続化結果を記録するインターフェース。
type PersistenceRecorder interface {
	RecordDreamSaved()
	RecordDreamSaveFailure()
	RecordDreamDeleted()
}

// SessionRecorder はセッションイベントを記録するインターフェース。
type SessionRecorder interface {
	RecordSessionEvent(eventType string)
}

// MetricsCollector はアプリケーション全体で利用するメトリクス収集のインターフェース。
type MetricsCollector interface {
	AnalysisRecorder
	PersistenceRecorder
	SessionRecorder
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	analysisTotal   *prometheus.CounterVec
	analysisLatency prometheus.Histogram
	dreamsSaved     prometheus.Counter
	saveFailures    prometheus.Counter
	dreamsDeleted   prometheus.Counter
	sessionEvents   *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		analysisTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dreamjournal_analysis_requests_total",
			Help: "結果別の夢解析リクエスト数",
		}, []string{"outcome"}),
		analysisLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dreamjournal_analysis_latency_seconds",
			Help:    "補完プロバイダー呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		dreamsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dreamjournal_dreams_saved_total",
			Help: "保存された夢日記の合計数",
		}),
		saveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dreamjournal_dream_save_failures_total",
			Help: "夢日記の保存失敗の合計数",
		}),
		dreamsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dreamjournal_dreams_deleted_total",
			Help: "削除された夢日記の合計数",
		}),
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dreamjournal_session_events_total",
			Help: "種別ごとのセッションイベント数",
		}, []string{"type"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dreamjournal_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.analysisTotal,
		c.analysisLatency,
		c.dreamsSaved,
		c.saveFailures,
		c.dreamsDeleted,
		c.sessionEvents,
		c.httpStatus,
	)

	return c
}

// RecordAnalysis は夢解析の結果とレイテンシを記録する。
func (c *Collector) RecordAnalysis(outcome string, duration time.Duration) {
	c.analysisTotal.WithLabelValues(outcome).Inc()
	c.analysisLatency.Observe(duration.Seconds())
}

// RecordDreamSaved は夢日記の保存成功を記録する。
func (c *Collector) RecordDreamSaved() {
	c.dreamsSaved.Inc()
}

// RecordDreamSaveFailure は夢日記の保存失敗を記録する。
func (c *Collector) RecordDreamSaveFailure() {
	c.saveFailures.Inc()
}

// RecordDreamDeleted は夢日記の削除を記録する。
func (c *Collector) RecordDreamDeleted() {
	c.dreamsDeleted.Inc()
}

// RecordSessionEvent はセッションイベントを記録する。
func (c *Collector) RecordSessionEvent(eventType string) {
	c.sessionEvents.WithLabelValues(eventType).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないMetricsCollector。
// メトリクスを使用しない構成やテストで利用する。
type Nop struct{}

func (Nop) RecordAnalysis(string, time.Duration) {}
func (Nop) RecordDreamSaved() {}
func (Nop) RecordDreamSaveFailure() {}
func (Nop) RecordDreamDeleted() {}
func (Nop) RecordSessionEvent(string) {}
func (Nop) RecordHTTPStatus(int) {}

// compile-time interface checks
var _ MetricsCollector = (*Collector)(nil)
var _ MetricsCollector = Nop{}
