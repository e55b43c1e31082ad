// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// importer.MetricsRecorderを満たし、インポート処理から利用される。
type Collector struct {
	importSuccess    *prometheus.CounterVec
	importFail       *prometheus.CounterVec
	holidaysImported prometheus.Counter
	httpStatus       *prometheus.CounterVec
	importLatency    prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		importSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "holical_import_success_total",
			Help: "祝日インポート成功の合計数",
		}, []string{"country", "state"}),
		importFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "holical_import_fail_total",
			Help: "祝日インポート失敗の合計数",
		}, []string{"country", "state"}),
		holidaysImported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "holical_holidays_imported_total",
			Help: "インポートで新規登録された祝日の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "holical_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		importLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "holical_import_latency_seconds",
			Help:    "祝日インポートのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.importSuccess,
		c.importFail,
		c.holidaysImported,
		c.httpStatus,
		c.importLatency,
	)

	return c
}

// RecordImportSuccess はインポート成功を記録する。
// stateが空の場合は連邦スコープを表すラベル"national"を使う。
func (c *Collector) RecordImportSuccess(country, state string) {
	c.importSuccess.WithLabelValues(country, stateLabel(state)).Inc()
}

// RecordImportFailure はインポート失敗を記録する。
func (c *Collector) RecordImportFailure(country, state string) {
	c.importFail.WithLabelValues(country, stateLabel(state)).Inc()
}

// RecordHolidaysImported は新規登録された祝日数を記録する。
func (c *Collector) RecordHolidaysImported(count int) {
	c.holidaysImported.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordImportLatency はインポートのレイテンシを記録する。
func (c *Collector) RecordImportLatency(duration time.Duration) {
	c.importLatency.Observe(duration.Seconds())
}

func stateLabel(state string) string {
	if state == "" {
		return "national"
	}
	return state
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
