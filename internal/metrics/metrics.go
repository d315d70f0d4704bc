// Package metrics はPrometheusメトリクスの収集と書き出しを提供する。
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder はメトリクス収集のインターフェース。
// APIクライアントや一括削除処理から利用する。
type Recorder interface {
	RecordUserDeleted()
	RecordUserSkipped()
	RecordUserAbandoned()
	RecordTokenRefresh()
	RecordPageFetch(success bool)
	RecordHTTPStatus(operation string, statusCode int)
	RecordRequestLatency(operation string, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	usersDeleted   prometheus.Counter
	usersSkipped   prometheus.Counter
	usersAbandoned prometheus.Counter
	tokenRefreshes prometheus.Counter
	pageFetches    *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		usersDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pingone_tools_users_deleted_total",
			Help: "削除に成功したユーザーの合計数",
		}),
		usersSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pingone_tools_users_skipped_total",
			Help: "スキップ対象として除外したユーザーの合計数",
		}),
		usersAbandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pingone_tools_users_abandoned_total",
			Help: "最大試行回数に達して削除を断念したユーザーの合計数",
		}),
		tokenRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pingone_tools_token_refreshes_total",
			Help: "401応答によるトークン再取得の合計数",
		}),
		pageFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pingone_tools_page_fetches_total",
			Help: "ユーザー一覧ページ取得の合計数（結果別）",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pingone_tools_http_status_total",
			Help: "操作・HTTPステータスコード別のレスポンス数",
		}, []string{"operation", "status_code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pingone_tools_request_latency_seconds",
			Help:    "PingOne API呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	reg.MustRegister(
		c.usersDeleted,
		c.usersSkipped,
		c.usersAbandoned,
		c.tokenRefreshes,
		c.pageFetches,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordUserDeleted は削除成功を記録する。
func (c *Collector) RecordUserDeleted() {
	c.usersDeleted.Inc()
}

// RecordUserSkipped はスキップを記録する。
func (c *Collector) RecordUserSkipped() {
	c.usersSkipped.Inc()
}

// RecordUserAbandoned は削除断念を記録する。
func (c *Collector) RecordUserAbandoned() {
	c.usersAbandoned.Inc()
}

// RecordTokenRefresh はトークン再取得を記録する。
func (c *Collector) RecordTokenRefresh() {
	c.tokenRefreshes.Inc()
}

// RecordPageFetch はページ取得の結果を記録する。
func (c *Collector) RecordPageFetch(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	c.pageFetches.WithLabelValues(result).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(operation string, statusCode int) {
	c.httpStatus.WithLabelValues(operation, strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はAPI呼び出しのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(operation string, duration time.Duration) {
	c.requestLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// WriteTextfile はレジストリの内容をnode_exporterのtextfileコレクター形式で書き出す。
// 書き込みは一時ファイル経由でアトミックに行われる。
func WriteTextfile(path string, gatherer prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, gatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// compile-time interface check
var _ Recorder = (*Collector)(nil)
