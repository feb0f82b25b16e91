package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 服务全局的 Prometheus 采集器
type Metrics struct {
	// 同步任务运行次数，按任务名与结果分类
	SyncRuns *prometheus.CounterVec

	// 单次同步耗时分布
	SyncDuration *prometheus.HistogramVec

	// 全量刷新写入的行数
	RowsSynced *prometheus.CounterVec

	// Token 获取次数，按 accessed/refreshed/error 分类
	TokenOps *prometheus.CounterVec
}

var (
	regOnce  sync.Once
	instance *Metrics
)

// Registry 构建并注册指标单例
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		instance = &Metrics{
			SyncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_runs_total",
				Help:      "Total sync job runs by job and outcome.",
			}, []string{"job", "status"}),
			SyncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sync_duration_seconds",
				Help:      "Duration of sync job runs.",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
			}, []string{"job"}),
			RowsSynced: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_synced_total",
				Help:      "Rows written by full-refresh syncs.",
			}, []string{"table"}),
			TokenOps: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_operations_total",
				Help:      "Upstream token operations by action.",
			}, []string{"action"}),
		}

		prometheus.MustRegister(
			instance.SyncRuns,
			instance.SyncDuration,
			instance.RowsSynced,
			instance.TokenOps,
		)
	})
	return instance
}
