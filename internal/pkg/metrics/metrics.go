package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	JobsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analysis_jobs_started_total",
		Help: "Number of analysis jobs dispatched to the AI server.",
	})

	JobsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analysis_jobs_failed_total",
		Help: "Number of analysis jobs that failed, by reason.",
	}, []string{"reason"})

	JobsSaved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analysis_jobs_saved_total",
		Help: "Number of analysis jobs materialized into repo views.",
	})

	VCSRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vcs_request_duration_seconds",
		Help:    "Latency of GitHub/GitLab API calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"platform", "op"})
)

// 失败原因标签
const (
	ReasonAIServer    = "ai_server"
	ReasonExternalAPI = "external_api"
	ReasonRetry       = "retry_analysis"
	ReasonSave        = "save"
)

var registry = prometheus.NewRegistry()

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		JobsStarted,
		JobsFailed,
		JobsSaved,
		VCSRequestDuration,
	)
}

// Handler 暴露 /metrics
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ObserveVCS 记录一次 VCS 调用耗时
func ObserveVCS(platform, op string, start time.Time) {
	VCSRequestDuration.WithLabelValues(platform, op).Observe(time.Since(start).Seconds())
}
