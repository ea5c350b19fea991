package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHandler(t *testing.T) {
	JobsStarted.Inc()
	JobsFailed.WithLabelValues(ReasonAIServer).Inc()
	ObserveVCS("github", "repo_meta", time.Now().Add(-time.Second))

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "analysis_jobs_started_total")
	assert.Contains(t, body, `analysis_jobs_failed_total{reason="ai_server"}`)
	assert.Contains(t, body, `vcs_request_duration_seconds_count{op="repo_meta",platform="github"}`)
	assert.Contains(t, body, "go_goroutines")
}
