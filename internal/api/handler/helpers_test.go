package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/coa_server/internal/api/middleware"
	"github.com/qs3c/coa_server/internal/pkg/response"
	"github.com/qs3c/coa_server/internal/pkg/vcs"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testTokenKey = strings.Repeat("cd", 32)

// mockAuth 模拟认证中间件
func mockAuth(memberID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.MemberIDKey, memberID)
		c.Next()
	}
}

func jsonBody(body interface{}) *bytes.Buffer {
	if body == nil {
		return bytes.NewBuffer(nil)
	}
	jsonBytes, _ := json.Marshal(body)
	return bytes.NewBuffer(jsonBytes)
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, jsonBody(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

// dataMap 把响应 data 转成 map 方便断言
func dataMap(t *testing.T, resp response.Response) map[string]interface{} {
	t.Helper()
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", resp.Data)
	return data
}

// stubVCS 固定返回仓库元数据，不产生任何提交
type stubVCS struct {
	metaErr error
}

func (s *stubVCS) RepoMeta(ctx context.Context, ref vcs.RepoRef, token string) (*vcs.RepoMeta, error) {
	if s.metaErr != nil {
		return nil, s.metaErr
	}
	return &vcs.RepoMeta{
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		MemberCount: 2,
	}, nil
}

func (s *stubVCS) Commits(ctx context.Context, ref vcs.RepoRef, token string) iter.Seq2[vcs.Commit, error] {
	return func(yield func(vcs.Commit, error) bool) {}
}

func (s *stubVCS) CommitFiles(ctx context.Context, ref vcs.RepoRef, sha, token string) ([]vcs.FileChange, error) {
	return nil, nil
}
