package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrRejected AI 服务同步返回 false
	ErrRejected = errors.New("ai server rejected the analysis")
	// ErrUnavailable 网络错误、超时或非 2xx 响应
	ErrUnavailable = errors.New("ai server unavailable")
)

type GithubRequest struct {
	AnalysisID  string `json:"analysisId"`
	RepoPath    string `json:"repoPath"`
	UserName    string `json:"userName"`
	AccessToken string `json:"accessToken"`
}

type GitlabRequest struct {
	AnalysisID   string `json:"analysisId"`
	BaseURL      string `json:"baseUrl"`
	ProjectID    string `json:"projectId"`
	UserName     string `json:"userName"`
	PrivateToken string `json:"privateToken"`
}

// Client 向外部 AI 服务派发分析任务
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) DispatchGithub(ctx context.Context, req *GithubRequest) error {
	return c.post(ctx, "/analysis/github", req)
}

func (c *Client) DispatchGitlab(ctx context.Context, req *GitlabRequest) error {
	return c.post(ctx, "/analysis/gitlab", req)
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal ai request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build ai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	if strings.TrimSpace(string(respBody)) == "false" {
		return ErrRejected
	}
	return nil
}
