package vcs

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/qs3c/coa_server/internal/pkg/metrics"
)

// GitlabClient 直接调用 GitLab v4 REST API
type GitlabClient struct {
	httpClient   *http.Client
	timeout      time.Duration
	filesTimeout time.Duration
}

func NewGitlabClient(timeout, filesTimeout time.Duration) *GitlabClient {
	return &GitlabClient{
		httpClient:   &http.Client{},
		timeout:      timeout,
		filesTimeout: filesTimeout,
	}
}

type gitlabProject struct {
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
	LastActivityAt *time.Time `json:"last_activity_at"`
}

type gitlabCommit struct {
	ID          string `json:"id"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
}

type gitlabDiff struct {
	NewPath string `json:"new_path"`
	Diff    string `json:"diff"`
}

func (c *GitlabClient) projectURL(ref RepoRef, suffix string) string {
	return fmt.Sprintf("%s/api/v4/projects/%d%s", ref.BaseURL, ref.ProjectID, suffix)
}

func (c *GitlabClient) get(ctx context.Context, op, rawURL string, query url.Values, token string, out interface{}) error {
	if query != nil {
		rawURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build gitlab request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(PlatformGitlab, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(PlatformGitlab, op, resp.StatusCode)
	}
	// 2xx 但响应体无法解析，视为对端异常
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Platform: PlatformGitlab, Op: op, Retryable: true, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func pageQuery(page int) url.Values {
	return url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(commitsPerPage)},
	}
}

func (c *GitlabClient) RepoMeta(ctx context.Context, ref RepoRef, token string) (*RepoMeta, error) {
	defer metrics.ObserveVCS(string(PlatformGitlab), "repo_meta", time.Now())

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var project gitlabProject
	if err := c.get(ctx, "get_project", c.projectURL(ref, ""), nil, token, &project); err != nil {
		return nil, err
	}

	meta := &RepoMeta{CreatedAt: project.CreatedAt}
	switch {
	case project.UpdatedAt != nil:
		meta.UpdatedAt = *project.UpdatedAt
	case project.LastActivityAt != nil:
		meta.UpdatedAt = *project.LastActivityAt
	}

	for page := 1; ; page++ {
		var members []json.RawMessage
		if err := c.get(ctx, "list_members", c.projectURL(ref, "/members"), pageQuery(page), token, &members); err != nil {
			return nil, err
		}
		meta.MemberCount += len(members)
		if len(members) < commitsPerPage {
			break
		}
	}
	return meta, nil
}

// Commits 逐页拉取提交，遇到空页结束
func (c *GitlabClient) Commits(ctx context.Context, ref RepoRef, token string) iter.Seq2[Commit, error] {
	return func(yield func(Commit, error) bool) {
		for page := 1; ; page++ {
			commits, err := c.listCommitsPage(ctx, ref, token, page)
			if err != nil {
				yield(Commit{}, err)
				return
			}
			if len(commits) == 0 {
				return
			}
			for _, gc := range commits {
				if !yield(Commit{SHA: gc.ID, AuthorName: gc.AuthorName, AuthorEmail: gc.AuthorEmail}, nil) {
					return
				}
			}
		}
	}
}

func (c *GitlabClient) listCommitsPage(ctx context.Context, ref RepoRef, token string, page int) ([]gitlabCommit, error) {
	defer metrics.ObserveVCS(string(PlatformGitlab), "list_commits", time.Now())

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var commits []gitlabCommit
	err := c.get(ctx, "list_commits", c.projectURL(ref, "/repository/commits"), pageQuery(page), token, &commits)
	return commits, err
}

func (c *GitlabClient) CommitFiles(ctx context.Context, ref RepoRef, sha, token string) ([]FileChange, error) {
	defer metrics.ObserveVCS(string(PlatformGitlab), "commit_files", time.Now())

	ctx, cancel := context.WithTimeout(ctx, c.filesTimeout)
	defer cancel()

	endpoint := c.projectURL(ref, "/repository/commits/"+url.PathEscape(sha)+"/diff")

	var files []FileChange
	for page := 1; ; page++ {
		var diffs []gitlabDiff
		if err := c.get(ctx, "commit_diff", endpoint, pageQuery(page), token, &diffs); err != nil {
			return nil, err
		}
		for _, d := range diffs {
			files = append(files, FileChange{Path: d.NewPath, Diff: d.Diff})
		}
		if len(diffs) < commitsPerPage {
			break
		}
	}
	return files, nil
}
