package vcs

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/qs3c/coa_server/internal/pkg/metrics"
)

// GithubClient 基于 go-github 访问 GitHub REST API
type GithubClient struct {
	baseURL      *url.URL
	httpClient   *http.Client
	timeout      time.Duration
	filesTimeout time.Duration
}

// NewGithubClient apiURL 为空时使用 api.github.com
func NewGithubClient(apiURL string, timeout, filesTimeout time.Duration) (*GithubClient, error) {
	c := &GithubClient{
		httpClient:   &http.Client{},
		timeout:      timeout,
		filesTimeout: filesTimeout,
	}
	if apiURL != "" {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		u, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}
		c.baseURL = u
	}
	return c, nil
}

func (c *GithubClient) client(token string) *github.Client {
	hc := c.httpClient
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.httpClient)
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}
	gh := github.NewClient(hc)
	if c.baseURL != nil {
		gh.BaseURL = c.baseURL
	}
	return gh
}

func (c *GithubClient) RepoMeta(ctx context.Context, ref RepoRef, token string) (*RepoMeta, error) {
	defer metrics.ObserveVCS(string(PlatformGithub), "repo_meta", time.Now())

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	gh := c.client(token)
	repo, resp, err := gh.Repositories.Get(ctx, ref.Owner, ref.Name)
	if err != nil {
		return nil, wrapGithubError("get_repo", resp, err)
	}

	meta := &RepoMeta{
		CreatedAt: repo.GetCreatedAt().Time,
		UpdatedAt: repo.GetPushedAt().Time,
	}
	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = repo.GetUpdatedAt().Time
	}

	opts := &github.ListContributorsOptions{ListOptions: github.ListOptions{Page: 1, PerPage: commitsPerPage}}
	for {
		contributors, resp, err := gh.Repositories.ListContributors(ctx, ref.Owner, ref.Name, opts)
		if err != nil {
			return nil, wrapGithubError("list_contributors", resp, err)
		}
		meta.MemberCount += len(contributors)
		if resp.NextPage == 0 || len(contributors) == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return meta, nil
}

// Commits 逐页拉取提交，遇到空页结束
func (c *GithubClient) Commits(ctx context.Context, ref RepoRef, token string) iter.Seq2[Commit, error] {
	return func(yield func(Commit, error) bool) {
		gh := c.client(token)
		opts := &github.CommitsListOptions{ListOptions: github.ListOptions{Page: 1, PerPage: commitsPerPage}}

		for {
			commits, err := c.listCommitsPage(ctx, gh, ref, opts)
			if err != nil {
				yield(Commit{}, err)
				return
			}
			if len(commits) == 0 {
				return
			}
			for _, rc := range commits {
				commit := Commit{
					SHA:         rc.GetSHA(),
					AuthorName:  rc.GetCommit().GetAuthor().GetName(),
					AuthorEmail: rc.GetCommit().GetAuthor().GetEmail(),
				}
				if !yield(commit, nil) {
					return
				}
			}
			opts.Page++
		}
	}
}

func (c *GithubClient) listCommitsPage(ctx context.Context, gh *github.Client, ref RepoRef, opts *github.CommitsListOptions) ([]*github.RepositoryCommit, error) {
	defer metrics.ObserveVCS(string(PlatformGithub), "list_commits", time.Now())

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	commits, resp, err := gh.Repositories.ListCommits(ctx, ref.Owner, ref.Name, opts)
	if err != nil {
		// 空仓库返回 409
		if resp != nil && resp.StatusCode == http.StatusConflict {
			return nil, nil
		}
		return nil, wrapGithubError("list_commits", resp, err)
	}
	return commits, nil
}

func (c *GithubClient) CommitFiles(ctx context.Context, ref RepoRef, sha, token string) ([]FileChange, error) {
	defer metrics.ObserveVCS(string(PlatformGithub), "commit_files", time.Now())

	ctx, cancel := context.WithTimeout(ctx, c.filesTimeout)
	defer cancel()

	gh := c.client(token)
	opts := &github.ListOptions{Page: 1, PerPage: commitsPerPage}

	var files []FileChange
	for {
		commit, resp, err := gh.Repositories.GetCommit(ctx, ref.Owner, ref.Name, sha, opts)
		if err != nil {
			return nil, wrapGithubError("get_commit", resp, err)
		}
		for _, f := range commit.Files {
			files = append(files, FileChange{
				Path:      f.GetFilename(),
				Additions: f.GetAdditions(),
			})
		}
		if resp.NextPage == 0 || len(commit.Files) == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return files, nil
}

func wrapGithubError(op string, resp *github.Response, err error) error {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return &APIError{Platform: PlatformGithub, Op: op, StatusCode: http.StatusForbidden, Retryable: true, Err: err}
	}
	if isContextErr(err) {
		return transportError(PlatformGithub, op, err)
	}
	if resp != nil && resp.Response != nil && resp.StatusCode >= 300 {
		return statusError(PlatformGithub, op, resp.StatusCode)
	}
	return transportError(PlatformGithub, op, err)
}
