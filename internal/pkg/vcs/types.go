package vcs

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"strings"
	"time"
)

type Platform string

const (
	PlatformGithub Platform = "github"
	PlatformGitlab Platform = "gitlab"
)

// 每页提交数
const commitsPerPage = 100

var ErrInvalidRepoURL = errors.New("invalid repository url")

// RepoRef 远程仓库定位信息
// GitHub 使用 Owner/Name，GitLab 使用 BaseURL/ProjectID
type RepoRef struct {
	Platform  Platform
	URL       string
	Owner     string
	Name      string
	BaseURL   string
	ProjectID int64
}

// FullName GitHub 的 owner/name
func (r RepoRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// ParseRepoRef 解析仓库地址，projectID 为空表示 GitHub 仓库
func ParseRepoRef(repoURL string, projectID *int64) (RepoRef, error) {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(strings.TrimSpace(repoURL), "/"), ".git")
	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return RepoRef{}, fmt.Errorf("%w: %s", ErrInvalidRepoURL, repoURL)
	}

	if projectID != nil {
		return RepoRef{
			Platform:  PlatformGitlab,
			URL:       trimmed,
			BaseURL:   u.Scheme + "://" + u.Host,
			ProjectID: *projectID,
		}, nil
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || segments[len(segments)-2] == "" || segments[len(segments)-1] == "" {
		return RepoRef{}, fmt.Errorf("%w: %s", ErrInvalidRepoURL, repoURL)
	}
	return RepoRef{
		Platform: PlatformGithub,
		URL:      trimmed,
		Owner:    segments[len(segments)-2],
		Name:     segments[len(segments)-1],
	}, nil
}

type RepoMeta struct {
	CreatedAt   time.Time
	UpdatedAt   time.Time
	MemberCount int
}

type Commit struct {
	SHA         string
	AuthorName  string
	AuthorEmail string
}

// FileChange 单个提交中的一个文件
// GitHub 直接给出 Additions，GitLab 只给出 Diff 文本
type FileChange struct {
	Path      string
	Additions int
	Diff      string
}

// Client GitHub / GitLab 的统一访问接口
type Client interface {
	RepoMeta(ctx context.Context, ref RepoRef, token string) (*RepoMeta, error)
	Commits(ctx context.Context, ref RepoRef, token string) iter.Seq2[Commit, error]
	CommitFiles(ctx context.Context, ref RepoRef, sha, token string) ([]FileChange, error)
}

// Clients 按 ref.Platform 分发到具体实现
type Clients struct {
	Github Client
	Gitlab Client
}

func (c *Clients) pick(ref RepoRef) (Client, error) {
	switch ref.Platform {
	case PlatformGithub:
		if c.Github != nil {
			return c.Github, nil
		}
	case PlatformGitlab:
		if c.Gitlab != nil {
			return c.Gitlab, nil
		}
	}
	return nil, fmt.Errorf("no vcs client for platform %q", ref.Platform)
}

func (c *Clients) RepoMeta(ctx context.Context, ref RepoRef, token string) (*RepoMeta, error) {
	client, err := c.pick(ref)
	if err != nil {
		return nil, err
	}
	return client.RepoMeta(ctx, ref, token)
}

func (c *Clients) Commits(ctx context.Context, ref RepoRef, token string) iter.Seq2[Commit, error] {
	client, err := c.pick(ref)
	if err != nil {
		return func(yield func(Commit, error) bool) {
			yield(Commit{}, err)
		}
	}
	return client.Commits(ctx, ref, token)
}

func (c *Clients) CommitFiles(ctx context.Context, ref RepoRef, sha, token string) ([]FileChange, error) {
	client, err := c.pick(ref)
	if err != nil {
		return nil, err
	}
	return client.CommitFiles(ctx, ref, sha, token)
}
