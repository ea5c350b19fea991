package service

import (
	"context"
	"iter"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/qs3c/coa_server/internal/pkg/langdetect"
	"github.com/qs3c/coa_server/internal/pkg/vcs"
)

// LOCInput 一次代码行数统计的输入
type LOCInput struct {
	Ref   vcs.RepoRef
	Token string
	// GitLab 只统计作者邮箱与关联账号一致的提交
	AuthorEmail string
	Commits     iter.Seq2[vcs.Commit, error]
}

// LOCAggregator 按语言汇总新增代码行数
type LOCAggregator struct {
	vcs         vcs.Client
	classifier  langdetect.Classifier
	concurrency int
}

func NewLOCAggregator(client vcs.Client, classifier langdetect.Classifier, concurrency int) *LOCAggregator {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &LOCAggregator{
		vcs:         client,
		classifier:  classifier,
		concurrency: concurrency,
	}
}

// Aggregate 返回 语言 -> 新增行数，无法识别语言的文件直接忽略
func (a *LOCAggregator) Aggregate(ctx context.Context, in LOCInput) (map[string]int, error) {
	result := make(map[string]int)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for commit, err := range in.Commits {
		if err != nil {
			_ = g.Wait()
			return nil, err
		}
		if in.Ref.Platform == vcs.PlatformGitlab && !strings.EqualFold(commit.AuthorEmail, in.AuthorEmail) {
			continue
		}
		if gctx.Err() != nil {
			break
		}

		sha := commit.SHA
		g.Go(func() error {
			files, err := a.vcs.CommitFiles(gctx, in.Ref, sha, in.Token)
			if err != nil {
				return err
			}
			counts := a.count(in.Ref.Platform, files)

			mu.Lock()
			for lang, n := range counts {
				result[lang] += n
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (a *LOCAggregator) count(platform vcs.Platform, files []vcs.FileChange) map[string]int {
	counts := make(map[string]int)
	for _, f := range files {
		lang, ok := a.classifier.Classify(f.Path)
		if !ok {
			continue
		}
		added := f.Additions
		if platform == vcs.PlatformGitlab {
			added = CountAddedLines(f.Diff)
		}
		counts[lang] += added
	}
	return counts
}

// CountAddedLines 统计 unified diff 中以 + 开头的行，不含 +++ 文件头
func CountAddedLines(diff string) int {
	count := 0
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") {
			count++
		}
	}
	return count
}
