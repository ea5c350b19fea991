package service

import (
	"context"
	"encoding/json"
	"io"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/coa_server/config"
	"github.com/qs3c/coa_server/internal/model"
	"github.com/qs3c/coa_server/internal/pkg/aiclient"
	"github.com/qs3c/coa_server/internal/pkg/crypto"
	"github.com/qs3c/coa_server/internal/pkg/langdetect"
	"github.com/qs3c/coa_server/internal/pkg/vcs"
	"github.com/qs3c/coa_server/internal/repository"
	"github.com/qs3c/coa_server/internal/testutil"
)

var testTokenKey = strings.Repeat("ab", 32)

// fakeVCS 内存实现的 vcs.Client
type fakeVCS struct {
	mu sync.Mutex

	meta       *vcs.RepoMeta
	metaErr    error
	commits    []vcs.Commit
	commitsErr error
	files      map[string][]vcs.FileChange
	filesErr   error

	fileCalls []string
	tokens    []string
}

func newFakeVCS() *fakeVCS {
	return &fakeVCS{
		meta: &vcs.RepoMeta{
			CreatedAt:   time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			MemberCount: 3,
		},
		files: make(map[string][]vcs.FileChange),
	}
}

func (f *fakeVCS) RepoMeta(ctx context.Context, ref vcs.RepoRef, token string) (*vcs.RepoMeta, error) {
	f.mu.Lock()
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	return f.meta, nil
}

func (f *fakeVCS) Commits(ctx context.Context, ref vcs.RepoRef, token string) iter.Seq2[vcs.Commit, error] {
	return func(yield func(vcs.Commit, error) bool) {
		for _, c := range f.commits {
			if !yield(c, nil) {
				return
			}
		}
		if f.commitsErr != nil {
			yield(vcs.Commit{}, f.commitsErr)
		}
	}
}

func (f *fakeVCS) CommitFiles(ctx context.Context, ref vcs.RepoRef, sha, token string) ([]vcs.FileChange, error) {
	f.mu.Lock()
	f.fileCalls = append(f.fileCalls, sha)
	f.mu.Unlock()
	if f.filesErr != nil {
		return nil, f.filesErr
	}
	return f.files[sha], nil
}

func (f *fakeVCS) calledFiles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fileCalls...)
}

// aiRequest AI 服务收到的一次派发
type aiRequest struct {
	Path string
	Body map[string]interface{}
}

type fakeAI struct {
	mu       sync.Mutex
	requests []aiRequest
	status   int
	body     string
}

func (a *fakeAI) handler(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	var body map[string]interface{}
	_ = json.Unmarshal(data, &body)

	a.mu.Lock()
	a.requests = append(a.requests, aiRequest{Path: r.URL.Path, Body: body})
	status, respBody := a.status, a.body
	a.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	if respBody == "" {
		respBody = "true"
	}
	w.WriteHeader(status)
	w.Write([]byte(respBody))
}

func (a *fakeAI) respond(status int, body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status, a.body = status, body
}

func (a *fakeAI) received() []aiRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]aiRequest(nil), a.requests...)
}

type analysisFixture struct {
	svc     *AnalysisService
	db      *gorm.DB
	mr      *miniredis.Miniredis
	jobRepo *repository.JobRepository
	vcs     *fakeVCS
	ai      *fakeAI
	cipher  *crypto.TokenCipher
}

func setupAnalysisService(t *testing.T) (*analysisFixture, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	rdb, mr, redisCleanup := testutil.SetupTestRedis(t)

	cipher, err := crypto.NewTokenCipher(testTokenKey)
	require.NoError(t, err)

	ai := &fakeAI{}
	aiServer := httptest.NewServer(http.HandlerFunc(ai.handler))

	fake := newFakeVCS()
	jobRepo := repository.NewJobRepository(rdb)
	cfg := &config.Config{}

	svc := NewAnalysisService(
		repository.NewMemberRepository(db),
		repository.NewAccountLinkRepository(db),
		repository.NewCodeRepository(db),
		repository.NewRepoViewRepository(db),
		jobRepo,
		fake,
		aiclient.New(aiServer.URL, 2*time.Second),
		cipher,
		NewLOCAggregator(fake, langdetect.New(), 2),
		cfg,
	)

	cleanup := func() {
		aiServer.Close()
		redisCleanup()
		testutil.CleanupTestDB(t, db)
	}

	return &analysisFixture{
		svc:     svc,
		db:      db,
		mr:      mr,
		jobRepo: jobRepo,
		vcs:     fake,
		ai:      ai,
		cipher:  cipher,
	}, cleanup
}

// linkAccount 为会员关联平台账号，token 以明文传入
func (f *analysisFixture) linkAccount(t *testing.T, memberID int64, platform, nickname, email, token string) {
	t.Helper()

	encrypted, err := f.cipher.Encrypt(token)
	require.NoError(t, err)
	testutil.TestAccountLink(t, f.db, memberID, platform, nickname, email, encrypted)
}

// createDoneJob 直接写入一个已完成的任务
func (f *analysisFixture) createDoneJob(t *testing.T, memberID int64, isOwn bool, projectID *int64) string {
	t.Helper()

	repoPath := "https://github.com/octocat/hello"
	if projectID != nil {
		repoPath = "https://gitlab.example.com/group/hello"
	}

	ctx := context.Background()
	id, err := f.jobRepo.Create(ctx, &model.AnalysisJob{
		MemberID:  memberID,
		UserName:  "octocat",
		RepoPath:  repoPath,
		ProjectID: projectID,
		IsOwn:     isOwn,
		MemberCnt: 3,
		StartDate: "2024-01-01",
		EndDate:   "2024-03-01",
	}, 0)
	require.NoError(t, err)

	done := model.JobStatusDone
	pct := 100
	_, err = f.jobRepo.Update(ctx, id, model.JobUpdate{
		Status:     &done,
		Percentage: &pct,
		Result: &model.AnalysisResult{
			Readme:            "# hello",
			RepoViewResult:    "well structured",
			TotalCommitCnt:    40,
			PersonalCommitCnt: 12,
			CommitScore: &model.CommitScoreResult{
				Readability: 80, Performance: 70, Reusability: 60,
				Testability: 50, Exception: 40, Total: 60,
				ScoreComment: "good",
			},
		},
	})
	require.NoError(t, err)
	return id
}

func statusPtr(s model.JobStatus) *model.JobStatus { return &s }
func intPtr(i int) *int                            { return &i }
