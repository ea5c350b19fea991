package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/coa_server/internal/model"
	"github.com/qs3c/coa_server/internal/model/dto"
	"github.com/qs3c/coa_server/internal/pkg/vcs"
	"github.com/qs3c/coa_server/internal/repository"
	"github.com/qs3c/coa_server/internal/testutil"
)

func TestAnalysisService_FullLifecycle(t *testing.T) {
	f, cleanup := setupAnalysisService(t)
	defer cleanup()
	ctx := context.Background()

	member := testutil.TestMember(t, f.db)
	f.linkAccount(t, member.ID, model.PlatformGithub, "octocat", "octo@example.com", "gh-token")
	python := testutil.TestCode(t, f.db, "Python", model.CodeTypeLanguage)
	golang := testutil.TestCode(t, f.db, "Go", model.CodeTypeLanguage)
	backend := testutil.TestCode(t, f.db, "Backend", model.CodeTypeJob)

	f.vcs.commits = []vcs.Commit{{SHA: "c1"}, {SHA: "c2"}}
	f.vcs.files["c1"] = []vcs.FileChange{{Path: "a.py", Additions: 5}}
	f.vcs.files["c2"] = []vcs.FileChange{{Path: "b.go", Additions: 3}}

	// start
	started, err := f.svc.Start(ctx, member.ID, &dto.StartAnalysisRequest{
		RepoURL:  "https://github.com/octocat/hello",
		UserName: "octocat",
	})
	require.NoError(t, err)
	jobID := started.AnalysisID
	require.NotEmpty(t, jobID)

	requests := f.ai.received()
	require.Len(t, requests, 1)
	assert.Equal(t, "/analysis/github", requests[0].Path)
	assert.Equal(t, jobID, requests[0].Body["analysisId"])
	assert.Equal(t, "octocat/hello", requests[0].Body["repoPath"])
	assert.Equal(t, "octocat", requests[0].Body["userName"])
	assert.Equal(t, "gh-token", requests[0].Body["accessToken"])

	check, err := f.svc.Check(ctx, member.ID, jobID)
	require.NoError(t, err)
	assert.Equal(t, "000", check.Status)
	assert.Equal(t, 0, check.Percentage)

	// AI 回写进度
	_, err = f.jobRepo.Update(ctx, jobID, model.JobUpdate{Status: statusPtr("150"), Percentage: intPtr(60)})
	require.NoError(t, err)

	check, err = f.svc.Check(ctx, member.ID, jobID)
	require.NoError(t, err)
	assert.Equal(t, jobID, check.AnalysisID)
	assert.Equal(t, 60, check.Percentage)

	_, err = f.jobRepo.Update(ctx, jobID, model.JobUpdate{
		Status:     statusPtr(model.JobStatusDone),
		Percentage: intPtr(100),
		Result: &model.AnalysisResult{
			Readme:            "# hello",
			RepoViewResult:    "clean code",
			TotalCommitCnt:    40,
			PersonalCommitCnt: 12,
			CommitScore:       &model.CommitScoreResult{Readability: 90, Total: 75, ScoreComment: "nice"},
		},
	})
	require.NoError(t, err)

	detail, err := f.svc.GetDoneResult(ctx, member.ID, jobID)
	require.NoError(t, err)
	assert.True(t, detail.RepoCard.IsMine)
	assert.Equal(t, "hello", detail.RepoCard.RepoViewTitle)
	assert.Equal(t, "octocat", detail.RepoCard.MemberNickname)
	assert.Equal(t, 3, detail.RepoCard.RepoMemberCnt)
	assert.Equal(t, "2024-01-01", detail.RepoCard.RepoStartDate)
	assert.Equal(t, "2024-03-01", detail.RepoCard.RepoEndDate)
	assert.Equal(t, "# hello", detail.BasicDetail.Readme)
	assert.Equal(t, "clean code", detail.BasicDetail.Result)
	assert.Equal(t, int64(40), detail.BasicDetail.TotalCommitCnt)
	assert.Equal(t, int64(12), detail.BasicDetail.PersonalCommitCnt)
	require.NotNil(t, detail.CommitScore)
	assert.Equal(t, int16(75), detail.CommitScore.Total)

	saved, err := f.svc.Save(ctx, member.ID, jobID, &dto.SaveAnalysisRequest{
		Title:     "Hello",
		Subtitle:  "my project",
		MemberCnt: 3,
		SkillIDs:  []int64{golang.ID, backend.ID},
		StartDate: "2024-01-01",
		EndDate:   "2024-03-01",
	})
	require.NoError(t, err)
	assert.NotZero(t, saved.RepoViewID)

	// 保存后任务被删除
	_, err = f.svc.Check(ctx, member.ID, jobID)
	assert.ErrorIs(t, err, ErrAnalysisNotExist)

	repoViewRepo := repository.NewRepoViewRepository(f.db)
	view, err := repoViewRepo.GetByID(saved.RepoViewID)
	require.NoError(t, err)
	assert.Equal(t, jobID, view.AnalysisID)
	assert.Equal(t, "Hello", view.Title)
	assert.Equal(t, "# hello", view.Readme)
	assert.Equal(t, int64(12), view.CommitCnt)
	require.NotNil(t, view.Repo)
	assert.Equal(t, "https://github.com/octocat/hello", view.Repo.Path)
	assert.Equal(t, int64(40), view.Repo.CommitCnt)

	locs, err := repoViewRepo.GetLineOfCodes(view.ID)
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, python.ID, locs[0].CodeID)
	assert.Equal(t, 5, locs[0].LineCount)
	assert.Equal(t, golang.ID, locs[1].CodeID)
	assert.Equal(t, 3, locs[1].LineCount)

	skills, err := repoViewRepo.GetSkills(view.ID)
	require.NoError(t, err)
	assert.Len(t, skills, 2)

	score, err := repoViewRepo.GetCommitScore(view.ID)
	require.NoError(t, err)
	assert.Equal(t, int16(90), score.Readability)
	assert.Equal(t, "nice", score.ScoreComment)
}

func TestAnalysisService_Start_Errors(t *testing.T) {
	t.Run("member not found", func(t *testing.T) {
		f, cleanup := setupAnalysisService(t)
		defer cleanup()

		_, err := f.svc.Start(context.Background(), 999, &dto.StartAnalysisRequest{
			RepoURL: "https://github.com/octocat/hello", UserName: "octocat",
		})
		assert.ErrorIs(t, err, ErrMemberNotFound)
	})

	t.Run("account link missing", func(t *testing.T) {
		f, cleanup := setupAnalysisService(t)
		defer cleanup()

		member := testutil.TestMember(t, f.db)
		_, err := f.svc.Start(context.Background(), member.ID, &dto.StartAnalysisRequest{
			RepoURL: "https://github.com/octocat/hello", UserName: "octocat",
		})
		assert.ErrorIs(t, err, ErrAccountLinkNotExist)
		assert.Empty(t, f.mr.Keys())
	})

	t.Run("invalid repo url", func(t *testing.T) {
		f, cleanup := setupAnalysisService(t)
		defer cleanup()

		member := testutil.TestMember(t, f.db)
		_, err := f.svc.Start(context.Background(), member.ID, &dto.StartAnalysisRequest{
			RepoURL: "https://github.com/only-owner", UserName: "octocat",
		})
		assert.ErrorIs(t, err, ErrInvalidRepoURL)
	})
}

func TestAnalysisService_Start_ExternalErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unauthorized", vcs.ErrUnauthorized, ErrExternalUnauthorized},
		{"not found", vcs.ErrNotFound, ErrExternalNotFound},
		{"server error", &vcs.APIError{Platform: vcs.PlatformGithub, StatusCode: 502, Retryable: true}, ErrExternalAPI},
		{"forbidden", &vcs.APIError{Platform: vcs.PlatformGithub, StatusCode: 403}, ErrExternalRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, cleanup := setupAnalysisService(t)
			defer cleanup()

			member := testutil.TestMember(t, f.db)
			f.linkAccount(t, member.ID, model.PlatformGithub, "octocat", "", "gh-token")
			f.vcs.metaErr = tt.err

			_, err := f.svc.Start(context.Background(), member.ID, &dto.StartAnalysisRequest{
				RepoURL: "https://github.com/octocat/hello", UserName: "octocat",
			})
			assert.ErrorIs(t, err, tt.want)
			// 元数据失败时不创建任务，也不派发
			assert.Empty(t, f.mr.Keys())
			assert.Empty(t, f.ai.received())
		})
	}
}

func TestAnalysisService_Start_AIRejected(t *testing.T) {
	f, cleanup := setupAnalysisService(t)
	defer cleanup()

	member := testutil.TestMember(t, f.db)
	f.linkAccount(t, member.ID, model.PlatformGithub, "octocat", "", "gh-token")
	f.ai.respond(200, "false")

	_, err := f.svc.Start(context.Background(), member.ID, &dto.StartAnalysisRequest{
		RepoURL: "https://github.com/octocat/hello", UserName: "octocat",
	})
	assert.ErrorIs(t, err, ErrAIServer)
	// 任务留给 TTL 回收
	assert.Len(t, f.mr.Keys(), 1)
}

func TestAnalysisService_Start_AIUnavailable(t *testing.T) {
	f, cleanup := setupAnalysisService(t)
	defer cleanup()

	member := testutil.TestMember(t, f.db)
	f.linkAccount(t, member.ID, model.PlatformGithub, "octocat", "", "gh-token")
	f.ai.respond(503, "unavailable")

	_, err := f.svc.Start(context.Background(), member.ID, &dto.StartAnalysisRequest{
		RepoURL: "https://github.com/octocat/hello", UserName: "octocat",
	})
	assert.ErrorIs(t, err, ErrExternalAPI)
}

func TestAnalysisService_Start_NotOwnRepo(t *testing.T) {
	f, cleanup := setupAnalysisService(t)
	defer cleanup()
	ctx := context.Background()

	member := testutil.TestMember(t, f.db)
	f.linkAccount(t, member.ID, model.PlatformGithub, "octocat", "", "gh-token")

	started, err := f.svc.Start(ctx, member.ID, &dto.StartAnalysisRequest{
		RepoURL: "https://github.com/torvalds/linux", UserName: "torvalds",
	})
	require.NoError(t, err)

	job, err := f.jobRepo.Get(ctx, started.AnalysisID)
	require.NoError(t, err)
	assert.False(t, job.IsOwn)
	assert.Equal(t, model.JobStatusPending, job.Status)
	assert.Equal(t, int64(86400), job.ExpireSeconds)
}

func TestAnalysisService_Start_Gitlab(t *testing.T) {
	f, cleanup := setupAnalysisService(t)
	defer cleanup()
	ctx := context.Background()

	member := testutil.TestMember(t, f.db)
	f.linkAccount(t, member.ID, model.PlatformGitlab, "labuser", "lab@example.com", "glpat-token")

	pid := int64(42)
	started, err := f.svc.Start(ctx, member.ID, &dto.StartAnalysisRequest{
		RepoURL:   "https://gitlab.example.com/group/hello",
		ProjectID: &pid,
		UserName:  "labuser",
	})
	require.NoError(t, err)

	requests := f.ai.received()
	require.Len(t, requests, 1)
	assert.Equal(t, "/analysis/gitlab", requests[0].Path)
	assert.Equal(t, "https://gitlab.example.com", requests[0].Body["baseUrl"])
	assert.Equal(t, "42", requests[0].Body["projectId"])
	assert.Equal(t, "glpat-token", requests[0].Body["privateToken"])

	job, err := f.jobRepo.Get(ctx, started.AnalysisID)
	require.NoError(t, err)
	assert.True(t, job.IsOwn)
	assert.Equal(t, model.PlatformGitlab, job.Platform())
}

func TestAnalysisService_Check(t *testing.T) {
	f, cleanup := setupAnalysisService(t)
	defer cleanup()
	ctx := context.Background()

	owner := testutil.TestMember(t, f.db)
	other := testutil.TestMember(t, f.db)

	t.Run("not exist", func(t *testing.T) {
		_, err := f.svc.Check(ctx, owner.ID, "missing")
		assert.ErrorIs(t, err, ErrAnalysisNotExist)
		_, err = f.svc.GetDoneResult(ctx, owner.ID, "missing")
		assert.ErrorIs(t, err, ErrAnalysisNotExist)
		_, err = f.svc.Save(ctx, owner.ID, "missing", &dto.SaveAnalysisRequest{Title: "x"})
		assert.ErrorIs(t, err, ErrAnalysisNotExist)
	})

	t.Run("requester mismatch", func(t *testing.T) {
		id := f.createDoneJob(t, owner.ID, true, nil)

		_, err := f.svc.Check(ctx, other.ID, id)
		assert.ErrorIs(t, err, ErrRequesterMismatch)
		_, err = f.svc.GetDoneResult(ctx, other.ID, id)
		assert.ErrorIs(t, err, ErrRequesterMismatch)
		_, err = f.svc.Save(ctx, other.ID, id, &dto.SaveAnalysisRequest{Title: "x"})
		assert.ErrorIs(t, err, ErrRequesterMismatch)
	})

	t.Run("mismatch takes precedence over failure", func(t *testing.T) {
		id, err := f.jobRepo.Create(ctx, &model.AnalysisJob{MemberID: owner.ID, RepoPath: "https://github.com/a/b"}, 0)
		require.NoError(t, err)
		_, err = f.jobRepo.Update(ctx, id, model.JobUpdate{Status: statusPtr("201")})
		require.NoError(t, err)

		_, err = f.svc.Check(ctx, other.ID, id)
		assert.ErrorIs(t, err, ErrRequesterMismatch)

		// 记录未被删除
		_, err = f.jobRepo.Get(ctx, id)
		assert.NoError(t, err)
	})

	t.Run("failed job is deleted", func(t *testing.T) {
		id, err := f.jobRepo.Create(ctx, &model.AnalysisJob{MemberID: owner.ID, RepoPath: "https://github.com/a/b"}, 0)
		require.NoError(t, err)
		_, err = f.jobRepo.Update(ctx, id, model.JobUpdate{Status: statusPtr("201")})
		require.NoError(t, err)

		_, err = f.svc.Check(ctx, owner.ID, id)
		assert.ErrorIs(t, err, ErrRetryAnalysis)

		_, err = f.svc.Check(ctx, owner.ID, id)
		assert.ErrorIs(t, err, ErrAnalysisNotExist)
	})
}

func TestAnalysisService_GetDoneResult_NotOwnHidesScore(t *testing.T) {
	f, cleanup := setupAnalysisService(t)
	defer cleanup()
	ctx := context.Background()

	member := testutil.TestMember(t, f.db)
	id := f.createDoneJob(t, member.ID, false, nil)

	detail, err := f.svc.GetDoneResult(ctx, member.ID, id)
	require.NoError(t, err)
	assert.False(t, detail.RepoCard.IsMine)
	assert.Nil(t, detail.CommitScore)
	assert.Equal(t, "# hello", detail.BasicDetail.Readme)
}

func TestAnalysisService_GetDoneResult_Pending(t *testing.T) {
	f, cleanup := setupAnalysisService(t)
	defer cleanup()
	ctx := context.Background()

	member := testutil.TestMember(t, f.db)
	id, err := f.jobRepo.Create(ctx, &model.AnalysisJob{
		MemberID: member.ID,
		RepoPath: "https://github.com/octocat/hello",
		IsOwn:    true,
	}, 0)
	require.NoError(t, err)

	detail, err := f.svc.GetDoneResult(ctx, member.ID, id)
	require.NoError(t, err)
	assert.Empty(t, detail.BasicDetail.Readme)
	assert.Nil(t, detail.CommitScore)
}

func TestAnalysisService_Save_Rejections(t *testing.T) {
	f, cleanup := setupAnalysisService(t)
	defer cleanup()
	ctx := context.Background()

	member := testutil.TestMember(t, f.db)
	f.linkAccount(t, member.ID, model.PlatformGithub, "octocat", "", "gh-token")

	t.Run("not own repo", func(t *testing.T) {
		id := f.createDoneJob(t, member.ID, false, nil)
		_, err := f.svc.Save(ctx, member.ID, id, &dto.SaveAnalysisRequest{Title: "x"})
		assert.ErrorIs(t, err, ErrCannotSaveOthersRepoView)
	})

	t.Run("not done", func(t *testing.T) {
		id, err := f.jobRepo.Create(ctx, &model.AnalysisJob{
			MemberID: member.ID, RepoPath: "https://github.com/octocat/hello", IsOwn: true,
		}, 0)
		require.NoError(t, err)
		_, err = f.jobRepo.Update(ctx, id, model.JobUpdate{Status: statusPtr("150")})
		require.NoError(t, err)

		_, err = f.svc.Save(ctx, member.ID, id, &dto.SaveAnalysisRequest{Title: "x"})
		assert.ErrorIs(t, err, ErrAnalysisNotDone)
	})

	t.Run("concurrent save in progress", func(t *testing.T) {
		id := f.createDoneJob(t, member.ID, true, nil)
		release, err := f.jobRepo.Lock(ctx, id, 0)
		require.NoError(t, err)
		defer release()

		_, err = f.svc.Save(ctx, member.ID, id, &dto.SaveAnalysisRequest{Title: "x"})
		assert.ErrorIs(t, err, ErrAnalysisSaving)
	})

	t.Run("unknown skill keeps job", func(t *testing.T) {
		id := f.createDoneJob(t, member.ID, true, nil)
		_, err := f.svc.Save(ctx, member.ID, id, &dto.SaveAnalysisRequest{Title: "x", SkillIDs: []int64{12345}})
		assert.ErrorIs(t, err, ErrCodeNotFound)

		_, err = f.jobRepo.Get(ctx, id)
		assert.NoError(t, err)
	})

	t.Run("invalid date", func(t *testing.T) {
		id := f.createDoneJob(t, member.ID, true, nil)
		_, err := f.svc.Save(ctx, member.ID, id, &dto.SaveAnalysisRequest{Title: "x", StartDate: "01/02/2024"})
		assert.ErrorIs(t, err, ErrInvalidDate)
	})
}

func TestAnalysisService_Save_ExternalFailureKeepsJob(t *testing.T) {
	f, cleanup := setupAnalysisService(t)
	defer cleanup()
	ctx := context.Background()

	member := testutil.TestMember(t, f.db)
	f.linkAccount(t, member.ID, model.PlatformGithub, "octocat", "", "gh-token")
	f.vcs.commits = []vcs.Commit{{SHA: "c1"}}
	f.vcs.filesErr = &vcs.APIError{Platform: vcs.PlatformGithub, StatusCode: 500, Retryable: true}

	id := f.createDoneJob(t, member.ID, true, nil)
	_, err := f.svc.Save(ctx, member.ID, id, &dto.SaveAnalysisRequest{Title: "x"})
	assert.ErrorIs(t, err, ErrExternalAPI)

	_, err = f.jobRepo.Get(ctx, id)
	assert.NoError(t, err)

	var count int64
	f.db.Model(&model.RepoView{}).Count(&count)
	assert.Zero(t, count)
}

func TestAnalysisService_Save_TransactionFailureKeepsJob(t *testing.T) {
	f, cleanup := setupAnalysisService(t)
	defer cleanup()
	ctx := context.Background()

	member := testutil.TestMember(t, f.db)
	f.linkAccount(t, member.ID, model.PlatformGithub, "octocat", "", "gh-token")
	id := f.createDoneJob(t, member.ID, true, nil)

	// 提交评分写入失败，整个事务回滚
	require.NoError(t, f.db.Migrator().DropTable(&model.CommitScore{}))

	_, err := f.svc.Save(ctx, member.ID, id, &dto.SaveAnalysisRequest{Title: "x"})
	require.Error(t, err)

	_, err = f.jobRepo.Get(ctx, id)
	assert.NoError(t, err)

	var views, repos int64
	f.db.Model(&model.RepoView{}).Count(&views)
	f.db.Model(&model.Repo{}).Count(&repos)
	assert.Zero(t, views)
	assert.Zero(t, repos)
}

func TestAnalysisService_Save_Idempotent(t *testing.T) {
	f, cleanup := setupAnalysisService(t)
	defer cleanup()
	ctx := context.Background()

	member := testutil.TestMember(t, f.db)
	f.linkAccount(t, member.ID, model.PlatformGithub, "octocat", "", "gh-token")
	id := f.createDoneJob(t, member.ID, true, nil)

	// 上一次保存已提交但删除任务失败
	repo := testutil.TestRepo(t, f.db, "https://github.com/octocat/hello")
	existing := testutil.TestRepoView(t, f.db, member.ID, repo.ID, testutil.WithAnalysisID(id))

	saved, err := f.svc.Save(ctx, member.ID, id, &dto.SaveAnalysisRequest{Title: "again"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, saved.RepoViewID)

	var count int64
	f.db.Model(&model.RepoView{}).Count(&count)
	assert.Equal(t, int64(1), count)

	_, err = f.jobRepo.Get(ctx, id)
	assert.ErrorIs(t, err, repository.ErrJobNotFound)
	assert.Empty(t, f.vcs.calledFiles())
}

func TestAnalysisService_Save_UpsertsExistingRepo(t *testing.T) {
	f, cleanup := setupAnalysisService(t)
	defer cleanup()
	ctx := context.Background()

	member := testutil.TestMember(t, f.db)
	f.linkAccount(t, member.ID, model.PlatformGithub, "octocat", "", "gh-token")
	repo := testutil.TestRepo(t, f.db, "https://github.com/octocat/hello")

	id := f.createDoneJob(t, member.ID, true, nil)
	saved, err := f.svc.Save(ctx, member.ID, id, &dto.SaveAnalysisRequest{Title: "x"})
	require.NoError(t, err)

	view, err := repository.NewRepoViewRepository(f.db).GetByID(saved.RepoViewID)
	require.NoError(t, err)
	assert.Equal(t, repo.ID, view.RepoID)
	assert.Equal(t, int64(40), view.Repo.CommitCnt)
	assert.Equal(t, "# hello", view.Repo.ReadmeOrigin)
}

func TestAnalysisService_Save_GitlabFiltersCommits(t *testing.T) {
	f, cleanup := setupAnalysisService(t)
	defer cleanup()
	ctx := context.Background()

	member := testutil.TestMember(t, f.db)
	f.linkAccount(t, member.ID, model.PlatformGitlab, "labuser", "lab@example.com", "glpat-token")
	golang := testutil.TestCode(t, f.db, "Go", model.CodeTypeLanguage)

	f.vcs.commits = []vcs.Commit{
		{SHA: "mine", AuthorEmail: "lab@example.com"},
		{SHA: "theirs", AuthorEmail: "someone@example.com"},
	}
	f.vcs.files["mine"] = []vcs.FileChange{{Path: "main.go", Diff: "+++ b/main.go\n+package main\n+func main() {}\n"}}
	f.vcs.files["theirs"] = []vcs.FileChange{{Path: "main.go", Diff: "+x\n"}}

	pid := int64(42)
	id := f.createDoneJob(t, member.ID, true, &pid)
	saved, err := f.svc.Save(ctx, member.ID, id, &dto.SaveAnalysisRequest{Title: "lab"})
	require.NoError(t, err)

	repoViewRepo := repository.NewRepoViewRepository(f.db)
	locs, err := repoViewRepo.GetLineOfCodes(saved.RepoViewID)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, golang.ID, locs[0].CodeID)
	assert.Equal(t, 2, locs[0].LineCount)

	view, err := repoViewRepo.GetByID(saved.RepoViewID)
	require.NoError(t, err)
	assert.Equal(t, model.PlatformGitlab, view.Repo.Platform)
	require.NotNil(t, view.Repo.GitlabProjectID)
	assert.Equal(t, pid, *view.Repo.GitlabProjectID)
}

func TestAnalysisService_Save_AmbiguousExtensions(t *testing.T) {
	f, cleanup := setupAnalysisService(t)
	defer cleanup()
	ctx := context.Background()

	member := testutil.TestMember(t, f.db)
	f.linkAccount(t, member.ID, model.PlatformGithub, "octocat", "", "gh-token")
	csharp := testutil.TestCode(t, f.db, "C#", model.CodeTypeLanguage)
	php := testutil.TestCode(t, f.db, "PHP", model.CodeTypeLanguage)
	ts := testutil.TestCode(t, f.db, "TypeScript", model.CodeTypeLanguage)

	f.vcs.commits = []vcs.Commit{{SHA: "c1"}, {SHA: "c2"}}
	f.vcs.files["c1"] = []vcs.FileChange{
		{Path: "src/Program.cs", Additions: 9},
		{Path: "web/App.tsx", Additions: 2},
	}
	f.vcs.files["c2"] = []vcs.FileChange{
		{Path: "public/index.php", Additions: 5},
		{Path: "web/api.ts", Additions: 1},
	}

	id := f.createDoneJob(t, member.ID, true, nil)
	saved, err := f.svc.Save(ctx, member.ID, id, &dto.SaveAnalysisRequest{Title: "mixed"})
	require.NoError(t, err)

	locs, err := repository.NewRepoViewRepository(f.db).GetLineOfCodes(saved.RepoViewID)
	require.NoError(t, err)
	require.Len(t, locs, 3)
	assert.Equal(t, csharp.ID, locs[0].CodeID)
	assert.Equal(t, 9, locs[0].LineCount)
	assert.Equal(t, php.ID, locs[1].CodeID)
	assert.Equal(t, 5, locs[1].LineCount)
	assert.Equal(t, ts.ID, locs[2].CodeID)
	assert.Equal(t, 3, locs[2].LineCount)
}
