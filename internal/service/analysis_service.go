package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/coa_server/config"
	"github.com/qs3c/coa_server/internal/model"
	"github.com/qs3c/coa_server/internal/model/dto"
	"github.com/qs3c/coa_server/internal/pkg/aiclient"
	"github.com/qs3c/coa_server/internal/pkg/crypto"
	"github.com/qs3c/coa_server/internal/pkg/metrics"
	"github.com/qs3c/coa_server/internal/pkg/vcs"
	"github.com/qs3c/coa_server/internal/repository"
)

var (
	ErrAnalysisNotExist         = errors.New("分析结果不存在")
	ErrRequesterMismatch        = errors.New("分析请求者与当前用户不一致")
	ErrRetryAnalysis            = errors.New("分析失败，请重新发起分析")
	ErrAnalysisNotDone          = errors.New("分析尚未完成")
	ErrCannotSaveOthersRepoView = errors.New("不能保存他人仓库的分析结果")
	ErrAnalysisSaving           = errors.New("分析结果正在保存，请勿重复提交")
)

const dateLayout = "2006-01-02"

type AnalysisService struct {
	memberRepo   *repository.MemberRepository
	linkRepo     *repository.AccountLinkRepository
	codeRepo     *repository.CodeRepository
	repoViewRepo *repository.RepoViewRepository
	jobRepo      *repository.JobRepository
	vcs          vcs.Client
	ai           *aiclient.Client
	cipher       *crypto.TokenCipher
	loc          *LOCAggregator
	cfg          *config.Config
}

func NewAnalysisService(
	memberRepo *repository.MemberRepository,
	linkRepo *repository.AccountLinkRepository,
	codeRepo *repository.CodeRepository,
	repoViewRepo *repository.RepoViewRepository,
	jobRepo *repository.JobRepository,
	vcsClient vcs.Client,
	ai *aiclient.Client,
	cipher *crypto.TokenCipher,
	loc *LOCAggregator,
	cfg *config.Config,
) *AnalysisService {
	return &AnalysisService{
		memberRepo:   memberRepo,
		linkRepo:     linkRepo,
		codeRepo:     codeRepo,
		repoViewRepo: repoViewRepo,
		jobRepo:      jobRepo,
		vcs:          vcsClient,
		ai:           ai,
		cipher:       cipher,
		loc:          loc,
		cfg:          cfg,
	}
}

// Start 发起分析：拉取仓库元数据、写入任务、派发给 AI 服务
func (s *AnalysisService) Start(ctx context.Context, requesterID int64, req *dto.StartAnalysisRequest) (*dto.StartAnalysisResponse, error) {
	member, err := s.memberRepo.GetByID(requesterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	isOwn, err := s.linkRepo.ExistsByMemberAndNickname(member.ID, req.UserName)
	if err != nil {
		return nil, err
	}

	ref, err := vcs.ParseRepoRef(req.RepoURL, req.ProjectID)
	if err != nil {
		return nil, ErrInvalidRepoURL
	}

	token, _, err := s.loadToken(member.ID, string(ref.Platform))
	if err != nil {
		return nil, err
	}

	meta, err := s.vcs.RepoMeta(ctx, ref, token)
	if err != nil {
		metrics.JobsFailed.WithLabelValues(metrics.ReasonExternalAPI).Inc()
		return nil, mapVCSError(err)
	}

	job := &model.AnalysisJob{
		MemberID:  member.ID,
		UserName:  req.UserName,
		RepoPath:  ref.URL,
		ProjectID: req.ProjectID,
		BaseURL:   ref.BaseURL,
		IsOwn:     isOwn,
		Status:    model.JobStatusPending,
		MemberCnt: meta.MemberCount,
		StartDate: formatDate(meta.CreatedAt),
		EndDate:   formatDate(meta.UpdatedAt),
	}
	jobID, err := s.jobRepo.Create(ctx, job, s.cfg.Analysis.JobTTL())
	if err != nil {
		return nil, err
	}

	// 派发失败时任务保留，由 TTL 自然回收
	if err := s.dispatch(ctx, jobID, ref, req.UserName, token); err != nil {
		if errors.Is(err, aiclient.ErrRejected) {
			metrics.JobsFailed.WithLabelValues(metrics.ReasonAIServer).Inc()
			return nil, fmt.Errorf("%w: %w", ErrAIServer, err)
		}
		metrics.JobsFailed.WithLabelValues(metrics.ReasonExternalAPI).Inc()
		return nil, fmt.Errorf("%w: %w", ErrExternalAPI, err)
	}

	metrics.JobsStarted.Inc()
	log.Printf("Analysis %s started: member=%d repo=%s own=%v", jobID, member.ID, ref.URL, isOwn)

	return &dto.StartAnalysisResponse{AnalysisID: jobID}, nil
}

func (s *AnalysisService) dispatch(ctx context.Context, jobID string, ref vcs.RepoRef, userName, token string) error {
	if ref.Platform == vcs.PlatformGitlab {
		return s.ai.DispatchGitlab(ctx, &aiclient.GitlabRequest{
			AnalysisID:   jobID,
			BaseURL:      ref.BaseURL,
			ProjectID:    strconv.FormatInt(ref.ProjectID, 10),
			UserName:     userName,
			PrivateToken: token,
		})
	}
	return s.ai.DispatchGithub(ctx, &aiclient.GithubRequest{
		AnalysisID:  jobID,
		RepoPath:    ref.FullName(),
		UserName:    userName,
		AccessToken: token,
	})
}

// Check 轮询进度，任务失败时删除并要求重新发起
func (s *AnalysisService) Check(ctx context.Context, requesterID int64, jobID string) (*dto.AnalysisCheckResponse, error) {
	job, err := s.getOwnedJob(ctx, requesterID, jobID)
	if err != nil {
		return nil, err
	}

	if job.Status.IsFailed() {
		if err := s.jobRepo.Delete(ctx, jobID); err != nil {
			log.Printf("Failed to delete failed analysis %s: %v", jobID, err)
		}
		metrics.JobsFailed.WithLabelValues(metrics.ReasonRetry).Inc()
		return nil, ErrRetryAnalysis
	}

	return &dto.AnalysisCheckResponse{
		AnalysisID: job.ID,
		Percentage: job.Percentage,
		Status:     string(job.Status),
	}, nil
}

// GetDoneResult 返回当前已有的结果，不校验是否完成
func (s *AnalysisService) GetDoneResult(ctx context.Context, requesterID int64, jobID string) (*dto.RepoDetailResponse, error) {
	job, err := s.getOwnedJob(ctx, requesterID, jobID)
	if err != nil {
		return nil, err
	}

	result := job.Result
	if result == nil {
		result = &model.AnalysisResult{}
	}

	resp := &dto.RepoDetailResponse{
		RepoCard: dto.RepoCard{
			MemberNickname: job.UserName,
			RepoViewPath:   job.RepoPath,
			RepoViewTitle:  repoTitle(job.RepoPath),
			RepoMemberCnt:  job.MemberCnt,
			RepoStartDate:  job.StartDate,
			RepoEndDate:    job.EndDate,
			IsMine:         job.IsOwn,
			SkillList:      []dto.SkillItem{},
		},
		BasicDetail: dto.BasicDetail{
			Readme:            result.Readme,
			Result:            result.RepoViewResult,
			TotalCommitCnt:    result.TotalCommitCnt,
			PersonalCommitCnt: result.PersonalCommitCnt,
			MemberCnt:         job.MemberCnt,
		},
	}

	// 非本人仓库不返回提交评分
	if job.IsOwn && result.CommitScore != nil {
		cs := result.CommitScore
		resp.CommitScore = &dto.CommitScore{
			Readability:  cs.Readability,
			Performance:  cs.Performance,
			Reusability:  cs.Reusability,
			Testability:  cs.Testability,
			Exception:    cs.Exception,
			Total:        cs.Total,
			ScoreComment: cs.ScoreComment,
		}
	}
	return resp, nil
}

// Save 把已完成的分析持久化为 RepoView，成功后删除任务
// 网络请求在事务外完成，事务只包含数据库写入
func (s *AnalysisService) Save(ctx context.Context, requesterID int64, jobID string, req *dto.SaveAnalysisRequest) (*dto.SaveAnalysisResponse, error) {
	job, err := s.getOwnedJob(ctx, requesterID, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsOwn {
		return nil, ErrCannotSaveOthersRepoView
	}
	if !job.Status.IsDone() {
		return nil, ErrAnalysisNotDone
	}

	release, err := s.jobRepo.Lock(ctx, jobID, s.cfg.Analysis.SaveLockTTL())
	if err != nil {
		if errors.Is(err, repository.ErrJobLocked) {
			return nil, ErrAnalysisSaving
		}
		return nil, err
	}
	defer release()

	// 已保存过则直接返回
	existing, err := s.repoViewRepo.GetByAnalysisID(jobID)
	if err == nil {
		s.deleteJob(ctx, jobID)
		return &dto.SaveAnalysisResponse{RepoViewID: existing.ID}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}

	skills, err := s.resolveSkills(req.SkillIDs)
	if err != nil {
		return nil, err
	}

	ref, err := vcs.ParseRepoRef(job.RepoPath, job.ProjectID)
	if err != nil {
		return nil, ErrInvalidRepoURL
	}
	token, link, err := s.loadToken(requesterID, job.Platform())
	if err != nil {
		return nil, err
	}

	counts, err := s.loc.Aggregate(ctx, LOCInput{
		Ref:         ref,
		Token:       token,
		AuthorEmail: link.Email,
		Commits:     s.vcs.Commits(ctx, ref, token),
	})
	if err != nil {
		metrics.JobsFailed.WithLabelValues(metrics.ReasonExternalAPI).Inc()
		return nil, mapVCSError(err)
	}
	locs, err := s.lineOfCodes(counts)
	if err != nil {
		return nil, err
	}

	result := job.Result
	if result == nil {
		result = &model.AnalysisResult{}
	}

	view := &model.RepoView{
		AnalysisID: jobID,
		MemberID:   requesterID,
		Title:      req.Title,
		Subtitle:   req.Subtitle,
		Readme:     result.Readme,
		Result:     result.RepoViewResult,
		CommitCnt:  result.PersonalCommitCnt,
		MemberCnt:  req.MemberCnt,
		StartDate:  startDate,
		EndDate:    endDate,
	}

	err = s.repoViewRepo.Transaction(func(tx *repository.RepoViewRepository) error {
		repo := &model.Repo{
			Path:            job.RepoPath,
			Platform:        job.Platform(),
			GitlabProjectID: job.ProjectID,
			ReadmeOrigin:    result.Readme,
			CommitCnt:       result.TotalCommitCnt,
		}
		if err := tx.UpsertRepo(repo); err != nil {
			return err
		}

		view.RepoID = repo.ID
		if err := tx.Create(view); err != nil {
			return err
		}

		viewSkills := make([]*model.RepoViewSkill, 0, len(skills))
		for _, code := range skills {
			viewSkills = append(viewSkills, &model.RepoViewSkill{RepoViewID: view.ID, CodeID: code.ID})
		}
		if err := tx.CreateSkills(viewSkills); err != nil {
			return err
		}

		for _, loc := range locs {
			loc.RepoViewID = view.ID
		}
		if err := tx.CreateLineOfCodes(locs); err != nil {
			return err
		}

		if cs := result.CommitScore; cs != nil {
			return tx.CreateCommitScore(&model.CommitScore{
				RepoViewID:   view.ID,
				Readability:  cs.Readability,
				Performance:  cs.Performance,
				Reusability:  cs.Reusability,
				Testability:  cs.Testability,
				Exception:    cs.Exception,
				Total:        cs.Total,
				ScoreComment: cs.ScoreComment,
			})
		}
		return nil
	})
	if err != nil {
		// 任务保留，客户端可以重试
		metrics.JobsFailed.WithLabelValues(metrics.ReasonSave).Inc()
		return nil, fmt.Errorf("failed to save analysis %s: %w", jobID, err)
	}

	s.deleteJob(ctx, jobID)
	metrics.JobsSaved.Inc()
	log.Printf("Analysis %s saved as repo view %d", jobID, view.ID)

	return &dto.SaveAnalysisResponse{RepoViewID: view.ID}, nil
}

// getOwnedJob 读取任务快照并校验请求者
func (s *AnalysisService) getOwnedJob(ctx context.Context, requesterID int64, jobID string) (*model.AnalysisJob, error) {
	job, err := s.jobRepo.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, ErrAnalysisNotExist
		}
		return nil, err
	}
	if job.MemberID != requesterID {
		return nil, ErrRequesterMismatch
	}
	return job, nil
}

// loadToken 读取并解密会员在指定平台的 access token
func (s *AnalysisService) loadToken(memberID int64, platform string) (string, *model.AccountLink, error) {
	link, err := s.linkRepo.GetByMemberAndPlatform(memberID, platform)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrAccountLinkNotExist
		}
		return "", nil, err
	}
	token, err := s.cipher.Decrypt(link.EncryptedToken)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decrypt %s token of member %d: %w", platform, memberID, err)
	}
	return token, link, nil
}

func (s *AnalysisService) resolveSkills(ids []int64) ([]*model.Code, error) {
	unique := dedupeIDs(ids)
	codes, err := s.codeRepo.GetByIDs(unique)
	if err != nil {
		return nil, err
	}
	if len(codes) != len(unique) {
		return nil, ErrCodeNotFound
	}
	return codes, nil
}

// lineOfCodes 只保留标签库中存在的语言，按名称排序保证写入顺序稳定
func (s *AnalysisService) lineOfCodes(counts map[string]int) ([]*model.LineOfCode, error) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	codes, err := s.codeRepo.GetByNames(names)
	if err != nil {
		return nil, err
	}

	locs := make([]*model.LineOfCode, 0, len(codes))
	for _, name := range names {
		code, ok := codes[name]
		if !ok {
			continue
		}
		locs = append(locs, &model.LineOfCode{CodeID: code.ID, LineCount: counts[name]})
	}
	return locs, nil
}

func (s *AnalysisService) deleteJob(ctx context.Context, jobID string) {
	if err := s.jobRepo.Delete(ctx, jobID); err != nil {
		log.Printf("Failed to delete analysis job %s: %v", jobID, err)
	}
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// repoTitle 取仓库地址最后一段作为默认标题
func repoTitle(repoPath string) string {
	trimmed := strings.TrimSuffix(repoPath, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, ErrInvalidDate
	}
	return &t, nil
}
