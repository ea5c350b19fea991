package model

import (
	"strconv"
)

// JobStatus 三位数字状态码
// "000" 等待中，1xx 处理中，"200" 完成，大于 200 一律视为失败
type JobStatus string

const (
	JobStatusPending    JobStatus = "000"
	JobStatusProcessing JobStatus = "100"
	JobStatusDone       JobStatus = "200"
)

// Code 返回数值形式，格式非法时返回 -1
func (s JobStatus) Code() int {
	if len(s) != 3 {
		return -1
	}
	n, err := strconv.Atoi(string(s))
	if err != nil || n < 0 {
		return -1
	}
	return n
}

func (s JobStatus) Valid() bool {
	return s.Code() >= 0
}

func (s JobStatus) IsDone() bool {
	return s.Code() == 200
}

func (s JobStatus) IsFailed() bool {
	return s.Code() > 200
}

// IsTerminal 完成或失败后不再接受外部更新
func (s JobStatus) IsTerminal() bool {
	return s.Code() >= 200
}

// AnalysisJob 保存在 Redis 中的临时分析任务，过期后自动回收
type AnalysisJob struct {
	ID            string
	MemberID      int64
	UserName      string
	RepoPath      string
	ProjectID     *int64 // 为空表示 GitHub 仓库
	BaseURL       string
	IsOwn         bool
	Status        JobStatus
	Percentage    int
	MemberCnt     int
	StartDate     string
	EndDate       string
	Result        *AnalysisResult
	ExpireSeconds int64
}

func (j *AnalysisJob) Platform() string {
	if j.ProjectID != nil {
		return PlatformGitlab
	}
	return PlatformGithub
}

// AnalysisResult AI 服务逐步写入的分析结果
type AnalysisResult struct {
	Readme            string             `json:"readme,omitempty"`
	RepoViewResult    string             `json:"repoViewResult,omitempty"`
	TotalCommitCnt    int64              `json:"repoViewTotalCommitCnt,omitempty"`
	PersonalCommitCnt int64              `json:"repoViewCommitCnt,omitempty"`
	CommitScore       *CommitScoreResult `json:"commitScore,omitempty"`
}

type CommitScoreResult struct {
	Readability  int16  `json:"readability"`
	Performance  int16  `json:"performance"`
	Reusability  int16  `json:"reusability"`
	Testability  int16  `json:"testability"`
	Exception    int16  `json:"exception"`
	Total        int16  `json:"total"`
	ScoreComment string `json:"scoreComment"`
}

// Merge 非空字段覆盖已有结果
func (r *AnalysisResult) Merge(in *AnalysisResult) {
	if in == nil {
		return
	}
	if in.Readme != "" {
		r.Readme = in.Readme
	}
	if in.RepoViewResult != "" {
		r.RepoViewResult = in.RepoViewResult
	}
	if in.TotalCommitCnt != 0 {
		r.TotalCommitCnt = in.TotalCommitCnt
	}
	if in.PersonalCommitCnt != 0 {
		r.PersonalCommitCnt = in.PersonalCommitCnt
	}
	if in.CommitScore != nil {
		cs := *in.CommitScore
		r.CommitScore = &cs
	}
}

// JobUpdate AI 服务回调带来的局部更新，nil 字段保持不变
type JobUpdate struct {
	Status     *JobStatus
	Percentage *int
	Result     *AnalysisResult
}
