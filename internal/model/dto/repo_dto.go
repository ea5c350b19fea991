package dto

import "github.com/qs3c/coa_server/internal/model"

// StartAnalysisRequest 发起分析请求，ProjectID 为空表示 GitHub 仓库
type StartAnalysisRequest struct {
	RepoURL   string `json:"repo_url" binding:"required,url,max=500"`
	ProjectID *int64 `json:"project_id,omitempty" binding:"omitempty,min=1"`
	UserName  string `json:"user_name" binding:"required,max=100"`
}

type StartAnalysisResponse struct {
	AnalysisID string `json:"analysis_id"`
}

// AnalysisCheckResponse 轮询分析进度
type AnalysisCheckResponse struct {
	AnalysisID string `json:"analysis_id"`
	Percentage int    `json:"percentage"`
	Status     string `json:"status"`
}

type SkillItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// RepoCard 仓库卡片
type RepoCard struct {
	RepoViewID       int64       `json:"repo_view_id,omitempty"`
	MemberUUID       string      `json:"member_uuid,omitempty"`
	MemberNickname   string      `json:"member_nickname"`
	MemberImageURL   string      `json:"member_image_url,omitempty"`
	RepoViewPath     string      `json:"repo_view_path"`
	RepoViewTitle    string      `json:"repo_view_title"`
	RepoViewSubtitle string      `json:"repo_view_subtitle,omitempty"`
	RepoMemberCnt    int         `json:"repo_member_cnt"`
	RepoStartDate    string      `json:"repo_start_date"`
	RepoEndDate      string      `json:"repo_end_date"`
	IsMine           bool        `json:"is_mine"`
	SkillList        []SkillItem `json:"skill_list"`
}

type CommentItem struct {
	StartIndex   int    `json:"start_index" binding:"min=0"`
	EndIndex     int    `json:"end_index" binding:"min=0"`
	TargetString string `json:"target_string"`
	Content      string `json:"content" binding:"required,max=2000"`
}

type LineCountItem struct {
	CodeName string `json:"code_name"`
	LineCnt  int    `json:"line_cnt"`
}

// BasicDetail README、分析总结和提交统计
type BasicDetail struct {
	Readme            string          `json:"readme"`
	Result            string          `json:"result"`
	TotalCommitCnt    int64           `json:"total_commit_cnt"`
	PersonalCommitCnt int64           `json:"personal_commit_cnt"`
	MemberCnt         int             `json:"member_cnt"`
	CommentList       []CommentItem   `json:"comment_list,omitempty"`
	LineCntList       []LineCountItem `json:"line_cnt_list,omitempty"`
}

type CommitScore struct {
	Readability  int16  `json:"readability"`
	Performance  int16  `json:"performance"`
	Reusability  int16  `json:"reusability"`
	Testability  int16  `json:"testability"`
	Exception    int16  `json:"exception"`
	Total        int16  `json:"total"`
	ScoreComment string `json:"score_comment"`
}

// RepoDetailResponse 仓库详情，CommitScore 只对仓库本人返回
type RepoDetailResponse struct {
	RepoCard    RepoCard     `json:"repo_card"`
	BasicDetail BasicDetail  `json:"basic_detail"`
	CommitScore *CommitScore `json:"commit_score,omitempty"`
}

// SaveAnalysisRequest 保存分析结果时用户可编辑的字段，日期格式 2006-01-02
type SaveAnalysisRequest struct {
	Title     string  `json:"title" binding:"required,max=200"`
	Subtitle  string  `json:"subtitle" binding:"max=255"`
	MemberCnt int     `json:"member_cnt" binding:"min=0"`
	SkillIDs  []int64 `json:"skill_ids" binding:"max=20"`
	StartDate string  `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string  `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

type SaveAnalysisResponse struct {
	RepoViewID int64 `json:"repo_view_id"`
}

type EditReadmeRequest struct {
	Readme string `json:"readme"`
}

type EditCommentsRequest struct {
	Comments []CommentItem `json:"comments" binding:"dive"`
}

// EditRepoCardRequest 字段与保存时一致，技能标签整体替换
type EditRepoCardRequest = SaveAnalysisRequest

// ProgressUpdateRequest AI 服务回写进度
type ProgressUpdateRequest struct {
	Status     string                `json:"status" binding:"required,len=3,numeric"`
	Percentage *int                  `json:"percentage,omitempty"`
	Result     *model.AnalysisResult `json:"result,omitempty"`
}

type ProgressUpdateResponse struct {
	AnalysisID string `json:"analysis_id"`
	Status     string `json:"status"`
	Percentage int    `json:"percentage"`
}
