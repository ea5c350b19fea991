package dto

// MemberBrief 会员简要信息
type MemberBrief struct {
	UUID     string `json:"uuid"`
	Nickname string `json:"nickname"`
	ImageURL string `json:"image_url,omitempty"`
}

// AlarmListRequest 通知列表分页参数
type AlarmListRequest struct {
	Page     int `form:"page,default=1" binding:"min=1"`
	PageSize int `form:"page_size,default=20" binding:"min=1,max=100"`
}

type AlarmItem struct {
	ID         int64       `json:"id"`
	Type       string      `json:"type"`
	RepoViewID *int64      `json:"repo_view_id,omitempty"`
	Member     MemberBrief `json:"member"`
	CreatedAt  string      `json:"created_at"`
}

type NewAlarmCountResponse struct {
	Count int64 `json:"count"`
}

type BookmarkToggleResponse struct {
	Bookmarked bool `json:"bookmarked"`
}

// MemberInfoResponse 会员资料
type MemberInfoResponse struct {
	UUID         string            `json:"uuid"`
	Nickname     string            `json:"nickname"`
	ImageURL     string            `json:"image_url,omitempty"`
	Introduction string            `json:"introduction"`
	Job          *SkillItem        `json:"job,omitempty"`
	Skills       []SkillItem       `json:"skills"`
	AccountLinks []AccountLinkItem `json:"account_links"`
}

// EditMemberRequest 整体替换自我介绍、职业和技能
type EditMemberRequest struct {
	Introduction string  `json:"introduction" binding:"max=2000"`
	JobCodeID    *int64  `json:"job_code_id"`
	SkillIDs     []int64 `json:"skill_ids" binding:"max=30"`
}

// ScoreAverage 各项提交评分的平均值
type ScoreAverage struct {
	Readability float64 `json:"readability"`
	Performance float64 `json:"performance"`
	Reusability float64 `json:"reusability"`
	Testability float64 `json:"testability"`
	Exception   float64 `json:"exception"`
	Total       float64 `json:"total"`
}

type JobScoreAverage struct {
	JobCodeID *int64       `json:"job_code_id,omitempty"`
	JobName   string       `json:"job_name,omitempty"`
	ScoreCnt  int64        `json:"score_cnt"`
	Average   ScoreAverage `json:"average"`
}

type RepoScoreItem struct {
	RepoViewID       int64       `json:"repo_view_id"`
	RepoViewTitle    string      `json:"repo_view_title"`
	RepoViewSubtitle string      `json:"repo_view_subtitle,omitempty"`
	RepoStartDate    string      `json:"repo_start_date,omitempty"`
	RepoEndDate      string      `json:"repo_end_date,omitempty"`
	CommitScore      CommitScore `json:"commit_score"`
}

// MemberAnalysisResponse 全站、各职业与本人的评分对比
// MyScoreAverage 在本人没有评分时为空
type MemberAnalysisResponse struct {
	All            ScoreAverage      `json:"all"`
	Jobs           []JobScoreAverage `json:"jobs"`
	MyScoreAverage *ScoreAverage     `json:"my_score_average"`
	Repos          []RepoScoreItem   `json:"repos"`
}

type SkillCountItem struct {
	CodeID   int64  `json:"code_id"`
	CodeName string `json:"code_name"`
	Cnt      int64  `json:"cnt"`
}
