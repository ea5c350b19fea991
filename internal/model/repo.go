package model

import (
	"time"
)

type Repo struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	Path            string    `gorm:"size:500;uniqueIndex;not null" json:"path"`
	Platform        string    `gorm:"size:20;not null" json:"platform"`
	GitlabProjectID *int64    `json:"gitlab_project_id,omitempty"`
	ReadmeOrigin    string    `gorm:"type:text" json:"readme_origin"`
	CommitCnt       int64     `json:"commit_cnt"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Repo) TableName() string {
	return "repos"
}

type RepoView struct {
	ID         int64      `gorm:"primaryKey" json:"id"`
	AnalysisID string     `gorm:"size:36;uniqueIndex;not null" json:"analysis_id"`
	RepoID     int64      `gorm:"not null;index" json:"repo_id"`
	MemberID   int64      `gorm:"not null;index" json:"member_id"`
	Title      string     `gorm:"size:200" json:"title"`
	Subtitle   string     `gorm:"size:255" json:"subtitle"`
	Readme     string     `gorm:"type:text" json:"readme"`
	Result     string     `gorm:"type:text" json:"result"`
	CommitCnt  int64      `json:"commit_cnt"`
	MemberCnt  int        `json:"member_cnt"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// 关联
	Repo   *Repo   `gorm:"foreignKey:RepoID" json:"repo,omitempty"`
	Member *Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

func (RepoView) TableName() string {
	return "repo_views"
}

type RepoViewSkill struct {
	ID         int64 `gorm:"primaryKey" json:"id"`
	RepoViewID int64 `gorm:"not null;index" json:"repo_view_id"`
	CodeID     int64 `gorm:"not null" json:"code_id"`

	Code *Code `gorm:"foreignKey:CodeID" json:"code,omitempty"`
}

func (RepoViewSkill) TableName() string {
	return "repo_view_skills"
}

// LineOfCode 某个 RepoView 中单一语言的新增行数
type LineOfCode struct {
	ID         int64 `gorm:"primaryKey" json:"id"`
	RepoViewID int64 `gorm:"not null;index" json:"repo_view_id"`
	CodeID     int64 `gorm:"not null" json:"code_id"`
	LineCount  int   `gorm:"not null" json:"line_count"`

	Code *Code `gorm:"foreignKey:CodeID" json:"code,omitempty"`
}

func (LineOfCode) TableName() string {
	return "line_of_codes"
}

type CommitScore struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	RepoViewID   int64     `gorm:"not null;uniqueIndex" json:"repo_view_id"`
	Readability  int16     `json:"readability"`
	Performance  int16     `json:"performance"`
	Reusability  int16     `json:"reusability"`
	Testability  int16     `json:"testability"`
	Exception    int16     `json:"exception"`
	Total        int16     `json:"total"`
	ScoreComment string    `gorm:"type:text" json:"score_comment"`
	CreatedAt    time.Time `json:"created_at"`
}

func (CommitScore) TableName() string {
	return "commit_scores"
}

// Comment README 中某一段文字上的批注
type Comment struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	RepoViewID   int64     `gorm:"not null;index" json:"repo_view_id"`
	StartIndex   int       `json:"start_index"`
	EndIndex     int       `json:"end_index"`
	TargetString string    `gorm:"type:text" json:"target_string"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Comment) TableName() string {
	return "comments"
}
