package model

import (
	"time"
)

const (
	AlarmTypeRepoView = "repo_view"
	AlarmTypeBookmark = "bookmark"
)

// Alarm 发给 TargetID 的通知，MemberID 为触发者
type Alarm struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	TargetID   int64     `gorm:"not null;index" json:"target_id"`
	MemberID   int64     `gorm:"not null" json:"member_id"`
	Type       string    `gorm:"size:20;not null" json:"type"`
	RepoViewID *int64    `json:"repo_view_id,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`

	Member *Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

func (Alarm) TableName() string {
	return "alarms"
}

type Bookmark struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	MemberID  int64     `gorm:"not null;uniqueIndex:idx_bookmark_pair" json:"member_id"`
	TargetID  int64     `gorm:"not null;uniqueIndex:idx_bookmark_pair" json:"target_id"`
	CreatedAt time.Time `json:"created_at"`

	Target *Member `gorm:"foreignKey:TargetID" json:"target,omitempty"`
}

func (Bookmark) TableName() string {
	return "bookmarks"
}

// AllModels 需要迁移的全部表
func AllModels() []interface{} {
	return []interface{}{
		&Member{},
		&MemberSkill{},
		&AccountLink{},
		&Code{},
		&Repo{},
		&RepoView{},
		&RepoViewSkill{},
		&LineOfCode{},
		&CommitScore{},
		&Comment{},
		&Alarm{},
		&Bookmark{},
	}
}
