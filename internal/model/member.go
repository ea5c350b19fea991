package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PlatformGithub = "github"
	PlatformGitlab = "gitlab"
)

type Member struct {
	ID             int64      `gorm:"primaryKey" json:"id"`
	UUID           string     `gorm:"column:uuid;size:36;uniqueIndex;not null" json:"uuid"`
	Nickname       string     `gorm:"size:50;not null" json:"nickname"`
	Email          string     `gorm:"size:100" json:"email"`
	ImageURL       string     `gorm:"size:500" json:"image_url"`
	Introduction   string     `gorm:"type:text" json:"introduction"`
	JobCodeID      *int64     `gorm:"index" json:"job_code_id,omitempty"` // 职业标签，Code.Type 为 job
	LastVisitCheck *time.Time `json:"last_visit_check,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	JobCode *Code `gorm:"foreignKey:JobCodeID" json:"job_code,omitempty"`
}

func (Member) TableName() string {
	return "members"
}

// BeforeCreate 未指定时生成对外暴露的 UUID
func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.UUID == "" {
		m.UUID = uuid.NewString()
	}
	return nil
}

// MemberSkill 会员自己填写的技能
type MemberSkill struct {
	ID       int64 `gorm:"primaryKey" json:"id"`
	MemberID int64 `gorm:"not null;uniqueIndex:idx_member_skill" json:"member_id"`
	CodeID   int64 `gorm:"not null;uniqueIndex:idx_member_skill" json:"code_id"`

	Code *Code `gorm:"foreignKey:CodeID" json:"code,omitempty"`
}

func (MemberSkill) TableName() string {
	return "member_skills"
}

// AccountLink 会员关联的 GitHub / GitLab 账号，每个平台最多一条
type AccountLink struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	MemberID       int64     `gorm:"not null;uniqueIndex:idx_member_platform" json:"member_id"`
	Platform       string    `gorm:"size:20;not null;uniqueIndex:idx_member_platform" json:"platform"`
	Nickname       string    `gorm:"size:100;not null;index" json:"nickname"`
	Email          string    `gorm:"size:100" json:"email"`
	EncryptedToken string    `gorm:"type:text" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (AccountLink) TableName() string {
	return "account_links"
}
