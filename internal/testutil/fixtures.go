package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/coa_server/internal/model"
)

// TestMember 创建测试会员
func TestMember(t *testing.T, db *gorm.DB, opts ...func(*model.Member)) *model.Member {
	t.Helper()

	member := &model.Member{
		Nickname: fmt.Sprintf("member_%d", time.Now().UnixNano()%100000),
		Email:    fmt.Sprintf("member_%d@example.com", time.Now().UnixNano()),
	}

	for _, opt := range opts {
		opt(member)
	}

	if err := db.Create(member).Error; err != nil {
		t.Fatalf("Failed to create test member: %v", err)
	}

	return member
}

// WithNickname 设置昵称
func WithNickname(nickname string) func(*model.Member) {
	return func(m *model.Member) {
		m.Nickname = nickname
	}
}

// WithLastVisitCheck 设置最后一次查看通知的时间
func WithLastVisitCheck(at time.Time) func(*model.Member) {
	return func(m *model.Member) {
		m.LastVisitCheck = &at
	}
}

// WithJobCode 设置职业标签
func WithJobCode(codeID int64) func(*model.Member) {
	return func(m *model.Member) {
		m.JobCodeID = &codeID
	}
}

// TestAccountLink 创建关联账号，token 为已加密的密文
func TestAccountLink(t *testing.T, db *gorm.DB, memberID int64, platform, nickname, email, encryptedToken string) *model.AccountLink {
	t.Helper()

	link := &model.AccountLink{
		MemberID:       memberID,
		Platform:       platform,
		Nickname:       nickname,
		Email:          email,
		EncryptedToken: encryptedToken,
	}

	if err := db.Create(link).Error; err != nil {
		t.Fatalf("Failed to create test account link: %v", err)
	}

	return link
}

// TestCode 创建技能标签
func TestCode(t *testing.T, db *gorm.DB, name, codeType string) *model.Code {
	t.Helper()

	code := &model.Code{Name: name, Type: codeType}
	if err := db.Create(code).Error; err != nil {
		t.Fatalf("Failed to create test code: %v", err)
	}

	return code
}

// TestRepo 创建仓库记录
func TestRepo(t *testing.T, db *gorm.DB, path string) *model.Repo {
	t.Helper()

	repo := &model.Repo{Path: path, Platform: model.PlatformGithub}
	if err := db.Create(repo).Error; err != nil {
		t.Fatalf("Failed to create test repo: %v", err)
	}

	return repo
}

// TestRepoView 创建 RepoView
func TestRepoView(t *testing.T, db *gorm.DB, memberID, repoID int64, opts ...func(*model.RepoView)) *model.RepoView {
	t.Helper()

	view := &model.RepoView{
		AnalysisID: fmt.Sprintf("analysis-%d", time.Now().UnixNano()),
		RepoID:     repoID,
		MemberID:   memberID,
		Title:      "test-repo",
		Subtitle:   "subtitle",
		Readme:     "# readme",
		Result:     "result",
		CommitCnt:  10,
		MemberCnt:  2,
	}

	for _, opt := range opts {
		opt(view)
	}

	if err := db.Create(view).Error; err != nil {
		t.Fatalf("Failed to create test repo view: %v", err)
	}

	return view
}

// WithTitle 设置 RepoView 标题
func WithTitle(title string) func(*model.RepoView) {
	return func(v *model.RepoView) {
		v.Title = title
	}
}

// WithAnalysisID 设置来源分析任务 ID
func WithAnalysisID(id string) func(*model.RepoView) {
	return func(v *model.RepoView) {
		v.AnalysisID = id
	}
}

// TestAlarm 创建通知
func TestAlarm(t *testing.T, db *gorm.DB, targetID, memberID int64, createdAt time.Time) *model.Alarm {
	t.Helper()

	alarm := &model.Alarm{
		TargetID:  targetID,
		MemberID:  memberID,
		Type:      model.AlarmTypeBookmark,
		CreatedAt: createdAt,
	}
	if err := db.Create(alarm).Error; err != nil {
		t.Fatalf("Failed to create test alarm: %v", err)
	}

	return alarm
}

// TestCommitScore 创建提交评分，各单项与 total 相同
func TestCommitScore(t *testing.T, db *gorm.DB, repoViewID int64, total int16) *model.CommitScore {
	t.Helper()

	score := &model.CommitScore{
		RepoViewID:  repoViewID,
		Readability: total,
		Performance: total,
		Reusability: total,
		Testability: total,
		Exception:   total,
		Total:       total,
	}
	if err := db.Create(score).Error; err != nil {
		t.Fatalf("Failed to create test commit score: %v", err)
	}

	return score
}
