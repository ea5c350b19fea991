package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/coa_server/internal/model"
	"github.com/qs3c/coa_server/internal/model/dto"
	"github.com/qs3c/coa_server/internal/repository"
	"github.com/qs3c/coa_server/internal/testutil"
)

func setupRepoViewService(t *testing.T) (*RepoViewService, *gorm.DB, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	svc := NewRepoViewService(
		repository.NewRepoViewRepository(db),
		repository.NewMemberRepository(db),
		repository.NewCodeRepository(db),
		repository.NewAlarmRepository(db),
	)
	return svc, db, func() { testutil.CleanupTestDB(t, db) }
}

// seedRepoView 创建一个带标签、行数和评分的 RepoView
func seedRepoView(t *testing.T, db *gorm.DB, ownerID int64) *model.RepoView {
	t.Helper()

	repo := testutil.TestRepo(t, db, "https://github.com/octocat/hello")
	repo.CommitCnt = 40
	require.NoError(t, db.Save(repo).Error)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	view := testutil.TestRepoView(t, db, ownerID, repo.ID, func(v *model.RepoView) {
		v.StartDate = &start
	})

	golang := testutil.TestCode(t, db, "Go", model.CodeTypeLanguage)
	python := testutil.TestCode(t, db, "Python", model.CodeTypeLanguage)

	require.NoError(t, db.Create(&model.RepoViewSkill{RepoViewID: view.ID, CodeID: golang.ID}).Error)
	require.NoError(t, db.Create(&[]model.LineOfCode{
		{RepoViewID: view.ID, CodeID: python.ID, LineCount: 5},
		{RepoViewID: view.ID, CodeID: golang.ID, LineCount: 30},
	}).Error)
	require.NoError(t, db.Create(&model.CommitScore{RepoViewID: view.ID, Total: 77, ScoreComment: "solid"}).Error)
	return view
}

func TestRepoViewService_Read_Owner(t *testing.T) {
	svc, db, cleanup := setupRepoViewService(t)
	defer cleanup()

	owner := testutil.TestMember(t, db, testutil.WithNickname("owner"))
	view := seedRepoView(t, db, owner.ID)

	detail, err := svc.Read(owner.ID, view.ID)
	require.NoError(t, err)

	assert.True(t, detail.RepoCard.IsMine)
	assert.Equal(t, view.ID, detail.RepoCard.RepoViewID)
	assert.Equal(t, owner.UUID, detail.RepoCard.MemberUUID)
	assert.Equal(t, "owner", detail.RepoCard.MemberNickname)
	assert.Equal(t, "https://github.com/octocat/hello", detail.RepoCard.RepoViewPath)
	assert.Equal(t, "2024-01-01", detail.RepoCard.RepoStartDate)
	assert.Empty(t, detail.RepoCard.RepoEndDate)
	require.Len(t, detail.RepoCard.SkillList, 1)
	assert.Equal(t, "Go", detail.RepoCard.SkillList[0].Name)

	assert.Equal(t, int64(40), detail.BasicDetail.TotalCommitCnt)
	require.Len(t, detail.BasicDetail.LineCntList, 2)
	assert.Equal(t, "Go", detail.BasicDetail.LineCntList[0].CodeName)
	assert.Equal(t, 30, detail.BasicDetail.LineCntList[0].LineCnt)

	require.NotNil(t, detail.CommitScore)
	assert.Equal(t, int16(77), detail.CommitScore.Total)

	// 本人查看不产生通知
	var alarms int64
	db.Model(&model.Alarm{}).Count(&alarms)
	assert.Zero(t, alarms)
}

func TestRepoViewService_Read_OtherMember(t *testing.T) {
	svc, db, cleanup := setupRepoViewService(t)
	defer cleanup()

	owner := testutil.TestMember(t, db)
	visitor := testutil.TestMember(t, db)
	view := seedRepoView(t, db, owner.ID)

	detail, err := svc.Read(visitor.ID, view.ID)
	require.NoError(t, err)
	assert.False(t, detail.RepoCard.IsMine)
	assert.Nil(t, detail.CommitScore)

	var alarms []model.Alarm
	require.NoError(t, db.Find(&alarms).Error)
	require.Len(t, alarms, 1)
	assert.Equal(t, owner.ID, alarms[0].TargetID)
	assert.Equal(t, visitor.ID, alarms[0].MemberID)
	assert.Equal(t, model.AlarmTypeRepoView, alarms[0].Type)
	require.NotNil(t, alarms[0].RepoViewID)
	assert.Equal(t, view.ID, *alarms[0].RepoViewID)
}

func TestRepoViewService_Read_OwnerWithoutScore(t *testing.T) {
	svc, db, cleanup := setupRepoViewService(t)
	defer cleanup()

	owner := testutil.TestMember(t, db)
	repo := testutil.TestRepo(t, db, "https://github.com/octocat/empty")
	view := testutil.TestRepoView(t, db, owner.ID, repo.ID)

	detail, err := svc.Read(owner.ID, view.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.CommitScore)
	assert.Empty(t, detail.BasicDetail.LineCntList)
}

func TestRepoViewService_Read_NotFound(t *testing.T) {
	svc, db, cleanup := setupRepoViewService(t)
	defer cleanup()

	member := testutil.TestMember(t, db)
	_, err := svc.Read(member.ID, 999)
	assert.ErrorIs(t, err, ErrRepoViewNotFound)
}

func TestRepoViewService_EditReadme(t *testing.T) {
	svc, db, cleanup := setupRepoViewService(t)
	defer cleanup()

	owner := testutil.TestMember(t, db)
	other := testutil.TestMember(t, db)
	view := seedRepoView(t, db, owner.ID)

	require.NoError(t, svc.EditReadme(owner.ID, view.ID, "# edited"))

	var stored model.RepoView
	require.NoError(t, db.First(&stored, view.ID).Error)
	assert.Equal(t, "# edited", stored.Readme)

	err := svc.EditReadme(other.ID, view.ID, "# hacked")
	assert.ErrorIs(t, err, ErrNotOwnRepoView)

	err = svc.EditReadme(owner.ID, 999, "x")
	assert.ErrorIs(t, err, ErrRepoViewNotFound)
}

func TestRepoViewService_EditComments(t *testing.T) {
	svc, db, cleanup := setupRepoViewService(t)
	defer cleanup()

	owner := testutil.TestMember(t, db)
	view := seedRepoView(t, db, owner.ID)

	err := svc.EditComments(owner.ID, view.ID, []dto.CommentItem{
		{StartIndex: 10, EndIndex: 15, TargetString: "world", Content: "second"},
		{StartIndex: 0, EndIndex: 5, TargetString: "hello", Content: "first"},
	})
	require.NoError(t, err)

	detail, err := svc.Read(owner.ID, view.ID)
	require.NoError(t, err)
	require.Len(t, detail.BasicDetail.CommentList, 2)
	assert.Equal(t, "first", detail.BasicDetail.CommentList[0].Content)
	assert.Equal(t, "second", detail.BasicDetail.CommentList[1].Content)

	// 整体替换
	require.NoError(t, svc.EditComments(owner.ID, view.ID, []dto.CommentItem{{Content: "only"}}))
	detail, err = svc.Read(owner.ID, view.ID)
	require.NoError(t, err)
	require.Len(t, detail.BasicDetail.CommentList, 1)
	assert.Equal(t, "only", detail.BasicDetail.CommentList[0].Content)

	require.NoError(t, svc.EditComments(owner.ID, view.ID, nil))
	detail, err = svc.Read(owner.ID, view.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.BasicDetail.CommentList)
}

func TestRepoViewService_EditRepoCard(t *testing.T) {
	svc, db, cleanup := setupRepoViewService(t)
	defer cleanup()

	owner := testutil.TestMember(t, db)
	other := testutil.TestMember(t, db)
	view := seedRepoView(t, db, owner.ID)
	backend := testutil.TestCode(t, db, "Backend", model.CodeTypeJob)
	gin := testutil.TestCode(t, db, "Gin", model.CodeTypeFramework)

	err := svc.EditRepoCard(owner.ID, view.ID, &dto.EditRepoCardRequest{
		Title:     "New title",
		Subtitle:  "New subtitle",
		MemberCnt: 5,
		SkillIDs:  []int64{backend.ID, gin.ID, gin.ID},
		StartDate: "2023-06-01",
		EndDate:   "2023-12-31",
	})
	require.NoError(t, err)

	detail, err := svc.Read(owner.ID, view.ID)
	require.NoError(t, err)
	assert.Equal(t, "New title", detail.RepoCard.RepoViewTitle)
	assert.Equal(t, "New subtitle", detail.RepoCard.RepoViewSubtitle)
	assert.Equal(t, 5, detail.RepoCard.RepoMemberCnt)
	assert.Equal(t, "2023-06-01", detail.RepoCard.RepoStartDate)
	assert.Equal(t, "2023-12-31", detail.RepoCard.RepoEndDate)
	require.Len(t, detail.RepoCard.SkillList, 2)

	// 关联的仓库不受影响
	assert.Equal(t, int64(40), detail.BasicDetail.TotalCommitCnt)

	t.Run("not owner", func(t *testing.T) {
		err := svc.EditRepoCard(other.ID, view.ID, &dto.EditRepoCardRequest{Title: "x"})
		assert.ErrorIs(t, err, ErrNotOwnRepoView)
	})

	t.Run("unknown skill", func(t *testing.T) {
		err := svc.EditRepoCard(owner.ID, view.ID, &dto.EditRepoCardRequest{Title: "x", SkillIDs: []int64{9999}})
		assert.ErrorIs(t, err, ErrCodeNotFound)

		detail, err := svc.Read(owner.ID, view.ID)
		require.NoError(t, err)
		assert.Equal(t, "New title", detail.RepoCard.RepoViewTitle)
	})

	t.Run("invalid date", func(t *testing.T) {
		err := svc.EditRepoCard(owner.ID, view.ID, &dto.EditRepoCardRequest{Title: "x", EndDate: "2023/12/31"})
		assert.ErrorIs(t, err, ErrInvalidDate)
	})
}

func TestRepoViewService_ListByMember(t *testing.T) {
	svc, db, cleanup := setupRepoViewService(t)
	defer cleanup()

	owner := testutil.TestMember(t, db)
	viewer := testutil.TestMember(t, db)
	first := seedRepoView(t, db, owner.ID)
	repo := testutil.TestRepo(t, db, "https://github.com/octocat/second")
	second := testutil.TestRepoView(t, db, owner.ID, repo.ID, testutil.WithTitle("second"))

	cards, err := svc.ListByMember(owner.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, second.ID, cards[0].RepoViewID)
	assert.Equal(t, first.ID, cards[1].RepoViewID)
	assert.True(t, cards[0].IsMine)
	assert.Empty(t, cards[0].SkillList)
	assert.Len(t, cards[1].SkillList, 1)

	cards, err = svc.ListByMember(viewer.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.False(t, cards[0].IsMine)

	cards, err = svc.ListByMember(owner.ID, viewer.ID)
	require.NoError(t, err)
	assert.Empty(t, cards)

	_, err = svc.ListByMember(owner.ID, 999)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestRepoViewService_CountBySkill(t *testing.T) {
	svc, db, cleanup := setupRepoViewService(t)
	defer cleanup()

	owner := testutil.TestMember(t, db)
	seedRepoView(t, db, owner.ID)

	items, err := svc.CountBySkill()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Go", items[0].CodeName)
	assert.Equal(t, int64(1), items[0].Cnt)
	// 仅出现在行数统计里的语言不算技能
	assert.Equal(t, "Python", items[1].CodeName)
	assert.Equal(t, int64(0), items[1].Cnt)
}
