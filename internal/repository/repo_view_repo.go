package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/coa_server/internal/model"
)

// RepoViewScore 某个 RepoView 的提交评分
type RepoViewScore struct {
	RepoViewID  int64
	Title       string
	Subtitle    string
	StartDate   *time.Time
	EndDate     *time.Time
	Readability int16
	Performance int16
	Reusability int16
	Testability int16
	Exception   int16
	Total       int16
}

// JobScoreAverage 按作者职业分组的平均评分，JobCodeID 为空表示未设置职业
type JobScoreAverage struct {
	JobCodeID   *int64
	ScoreCnt    int64
	Readability float64
	Performance float64
	Reusability float64
	Testability float64
	Exception   float64
	Total       float64
}

// RepoViewRepository 负责 Repo、RepoView 及其附属表
type RepoViewRepository struct {
	db *gorm.DB
}

func NewRepoViewRepository(db *gorm.DB) *RepoViewRepository {
	return &RepoViewRepository{db: db}
}

// Transaction 在同一个数据库事务中执行 fn
func (r *RepoViewRepository) Transaction(fn func(repo *RepoViewRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&RepoViewRepository{db: tx})
	})
}

// UpsertRepo 按 path 更新或插入仓库，完成后 repo.ID 有效
func (r *RepoViewRepository) UpsertRepo(repo *model.Repo) error {
	var existing model.Repo
	err := r.db.Where("path = ?", repo.Path).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(repo).Error
	}
	if err != nil {
		return err
	}

	repo.ID = existing.ID
	return r.db.Model(&existing).Updates(map[string]interface{}{
		"platform":          repo.Platform,
		"gitlab_project_id": repo.GitlabProjectID,
		"readme_origin":     repo.ReadmeOrigin,
		"commit_cnt":        repo.CommitCnt,
	}).Error
}

func (r *RepoViewRepository) Create(view *model.RepoView) error {
	return r.db.Create(view).Error
}

// Update 只更新 RepoView 本身，不级联保存 Repo 和 Member
func (r *RepoViewRepository) Update(view *model.RepoView) error {
	return r.db.Omit(clause.Associations).Save(view).Error
}

func (r *RepoViewRepository) UpdateReadme(id int64, readme string) error {
	return r.db.Model(&model.RepoView{}).Where("id = ?", id).Update("readme", readme).Error
}

func (r *RepoViewRepository) GetByID(id int64) (*model.RepoView, error) {
	var view model.RepoView
	err := r.db.Preload("Repo").Preload("Member").Where("id = ?", id).First(&view).Error
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (r *RepoViewRepository) GetByAnalysisID(analysisID string) (*model.RepoView, error) {
	var view model.RepoView
	err := r.db.Where("analysis_id = ?", analysisID).First(&view).Error
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (r *RepoViewRepository) ListByMember(memberID int64) ([]*model.RepoView, error) {
	var views []*model.RepoView
	err := r.db.Preload("Repo").Preload("Member").
		Where("member_id = ?", memberID).
		Order("created_at DESC").Order("id DESC").
		Find(&views).Error
	return views, err
}

func (r *RepoViewRepository) CreateSkills(skills []*model.RepoViewSkill) error {
	if len(skills) == 0 {
		return nil
	}
	return r.db.Create(&skills).Error
}

// ReplaceSkills 删除旧标签后写入新标签
func (r *RepoViewRepository) ReplaceSkills(viewID int64, codeIDs []int64) error {
	if err := r.db.Where("repo_view_id = ?", viewID).Delete(&model.RepoViewSkill{}).Error; err != nil {
		return err
	}
	skills := make([]*model.RepoViewSkill, 0, len(codeIDs))
	for _, id := range codeIDs {
		skills = append(skills, &model.RepoViewSkill{RepoViewID: viewID, CodeID: id})
	}
	return r.CreateSkills(skills)
}

func (r *RepoViewRepository) GetSkills(viewID int64) ([]*model.RepoViewSkill, error) {
	var skills []*model.RepoViewSkill
	err := r.db.Preload("Code").Where("repo_view_id = ?", viewID).Order("id").Find(&skills).Error
	return skills, err
}

// GetSkillsByViewIDs 批量查询标签，返回 repoViewID -> 标签
func (r *RepoViewRepository) GetSkillsByViewIDs(viewIDs []int64) (map[int64][]*model.RepoViewSkill, error) {
	result := make(map[int64][]*model.RepoViewSkill)
	if len(viewIDs) == 0 {
		return result, nil
	}

	var skills []*model.RepoViewSkill
	err := r.db.Preload("Code").Where("repo_view_id IN ?", viewIDs).Order("id").Find(&skills).Error
	if err != nil {
		return nil, err
	}
	for _, s := range skills {
		result[s.RepoViewID] = append(result[s.RepoViewID], s)
	}
	return result, nil
}

func (r *RepoViewRepository) CreateLineOfCodes(locs []*model.LineOfCode) error {
	if len(locs) == 0 {
		return nil
	}
	return r.db.Create(&locs).Error
}

// GetLineOfCodes 按行数倒序
func (r *RepoViewRepository) GetLineOfCodes(viewID int64) ([]*model.LineOfCode, error) {
	var locs []*model.LineOfCode
	err := r.db.Preload("Code").
		Where("repo_view_id = ?", viewID).
		Order("line_count DESC").Order("id").
		Find(&locs).Error
	return locs, err
}

func (r *RepoViewRepository) CreateCommitScore(score *model.CommitScore) error {
	return r.db.Create(score).Error
}

func (r *RepoViewRepository) GetCommitScore(viewID int64) (*model.CommitScore, error) {
	var score model.CommitScore
	err := r.db.Where("repo_view_id = ?", viewID).First(&score).Error
	if err != nil {
		return nil, err
	}
	return &score, nil
}

// ReplaceComments 整体替换某个 RepoView 的批注
func (r *RepoViewRepository) ReplaceComments(viewID int64, comments []*model.Comment) error {
	if err := r.db.Where("repo_view_id = ?", viewID).Delete(&model.Comment{}).Error; err != nil {
		return err
	}
	if len(comments) == 0 {
		return nil
	}
	for _, c := range comments {
		c.RepoViewID = viewID
	}
	return r.db.Create(&comments).Error
}

func (r *RepoViewRepository) GetComments(viewID int64) ([]*model.Comment, error) {
	var comments []*model.Comment
	err := r.db.Where("repo_view_id = ?", viewID).Order("start_index").Order("id").Find(&comments).Error
	return comments, err
}

// ListScoresByMember 会员所有带评分的 RepoView，最新的在前
func (r *RepoViewRepository) ListScoresByMember(memberID int64) ([]*RepoViewScore, error) {
	var rows []*RepoViewScore
	err := r.db.Table("commit_scores").
		Select("commit_scores.repo_view_id, repo_views.title, repo_views.subtitle, " +
			"repo_views.start_date, repo_views.end_date, " +
			"commit_scores.readability, commit_scores.performance, commit_scores.reusability, " +
			"commit_scores.testability, commit_scores.exception, commit_scores.total").
		Joins("JOIN repo_views ON repo_views.id = commit_scores.repo_view_id").
		Where("repo_views.member_id = ?", memberID).
		Order("repo_views.created_at DESC").Order("repo_views.id DESC").
		Scan(&rows).Error
	return rows, err
}

// ScoreAveragesByJob 全部评分按作者职业分组求平均
func (r *RepoViewRepository) ScoreAveragesByJob() ([]*JobScoreAverage, error) {
	var rows []*JobScoreAverage
	err := r.db.Table("commit_scores").
		Select("members.job_code_id AS job_code_id, COUNT(commit_scores.id) AS score_cnt, " +
			"AVG(commit_scores.readability) AS readability, AVG(commit_scores.performance) AS performance, " +
			"AVG(commit_scores.reusability) AS reusability, AVG(commit_scores.testability) AS testability, " +
			"AVG(commit_scores.exception) AS exception, AVG(commit_scores.total) AS total").
		Joins("JOIN repo_views ON repo_views.id = commit_scores.repo_view_id").
		Joins("JOIN members ON members.id = repo_views.member_id").
		Group("members.job_code_id").
		Scan(&rows).Error
	return rows, err
}

// CountBySkill 每个技能标签下的 RepoView 数
func (r *RepoViewRepository) CountBySkill() ([]*SkillCount, error) {
	return countBySkill(r.db, "repo_view_skills")
}
