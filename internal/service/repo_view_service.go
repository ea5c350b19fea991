package service

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/qs3c/coa_server/internal/model"
	"github.com/qs3c/coa_server/internal/model/dto"
	"github.com/qs3c/coa_server/internal/repository"
)

var (
	ErrRepoViewNotFound = errors.New("仓库展示不存在")
	ErrNotOwnRepoView   = errors.New("只能修改自己的仓库展示")
)

type RepoViewService struct {
	repoViewRepo *repository.RepoViewRepository
	memberRepo   *repository.MemberRepository
	codeRepo     *repository.CodeRepository
	alarmRepo    *repository.AlarmRepository
}

func NewRepoViewService(
	repoViewRepo *repository.RepoViewRepository,
	memberRepo *repository.MemberRepository,
	codeRepo *repository.CodeRepository,
	alarmRepo *repository.AlarmRepository,
) *RepoViewService {
	return &RepoViewService{
		repoViewRepo: repoViewRepo,
		memberRepo:   memberRepo,
		codeRepo:     codeRepo,
		alarmRepo:    alarmRepo,
	}
}

// Read 查看仓库详情，他人查看时给作者发送通知
func (s *RepoViewService) Read(requesterID, repoViewID int64) (*dto.RepoDetailResponse, error) {
	view, err := s.getView(repoViewID)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberRepo.GetByID(requesterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	skills, err := s.repoViewRepo.GetSkills(view.ID)
	if err != nil {
		return nil, err
	}
	comments, err := s.repoViewRepo.GetComments(view.ID)
	if err != nil {
		return nil, err
	}
	locs, err := s.repoViewRepo.GetLineOfCodes(view.ID)
	if err != nil {
		return nil, err
	}

	isMine := view.MemberID == requesterID
	resp := &dto.RepoDetailResponse{
		RepoCard:    buildRepoCard(view, skills, isMine),
		BasicDetail: buildBasicDetail(view, comments, locs),
	}

	if !isMine {
		alarm := &model.Alarm{
			TargetID:   view.MemberID,
			MemberID:   requesterID,
			Type:       model.AlarmTypeRepoView,
			RepoViewID: &view.ID,
		}
		if err := s.alarmRepo.Create(alarm); err != nil {
			log.Printf("Failed to create repo view alarm for view %d: %v", view.ID, err)
		}
		return resp, nil
	}

	score, err := s.repoViewRepo.GetCommitScore(view.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if score != nil {
		resp.CommitScore = &dto.CommitScore{
			Readability:  score.Readability,
			Performance:  score.Performance,
			Reusability:  score.Reusability,
			Testability:  score.Testability,
			Exception:    score.Exception,
			Total:        score.Total,
			ScoreComment: score.ScoreComment,
		}
	}
	return resp, nil
}

func (s *RepoViewService) EditReadme(requesterID, repoViewID int64, readme string) error {
	view, err := s.getOwnedView(requesterID, repoViewID)
	if err != nil {
		return err
	}
	return s.repoViewRepo.UpdateReadme(view.ID, readme)
}

// EditComments 整体替换批注
func (s *RepoViewService) EditComments(requesterID, repoViewID int64, items []dto.CommentItem) error {
	view, err := s.getOwnedView(requesterID, repoViewID)
	if err != nil {
		return err
	}

	comments := make([]*model.Comment, 0, len(items))
	for _, item := range items {
		comments = append(comments, &model.Comment{
			StartIndex:   item.StartIndex,
			EndIndex:     item.EndIndex,
			TargetString: item.TargetString,
			Content:      item.Content,
		})
	}

	return s.repoViewRepo.Transaction(func(tx *repository.RepoViewRepository) error {
		return tx.ReplaceComments(view.ID, comments)
	})
}

// EditRepoCard 修改卡片信息，技能标签整体替换
func (s *RepoViewService) EditRepoCard(requesterID, repoViewID int64, req *dto.EditRepoCardRequest) error {
	view, err := s.getOwnedView(requesterID, repoViewID)
	if err != nil {
		return err
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return err
	}

	unique := dedupeIDs(req.SkillIDs)
	codes, err := s.codeRepo.GetByIDs(unique)
	if err != nil {
		return err
	}
	if len(codes) != len(unique) {
		return ErrCodeNotFound
	}

	view.Title = req.Title
	view.Subtitle = req.Subtitle
	view.MemberCnt = req.MemberCnt
	view.StartDate = startDate
	view.EndDate = endDate

	return s.repoViewRepo.Transaction(func(tx *repository.RepoViewRepository) error {
		if err := tx.Update(view); err != nil {
			return err
		}
		return tx.ReplaceSkills(view.ID, unique)
	})
}

// ListByMember 某会员的仓库卡片列表
func (s *RepoViewService) ListByMember(viewerID, memberID int64) ([]dto.RepoCard, error) {
	if _, err := s.memberRepo.GetByID(memberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	views, err := s.repoViewRepo.ListByMember(memberID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(views))
	for i, v := range views {
		ids[i] = v.ID
	}
	skillsByView, err := s.repoViewRepo.GetSkillsByViewIDs(ids)
	if err != nil {
		return nil, err
	}

	cards := make([]dto.RepoCard, 0, len(views))
	for _, v := range views {
		cards = append(cards, buildRepoCard(v, skillsByView[v.ID], viewerID == memberID))
	}
	return cards, nil
}

func (s *RepoViewService) getView(repoViewID int64) (*model.RepoView, error) {
	view, err := s.repoViewRepo.GetByID(repoViewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRepoViewNotFound
		}
		return nil, err
	}
	return view, nil
}

func (s *RepoViewService) getOwnedView(requesterID, repoViewID int64) (*model.RepoView, error) {
	view, err := s.getView(repoViewID)
	if err != nil {
		return nil, err
	}
	if view.MemberID != requesterID {
		return nil, ErrNotOwnRepoView
	}
	return view, nil
}

func buildRepoCard(view *model.RepoView, skills []*model.RepoViewSkill, isMine bool) dto.RepoCard {
	card := dto.RepoCard{
		RepoViewID:       view.ID,
		RepoViewTitle:    view.Title,
		RepoViewSubtitle: view.Subtitle,
		RepoMemberCnt:    view.MemberCnt,
		IsMine:           isMine,
		SkillList:        make([]dto.SkillItem, 0, len(skills)),
	}
	if view.StartDate != nil {
		card.RepoStartDate = view.StartDate.Format(dateLayout)
	}
	if view.EndDate != nil {
		card.RepoEndDate = view.EndDate.Format(dateLayout)
	}
	if view.Repo != nil {
		card.RepoViewPath = view.Repo.Path
	}
	if view.Member != nil {
		card.MemberUUID = view.Member.UUID
		card.MemberNickname = view.Member.Nickname
		card.MemberImageURL = view.Member.ImageURL
	}
	for _, s := range skills {
		if s.Code == nil {
			continue
		}
		card.SkillList = append(card.SkillList, dto.SkillItem{ID: s.Code.ID, Name: s.Code.Name, Type: s.Code.Type})
	}
	return card
}

func buildBasicDetail(view *model.RepoView, comments []*model.Comment, locs []*model.LineOfCode) dto.BasicDetail {
	detail := dto.BasicDetail{
		Readme:            view.Readme,
		Result:            view.Result,
		PersonalCommitCnt: view.CommitCnt,
		MemberCnt:         view.MemberCnt,
		CommentList:       make([]dto.CommentItem, 0, len(comments)),
		LineCntList:       make([]dto.LineCountItem, 0, len(locs)),
	}
	if view.Repo != nil {
		detail.TotalCommitCnt = view.Repo.CommitCnt
	}
	for _, c := range comments {
		detail.CommentList = append(detail.CommentList, dto.CommentItem{
			StartIndex:   c.StartIndex,
			EndIndex:     c.EndIndex,
			TargetString: c.TargetString,
			Content:      c.Content,
		})
	}
	// 已按行数倒序
	for _, l := range locs {
		if l.Code == nil {
			continue
		}
		detail.LineCntList = append(detail.LineCntList, dto.LineCountItem{CodeName: l.Code.Name, LineCnt: l.LineCount})
	}
	return detail
}

// CountBySkill 每个技能标签下的 RepoView 数
func (s *RepoViewService) CountBySkill() ([]dto.SkillCountItem, error) {
	rows, err := s.repoViewRepo.CountBySkill()
	if err != nil {
		return nil, err
	}
	return toSkillCountItems(rows), nil
}
