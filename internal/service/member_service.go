package service

import (
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/coa_server/internal/model"
	"github.com/qs3c/coa_server/internal/model/dto"
	"github.com/qs3c/coa_server/internal/repository"
)

var (
	ErrCannotBookmarkSelf = errors.New("不能收藏自己")
	ErrInvalidJobCode     = errors.New("职业标签无效")
)

type MemberService struct {
	memberRepo   *repository.MemberRepository
	alarmRepo    *repository.AlarmRepository
	bookmarkRepo *repository.BookmarkRepository
	codeRepo     *repository.CodeRepository
	linkRepo     *repository.AccountLinkRepository
	repoViewRepo *repository.RepoViewRepository
}

func NewMemberService(
	memberRepo *repository.MemberRepository,
	alarmRepo *repository.AlarmRepository,
	bookmarkRepo *repository.BookmarkRepository,
	codeRepo *repository.CodeRepository,
	linkRepo *repository.AccountLinkRepository,
	repoViewRepo *repository.RepoViewRepository,
) *MemberService {
	return &MemberService{
		memberRepo:   memberRepo,
		alarmRepo:    alarmRepo,
		bookmarkRepo: bookmarkRepo,
		codeRepo:     codeRepo,
		linkRepo:     linkRepo,
		repoViewRepo: repoViewRepo,
	}
}

// GetInfo 会员资料，包含职业、技能和已关联的平台账号
func (s *MemberService) GetInfo(memberID int64) (*dto.MemberInfoResponse, error) {
	member, err := s.memberRepo.GetProfile(memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	skills, err := s.memberRepo.GetSkills(memberID)
	if err != nil {
		return nil, err
	}
	links, err := s.linkRepo.ListByMember(memberID)
	if err != nil {
		return nil, err
	}

	resp := &dto.MemberInfoResponse{
		UUID:         member.UUID,
		Nickname:     member.Nickname,
		ImageURL:     member.ImageURL,
		Introduction: member.Introduction,
		Skills:       make([]dto.SkillItem, 0, len(skills)),
		AccountLinks: make([]dto.AccountLinkItem, 0, len(links)),
	}
	if member.JobCode != nil {
		resp.Job = &dto.SkillItem{ID: member.JobCode.ID, Name: member.JobCode.Name, Type: member.JobCode.Type}
	}
	for _, sk := range skills {
		if sk.Code == nil {
			continue
		}
		resp.Skills = append(resp.Skills, dto.SkillItem{ID: sk.Code.ID, Name: sk.Code.Name, Type: sk.Code.Type})
	}
	for _, l := range links {
		resp.AccountLinks = append(resp.AccountLinks, dto.AccountLinkItem{Platform: l.Platform, Nickname: l.Nickname, Email: l.Email})
	}
	return resp, nil
}

// EditProfile 更新自我介绍和职业，技能整体替换
func (s *MemberService) EditProfile(memberID int64, req *dto.EditMemberRequest) error {
	if _, err := s.getMember(memberID); err != nil {
		return err
	}

	if req.JobCodeID != nil {
		codes, err := s.codeRepo.GetByIDs([]int64{*req.JobCodeID})
		if err != nil {
			return err
		}
		if len(codes) == 0 {
			return ErrCodeNotFound
		}
		if codes[0].Type != model.CodeTypeJob {
			return ErrInvalidJobCode
		}
	}

	skillIDs := dedupeIDs(req.SkillIDs)
	codes, err := s.codeRepo.GetByIDs(skillIDs)
	if err != nil {
		return err
	}
	if len(codes) != len(skillIDs) {
		return ErrCodeNotFound
	}

	return s.memberRepo.Transaction(func(repo *repository.MemberRepository) error {
		if err := repo.UpdateProfile(memberID, req.Introduction, req.JobCodeID); err != nil {
			return err
		}
		return repo.ReplaceSkills(memberID, skillIDs)
	})
}

// Analysis 会员提交评分分析：全站平均、各职业平均、本人平均和逐仓库评分
func (s *MemberService) Analysis(memberID int64) (*dto.MemberAnalysisResponse, error) {
	if _, err := s.getMember(memberID); err != nil {
		return nil, err
	}

	groups, err := s.repoViewRepo.ScoreAveragesByJob()
	if err != nil {
		return nil, err
	}
	var jobIDs []int64
	for _, g := range groups {
		if g.JobCodeID != nil {
			jobIDs = append(jobIDs, *g.JobCodeID)
		}
	}
	jobCodes, err := s.codeRepo.GetByIDs(jobIDs)
	if err != nil {
		return nil, err
	}
	jobNames := make(map[int64]string, len(jobCodes))
	for _, c := range jobCodes {
		jobNames[c.ID] = c.Name
	}

	resp := &dto.MemberAnalysisResponse{
		Jobs:  make([]dto.JobScoreAverage, 0, len(groups)),
		Repos: []dto.RepoScoreItem{},
	}

	var all scoreSum
	for _, g := range groups {
		avg := dto.ScoreAverage{
			Readability: g.Readability,
			Performance: g.Performance,
			Reusability: g.Reusability,
			Testability: g.Testability,
			Exception:   g.Exception,
			Total:       g.Total,
		}
		all.add(avg, g.ScoreCnt)

		item := dto.JobScoreAverage{JobCodeID: g.JobCodeID, ScoreCnt: g.ScoreCnt, Average: avg}
		if g.JobCodeID != nil {
			item.JobName = jobNames[*g.JobCodeID]
		}
		resp.Jobs = append(resp.Jobs, item)
	}
	resp.All = all.average()

	// 未设置职业的分组排在最后
	sort.Slice(resp.Jobs, func(i, j int) bool {
		a, b := resp.Jobs[i].JobCodeID, resp.Jobs[j].JobCodeID
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return *a < *b
	})

	scores, err := s.repoViewRepo.ListScoresByMember(memberID)
	if err != nil {
		return nil, err
	}
	var mine scoreSum
	for _, sc := range scores {
		score := dto.CommitScore{
			Readability: sc.Readability,
			Performance: sc.Performance,
			Reusability: sc.Reusability,
			Testability: sc.Testability,
			Exception:   sc.Exception,
			Total:       sc.Total,
		}
		item := dto.RepoScoreItem{
			RepoViewID:       sc.RepoViewID,
			RepoViewTitle:    sc.Title,
			RepoViewSubtitle: sc.Subtitle,
			CommitScore:      score,
		}
		if sc.StartDate != nil {
			item.RepoStartDate = sc.StartDate.Format(dateLayout)
		}
		if sc.EndDate != nil {
			item.RepoEndDate = sc.EndDate.Format(dateLayout)
		}
		resp.Repos = append(resp.Repos, item)

		mine.add(dto.ScoreAverage{
			Readability: float64(sc.Readability),
			Performance: float64(sc.Performance),
			Reusability: float64(sc.Reusability),
			Testability: float64(sc.Testability),
			Exception:   float64(sc.Exception),
			Total:       float64(sc.Total),
		}, 1)
	}
	if mine.n > 0 {
		avg := mine.average()
		resp.MyScoreAverage = &avg
	}
	return resp, nil
}

// CountBySkill 每个技能标签下的会员数
func (s *MemberService) CountBySkill() ([]dto.SkillCountItem, error) {
	rows, err := s.memberRepo.CountBySkill()
	if err != nil {
		return nil, err
	}
	return toSkillCountItems(rows), nil
}

// ListAlarms 分页获取通知，同时记录查看时间
func (s *MemberService) ListAlarms(memberID int64, page, pageSize int) ([]dto.AlarmItem, int64, error) {
	if _, err := s.getMember(memberID); err != nil {
		return nil, 0, err
	}

	alarms, total, err := s.alarmRepo.ListByTarget(memberID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	if err := s.memberRepo.UpdateLastVisitCheck(memberID, time.Now()); err != nil {
		return nil, 0, err
	}

	items := make([]dto.AlarmItem, 0, len(alarms))
	for _, a := range alarms {
		item := dto.AlarmItem{
			ID:         a.ID,
			Type:       a.Type,
			RepoViewID: a.RepoViewID,
			CreatedAt:  a.CreatedAt.Format(time.RFC3339),
		}
		if a.Member != nil {
			item.Member = toMemberBrief(a.Member)
		}
		items = append(items, item)
	}
	return items, total, nil
}

// NewAlarmCount 上次查看之后的新通知数
func (s *MemberService) NewAlarmCount(memberID int64) (int64, error) {
	member, err := s.getMember(memberID)
	if err != nil {
		return 0, err
	}
	return s.alarmRepo.CountSince(memberID, member.LastVisitCheck)
}

// ToggleBookmark 收藏或取消收藏，返回操作后的状态
func (s *MemberService) ToggleBookmark(memberID int64, targetUUID string) (*dto.BookmarkToggleResponse, error) {
	target, err := s.memberRepo.GetByUUID(targetUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	if target.ID == memberID {
		return nil, ErrCannotBookmarkSelf
	}

	exists, err := s.bookmarkRepo.Exists(memberID, target.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		if err := s.bookmarkRepo.Delete(memberID, target.ID); err != nil {
			return nil, err
		}
		return &dto.BookmarkToggleResponse{Bookmarked: false}, nil
	}

	bookmark := &model.Bookmark{MemberID: memberID, TargetID: target.ID}
	alarm := &model.Alarm{TargetID: target.ID, MemberID: memberID, Type: model.AlarmTypeBookmark}
	if err := s.bookmarkRepo.CreateWithAlarm(bookmark, alarm); err != nil {
		return nil, err
	}
	return &dto.BookmarkToggleResponse{Bookmarked: true}, nil
}

func (s *MemberService) ListBookmarks(memberID int64) ([]dto.MemberBrief, error) {
	bookmarks, err := s.bookmarkRepo.ListByMember(memberID)
	if err != nil {
		return nil, err
	}

	items := make([]dto.MemberBrief, 0, len(bookmarks))
	for _, b := range bookmarks {
		if b.Target == nil {
			continue
		}
		items = append(items, toMemberBrief(b.Target))
	}
	return items, nil
}

func (s *MemberService) getMember(memberID int64) (*model.Member, error) {
	member, err := s.memberRepo.GetByID(memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

func toMemberBrief(m *model.Member) dto.MemberBrief {
	return dto.MemberBrief{UUID: m.UUID, Nickname: m.Nickname, ImageURL: m.ImageURL}
}

// scoreSum 按权重累加平均分
type scoreSum struct {
	readability, performance, reusability float64
	testability, exception, total         float64
	n                                     int64
}

func (s *scoreSum) add(avg dto.ScoreAverage, weight int64) {
	w := float64(weight)
	s.readability += avg.Readability * w
	s.performance += avg.Performance * w
	s.reusability += avg.Reusability * w
	s.testability += avg.Testability * w
	s.exception += avg.Exception * w
	s.total += avg.Total * w
	s.n += weight
}

func (s *scoreSum) average() dto.ScoreAverage {
	if s.n == 0 {
		return dto.ScoreAverage{}
	}
	n := float64(s.n)
	return dto.ScoreAverage{
		Readability: s.readability / n,
		Performance: s.performance / n,
		Reusability: s.reusability / n,
		Testability: s.testability / n,
		Exception:   s.exception / n,
		Total:       s.total / n,
	}
}

func toSkillCountItems(rows []*repository.SkillCount) []dto.SkillCountItem {
	items := make([]dto.SkillCountItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, dto.SkillCountItem{CodeID: r.CodeID, CodeName: r.CodeName, Cnt: r.Cnt})
	}
	return items
}
