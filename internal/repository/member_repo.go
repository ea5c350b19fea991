package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/coa_server/internal/model"
)

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Transaction 在同一个数据库事务中执行 fn
func (r *MemberRepository) Transaction(fn func(repo *MemberRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&MemberRepository{db: tx})
	})
}

func (r *MemberRepository) Create(member *model.Member) error {
	return r.db.Create(member).Error
}

func (r *MemberRepository) GetByID(id int64) (*model.Member, error) {
	var member model.Member
	err := r.db.Where("id = ?", id).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) GetByUUID(uuid string) (*model.Member, error) {
	var member model.Member
	err := r.db.Where("uuid = ?", uuid).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) GetByIDs(ids []int64) ([]*model.Member, error) {
	var members []*model.Member
	if len(ids) == 0 {
		return members, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&members).Error
	return members, err
}

// UpdateLastVisitCheck 记录最后一次查看通知的时间
func (r *MemberRepository) UpdateLastVisitCheck(id int64, at time.Time) error {
	return r.db.Model(&model.Member{}).Where("id = ?", id).Update("last_visit_check", at).Error
}

// GetProfile 读取会员及其职业标签
func (r *MemberRepository) GetProfile(id int64) (*model.Member, error) {
	var member model.Member
	err := r.db.Preload("JobCode").Where("id = ?", id).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// UpdateProfile jobCodeID 为 nil 时清空职业
func (r *MemberRepository) UpdateProfile(id int64, introduction string, jobCodeID *int64) error {
	return r.db.Model(&model.Member{}).Where("id = ?", id).Updates(map[string]interface{}{
		"introduction": introduction,
		"job_code_id":  jobCodeID,
	}).Error
}

// ReplaceSkills 删除旧技能后写入新技能
func (r *MemberRepository) ReplaceSkills(memberID int64, codeIDs []int64) error {
	if err := r.db.Where("member_id = ?", memberID).Delete(&model.MemberSkill{}).Error; err != nil {
		return err
	}
	if len(codeIDs) == 0 {
		return nil
	}
	skills := make([]*model.MemberSkill, 0, len(codeIDs))
	for _, id := range codeIDs {
		skills = append(skills, &model.MemberSkill{MemberID: memberID, CodeID: id})
	}
	return r.db.Create(&skills).Error
}

func (r *MemberRepository) GetSkills(memberID int64) ([]*model.MemberSkill, error) {
	var skills []*model.MemberSkill
	err := r.db.Preload("Code").Where("member_id = ?", memberID).Order("id").Find(&skills).Error
	return skills, err
}

// CountBySkill 每个技能标签下的会员数
func (r *MemberRepository) CountBySkill() ([]*SkillCount, error) {
	return countBySkill(r.db, "member_skills")
}
