package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/coa_server/internal/model"
)

type AccountLinkRepository struct {
	db *gorm.DB
}

func NewAccountLinkRepository(db *gorm.DB) *AccountLinkRepository {
	return &AccountLinkRepository{db: db}
}

func (r *AccountLinkRepository) GetByMemberAndPlatform(memberID int64, platform string) (*model.AccountLink, error) {
	var link model.AccountLink
	err := r.db.Where("member_id = ? AND platform = ?", memberID, platform).First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *AccountLinkRepository) ListByMember(memberID int64) ([]*model.AccountLink, error) {
	var links []*model.AccountLink
	err := r.db.Where("member_id = ?", memberID).Order("platform").Find(&links).Error
	return links, err
}

// ExistsByMemberAndNickname 会员是否关联了指定昵称的账号（任意平台）
func (r *AccountLinkRepository) ExistsByMemberAndNickname(memberID int64, nickname string) (bool, error) {
	var count int64
	err := r.db.Model(&model.AccountLink{}).
		Where("member_id = ? AND nickname = ?", memberID, nickname).
		Count(&count).Error
	return count > 0, err
}

// Upsert 按 (member_id, platform) 插入或覆盖
func (r *AccountLinkRepository) Upsert(link *model.AccountLink) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "member_id"}, {Name: "platform"}},
		DoUpdates: clause.AssignmentColumns([]string{"nickname", "email", "encrypted_token", "updated_at"}),
	}).Create(link).Error
}
