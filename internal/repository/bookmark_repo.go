package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/coa_server/internal/model"
)

type BookmarkRepository struct {
	db *gorm.DB
}

func NewBookmarkRepository(db *gorm.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

func (r *BookmarkRepository) Exists(memberID, targetID int64) (bool, error) {
	var count int64
	err := r.db.Model(&model.Bookmark{}).
		Where("member_id = ? AND target_id = ?", memberID, targetID).
		Count(&count).Error
	return count > 0, err
}

func (r *BookmarkRepository) Delete(memberID, targetID int64) error {
	return r.db.Where("member_id = ? AND target_id = ?", memberID, targetID).
		Delete(&model.Bookmark{}).Error
}

// CreateWithAlarm 收藏并通知被收藏者，两者同一事务
func (r *BookmarkRepository) CreateWithAlarm(bookmark *model.Bookmark, alarm *model.Alarm) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(bookmark).Error; err != nil {
			return err
		}
		return tx.Create(alarm).Error
	})
}

// ListByMember 获取会员收藏的人，按收藏时间倒序
func (r *BookmarkRepository) ListByMember(memberID int64) ([]*model.Bookmark, error) {
	var bookmarks []*model.Bookmark
	err := r.db.Preload("Target").
		Where("member_id = ?", memberID).
		Order("created_at DESC").Order("id DESC").
		Find(&bookmarks).Error
	return bookmarks, err
}
