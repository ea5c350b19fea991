package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/coa_server/internal/model"
)

type AlarmRepository struct {
	db *gorm.DB
}

func NewAlarmRepository(db *gorm.DB) *AlarmRepository {
	return &AlarmRepository{db: db}
}

func (r *AlarmRepository) Create(alarm *model.Alarm) error {
	return r.db.Create(alarm).Error
}

// ListByTarget 分页获取某会员收到的通知，按时间倒序
func (r *AlarmRepository) ListByTarget(targetID int64, page, pageSize int) ([]*model.Alarm, int64, error) {
	var alarms []*model.Alarm
	var total int64

	query := r.db.Model(&model.Alarm{}).Where("target_id = ?", targetID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("Member").
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(pageSize).
		Find(&alarms).Error
	return alarms, total, err
}

// CountSince 统计 since 之后的通知数，since 为空时统计全部
func (r *AlarmRepository) CountSince(targetID int64, since *time.Time) (int64, error) {
	var count int64
	query := r.db.Model(&model.Alarm{}).Where("target_id = ?", targetID)
	if since != nil {
		query = query.Where("created_at > ?", *since)
	}
	err := query.Count(&count).Error
	return count, err
}
