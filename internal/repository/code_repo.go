package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/coa_server/internal/model"
)

type CodeRepository struct {
	db *gorm.DB
}

func NewCodeRepository(db *gorm.DB) *CodeRepository {
	return &CodeRepository{db: db}
}

func (r *CodeRepository) GetByIDs(ids []int64) ([]*model.Code, error) {
	var codes []*model.Code
	if len(ids) == 0 {
		return codes, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&codes).Error
	return codes, err
}

// GetByNames 按名称批量查询，返回 name -> Code
func (r *CodeRepository) GetByNames(names []string) (map[string]*model.Code, error) {
	result := make(map[string]*model.Code)
	if len(names) == 0 {
		return result, nil
	}

	var codes []*model.Code
	if err := r.db.Where("name IN ?", names).Find(&codes).Error; err != nil {
		return nil, err
	}
	for _, c := range codes {
		result[c.Name] = c
	}
	return result, nil
}

// CreateMissing 按名称插入不存在的标签，返回新增数量
func (r *CodeRepository) CreateMissing(codes []*model.Code) (int64, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&codes)
	return result.RowsAffected, result.Error
}

// SkillCount 技能标签被引用的次数
type SkillCount struct {
	CodeID   int64
	CodeName string
	Cnt      int64
}

// skillCodeTypes 参与技能统计的标签类型
var skillCodeTypes = []string{model.CodeTypeLanguage, model.CodeTypeFramework}

// countBySkill 统计 table 中每个技能标签的行数，未被引用的标签计 0，按次数倒序
func countBySkill(db *gorm.DB, table string) ([]*SkillCount, error) {
	var rows []*SkillCount
	err := db.Table("codes").
		Select("codes.id AS code_id, codes.name AS code_name, COUNT(" + table + ".id) AS cnt").
		Joins("LEFT JOIN " + table + " ON " + table + ".code_id = codes.id").
		Where("codes.type IN ?", skillCodeTypes).
		Group("codes.id, codes.name").
		Order("cnt DESC").Order("codes.name").
		Scan(&rows).Error
	return rows, err
}
