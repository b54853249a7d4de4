package repository

import (
	"aims_backend/internal/grading"
	"aims_backend/internal/model"
	"context"

	"gorm.io/gorm"
)

type OutcomeRepository struct {
	DB *gorm.DB
}

func NewOutcomeRepository(db *gorm.DB) *OutcomeRepository {
	return &OutcomeRepository{DB: db}
}

func (r *OutcomeRepository) CreateCO(co *model.CourseOutcome) error {
	return r.DB.Create(co).Error
}

func (r *OutcomeRepository) FindCOByID(id uint) (*model.CourseOutcome, error) {
	var co model.CourseOutcome
	if err := r.DB.First(&co, id).Error; err != nil {
		return nil, err
	}
	return &co, nil
}

func (r *OutcomeRepository) ListCOsBySubject(subjectID uint) ([]model.CourseOutcome, error) {
	var cos []model.CourseOutcome
	err := r.DB.Where("subject_id = ?", subjectID).Order("code").Find(&cos).Error
	return cos, err
}

func (r *OutcomeRepository) FindPOByID(id uint) (*model.ProgramOutcome, error) {
	var po model.ProgramOutcome
	if err := r.DB.First(&po, id).Error; err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *OutcomeRepository) ListPOs() ([]model.ProgramOutcome, error) {
	var pos []model.ProgramOutcome
	err := r.DB.Order("id").Find(&pos).Error
	return pos, err
}

func (r *OutcomeRepository) CreateMapping(m *model.CoPoMapping) error {
	return r.DB.Create(m).Error
}

func (r *OutcomeRepository) UpdateMapping(m *model.CoPoMapping) error {
	return r.DB.Save(m).Error
}

func (r *OutcomeRepository) DeleteMapping(id uint) error {
	return r.DB.Delete(&model.CoPoMapping{}, id).Error
}

func (r *OutcomeRepository) FindMapping(coID, poID uint) (*model.CoPoMapping, error) {
	var m model.CoPoMapping
	err := r.DB.Where("co_id = ? AND po_id = ?", coID, poID).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMappingsForCO 科目 CO 报表展示该 CO 映射到哪些 PO 时使用
func (r *OutcomeRepository) ListMappingsForCO(ctx context.Context, coID uint) ([]grading.COPOWeight, error) {
	var mappings []model.CoPoMapping
	if err := r.DB.WithContext(ctx).Where("co_id = ?", coID).Order("po_id").Find(&mappings).Error; err != nil {
		return nil, err
	}
	return toWeights(mappings), nil
}

// ListMappingsForPO 实现 grading.MappingStore
func (r *OutcomeRepository) ListMappingsForPO(ctx context.Context, poID uint) ([]grading.COPOWeight, error) {
	var mappings []model.CoPoMapping
	if err := r.DB.WithContext(ctx).Where("po_id = ?", poID).Order("co_id").Find(&mappings).Error; err != nil {
		return nil, err
	}
	return toWeights(mappings), nil
}

func toWeights(mappings []model.CoPoMapping) []grading.COPOWeight {
	out := make([]grading.COPOWeight, 0, len(mappings))
	for _, m := range mappings {
		out = append(out, grading.COPOWeight{COID: m.COID, POID: m.POID, Strength: m.Strength})
	}
	return out
}
