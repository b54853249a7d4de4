package repository

import (
	"aims_backend/internal/grading"
	"aims_backend/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type ExamRepository struct {
	DB *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: db}
}

func (r *ExamRepository) CreateExam(exam *model.Exam) error {
	return r.DB.Create(exam).Error
}

func (r *ExamRepository) UpdateExam(exam *model.Exam) error {
	return r.DB.Save(exam).Error
}

func (r *ExamRepository) FindExamByID(id uint) (*model.Exam, error) {
	var e model.Exam
	if err := r.DB.First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ExamRepository) ListExamsByClass(classID uint) ([]model.Exam, error) {
	var exams []model.Exam
	err := r.DB.Where("class_id = ?", classID).Order("id").Find(&exams).Error
	return exams, err
}

func (r *ExamRepository) CreateSection(section *model.ExamSection) error {
	return r.DB.Create(section).Error
}

func (r *ExamRepository) UpdateSection(section *model.ExamSection) error {
	return r.DB.Save(section).Error
}

func (r *ExamRepository) FindSectionByID(id uint) (*model.ExamSection, error) {
	var s model.ExamSection
	if err := r.DB.First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ExamRepository) ListSectionsByExam(examID uint) ([]model.ExamSection, error) {
	var sections []model.ExamSection
	err := r.DB.Where("exam_id = ?", examID).Order("`order`, id").Find(&sections).Error
	return sections, err
}

func (r *ExamRepository) CreateQuestion(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *ExamRepository) UpdateQuestion(q *model.Question) error {
	return r.DB.Save(q).Error
}

func (r *ExamRepository) DeleteQuestion(id uint) error {
	return r.DB.Delete(&model.Question{}, id).Error
}

func (r *ExamRepository) FindQuestionByID(id uint) (*model.Question, error) {
	var q model.Question
	if err := r.DB.First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *ExamRepository) ListQuestionsBySection(sectionID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.Where("section_id = ?", sectionID).Order("`order`, id").Find(&questions).Error
	return questions, err
}

// GetSection 组装引擎所需的分区只读视图，实现 grading.Catalog
func (r *ExamRepository) GetSection(ctx context.Context, sectionID uint) (*grading.SectionView, error) {
	var section model.ExamSection
	if err := r.DB.WithContext(ctx).First(&section, sectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, grading.ErrSectionNotFound
		}
		return nil, err
	}

	var questions []model.Question
	if err := r.DB.WithContext(ctx).Where("section_id = ?", sectionID).Order("`order`, id").Find(&questions).Error; err != nil {
		return nil, err
	}

	view := &grading.SectionView{
		ID:                 section.ID,
		QuestionsToAttempt: section.QuestionsToAttempt,
	}
	for _, q := range questions {
		view.Questions = append(view.Questions, grading.QuestionView{
			ID:         q.ID,
			MaxMarks:   q.Points,
			IsOptional: q.IsOptional,
			COID:       q.COID,
		})
	}
	return view, nil
}
