package repository

import (
	"aims_backend/internal/grading"
	"aims_backend/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MarkRepository struct {
	DB *gorm.DB
}

func NewMarkRepository(db *gorm.DB) *MarkRepository {
	return &MarkRepository{DB: db}
}

func (r *MarkRepository) Create(entry *model.MarkEntry) error {
	return r.DB.Create(entry).Error
}

func (r *MarkRepository) Update(entry *model.MarkEntry) error {
	return r.DB.Save(entry).Error
}

func (r *MarkRepository) Delete(id uint) error {
	return r.DB.Delete(&model.MarkEntry{}, id).Error
}

func (r *MarkRepository) FindByID(id uint) (*model.MarkEntry, error) {
	var m model.MarkEntry
	if err := r.DB.First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MarkRepository) FindByStudentAndQuestion(studentID, questionID uint) (*model.MarkEntry, error) {
	var m model.MarkEntry
	err := r.DB.Where("student_id = ? AND question_id = ?", studentID, questionID).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MarkRepository) ListByStudentAndSection(studentID, sectionID uint) ([]model.MarkEntry, error) {
	var entries []model.MarkEntry
	err := r.DB.Where("student_id = ? AND section_id = ?", studentID, sectionID).
		Order("question_id").Find(&entries).Error
	return entries, err
}

func (r *MarkRepository) CountByQuestion(questionID uint) (int64, error) {
	var n int64
	err := r.DB.Model(&model.MarkEntry{}).Where("question_id = ?", questionID).Count(&n).Error
	return n, err
}

// DistinctStudentsBySection 分区内有得分记录的全部学生，供批量重算使用
func (r *MarkRepository) DistinctStudentsBySection(sectionID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.MarkEntry{}).
		Where("section_id = ?", sectionID).
		Distinct("student_id").
		Pluck("student_id", &ids).Error
	return ids, err
}

// ListMarks 实现 grading.MarkStore 的读路径
func (r *MarkRepository) ListMarks(ctx context.Context, studentID, sectionID uint) ([]grading.MarkView, error) {
	var entries []model.MarkEntry
	err := r.DB.WithContext(ctx).
		Where("student_id = ? AND section_id = ?", studentID, sectionID).
		Order("question_id").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return toMarkViews(entries), nil
}

// RecomputeCounted 实现 grading.MarkStore 的写路径。
// 单个事务内 SELECT ... FOR UPDATE 锁定该 (student, section) 的全部得分行，
// 同一学生同一分区的并发重算在此串行化；不同学生或不同分区互不阻塞。
// counted 标志整体写回，事务保证不存在半更新状态。
func (r *MarkRepository) RecomputeCounted(ctx context.Context, studentID, sectionID uint, compute grading.RecomputeFunc) error {
	var computeErr error
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []model.MarkEntry
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("student_id = ? AND section_id = ?", studentID, sectionID).
			Order("question_id").Find(&rows).Error; err != nil {
			return err
		}

		counted, notCounted, err := compute(toMarkViews(rows))
		if err != nil {
			computeErr = err
			return err
		}

		if len(counted) > 0 {
			if err := tx.Model(&model.MarkEntry{}).Where("id IN ?", counted).
				Update("counted", true).Error; err != nil {
				return err
			}
		}
		if len(notCounted) > 0 {
			if err := tx.Model(&model.MarkEntry{}).Where("id IN ?", notCounted).
				Update("counted", false).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if err == nil {
		return nil
	}
	// 计算阶段的校验错误原样上抛，事务/连接失败归类为 PersistenceError
	if computeErr != nil && errors.Is(err, computeErr) {
		return computeErr
	}
	return &grading.PersistenceError{Err: err}
}

// ListCountedMarksForCO 实现 grading.AttainmentStore：
// 返回范围内指定 CO 全部计入总分的得分行，可选按班级过滤
func (r *MarkRepository) ListCountedMarksForCO(ctx context.Context, coID uint, scope grading.CohortScope) ([]grading.MarkView, error) {
	query := r.DB.WithContext(ctx).Model(&model.MarkEntry{}).
		Joins("JOIN questions ON questions.id = mark_entries.question_id AND questions.deleted_at IS NULL").
		Joins("JOIN exam_sections ON exam_sections.id = mark_entries.section_id AND exam_sections.deleted_at IS NULL").
		Where("questions.co_id = ? AND mark_entries.counted = ?", coID, true).
		Where("exam_sections.exam_id = ?", scope.ExamID)

	if scope.ClassID != 0 {
		query = query.Joins("JOIN users ON users.id = mark_entries.student_id").
			Where("users.class_id = ?", scope.ClassID)
	}

	var entries []model.MarkEntry
	if err := query.Order("mark_entries.id").Find(&entries).Error; err != nil {
		return nil, err
	}
	return toMarkViews(entries), nil
}

func toMarkViews(entries []model.MarkEntry) []grading.MarkView {
	views := make([]grading.MarkView, 0, len(entries))
	for _, m := range entries {
		views = append(views, grading.MarkView{
			ID:            m.ID,
			StudentID:     m.StudentID,
			QuestionID:    m.QuestionID,
			MarksObtained: m.MarksObtained,
			MaxMarks:      m.MaxMarks,
			Counted:       m.Counted,
		})
	}
	return views
}
