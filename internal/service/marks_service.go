package service

import (
	"aims_backend/internal/grading"
	"aims_backend/internal/model"
	"aims_backend/internal/util"
	"aims_backend/pkg/logger"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MarkEntryStore 得分记录的持久层
type MarkEntryStore interface {
	Create(entry *model.MarkEntry) error
	Update(entry *model.MarkEntry) error
	Delete(id uint) error
	FindByID(id uint) (*model.MarkEntry, error)
	FindByStudentAndQuestion(studentID, questionID uint) (*model.MarkEntry, error)
	ListByStudentAndSection(studentID, sectionID uint) ([]model.MarkEntry, error)
	DistinctStudentsBySection(sectionID uint) ([]uint, error)
	CountByQuestion(questionID uint) (int64, error)
}

// QuestionFinder 录入校验所需的题目查询
type QuestionFinder interface {
	FindQuestionByID(id uint) (*model.Question, error)
}

// MarksService 得分录入与重算触发。
// 任何涉及选做题的写入都会同步触发该学生该分区的 counted 重算；
// counted 标志永远由引擎分配，不接受客户端直接设置。
type MarksService struct {
	MarkRepo MarkEntryStore
	ExamRepo QuestionFinder
	Engine   *grading.Engine
}

func NewMarksService(markRepo MarkEntryStore, examRepo QuestionFinder, engine *grading.Engine) *MarksService {
	return &MarksService{MarkRepo: markRepo, ExamRepo: examRepo, Engine: engine}
}

type MarkEntryRequest struct {
	StudentID     uint    `json:"studentId" binding:"required"`
	QuestionID    uint    `json:"questionId" binding:"required"`
	MarksObtained float64 `json:"marksObtained" binding:"min=0"`
}

type BulkMarksRequest struct {
	Entries []MarkEntryRequest `json:"entries" binding:"required,dive"`
}

// BulkMarksResult 批量录入结果：逐条错误不中断整批
type BulkMarksResult struct {
	Saved      int      `json:"saved"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
	Recomputed int      `json:"recomputed"`
}

// ReprocessResult 分区全量重算结果
type ReprocessResult struct {
	SectionID uint   `json:"sectionId"`
	Processed int    `json:"processed"`
	Failed    []uint `json:"failed,omitempty"`
}

// EnterMark 录入或更新一条得分。选做题写入后同步重算，
// 重算失败时得分已落库、该组合保持 Dirty，错误上抛给调用方。
func (s *MarksService) EnterMark(ctx context.Context, graderID uint, req MarkEntryRequest) (*model.MarkEntry, error) {
	entry, q, err := s.saveMark(graderID, req)
	if err != nil {
		return nil, err
	}

	if q.IsOptional {
		if err := s.Engine.RecomputeSection(ctx, req.StudentID, entry.SectionID); err != nil {
			return entry, err
		}
	}
	return entry, nil
}

// DeleteMark 删除一条得分并重算该学生该分区的计入标志。
// 重算不依赖题目查询：被删记录的题目本身已被删除时同样收敛。
func (s *MarksService) DeleteMark(ctx context.Context, markID uint) error {
	entry, err := s.MarkRepo.FindByID(markID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrMarkNotFound
		}
		return err
	}

	if err := s.MarkRepo.Delete(markID); err != nil {
		return err
	}
	return s.Engine.RecomputeSection(ctx, entry.StudentID, entry.SectionID)
}

// BulkEnterMarks 批量录入。先写全部得分，再对每个被触达的
// (student, section) 重算一次，避免每行一次重算。
func (s *MarksService) BulkEnterMarks(ctx context.Context, graderID uint, req BulkMarksRequest) (*BulkMarksResult, error) {
	result := &BulkMarksResult{}
	touched := make(map[[2]uint]struct{})

	for _, item := range req.Entries {
		entry, _, err := s.saveMark(graderID, item)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Saved++
		touched[[2]uint{item.StudentID, entry.SectionID}] = struct{}{}
	}

	for pair := range touched {
		if err := s.Engine.RecomputeSection(ctx, pair[0], pair[1]); err != nil {
			logger.Log.Warn("bulk recompute failed",
				zap.Uint("studentId", pair[0]),
				zap.Uint("sectionId", pair[1]),
				zap.Error(err))
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Recomputed++
	}
	return result, nil
}

// RecomputeSection 手动触发单个学生单个分区的重算
func (s *MarksService) RecomputeSection(ctx context.Context, studentID, sectionID uint) error {
	return s.Engine.RecomputeSection(ctx, studentID, sectionID)
}

// ReprocessSection 分区全量重算：对分区内有得分记录的每个学生各执行一次。
// 单个学生失败不中断整体，失败的学生保持 Dirty 等待下次重试。
func (s *MarksService) ReprocessSection(ctx context.Context, sectionID uint) (*ReprocessResult, error) {
	students, err := s.MarkRepo.DistinctStudentsBySection(sectionID)
	if err != nil {
		return nil, err
	}

	result := &ReprocessResult{SectionID: sectionID}
	for _, studentID := range students {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.Engine.RecomputeSection(ctx, studentID, sectionID); err != nil {
			logger.Log.Error("reprocess student failed",
				zap.Uint("studentId", studentID),
				zap.Uint("sectionId", sectionID),
				zap.Error(err))
			result.Failed = append(result.Failed, studentID)
			continue
		}
		result.Processed++
	}
	return result, nil
}

// ListSectionMarks 一个学生在一个分区内的全部得分记录
func (s *MarksService) ListSectionMarks(studentID, sectionID uint) ([]model.MarkEntry, error) {
	return s.MarkRepo.ListByStudentAndSection(studentID, sectionID)
}

// CountForQuestion 一道题现有的得分记录数，删题前的安全检查使用
func (s *MarksService) CountForQuestion(questionID uint) (int64, error) {
	return s.MarkRepo.CountByQuestion(questionID)
}

// saveMark 写入一条得分（存在则更新）。MaxMarks 以题目当前分值为准写入，
// 得分超出题目分值直接拒绝。
func (s *MarksService) saveMark(graderID uint, req MarkEntryRequest) (*model.MarkEntry, *model.Question, error) {
	q, err := s.ExamRepo.FindQuestionByID(req.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrQuestionNotFound
		}
		return nil, nil, err
	}
	if req.MarksObtained < 0 || req.MarksObtained > q.Points {
		return nil, nil, util.ErrMarksOutOfRange
	}

	now := time.Now()
	existing, err := s.MarkRepo.FindByStudentAndQuestion(req.StudentID, req.QuestionID)
	if err == nil {
		existing.MarksObtained = req.MarksObtained
		existing.MaxMarks = q.Points
		existing.GradedBy = graderID
		existing.GradedAt = &now
		if err := s.MarkRepo.Update(existing); err != nil {
			return nil, nil, err
		}
		return existing, q, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	entry := &model.MarkEntry{
		StudentID:     req.StudentID,
		QuestionID:    req.QuestionID,
		SectionID:     q.SectionID,
		MarksObtained: req.MarksObtained,
		MaxMarks:      q.Points,
		Counted:       !q.IsOptional, // 必做题恒计入；选做题由随后的重算分配
		GradedBy:      graderID,
		GradedAt:      &now,
	}
	if err := s.MarkRepo.Create(entry); err != nil {
		return nil, nil, err
	}
	return entry, q, nil
}
