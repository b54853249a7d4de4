package service

import (
	"aims_backend/internal/model"
	"aims_backend/internal/util"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ExamStore 试卷结构的持久层
type ExamStore interface {
	CreateExam(exam *model.Exam) error
	UpdateExam(exam *model.Exam) error
	FindExamByID(id uint) (*model.Exam, error)
	CreateSection(section *model.ExamSection) error
	UpdateSection(section *model.ExamSection) error
	FindSectionByID(id uint) (*model.ExamSection, error)
	ListSectionsByExam(examID uint) ([]model.ExamSection, error)
	CreateQuestion(q *model.Question) error
	UpdateQuestion(q *model.Question) error
	DeleteQuestion(id uint) error
	FindQuestionByID(id uint) (*model.Question, error)
	ListQuestionsBySection(sectionID uint) ([]model.Question, error)
}

// ExamService 试卷结构管理：试卷、分区、试题的增删改查与发布。
// 发布后的试卷结构冻结，任何试题变更都会被拒绝。
// 影响已有 counted 标志的结构变更（配额调整）同步触发分区重算。
type ExamService struct {
	ExamRepo ExamStore
	Marks    *MarksService
}

func NewExamService(examRepo ExamStore, marks *MarksService) *ExamService {
	return &ExamService{ExamRepo: examRepo, Marks: marks}
}

type ExamCreateRequest struct {
	Title     string     `json:"title" binding:"required"`
	SubjectID uint       `json:"subjectId" binding:"required"`
	ClassID   uint       `json:"classId" binding:"required"`
	ExamDate  *time.Time `json:"examDate"`
}

type SectionCreateRequest struct {
	ExamID             uint   `json:"examId" binding:"required"`
	Name               string `json:"name" binding:"required"`
	Order              int    `json:"order"`
	QuestionsToAttempt int    `json:"questionsToAttempt" binding:"min=0"`
}

type SectionUpdateRequest struct {
	Name               *string `json:"name"`
	Order              *int    `json:"order"`
	QuestionsToAttempt *int    `json:"questionsToAttempt"`
}

type QuestionCreateRequest struct {
	SectionID  uint    `json:"sectionId" binding:"required"`
	Text       string  `json:"text"`
	Points     float64 `json:"points" binding:"required,gt=0"`
	IsOptional bool    `json:"isOptional"`
	COID       *uint   `json:"coId"`
	Order      int     `json:"order"`
}

type QuestionUpdateRequest struct {
	Text       *string  `json:"text"`
	Points     *float64 `json:"points"`
	IsOptional *bool    `json:"isOptional"`
	COID       *uint    `json:"coId"`
	Order      *int     `json:"order"`
}

// ExamStructure 嵌套返回整卷结构
type ExamStructure struct {
	Exam     *model.Exam        `json:"exam"`
	Sections []SectionStructure `json:"sections"`
}

type SectionStructure struct {
	Section   model.ExamSection `json:"section"`
	Questions []model.Question  `json:"questions"`
}

func (s *ExamService) CreateExam(creatorID uint, req ExamCreateRequest) (*model.Exam, error) {
	exam := &model.Exam{
		Title:     req.Title,
		SubjectID: req.SubjectID,
		ClassID:   req.ClassID,
		CreatorID: creatorID,
		ExamDate:  req.ExamDate,
	}
	if err := s.ExamRepo.CreateExam(exam); err != nil {
		return nil, err
	}
	return exam, nil
}

func (s *ExamService) GetExam(examID uint) (*model.Exam, error) {
	exam, err := s.ExamRepo.FindExamByID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}
	return exam, nil
}

// PublishExam 发布试卷并冻结其结构
func (s *ExamService) PublishExam(examID uint) (*model.Exam, error) {
	exam, err := s.GetExam(examID)
	if err != nil {
		return nil, err
	}
	if exam.IsPublished {
		return exam, nil
	}
	now := time.Now()
	exam.IsPublished = true
	exam.PublishedAt = &now
	if err := s.ExamRepo.UpdateExam(exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// GetExamStructure 返回试卷及其全部分区与试题
func (s *ExamService) GetExamStructure(examID uint) (*ExamStructure, error) {
	exam, err := s.GetExam(examID)
	if err != nil {
		return nil, err
	}
	sections, err := s.ExamRepo.ListSectionsByExam(examID)
	if err != nil {
		return nil, err
	}
	structure := &ExamStructure{Exam: exam}
	for _, sec := range sections {
		questions, err := s.ExamRepo.ListQuestionsBySection(sec.ID)
		if err != nil {
			return nil, err
		}
		structure.Sections = append(structure.Sections, SectionStructure{
			Section:   sec,
			Questions: questions,
		})
	}
	return structure, nil
}

func (s *ExamService) CreateSection(req SectionCreateRequest) (*model.ExamSection, error) {
	exam, err := s.GetExam(req.ExamID)
	if err != nil {
		return nil, err
	}
	if exam.IsPublished {
		return nil, util.ErrExamPublished
	}
	section := &model.ExamSection{
		ExamID:             req.ExamID,
		Name:               req.Name,
		Order:              req.Order,
		QuestionsToAttempt: req.QuestionsToAttempt,
	}
	if err := s.ExamRepo.CreateSection(section); err != nil {
		return nil, err
	}
	return section, nil
}

// UpdateSection 更新分区。配额（questionsToAttempt）变化会使已有得分的
// counted 标志失效，保存后立即对分区内全部学生重算；单个学生重算失败
// 保持 Dirty，由 ReprocessSection 内部记录日志。
func (s *ExamService) UpdateSection(ctx context.Context, sectionID uint, req SectionUpdateRequest) (*model.ExamSection, error) {
	section, err := s.findSection(sectionID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNotPublished(section.ExamID); err != nil {
		return nil, err
	}
	oldQuota := section.QuestionsToAttempt
	if req.Name != nil {
		section.Name = *req.Name
	}
	if req.Order != nil {
		section.Order = *req.Order
	}
	if req.QuestionsToAttempt != nil {
		section.QuestionsToAttempt = *req.QuestionsToAttempt
	}
	if err := s.ExamRepo.UpdateSection(section); err != nil {
		return nil, err
	}
	if section.QuestionsToAttempt != oldQuota {
		if _, err := s.Marks.ReprocessSection(ctx, sectionID); err != nil {
			return section, err
		}
	}
	return section, nil
}

func (s *ExamService) CreateQuestion(req QuestionCreateRequest) (*model.Question, error) {
	section, err := s.findSection(req.SectionID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNotPublished(section.ExamID); err != nil {
		return nil, err
	}
	q := &model.Question{
		SectionID:  req.SectionID,
		Text:       req.Text,
		Points:     req.Points,
		IsOptional: req.IsOptional,
		COID:       req.COID,
		Order:      req.Order,
	}
	if err := s.ExamRepo.CreateQuestion(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *ExamService) UpdateQuestion(questionID uint, req QuestionUpdateRequest) (*model.Question, error) {
	q, err := s.findQuestion(questionID)
	if err != nil {
		return nil, err
	}
	section, err := s.findSection(q.SectionID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNotPublished(section.ExamID); err != nil {
		return nil, err
	}
	if req.Text != nil {
		q.Text = *req.Text
	}
	if req.Points != nil {
		if *req.Points <= 0 {
			return nil, util.ErrMarksOutOfRange
		}
		q.Points = *req.Points
	}
	if req.IsOptional != nil {
		q.IsOptional = *req.IsOptional
	}
	if req.COID != nil {
		q.COID = req.COID
	}
	if req.Order != nil {
		q.Order = *req.Order
	}
	if err := s.ExamRepo.UpdateQuestion(q); err != nil {
		return nil, err
	}
	return q, nil
}

// DeleteQuestion 删除一道题。已存在得分记录的题目拒绝删除，
// 否则遗留的得分行会在后续重算中永久报不一致。
func (s *ExamService) DeleteQuestion(questionID uint) error {
	q, err := s.findQuestion(questionID)
	if err != nil {
		return err
	}
	section, err := s.findSection(q.SectionID)
	if err != nil {
		return err
	}
	if err := s.ensureNotPublished(section.ExamID); err != nil {
		return err
	}
	n, err := s.Marks.CountForQuestion(questionID)
	if err != nil {
		return err
	}
	if n > 0 {
		return util.ErrQuestionHasMarks
	}
	return s.ExamRepo.DeleteQuestion(questionID)
}

func (s *ExamService) findSection(sectionID uint) (*model.ExamSection, error) {
	section, err := s.ExamRepo.FindSectionByID(sectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSectionNotFound
		}
		return nil, err
	}
	return section, nil
}

func (s *ExamService) findQuestion(questionID uint) (*model.Question, error) {
	q, err := s.ExamRepo.FindQuestionByID(questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

func (s *ExamService) ensureNotPublished(examID uint) error {
	exam, err := s.GetExam(examID)
	if err != nil {
		return err
	}
	if exam.IsPublished {
		return util.ErrExamPublished
	}
	return nil
}
