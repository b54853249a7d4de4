package service

import (
	"aims_backend/internal/model"
	"aims_backend/internal/repository"
	"aims_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

// OutcomeService 课程目标(CO)、专业培养目标(PO)及 CO-PO 映射的管理
type OutcomeService struct {
	OutcomeRepo *repository.OutcomeRepository
}

func NewOutcomeService(outcomeRepo *repository.OutcomeRepository) *OutcomeService {
	return &OutcomeService{OutcomeRepo: outcomeRepo}
}

type COCreateRequest struct {
	SubjectID   uint   `json:"subjectId" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Description string `json:"description"`
}

type MappingRequest struct {
	COID     uint    `json:"coId" binding:"required"`
	POID     uint    `json:"poId" binding:"required"`
	Strength float64 `json:"strength" binding:"required,gt=0"`
}

func (s *OutcomeService) CreateCO(req COCreateRequest) (*model.CourseOutcome, error) {
	co := &model.CourseOutcome{
		SubjectID:   req.SubjectID,
		Code:        req.Code,
		Description: req.Description,
	}
	if err := s.OutcomeRepo.CreateCO(co); err != nil {
		return nil, err
	}
	return co, nil
}

func (s *OutcomeService) ListCOsBySubject(subjectID uint) ([]model.CourseOutcome, error) {
	return s.OutcomeRepo.ListCOsBySubject(subjectID)
}

func (s *OutcomeService) ListPOs() ([]model.ProgramOutcome, error) {
	return s.OutcomeRepo.ListPOs()
}

// SetMapping 建立或更新一条 CO-PO 加权映射
func (s *OutcomeService) SetMapping(req MappingRequest) (*model.CoPoMapping, error) {
	if _, err := s.OutcomeRepo.FindCOByID(req.COID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrOutcomeNotFound
		}
		return nil, err
	}
	if _, err := s.OutcomeRepo.FindPOByID(req.POID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrOutcomeNotFound
		}
		return nil, err
	}

	existing, err := s.OutcomeRepo.FindMapping(req.COID, req.POID)
	if err == nil {
		existing.Strength = req.Strength
		if err := s.OutcomeRepo.UpdateMapping(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	m := &model.CoPoMapping{COID: req.COID, POID: req.POID, Strength: req.Strength}
	if err := s.OutcomeRepo.CreateMapping(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *OutcomeService) DeleteMapping(id uint) error {
	return s.OutcomeRepo.DeleteMapping(id)
}
