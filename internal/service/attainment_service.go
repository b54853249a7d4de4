package service

import (
	"aims_backend/internal/grading"
	"aims_backend/internal/model"
	"aims_backend/internal/util"
	"aims_backend/pkg/logger"
	"aims_backend/pkg/monitoring"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ExamReader 成绩汇总所需的试卷查询
type ExamReader interface {
	FindExamByID(id uint) (*model.Exam, error)
	ListSectionsByExam(examID uint) ([]model.ExamSection, error)
}

// StudentLister 班级学生名单来源
type StudentLister interface {
	ListStudentIDsByClass(classID uint) ([]uint, error)
}

// OutcomeReader CO 报表所需的目标与映射查询
type OutcomeReader interface {
	ListCOsBySubject(subjectID uint) ([]model.CourseOutcome, error)
	ListMappingsForCO(ctx context.Context, coID uint) ([]grading.COPOWeight, error)
}

// AttainmentService 成绩结果与达成度的读路径。
// CO/PO 达成度是全群体扫描，结果经 Redis 缓存；缓存故障时直接回源计算。
type AttainmentService struct {
	ExamRepo    ExamReader
	UserRepo    StudentLister
	OutcomeRepo OutcomeReader
	Engine      *grading.Engine
	Redis       *redis.Client
	Publisher   grading.Publisher
	CacheTTL    time.Duration
}

func NewAttainmentService(
	examRepo ExamReader,
	userRepo StudentLister,
	outcomeRepo OutcomeReader,
	engine *grading.Engine,
	rdb *redis.Client,
	pub grading.Publisher,
	cacheTTL time.Duration,
) *AttainmentService {
	return &AttainmentService{
		ExamRepo:    examRepo,
		UserRepo:    userRepo,
		OutcomeRepo: outcomeRepo,
		Engine:      engine,
		Redis:       rdb,
		Publisher:   pub,
		CacheTTL:    cacheTTL,
	}
}

// SectionResult 单个分区的聚合结果
type SectionResult struct {
	SectionID uint   `json:"sectionId"`
	Name      string `json:"name"`
	grading.AggregateResult
}

// StudentTotals 一个学生一张试卷的完整成绩视图
type StudentTotals struct {
	StudentID uint                    `json:"studentId"`
	ExamID    uint                    `json:"examId"`
	Sections  []SectionResult         `json:"sections"`
	Overall   grading.AggregateResult `json:"overall"`
}

// ClassSummary 班级维度的整卷成绩汇总
type ClassSummary struct {
	ExamID       uint            `json:"examId"`
	ClassID      uint            `json:"classId"`
	StudentCount int             `json:"studentCount"`
	Average      float64         `json:"averagePercentage"`
	Highest      float64         `json:"highestPercentage"`
	Lowest       float64         `json:"lowestPercentage"`
	Students     []StudentTotals `json:"students"`
}

// GetStudentTotals 逐分区聚合后合并为整卷结果
func (s *AttainmentService) GetStudentTotals(ctx context.Context, studentID, examID uint) (*StudentTotals, error) {
	if _, err := s.ExamRepo.FindExamByID(examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}

	sections, err := s.ExamRepo.ListSectionsByExam(examID)
	if err != nil {
		return nil, err
	}

	totals := &StudentTotals{StudentID: studentID, ExamID: examID}
	parts := make([]grading.AggregateResult, 0, len(sections))
	for _, sec := range sections {
		res, err := s.Engine.AggregateSection(ctx, studentID, sec.ID)
		if err != nil {
			return nil, err
		}
		totals.Sections = append(totals.Sections, SectionResult{
			SectionID:       sec.ID,
			Name:            sec.Name,
			AggregateResult: res,
		})
		parts = append(parts, res)
	}
	totals.Overall = s.Engine.CombineSections(parts...)
	return totals, nil
}

// GetClassSummary 对试卷所属班级的每个学生聚合整卷成绩
func (s *AttainmentService) GetClassSummary(ctx context.Context, examID uint) (*ClassSummary, error) {
	exam, err := s.ExamRepo.FindExamByID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}

	studentIDs, err := s.UserRepo.ListStudentIDsByClass(exam.ClassID)
	if err != nil {
		return nil, err
	}

	summary := &ClassSummary{ExamID: examID, ClassID: exam.ClassID}
	for _, studentID := range studentIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		totals, err := s.GetStudentTotals(ctx, studentID, examID)
		if err != nil {
			return nil, err
		}
		summary.Students = append(summary.Students, *totals)
	}

	summary.StudentCount = len(summary.Students)
	if summary.StudentCount > 0 {
		var sum float64
		summary.Lowest = summary.Students[0].Overall.Percentage
		for _, st := range summary.Students {
			pct := st.Overall.Percentage
			sum += pct
			if pct > summary.Highest {
				summary.Highest = pct
			}
			if pct < summary.Lowest {
				summary.Lowest = pct
			}
		}
		summary.Average = grading.Round2(sum / float64(summary.StudentCount))
	}
	return summary, nil
}

// GetCOAttainment 单个 CO 的达成度，带读缓存
func (s *AttainmentService) GetCOAttainment(ctx context.Context, coID uint, scope grading.CohortScope) (*grading.COAttainment, error) {
	key := fmt.Sprintf("aims:attain:co:%d:exam:%d:class:%d", coID, scope.ExamID, scope.ClassID)

	var cached grading.COAttainment
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	res, err := s.Engine.RollCO(ctx, coID, scope)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, res)
	s.publishRequested(coID, scope)
	return &res, nil
}

// GetPOAttainment 单个 PO 的加权达成度，带读缓存
func (s *AttainmentService) GetPOAttainment(ctx context.Context, poID uint, scope grading.CohortScope) (*grading.POAttainment, error) {
	key := fmt.Sprintf("aims:attain:po:%d:exam:%d:class:%d", poID, scope.ExamID, scope.ClassID)

	var cached grading.POAttainment
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	res, err := s.Engine.RollPO(ctx, poID, scope)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, res)
	s.publishRequested(poID, scope)
	return &res, nil
}

// SubjectCOReport 一个科目下全部 CO 的达成度清单
type SubjectCOReport struct {
	SubjectID uint                `json:"subjectId"`
	Scope     grading.CohortScope `json:"scope"`
	Items     []COReportItem      `json:"items"`
}

type COReportItem struct {
	Code     string               `json:"code"`
	Mappings []grading.COPOWeight `json:"mappings,omitempty"`
	grading.COAttainment
}

// GetSubjectCOReport 对科目下每个 CO 统计达成度并附带其 PO 映射，
// 缺数据的 CO 保留在结果中并标记 dataMissing
func (s *AttainmentService) GetSubjectCOReport(ctx context.Context, subjectID uint, scope grading.CohortScope) (*SubjectCOReport, error) {
	cos, err := s.OutcomeRepo.ListCOsBySubject(subjectID)
	if err != nil {
		return nil, err
	}

	report := &SubjectCOReport{SubjectID: subjectID, Scope: scope}
	for _, co := range cos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := s.GetCOAttainment(ctx, co.ID, scope)
		if err != nil {
			return nil, err
		}
		mappings, err := s.OutcomeRepo.ListMappingsForCO(ctx, co.ID)
		if err != nil {
			return nil, err
		}
		report.Items = append(report.Items, COReportItem{
			Code:         co.Code,
			Mappings:     mappings,
			COAttainment: *res,
		})
	}
	return report, nil
}

// ListCOsForSubject 供控制器查询科目下的 CO 定义
func (s *AttainmentService) ListCOsForSubject(subjectID uint) ([]model.CourseOutcome, error) {
	return s.OutcomeRepo.ListCOsBySubject(subjectID)
}

// publishRequested 每次真正回源计算达成度时通知下游（分析管道等）。
// 发布失败只记日志。
func (s *AttainmentService) publishRequested(outcomeID uint, scope grading.CohortScope) {
	if s.Publisher == nil {
		return
	}
	evt := grading.Event{
		ID:         uuid.New().String(),
		Type:       grading.EventAttainmentRequested,
		OutcomeID:  outcomeID,
		Scope:      &scope,
		OccurredAt: time.Now(),
	}
	if err := s.Publisher.Publish(evt); err != nil {
		logger.Log.Warn("publish attainment event failed", zap.Uint("outcomeId", outcomeID), zap.Error(err))
	}
}

func (s *AttainmentService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.Redis == nil {
		return false
	}
	data, err := s.Redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("attainment cache read failed", zap.String("key", key), zap.Error(err))
		}
		monitoring.AttainmentCacheHits.WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		monitoring.AttainmentCacheHits.WithLabelValues("miss").Inc()
		return false
	}
	monitoring.AttainmentCacheHits.WithLabelValues("hit").Inc()
	return true
}

func (s *AttainmentService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.Redis == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, key, data, s.CacheTTL).Err(); err != nil {
		logger.Log.Warn("attainment cache write failed", zap.String("key", key), zap.Error(err))
	}
}
