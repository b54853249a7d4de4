package grading

import (
	"context"
	"time"
)

// QuestionView 引擎所需的试题只读视图
type QuestionView struct {
	ID         uint    `json:"id"`
	MaxMarks   float64 `json:"maxMarks"`
	IsOptional bool    `json:"isOptional"`
	COID       *uint   `json:"coId,omitempty"`
}

// SectionView 分区只读视图。QuestionsToAttempt 为 0 表示该分区
// 未配置选做规则，所有已作答题目全部计入。
type SectionView struct {
	ID                 uint           `json:"id"`
	QuestionsToAttempt int            `json:"questionsToAttempt"`
	Questions          []QuestionView `json:"questions"`
}

// MarkView 得分记录视图
type MarkView struct {
	ID            uint    `json:"id"`
	StudentID     uint    `json:"studentId"`
	QuestionID    uint    `json:"questionId"`
	MarksObtained float64 `json:"marksObtained"`
	MaxMarks      float64 `json:"maxMarks"`
	Counted       bool    `json:"counted"`
}

// AggregateResult 学生在某一范围（分区或整卷）内的聚合结果
type AggregateResult struct {
	ObtainedTotal float64 `json:"obtainedTotal"`
	PossibleTotal float64 `json:"possibleTotal"`
	Percentage    float64 `json:"percentage"`
	GradeBand     string  `json:"gradeBand"`
}

// COAttainment 课程目标达成度
type COAttainment struct {
	COID         uint    `json:"coId"`
	ObtainedSum  float64 `json:"obtainedSum"`
	PossibleSum  float64 `json:"possibleSum"`
	Percentage   float64 `json:"percentage"`
	StudentCount int     `json:"studentCount"`
	DataMissing  bool    `json:"dataMissing"`
}

// POAttainment 专业培养目标达成度（按映射权重加权）
type POAttainment struct {
	POID            uint    `json:"poId"`
	Percentage      float64 `json:"percentage"`
	ContributingCOs int     `json:"contributingCoCount"`
	DataMissing     bool    `json:"dataMissing"`
}

// CohortScope 达成度统计的群体范围。ExamID 必填，ClassID 可选
// （为 0 时不按班级过滤）。
type CohortScope struct {
	ExamID  uint `json:"examId"`
	ClassID uint `json:"classId,omitempty"`
}

// COPOWeight 一条 CO-PO 加权映射
type COPOWeight struct {
	COID     uint    `json:"coId"`
	POID     uint    `json:"poId"`
	Strength float64 `json:"strength"`
}

// Catalog 试卷元数据的只读来源
type Catalog interface {
	GetSection(ctx context.Context, sectionID uint) (*SectionView, error)
}

// RecomputeFunc 纯计算回调：输入当前全部得分行，返回 counted 标志的新分配
type RecomputeFunc func(marks []MarkView) (counted, notCounted []uint, err error)

// MarkStore 得分记录的持久层。
// RecomputeCounted 必须在单个事务内锁定该 (student, section) 的全部得分行，
// 把行传给 compute，并将返回的 counted 标志原子写回；部分写入是被禁止的。
type MarkStore interface {
	ListMarks(ctx context.Context, studentID, sectionID uint) ([]MarkView, error)
	RecomputeCounted(ctx context.Context, studentID, sectionID uint, compute RecomputeFunc) error
}

// MappingStore PO 汇总所需的 CO-PO 映射只读来源
type MappingStore interface {
	ListMappingsForPO(ctx context.Context, poID uint) ([]COPOWeight, error)
}

// AttainmentStore 达成度统计的读路径：返回范围内指定 CO 所有计入总分的得分行
type AttainmentStore interface {
	ListCountedMarksForCO(ctx context.Context, coID uint, scope CohortScope) ([]MarkView, error)
}

const (
	EventMarkRecomputed      = "mark.recomputed"
	EventAttainmentRequested = "attainment.requested"
)

// Event 引擎对外发布的事件。mark.recomputed 填 StudentID/SectionID/CountedIDs，
// attainment.requested 填 OutcomeID/Scope。
type Event struct {
	ID         string       `json:"id"`
	Type       string       `json:"type"`
	StudentID  uint         `json:"studentId,omitempty"`
	SectionID  uint         `json:"sectionId,omitempty"`
	CountedIDs []uint       `json:"countedIds,omitempty"`
	OutcomeID  uint         `json:"outcomeId,omitempty"`
	Scope      *CohortScope `json:"scope,omitempty"`
	OccurredAt time.Time    `json:"occurredAt"`
}

// Publisher 事件发布依赖，由外部注入。发布失败不阻塞评分流程。
type Publisher interface {
	Publish(evt Event) error
}
