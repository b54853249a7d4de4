package grading

import (
	"errors"
	"fmt"
)

var ErrSectionNotFound = errors.New("section not found")

// ConfigurationError 分区配置错误：某分值组的选做数量大于该组实际题目数。
// 这是出卷端的错误，在重算时上报而不是静默截断。
type ConfigurationError struct {
	SectionID  uint
	PointValue float64
	Quota      int
	GroupSize  int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("section %d: questions_to_attempt %d exceeds %d questions in %.2f-point group",
		e.SectionID, e.Quota, e.GroupSize, e.PointValue)
}

// InconsistentMarkError 得分记录的满分与题目分值不一致，引擎拒绝聚合该记录
type InconsistentMarkError struct {
	MarkID         uint
	QuestionID     uint
	EntryMax       float64
	QuestionPoints float64
}

func (e *InconsistentMarkError) Error() string {
	return fmt.Sprintf("mark %d: max_marks %.2f does not match question %d points %.2f",
		e.MarkID, e.EntryMax, e.QuestionID, e.QuestionPoints)
}

// PersistenceError counted 标志写回失败，(student, section) 保持 Dirty
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist counted flags: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
