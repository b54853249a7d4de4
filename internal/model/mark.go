package model

import (
	"time"
)

// MarkEntry 单个学生在单道题上的得分记录。
// (StudentID, QuestionID) 唯一；SectionID 冗余存储用于按分区检索和加锁。
// Counted 只能由重算流程写入，批量导入等直接写入必须随后触发一次重算。
type MarkEntry struct {
	BaseModel
	StudentID     uint       `gorm:"uniqueIndex:idx_student_question;index:idx_student_section;not null" json:"studentId"`
	QuestionID    uint       `gorm:"uniqueIndex:idx_student_question;not null" json:"questionId"`
	SectionID     uint       `gorm:"index:idx_student_section;not null" json:"sectionId"`
	MarksObtained float64    `gorm:"not null" json:"marksObtained"`
	MaxMarks      float64    `gorm:"not null" json:"maxMarks"`
	Counted       bool       `gorm:"default:true" json:"counted"`
	GradedBy      uint       `gorm:"index" json:"gradedBy"`
	GradedAt      *time.Time `json:"gradedAt,omitempty"`
}

func (MarkEntry) TableName() string {
	return "mark_entries"
}
