package model

import (
	"time"
)

// swagger:model Exam
type Exam struct {
	BaseModel
	Title       string     `gorm:"size:255;not null" json:"title"`
	SubjectID   uint       `gorm:"index;not null" json:"subjectId"`
	ClassID     uint       `gorm:"index;not null" json:"classId"`
	CreatorID   uint       `gorm:"index" json:"creatorId"`
	IsPublished bool       `gorm:"default:false" json:"isPublished"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	ExamDate    *time.Time `json:"examDate,omitempty"`
}

func (Exam) TableName() string {
	return "exams"
}

// ExamSection 试卷分区。QuestionsToAttempt 表示本区每个分值组中
// 选做题最多计入总分的题目数量，0 表示未配置（全部计入）。
type ExamSection struct {
	BaseModel
	ExamID             uint   `gorm:"index;not null" json:"examId"`
	Name               string `gorm:"size:100;not null" json:"name"`
	Order              int    `gorm:"default:0" json:"order"`
	QuestionsToAttempt int    `gorm:"default:0" json:"questionsToAttempt"`
}

func (ExamSection) TableName() string {
	return "exam_sections"
}

// Question 试题。试卷发布后不可再修改（由服务层约束）。
type Question struct {
	BaseModel
	SectionID  uint    `gorm:"index;not null" json:"sectionId"`
	Text       string  `gorm:"type:text" json:"text"`
	Points     float64 `gorm:"not null" json:"points"`
	IsOptional bool    `gorm:"default:false" json:"isOptional"`
	COID       *uint   `gorm:"index" json:"coId,omitempty"` // 关联的课程目标，可为空
	Order      int     `gorm:"default:0" json:"order"`
}

func (Question) TableName() string {
	return "questions"
}
