package model

// CourseOutcome 课程目标(CO)，隶属于一个科目
type CourseOutcome struct {
	BaseModel
	SubjectID   uint   `gorm:"index;not null" json:"subjectId"`
	Code        string `gorm:"size:50;not null" json:"code"`
	Description string `gorm:"type:text" json:"description"`
}

func (CourseOutcome) TableName() string {
	return "course_outcomes"
}

// ProgramOutcome 专业培养目标(PO)，面向整个院系
type ProgramOutcome struct {
	BaseModel
	Code        string `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Description string `gorm:"type:text" json:"description"`
}

func (ProgramOutcome) TableName() string {
	return "program_outcomes"
}

// CoPoMapping CO 到 PO 的加权映射，多对多。
// Strength 是权重而不是计数，PO 达成度按权重加权平均。
type CoPoMapping struct {
	BaseModel
	COID     uint    `gorm:"uniqueIndex:idx_co_po;not null" json:"coId"`
	POID     uint    `gorm:"uniqueIndex:idx_co_po;not null" json:"poId"`
	Strength float64 `gorm:"not null;default:1" json:"strength"`
}

func (CoPoMapping) TableName() string {
	return "co_po_mappings"
}
