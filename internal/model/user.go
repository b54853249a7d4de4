package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:100;unique;not null" json:"email"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	Role      UserRole  `gorm:"type:enum('student','teacher','admin');default:'student'" json:"role"`
	ClassID   *uint     `gorm:"index" json:"classId,omitempty"` // 学生所属班级，教师/管理员为空
	Disabled  bool      `gorm:"default:false" json:"disabled"`
	LastLogin time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastLogin"`
	LastSeen  time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}

// Class 班级，作为达成度统计的一个群体范围
type Class struct {
	BaseModel
	Name string `gorm:"size:100;not null" json:"name"`
	Year int    `gorm:"default:0" json:"year"`
}

func (Class) TableName() string {
	return "classes"
}

// Subject 科目，课程目标(CO)挂在科目之下
type Subject struct {
	BaseModel
	Code string `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name string `gorm:"size:255;not null" json:"name"`
}

func (Subject) TableName() string {
	return "subjects"
}
