package database

import (
	"aims_backend/internal/config"
	"aims_backend/internal/model"
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB 建立数据库连接。release 模式下默认跳过自动迁移，
// 需要通过 -migrate / -migrate-only 显式触发。
func InitDB(cfg *config.DatabaseConfig, mode string, forceMigrate bool) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if mode == "release" && !forceMigrate {
		log.Println("Release mode, skipping auto migration")
		return db, nil
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Class{},
		&model.Subject{},
		&model.Exam{},
		&model.ExamSection{},
		&model.Question{},
		&model.MarkEntry{},
		&model.CourseOutcome{},
		&model.ProgramOutcome{},
		&model.CoPoMapping{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 默认的 12 条专业培养目标（工程教育认证通用 PO1-PO12）
	var poCount int64
	db.Model(&model.ProgramOutcome{}).Count(&poCount)
	if poCount == 0 {
		defaultPOs := []model.ProgramOutcome{
			{Code: "PO1", Description: "Engineering knowledge"},
			{Code: "PO2", Description: "Problem analysis"},
			{Code: "PO3", Description: "Design/development of solutions"},
			{Code: "PO4", Description: "Conduct investigations of complex problems"},
			{Code: "PO5", Description: "Modern tool usage"},
			{Code: "PO6", Description: "The engineer and society"},
			{Code: "PO7", Description: "Environment and sustainability"},
			{Code: "PO8", Description: "Ethics"},
			{Code: "PO9", Description: "Individual and team work"},
			{Code: "PO10", Description: "Communication"},
			{Code: "PO11", Description: "Project management and finance"},
			{Code: "PO12", Description: "Life-long learning"},
		}
		for _, po := range defaultPOs {
			db.Create(&po)
		}
	}

	return db, nil
}
