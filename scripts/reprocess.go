// 手动触发分区全量重算脚本
//
// 评分服务在每次写入后同步重算，正常情况下无需手动干预。
// 此脚本用于持久化故障恢复后、或批量导入历史数据后的兜底重算：
// 对指定分区内有得分记录的每个学生重新分配计入标志。
//
// 用法: go run scripts/reprocess.go <sectionID>

package main

import (
	"aims_backend/internal/config"
	"aims_backend/internal/event"
	"aims_backend/internal/grading"
	"aims_backend/internal/repository"
	"aims_backend/pkg/database"
	"aims_backend/pkg/logger"
	"context"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("用法: go run scripts/reprocess.go <sectionID>")
	}
	sectionID, err := strconv.ParseUint(os.Args[1], 10, 32)
	if err != nil || sectionID == 0 {
		log.Fatalf("非法的分区 ID: %s", os.Args[1])
	}

	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, false)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	examRepo := repository.NewExamRepository(db)
	markRepo := repository.NewMarkRepository(db)
	outcomeRepo := repository.NewOutcomeRepository(db)
	engine := grading.NewEngine(examRepo, markRepo, outcomeRepo, markRepo, event.NopPublisher{}, logger.Log)

	students, err := markRepo.DistinctStudentsBySection(uint(sectionID))
	if err != nil {
		log.Fatalf("查询学生列表失败: %v", err)
	}

	log.Printf("分区 %d 共 %d 个学生，开始重算...", sectionID, len(students))
	ctx := context.Background()
	failed := 0
	for _, studentID := range students {
		if err := engine.RecomputeSection(ctx, studentID, uint(sectionID)); err != nil {
			log.Printf("学生 %d 重算失败: %v", studentID, err)
			failed++
		}
	}
	log.Printf("完成！成功 %d，失败 %d", len(students)-failed, failed)
}
