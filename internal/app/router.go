package app

import (
	"aims_backend/docs"
	"aims_backend/internal/config"
	"aims_backend/internal/middleware"
	"aims_backend/internal/model"
	"aims_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.Profile)

		// 学生可访问：自己的成绩
		authGroup.GET("/exams/:examId/totals", c.attainment.GetStudentTotals)

		// 教师/管理员：试卷结构管理
		staff := authGroup.Group("")
		staff.Use(middleware.RoleMiddleware(model.Teacher))
		{
			staff.POST("/exams", c.exam.CreateExam)
			staff.GET("/exams/:examId", c.exam.GetExamStructure)
			staff.POST("/exams/:examId/publish", c.exam.PublishExam)
			staff.GET("/exams/:examId/summary", c.attainment.GetClassSummary)

			staff.POST("/sections", c.exam.CreateSection)
			staff.PUT("/sections/:sectionId", c.exam.UpdateSection)
			staff.GET("/sections/:sectionId/marks", c.marks.ListSectionMarks)
			staff.POST("/sections/:sectionId/reprocess", c.marks.ReprocessSection)

			staff.POST("/questions", c.exam.CreateQuestion)
			staff.PUT("/questions/:id", c.exam.UpdateQuestion)
			staff.DELETE("/questions/:id", c.exam.DeleteQuestion)

			// 评分
			staff.POST("/marks", c.marks.EnterMark)
			staff.POST("/marks/bulk", c.marks.BulkEnterMarks)
			staff.DELETE("/marks/:id", c.marks.DeleteMark)

			// 达成度
			staff.GET("/outcomes/co/:id/attainment", c.attainment.GetCOAttainment)
			staff.GET("/outcomes/po/:id/attainment", c.attainment.GetPOAttainment)
			staff.GET("/subjects/:subjectId/co-report", c.attainment.GetSubjectCOReport)
			staff.GET("/outcomes/po", c.attainment.ListPOs)
		}

		// 管理员：目标与映射维护
		admin := authGroup.Group("")
		admin.Use(middleware.RoleMiddleware(model.Admin))
		{
			admin.POST("/outcomes/co", c.attainment.CreateCO)
			admin.POST("/outcomes/mappings", c.attainment.SetMapping)
			admin.DELETE("/outcomes/mappings/:id", c.attainment.DeleteMapping)
		}
	}
}
