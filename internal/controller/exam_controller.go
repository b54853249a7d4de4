package controller

import (
	"aims_backend/internal/service"
	"aims_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type ExamController struct {
	ExamService *service.ExamService
}

func NewExamController(examService *service.ExamService) *ExamController {
	return &ExamController{ExamService: examService}
}

// CreateExam godoc
// @Summary 创建试卷
// @Tags 试卷
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.ExamCreateRequest true "试卷信息"
// @Success 201 {object} util.Response{data=model.Exam}
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/exams [post]
func (c *ExamController) CreateExam(ctx *gin.Context) {
	var req service.ExamCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	exam, err := c.ExamService.CreateExam(claims.UserID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, exam)
}

// GetExamStructure godoc
// @Summary 查询试卷结构
// @Description 返回试卷及其全部分区与试题
// @Tags 试卷
// @Produce  json
// @Security BearerAuth
// @Param   examId path int true "试卷ID"
// @Success 200 {object} util.Response{data=service.ExamStructure}
// @Failure 404 {object} util.Response "试卷不存在"
// @Router /api/exams/{examId} [get]
func (c *ExamController) GetExamStructure(ctx *gin.Context) {
	examID, ok := parseIDParam(ctx, "examId")
	if !ok {
		return
	}

	structure, err := c.ExamService.GetExamStructure(examID)
	if err != nil {
		if errors.Is(err, util.ErrExamNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, structure)
}

// PublishExam godoc
// @Summary 发布试卷
// @Description 发布后试卷结构冻结，试题不可再修改
// @Tags 试卷
// @Produce  json
// @Security BearerAuth
// @Param   examId path int true "试卷ID"
// @Success 200 {object} util.Response{data=model.Exam}
// @Failure 404 {object} util.Response "试卷不存在"
// @Router /api/exams/{examId}/publish [post]
func (c *ExamController) PublishExam(ctx *gin.Context) {
	examID, ok := parseIDParam(ctx, "examId")
	if !ok {
		return
	}

	exam, err := c.ExamService.PublishExam(examID)
	if err != nil {
		if errors.Is(err, util.ErrExamNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, exam)
}

// CreateSection godoc
// @Summary 创建试卷分区
// @Tags 试卷
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.SectionCreateRequest true "分区信息"
// @Success 201 {object} util.Response{data=model.ExamSection}
// @Failure 409 {object} util.Response "试卷已发布"
// @Router /api/sections [post]
func (c *ExamController) CreateSection(ctx *gin.Context) {
	var req service.SectionCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	section, err := c.ExamService.CreateSection(req)
	if err != nil {
		c.writeCatalogError(ctx, err)
		return
	}
	util.Created(ctx, section)
}

// UpdateSection godoc
// @Summary 更新试卷分区
// @Description 包括选做题配额 questionsToAttempt 的调整
// @Tags 试卷
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   sectionId path int true "分区ID"
// @Param   body body service.SectionUpdateRequest true "更新字段"
// @Success 200 {object} util.Response{data=model.ExamSection}
// @Failure 409 {object} util.Response "试卷已发布"
// @Router /api/sections/{sectionId} [put]
func (c *ExamController) UpdateSection(ctx *gin.Context) {
	sectionID, ok := parseIDParam(ctx, "sectionId")
	if !ok {
		return
	}

	var req service.SectionUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	section, err := c.ExamService.UpdateSection(ctx.Request.Context(), sectionID, req)
	if err != nil {
		c.writeCatalogError(ctx, err)
		return
	}
	util.Success(ctx, section)
}

// CreateQuestion godoc
// @Summary 创建试题
// @Tags 试卷
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.QuestionCreateRequest true "试题信息"
// @Success 201 {object} util.Response{data=model.Question}
// @Failure 409 {object} util.Response "试卷已发布"
// @Router /api/questions [post]
func (c *ExamController) CreateQuestion(ctx *gin.Context) {
	var req service.QuestionCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := c.ExamService.CreateQuestion(req)
	if err != nil {
		c.writeCatalogError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// UpdateQuestion godoc
// @Summary 更新试题
// @Tags 试卷
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "试题ID"
// @Param   body body service.QuestionUpdateRequest true "更新字段"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 409 {object} util.Response "试卷已发布"
// @Router /api/questions/{id} [put]
func (c *ExamController) UpdateQuestion(ctx *gin.Context) {
	questionID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req service.QuestionUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := c.ExamService.UpdateQuestion(questionID, req)
	if err != nil {
		c.writeCatalogError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// DeleteQuestion godoc
// @Summary 删除试题
// @Tags 试卷
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "试题ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "试卷已发布或该题已有得分记录"
// @Router /api/questions/{id} [delete]
func (c *ExamController) DeleteQuestion(ctx *gin.Context) {
	questionID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.ExamService.DeleteQuestion(questionID); err != nil {
		c.writeCatalogError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

func (c *ExamController) writeCatalogError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrExamPublished),
		errors.Is(err, util.ErrQuestionHasMarks):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrExamNotFound),
		errors.Is(err, util.ErrSectionNotFound),
		errors.Is(err, util.ErrQuestionNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrMarksOutOfRange):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
