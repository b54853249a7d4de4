package controller

import (
	"aims_backend/internal/grading"
	"aims_backend/internal/service"
	"aims_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type MarksController struct {
	MarksService *service.MarksService
}

func NewMarksController(marksService *service.MarksService) *MarksController {
	return &MarksController{MarksService: marksService}
}

// EnterMark godoc
// @Summary 录入得分
// @Description 录入或更新一条得分；选做题写入后同步重算计入标志
// @Tags 评分
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.MarkEntryRequest true "得分信息"
// @Success 200 {object} util.Response{data=model.MarkEntry}
// @Failure 400 {object} util.Response "得分超出题目分值"
// @Failure 422 {object} util.Response "分区配置非法或数据不一致"
// @Router /api/marks [post]
func (c *MarksController) EnterMark(ctx *gin.Context) {
	var req service.MarkEntryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	entry, err := c.MarksService.EnterMark(ctx.Request.Context(), claims.UserID, req)
	if err != nil {
		c.writeGradingError(ctx, err)
		return
	}
	util.Success(ctx, entry)
}

// BulkEnterMarks godoc
// @Summary 批量录入得分
// @Description 逐条写入后对每个触达的学生分区重算一次；单条失败不中断整批
// @Tags 评分
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.BulkMarksRequest true "得分列表"
// @Success 200 {object} util.Response{data=service.BulkMarksResult}
// @Router /api/marks/bulk [post]
func (c *MarksController) BulkEnterMarks(ctx *gin.Context) {
	var req service.BulkMarksRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.MarksService.BulkEnterMarks(ctx.Request.Context(), claims.UserID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// DeleteMark godoc
// @Summary 删除得分
// @Tags 评分
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "得分记录ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "记录不存在"
// @Router /api/marks/{id} [delete]
func (c *MarksController) DeleteMark(ctx *gin.Context) {
	markID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.MarksService.DeleteMark(ctx.Request.Context(), markID); err != nil {
		if errors.Is(err, util.ErrMarkNotFound) {
			util.NotFound(ctx)
		} else {
			c.writeGradingError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// ListSectionMarks godoc
// @Summary 查询学生分区得分
// @Tags 评分
// @Produce  json
// @Security BearerAuth
// @Param   sectionId path int true "分区ID"
// @Param   studentId query int true "学生ID"
// @Success 200 {object} util.Response{data=[]model.MarkEntry}
// @Router /api/sections/{sectionId}/marks [get]
func (c *MarksController) ListSectionMarks(ctx *gin.Context) {
	sectionID, ok := parseIDParam(ctx, "sectionId")
	if !ok {
		return
	}
	studentID := parseUintQuery(ctx, "studentId")
	if studentID == 0 {
		util.BadRequest(ctx, "studentId is required")
		return
	}

	entries, err := c.MarksService.ListSectionMarks(studentID, sectionID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, entries)
}

// ReprocessSection godoc
// @Summary 分区全量重算
// @Description 对分区内有得分记录的每个学生重算计入标志，失败的学生保持待重算状态
// @Tags 评分
// @Produce  json
// @Security BearerAuth
// @Param   sectionId path int true "分区ID"
// @Success 200 {object} util.Response{data=service.ReprocessResult}
// @Router /api/sections/{sectionId}/reprocess [post]
func (c *MarksController) ReprocessSection(ctx *gin.Context) {
	sectionID, ok := parseIDParam(ctx, "sectionId")
	if !ok {
		return
	}

	result, err := c.MarksService.ReprocessSection(ctx.Request.Context(), sectionID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// writeGradingError 评分引擎错误到 HTTP 状态码的映射
func (c *MarksController) writeGradingError(ctx *gin.Context, err error) {
	var cfgErr *grading.ConfigurationError
	var markErr *grading.InconsistentMarkError
	var persistErr *grading.PersistenceError

	switch {
	case errors.Is(err, util.ErrQuestionNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrMarksOutOfRange):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, grading.ErrSectionNotFound):
		util.NotFound(ctx)
	case errors.As(err, &cfgErr), errors.As(err, &markErr):
		util.Error(ctx, 422, err.Error())
	case errors.As(err, &persistErr):
		util.LogInternalError(ctx, err)
	default:
		util.LogInternalError(ctx, err)
	}
}
