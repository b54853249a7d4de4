package controller

import (
	"aims_backend/internal/grading"
	"aims_backend/internal/model"
	"aims_backend/internal/service"
	"aims_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type AttainmentController struct {
	AttainmentService *service.AttainmentService
	OutcomeService    *service.OutcomeService
}

func NewAttainmentController(attainmentService *service.AttainmentService, outcomeService *service.OutcomeService) *AttainmentController {
	return &AttainmentController{
		AttainmentService: attainmentService,
		OutcomeService:    outcomeService,
	}
}

// GetStudentTotals godoc
// @Summary 学生整卷成绩
// @Description 逐分区聚合计入得分并合并为整卷百分比与等级；学生只能查询自己的成绩
// @Tags 达成度
// @Produce  json
// @Security BearerAuth
// @Param   examId path int true "试卷ID"
// @Param   studentId query int false "学生ID（教师/管理员可指定）"
// @Success 200 {object} util.Response{data=service.StudentTotals}
// @Failure 403 {object} util.Response "越权查询"
// @Router /api/exams/{examId}/totals [get]
func (c *AttainmentController) GetStudentTotals(ctx *gin.Context) {
	examID, ok := parseIDParam(ctx, "examId")
	if !ok {
		return
	}

	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	studentID := parseUintQuery(ctx, "studentId")
	if claims.Role == model.Student {
		// 学生只能看自己的
		if studentID != 0 && studentID != claims.UserID {
			util.Forbidden(ctx)
			return
		}
		studentID = claims.UserID
	}
	if studentID == 0 {
		util.BadRequest(ctx, "studentId is required")
		return
	}

	totals, err := c.AttainmentService.GetStudentTotals(ctx.Request.Context(), studentID, examID)
	if err != nil {
		c.writeAttainmentError(ctx, err)
		return
	}
	util.Success(ctx, totals)
}

// GetClassSummary godoc
// @Summary 班级整卷汇总
// @Tags 达成度
// @Produce  json
// @Security BearerAuth
// @Param   examId path int true "试卷ID"
// @Success 200 {object} util.Response{data=service.ClassSummary}
// @Router /api/exams/{examId}/summary [get]
func (c *AttainmentController) GetClassSummary(ctx *gin.Context) {
	examID, ok := parseIDParam(ctx, "examId")
	if !ok {
		return
	}

	summary, err := c.AttainmentService.GetClassSummary(ctx.Request.Context(), examID)
	if err != nil {
		c.writeAttainmentError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// GetCOAttainment godoc
// @Summary 课程目标达成度
// @Description 指定群体范围内单个 CO 的得分汇总，范围内无数据时 dataMissing 为 true
// @Tags 达成度
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课程目标ID"
// @Param   examId query int true "试卷ID"
// @Param   classId query int false "班级ID"
// @Success 200 {object} util.Response{data=grading.COAttainment}
// @Router /api/outcomes/co/{id}/attainment [get]
func (c *AttainmentController) GetCOAttainment(ctx *gin.Context) {
	coID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	scope, ok := parseScope(ctx)
	if !ok {
		return
	}

	res, err := c.AttainmentService.GetCOAttainment(ctx.Request.Context(), coID, scope)
	if err != nil {
		c.writeAttainmentError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// GetPOAttainment godoc
// @Summary 专业培养目标达成度
// @Description 按 CO-PO 映射权重加权汇总；缺数据的 CO 不参与计算
// @Tags 达成度
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "专业培养目标ID"
// @Param   examId query int true "试卷ID"
// @Param   classId query int false "班级ID"
// @Success 200 {object} util.Response{data=grading.POAttainment}
// @Router /api/outcomes/po/{id}/attainment [get]
func (c *AttainmentController) GetPOAttainment(ctx *gin.Context) {
	poID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	scope, ok := parseScope(ctx)
	if !ok {
		return
	}

	res, err := c.AttainmentService.GetPOAttainment(ctx.Request.Context(), poID, scope)
	if err != nil {
		c.writeAttainmentError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// GetSubjectCOReport godoc
// @Summary 科目课程目标达成度报表
// @Tags 达成度
// @Produce  json
// @Security BearerAuth
// @Param   subjectId path int true "科目ID"
// @Param   examId query int true "试卷ID"
// @Param   classId query int false "班级ID"
// @Success 200 {object} util.Response{data=service.SubjectCOReport}
// @Router /api/subjects/{subjectId}/co-report [get]
func (c *AttainmentController) GetSubjectCOReport(ctx *gin.Context) {
	subjectID, ok := parseIDParam(ctx, "subjectId")
	if !ok {
		return
	}
	scope, ok := parseScope(ctx)
	if !ok {
		return
	}

	report, err := c.AttainmentService.GetSubjectCOReport(ctx.Request.Context(), subjectID, scope)
	if err != nil {
		c.writeAttainmentError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// CreateCO godoc
// @Summary 创建课程目标
// @Tags 达成度
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.COCreateRequest true "课程目标信息"
// @Success 201 {object} util.Response{data=model.CourseOutcome}
// @Router /api/outcomes/co [post]
func (c *AttainmentController) CreateCO(ctx *gin.Context) {
	var req service.COCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	co, err := c.OutcomeService.CreateCO(req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, co)
}

// ListPOs godoc
// @Summary 查询全部专业培养目标
// @Tags 达成度
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.ProgramOutcome}
// @Router /api/outcomes/po [get]
func (c *AttainmentController) ListPOs(ctx *gin.Context) {
	pos, err := c.OutcomeService.ListPOs()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, pos)
}

// SetMapping godoc
// @Summary 建立或更新 CO-PO 映射
// @Tags 达成度
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.MappingRequest true "映射信息"
// @Success 200 {object} util.Response{data=model.CoPoMapping}
// @Failure 404 {object} util.Response "目标不存在"
// @Router /api/outcomes/mappings [post]
func (c *AttainmentController) SetMapping(ctx *gin.Context) {
	var req service.MappingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	m, err := c.OutcomeService.SetMapping(req)
	if err != nil {
		if errors.Is(err, util.ErrOutcomeNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, m)
}

// DeleteMapping godoc
// @Summary 删除 CO-PO 映射
// @Tags 达成度
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "映射ID"
// @Success 200 {object} util.Response
// @Router /api/outcomes/mappings/{id} [delete]
func (c *AttainmentController) DeleteMapping(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.OutcomeService.DeleteMapping(id); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

func parseScope(ctx *gin.Context) (grading.CohortScope, bool) {
	examID := parseUintQuery(ctx, "examId")
	if examID == 0 {
		util.BadRequest(ctx, "examId is required")
		return grading.CohortScope{}, false
	}
	return grading.CohortScope{
		ExamID:  examID,
		ClassID: parseUintQuery(ctx, "classId"),
	}, true
}

func (c *AttainmentController) writeAttainmentError(ctx *gin.Context, err error) {
	var markErr *grading.InconsistentMarkError

	switch {
	case errors.Is(err, util.ErrExamNotFound), errors.Is(err, grading.ErrSectionNotFound):
		util.NotFound(ctx)
	case errors.As(err, &markErr):
		util.Error(ctx, 422, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
