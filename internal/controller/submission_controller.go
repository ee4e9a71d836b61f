package controller

import (
	"exam_prep_backend/internal/service"
	"exam_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SubmissionController struct {
	SubmissionService *service.SubmissionService
}

func NewSubmissionController(submissionService *service.SubmissionService) *SubmissionController {
	return &SubmissionController{SubmissionService: submissionService}
}

type SubmitAnswerRequest struct {
	SelectedOptionID *string `json:"selectedOptionId"`
}

// @Summary 开始作答
// @Description 每次调用都会创建新的作答记录
// @Tags 作答
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "试卷ID"
// @Success 201 {object} util.Response{data=service.StartResult}
// @Failure 404 {object} util.Response
// @Router /exam-papers/{id}/submissions [post]
func (c *SubmissionController) Start(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.SubmissionService.Start(ctx.Request.Context(), user.UserID, ctx.Param("id"))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Created(ctx, result)
}

// @Summary 我的作答记录
// @Tags 作答
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /submissions [get]
func (c *SubmissionController) List(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	page := util.MustParseInt(ctx.DefaultQuery("page", "1"), 1)
	limit := util.MustParseInt(ctx.DefaultQuery("limit", "20"), util.DefaultPageLimit)

	result, err := c.SubmissionService.ListSubmissions(ctx.Request.Context(), user.UserID, page, limit)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 获取作答记录
// @Tags 作答
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "作答ID"
// @Success 200 {object} util.Response{data=model.ExamSubmission}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /submissions/{id} [get]
func (c *SubmissionController) Get(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	sub, err := c.SubmissionService.GetSubmission(ctx.Request.Context(), user.UserID, ctx.Param("id"))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, sub)
}

// @Summary 获取作答题目
// @Description 返回试卷题目及当前已选答案；交卷前不返回正确答案
// @Tags 作答
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "作答ID"
// @Success 200 {object} util.Response{data=service.SubmissionQuestions}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /submissions/{id}/questions [get]
func (c *SubmissionController) Questions(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.SubmissionService.GetSubmissionQuestions(ctx.Request.Context(), user.UserID, ctx.Param("id"))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 提交答案
// @Description 同一题重复提交会覆盖之前的选择；selectedOptionId 为空表示跳过
// @Tags 作答
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "作答ID"
// @Param questionId path string true "题目ID"
// @Param request body SubmitAnswerRequest true "所选选项"
// @Success 200 {object} util.Response{data=model.ExamAnswer}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /submissions/{id}/answers/{questionId} [put]
func (c *SubmissionController) SubmitAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	answer, err := c.SubmissionService.SubmitAnswer(ctx.Request.Context(), user.UserID, ctx.Param("id"), ctx.Param("questionId"), req.SelectedOptionID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, answer)
}

// @Summary 交卷
// @Description 幂等：已交卷时直接返回已保存的成绩
// @Tags 作答
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "作答ID"
// @Success 200 {object} util.Response{data=model.ExamSubmission}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /submissions/{id}/finalize [post]
func (c *SubmissionController) Finalize(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	sub, err := c.SubmissionService.Finalize(ctx.Request.Context(), user.UserID, ctx.Param("id"))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, sub)
}

// @Summary 成绩详情
// @Description 包含正确答案与解析，仅交卷后可用
// @Tags 作答
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "作答ID"
// @Success 200 {object} util.Response{data=service.ExamResult}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /submissions/{id}/results [get]
func (c *SubmissionController) Results(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.SubmissionService.GetExamResults(ctx.Request.Context(), user.UserID, ctx.Param("id"))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 导出成绩单
// @Description 将成绩详情写入对象存储并返回访问地址
// @Tags 作答
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "作答ID"
// @Success 201 {object} util.Response{data=service.ExportResult}
// @Failure 409 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /submissions/{id}/export [post]
func (c *SubmissionController) Export(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.SubmissionService.ExportResults(ctx.Request.Context(), user.UserID, ctx.Param("id"))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Created(ctx, result)
}
