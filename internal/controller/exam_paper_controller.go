package controller

import (
	"exam_prep_backend/internal/service"
	"exam_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExamPaperController struct {
	PaperService *service.PaperService
}

func NewExamPaperController(paperService *service.PaperService) *ExamPaperController {
	return &ExamPaperController{PaperService: paperService}
}

// @Summary 创建试卷
// @Description 按题目ID列表或科目/专题/子专题筛选条件创建试卷，题目快照创建后不可修改
// @Tags 试卷
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body service.CreatePaperRequest true "试卷信息"
// @Success 201 {object} util.Response{data=model.ExamPaper}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /exam-papers [post]
func (c *ExamPaperController) CreatePaper(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreatePaperRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	paper, err := c.PaperService.CreatePaper(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Created(ctx, paper)
}

// @Summary 获取试卷
// @Tags 试卷
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "试卷ID"
// @Success 200 {object} util.Response{data=model.ExamPaper}
// @Failure 404 {object} util.Response
// @Router /exam-papers/{id} [get]
func (c *ExamPaperController) GetPaper(ctx *gin.Context) {
	paper, err := c.PaperService.GetPaper(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, paper)
}

// @Summary 生成练习卷
// @Description 按难度(EASY/MEDIUM/HARD/MIXED)抽题生成练习卷；题库不足时返回部分结果并标记 shortfall
// @Tags 练习卷
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body service.PracticeTestRequest true "抽题参数"
// @Success 201 {object} util.Response{data=service.PracticeTestResult}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /practice-tests [post]
func (c *ExamPaperController) GeneratePracticeTest(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.PracticeTestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.PaperService.GeneratePracticeTest(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Created(ctx, result)
}

// @Summary 生成自适应练习卷
// @Description 根据用户在该科目的正确率自动选择难度
// @Tags 练习卷
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body service.AdaptivePracticeRequest true "抽题参数"
// @Success 201 {object} util.Response{data=service.PracticeTestResult}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /practice-tests/adaptive [post]
func (c *ExamPaperController) GenerateAdaptivePracticeTest(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.AdaptivePracticeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.PaperService.GenerateAdaptivePracticeTest(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Created(ctx, result)
}
