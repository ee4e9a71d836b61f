package controller

import (
	"exam_prep_backend/internal/service"
	"exam_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PracticeController struct {
	ProgressService *service.ProgressService
}

func NewPracticeController(progressService *service.ProgressService) *PracticeController {
	return &PracticeController{ProgressService: progressService}
}

// @Summary 获取内容树
// @Description 返回当前用户所在方向的 科目-章节-专题-子专题 树，并附带练习进度
// @Tags 练习
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.ContentNode}
// @Router /practice/content-tree [get]
func (c *PracticeController) ContentTree(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	tree, err := c.ProgressService.GetContentTree(ctx.Request.Context(), user.UserID, user.StreamID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, tree)
}

// @Summary 获取内容节点下的题目
// @Tags 练习
// @Produce json
// @Security ApiKeyAuth
// @Param type path string true "内容类型" Enums(lesson, topic, subtopic)
// @Param id path string true "内容ID"
// @Success 200 {object} util.Response{data=[]model.Question}
// @Failure 404 {object} util.Response
// @Router /practice/content/{type}/{id}/questions [get]
func (c *PracticeController) ContentQuestions(ctx *gin.Context) {
	questions, err := c.ProgressService.GetContentQuestions(ctx.Request.Context(), ctx.Param("type"), ctx.Param("id"))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, questions)
}

// @Summary 获取内容节点练习统计
// @Description 没有练习记录时返回全零统计
// @Tags 练习
// @Produce json
// @Security ApiKeyAuth
// @Param type path string true "内容类型" Enums(lesson, topic, subtopic)
// @Param id path string true "内容ID"
// @Success 200 {object} util.Response{data=model.ContentStats}
// @Failure 404 {object} util.Response
// @Router /practice/content/{type}/{id}/stats [get]
func (c *PracticeController) ContentStats(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.ProgressService.GetContentStats(ctx.Request.Context(), user.UserID, ctx.Param("type"), ctx.Param("id"))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, stats)
}

// @Summary 开始练习
// @Description 同一内容重复调用只刷新最近访问时间
// @Tags 练习
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body service.StartProgressRequest true "练习内容"
// @Success 200 {object} util.Response{data=model.PracticeProgress}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /practice/progress [post]
func (c *PracticeController) StartProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.StartProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	progress, err := c.ProgressService.StartPracticeProgress(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

// @Summary 更新练习进度
// @Tags 练习
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "进度ID"
// @Param request body service.ProgressPatch true "更新字段"
// @Success 200 {object} util.Response{data=model.PracticeProgress}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /practice/progress/{id} [patch]
func (c *PracticeController) UpdateProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var patch service.ProgressPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	progress, err := c.ProgressService.UpdatePracticeProgress(ctx.Request.Context(), user.UserID, ctx.Param("id"), patch)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

// @Summary 删除练习进度
// @Description 同时删除该进度下的全部答题记录
// @Tags 练习
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "进度ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /practice/progress/{id} [delete]
func (c *PracticeController) DeleteProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.ProgressService.DeletePracticeProgress(ctx.Request.Context(), user.UserID, ctx.Param("id")); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// @Summary 记录答题
// @Description 同一进度同一题目重复提交会更新已有记录
// @Tags 练习
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "进度ID"
// @Param request body service.SessionRequest true "答题记录"
// @Success 200 {object} util.Response{data=model.PracticeQuestionSession}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /practice/progress/{id}/sessions [post]
func (c *PracticeController) CreateSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.ProgressService.CreatePracticeSession(ctx.Request.Context(), user.UserID, ctx.Param("id"), req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, session)
}

// @Summary 更新答题记录
// @Tags 练习
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "答题记录ID"
// @Param request body service.SessionPatch true "更新字段"
// @Success 200 {object} util.Response{data=model.PracticeQuestionSession}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /practice/sessions/{id} [patch]
func (c *PracticeController) UpdateSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var patch service.SessionPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.ProgressService.UpdatePracticeSession(ctx.Request.Context(), user.UserID, ctx.Param("id"), patch)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, session)
}

// @Summary 练习历史
// @Tags 练习
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "数量" default(20)
// @Success 200 {object} util.Response{data=[]model.PracticeHistoryItem}
// @Router /practice/history [get]
func (c *PracticeController) History(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	limit := util.MustParseInt(ctx.DefaultQuery("limit", "20"), util.DefaultPageLimit)
	items, err := c.ProgressService.GetPracticeHistory(ctx.Request.Context(), user.UserID, limit)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, items)
}
