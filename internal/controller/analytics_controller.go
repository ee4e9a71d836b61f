package controller

import (
	"context"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/service"
	"exam_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	AnalyticsService *service.AnalyticsService
}

func NewAnalyticsController(analyticsService *service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{AnalyticsService: analyticsService}
}

func (c *AnalyticsController) groupHandler(fn func(context.Context, uint) ([]model.GroupAccuracy, error)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user := util.GetUserFromContext(ctx)
		if user == nil {
			util.Unauthorized(ctx)
			return
		}

		groups, err := fn(ctx.Request.Context(), user.UserID)
		if err != nil {
			util.HandleServiceError(ctx, err)
			return
		}

		util.Success(ctx, groups)
	}
}

// @Summary 按科目统计正确率
// @Description 仅统计已交卷的作答
// @Tags 分析
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.GroupAccuracy}
// @Router /analytics/subjects [get]
func (c *AnalyticsController) BySubject(ctx *gin.Context) {
	c.groupHandler(c.AnalyticsService.BySubject)(ctx)
}

// @Summary 按专题统计正确率
// @Tags 分析
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.GroupAccuracy}
// @Router /analytics/topics [get]
func (c *AnalyticsController) ByTopic(ctx *gin.Context) {
	c.groupHandler(c.AnalyticsService.ByTopic)(ctx)
}

// @Summary 按子专题统计正确率
// @Tags 分析
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.GroupAccuracy}
// @Router /analytics/subtopics [get]
func (c *AnalyticsController) BySubtopic(ctx *gin.Context) {
	c.groupHandler(c.AnalyticsService.BySubtopic)(ctx)
}

// @Summary 往年真题统计
// @Description 全站统计：总数、按年份、按科目
// @Tags 往年真题
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.PYQStats}
// @Router /pyq/stats [get]
func (c *AnalyticsController) PYQStats(ctx *gin.Context) {
	stats, err := c.AnalyticsService.PYQStats(ctx.Request.Context())
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, stats)
}

// @Summary 往年真题列表
// @Tags 往年真题
// @Produce json
// @Security ApiKeyAuth
// @Param subjectId query string false "科目ID"
// @Param topicId query string false "专题ID"
// @Param year query int false "年份"
// @Param difficulty query string false "难度"
// @Param search query string false "关键词"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Failure 400 {object} util.Response
// @Router /pyq/questions [get]
func (c *AnalyticsController) PYQQuestions(ctx *gin.Context) {
	var q service.PYQQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	page, err := c.AnalyticsService.ListPYQQuestions(ctx.Request.Context(), q)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, page)
}
