package app

import (
	"exam_prep_backend/docs"
	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/middleware"
	"exam_prep_backend/internal/util"
	"exam_prep_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerPaperRoutes(api, c)
		a.registerSubmissionRoutes(api, c)
		a.registerAnalyticsRoutes(api, c)
		a.registerPracticeRoutes(api, c)
	}
}

func (a *App) registerPaperRoutes(api *gin.RouterGroup, c *controllers) {
	// 组卷仅限教师/管理员
	api.POST("/exam-papers", middleware.RoleMiddleware(util.RoleTeacher), c.paper.CreatePaper)
	api.GET("/exam-papers/:id", c.paper.GetPaper)
	api.POST("/exam-papers/:id/submissions", c.submission.Start)

	api.POST("/practice-tests", c.paper.GeneratePracticeTest)
	api.POST("/practice-tests/adaptive", c.paper.GenerateAdaptivePracticeTest)
}

func (a *App) registerSubmissionRoutes(api *gin.RouterGroup, c *controllers) {
	submissions := api.Group("/submissions")
	{
		submissions.GET("", c.submission.List)
		submissions.GET("/:id", c.submission.Get)
		submissions.GET("/:id/questions", c.submission.Questions)
		submissions.PUT("/:id/answers/:questionId", c.submission.SubmitAnswer)
		submissions.POST("/:id/finalize", c.submission.Finalize)
		submissions.GET("/:id/results", c.submission.Results)
		submissions.POST("/:id/export", c.submission.Export)
	}
}

func (a *App) registerAnalyticsRoutes(api *gin.RouterGroup, c *controllers) {
	analytics := api.Group("/analytics")
	{
		analytics.GET("/subjects", c.analytics.BySubject)
		analytics.GET("/topics", c.analytics.ByTopic)
		analytics.GET("/subtopics", c.analytics.BySubtopic)
	}

	pyq := api.Group("/pyq")
	{
		pyq.GET("/stats", c.analytics.PYQStats)
		pyq.GET("/questions", c.analytics.PYQQuestions)
	}
}

func (a *App) registerPracticeRoutes(api *gin.RouterGroup, c *controllers) {
	practice := api.Group("/practice")
	{
		practice.GET("/content-tree", c.practice.ContentTree)
		practice.GET("/content/:type/:id/questions", c.practice.ContentQuestions)
		practice.GET("/content/:type/:id/stats", c.practice.ContentStats)

		practice.POST("/progress", c.practice.StartProgress)
		practice.PATCH("/progress/:id", c.practice.UpdateProgress)
		practice.DELETE("/progress/:id", c.practice.DeleteProgress)
		practice.POST("/progress/:id/sessions", c.practice.CreateSession)
		practice.PATCH("/sessions/:id", c.practice.UpdateSession)
		practice.GET("/history", c.practice.History)
	}
}
