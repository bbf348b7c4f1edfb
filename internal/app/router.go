package app

import (
	"milguard_backend/docs"
	"milguard_backend/internal/config"
	"milguard_backend/internal/middleware"
	"milguard_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c, cfg)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerAccountRoutes(authGroup, c)
		a.registerAnalysisRoutes(authGroup, c)
		a.registerLearningRoutes(authGroup, c)
		a.registerVerificationRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)

		// anonymous callers get the bare list, signed-in callers their unlock state
		public.GET("/learning/modules", middleware.TryAuthMiddleware(cfg), c.learning.GetModules)
	}
}

func (a *App) registerAccountRoutes(group *gin.RouterGroup, c *controllers) {
	group.GET("/auth/me", c.auth.Me)
	group.PUT("/user/profile", c.auth.UpdateProfile)
	group.GET("/user/dashboard", c.dashboard.GetDashboard)
	group.GET("/achievements", c.achievement.GetAchievements)
}

func (a *App) registerAnalysisRoutes(group *gin.RouterGroup, c *controllers) {
	analyze := group.Group("/analyze")
	{
		analyze.POST("/text", c.analysis.AnalyzeText)
		analyze.POST("/image", c.analysis.AnalyzeImage)
		analyze.POST("/audio", c.analysis.AnalyzeAudio)
	}

	group.GET("/analyses", c.analysis.ListAnalyses)
	group.GET("/analyses/:id", c.analysis.GetAnalysis)
}

func (a *App) registerLearningRoutes(group *gin.RouterGroup, c *controllers) {
	learning := group.Group("/learning")
	{
		learning.GET("/progress", c.learning.GetProgress)
		learning.POST("/progress", c.learning.UpdateProgress)
		learning.POST("/modules/:id/advance", c.learning.AdvanceSection)
		learning.GET("/overview", c.learning.GetOverview)
	}
}

func (a *App) registerVerificationRoutes(group *gin.RouterGroup, c *controllers) {
	verify := group.Group("/verify")
	{
		verify.POST("/reverse-image", c.verification.ReverseImage)
		verify.POST("/fact-check", c.verification.FactCheck)
		verify.POST("/source", c.verification.ScoreSource)
	}
}
