package app

import (
	"time"

	"quiz_console/docs"
	"quiz_console/internal/config"
	"quiz_console/internal/middleware"
	"quiz_console/pkg/monitoring"
	"quiz_console/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c, cfg)

	// 2. 需要会话的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.SessionRequired(c.session.Gate))
	{
		a.registerResourceRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	// 登录接口单独限流，防止暴力猜测访问码
	loginLimiter := security.NewLimiter(a.ctx, cfg.RateLimit.LoginAttempts, time.Duration(cfg.RateLimit.LoginWindowMinutes)*time.Minute)

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/login", loginLimiter.Middleware(), middleware.RedirectIfAuthenticated(c.session.Gate), c.session.Login)
		public.POST("/logout", c.session.Logout)
		public.GET("/session", c.session.Status)
		public.GET("/session/ws", c.session.Events)
	}
}

func (a *App) registerResourceRoutes(group *gin.RouterGroup, c *controllers) {
	group.GET("/question-sets/options", c.catalog.QuestionSetOptions)
	group.GET("/questions/variants", c.catalog.Variants)

	c.categories.Register(group, "/categories")
	c.sets.Register(group, "/question-sets")
	c.questions.Register(group, "/questions")
}
