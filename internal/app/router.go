package app

import (
	"assessment_backend/docs"
	"assessment_backend/internal/config"
	"assessment_backend/internal/middleware"
	"assessment_backend/internal/model"
	"assessment_backend/pkg/monitoring"
	"assessment_backend/pkg/security"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.GET("/scales/ticks", c.scale.Ticks)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	// 按用户限流，拖动滑块时请求密集
	perUser := security.NewLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute, nil)
	go perUser.Run(a.bgCtx)
	authGroup.Use(perUser.Middleware(security.ByRespondent))
	{
		authGroup.GET("/sessions/:id/assignment", c.assignment.Mine)

		workspaces := authGroup.Group("/workspaces")
		{
			workspaces.POST("", c.workspace.Open)
			workspaces.GET("/:id", c.workspace.Get)
			workspaces.DELETE("/:id", c.workspace.Close)
			workspaces.PUT("/:id/perspective", c.workspace.SelectPerspective)
			workspaces.PUT("/:id/subject", c.workspace.SelectSubject)
			workspaces.PUT("/:id/answers/:linkId", c.workspace.SetAnswer)
			workspaces.DELETE("/:id/answers/:linkId", c.workspace.Revert)
			workspaces.POST("/:id/save", c.workspace.Save)
			workspaces.GET("/:id/ws", c.workspace.Events)
		}

		// 3. 组织者接口
		facilitator := authGroup.Group("/facilitator")
		facilitator.Use(middleware.RoleMiddleware(string(model.Facilitator)))
		{
			facilitator.POST("/sessions/:id/assignments", c.assignment.Assign)
		}
	}
}
