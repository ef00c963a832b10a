package app

import (
	"campus_engage_backend/docs"
	"campus_engage_backend/internal/config"
	"campus_engage_backend/internal/middleware"
	"campus_engage_backend/internal/model"
	"campus_engage_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerStudentRoutes(authGroup, c)
	}

	// 3. 管理员相关接口
	a.registerAdminRoutes(router, c, repos, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)

	// 寻币打卡
	coinHunting := rg.Group("/coin-hunting")
	{
		coinHunting.GET("/landmarks", c.checkin.ListLandmarks)
		coinHunting.POST("/collect", c.checkin.Collect)
	}

	// 排行榜
	rg.GET("/leaderboard", c.leaderboard.GetLeaderboard)
	rg.GET("/leaderboard/me", c.leaderboard.GetMyRank)

	// 我的电子券
	rg.GET("/evouchers/mine", c.evoucher.MyCodes)
	rg.POST("/evouchers/codes/:id/use", c.evoucher.UseCode)
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user), middleware.RoleMiddleware(model.Admin))
	{
		// 赞助商
		admin.POST("/sponsors", c.sponsor.Create)
		admin.GET("/sponsors", c.sponsor.List)
		admin.GET("/sponsors/:id", c.sponsor.Get)
		admin.PUT("/sponsors/:id", c.sponsor.Update)
		admin.DELETE("/sponsors/:id", c.sponsor.Delete)
		admin.POST("/sponsors/:id/logo", c.sponsor.UploadLogo)

		// 地标
		admin.POST("/landmarks", c.landmark.Create)
		admin.GET("/landmarks", c.landmark.List)
		admin.GET("/landmarks/:id", c.landmark.Get)
		admin.PUT("/landmarks/:id", c.landmark.Update)
		admin.DELETE("/landmarks/:id", c.landmark.Delete)
		admin.POST("/landmarks/:id/image", c.landmark.UploadImage)

		// 电子券与码池
		admin.POST("/evouchers", c.evoucher.Create)
		admin.GET("/evouchers", c.evoucher.List)
		admin.GET("/evouchers/:id", c.evoucher.Get)
		admin.PUT("/evouchers/:id", c.evoucher.Update)
		admin.DELETE("/evouchers/:id", c.evoucher.Delete)
		admin.POST("/evouchers/:id/codes", c.evoucher.GenerateCodes)
		admin.GET("/evouchers/:id/codes", c.evoucher.ListCodes)
		admin.GET("/evouchers/:id/remaining", c.evoucher.Remaining)

		// 收集台账审计
		admin.GET("/claims", c.claim.List)
	}
}
