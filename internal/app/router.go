package app

import (
	"memodeck_backend/docs"
	"memodeck_backend/internal/config"
	"memodeck_backend/internal/middleware"
	"memodeck_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg, a.sessions))
	{
		a.registerDeckRoutes(authGroup, c)
		a.registerStudyRoutes(authGroup, c)
		a.registerProfileRoutes(authGroup, c)

		// 3. 旧前端的 ?action= 入口
		a.registerActionRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)

		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		password := public.Group("/password")
		{
			password.POST("/otp", c.reset.SendOTP)
			password.POST("/verify", c.reset.VerifyOTP)
			password.POST("/reset", c.reset.ResetPassword)
		}
	}
}

func (a *App) registerDeckRoutes(group *gin.RouterGroup, c *controllers) {
	decks := group.Group("/decks")
	{
		decks.GET("", c.deck.List)
		decks.POST("", c.deck.Create)
		decks.GET("/stats", c.deck.Stats)
		decks.POST("/import", c.deck.Import)
		decks.POST("/import/file", c.deck.ImportFile)

		decks.GET("/:id", c.deck.Get)
		decks.PUT("/:id", c.deck.Update)
		decks.DELETE("/:id", c.deck.Delete)
		decks.GET("/:id/cards", c.card.ListByDeck)
		decks.GET("/:id/export", c.deck.Export)
		decks.GET("/:id/session-stats", c.study.SessionStats)
	}

	cards := group.Group("/cards")
	{
		cards.POST("", c.card.Create)
		cards.PUT("/reorder", c.card.Reorder)
		cards.GET("/:id", c.card.Get)
		cards.PUT("/:id", c.card.Update)
		cards.DELETE("/:id", c.card.Delete)
	}
}

func (a *App) registerStudyRoutes(group *gin.RouterGroup, c *controllers) {
	study := group.Group("/study")
	{
		study.POST("/sessions", c.study.StartSession)
		study.GET("/sessions/:id/progress", c.study.GetProgress)
		study.POST("/sessions/:id/progress", c.study.UpdateProgress)
		study.POST("/sessions/:id/complete", c.study.CompleteSession)
		study.POST("/sessions/:id/quiz-attempt", c.study.SaveQuizAttempt)
		study.POST("/check-answer", c.study.CheckAnswer)
	}

	group.GET("/progress", c.progress.GetProgress)
}

func (a *App) registerProfileRoutes(group *gin.RouterGroup, c *controllers) {
	group.POST("/logout", c.auth.Logout)

	profile := group.Group("/profile")
	{
		profile.GET("", c.user.GetProfile)
		profile.DELETE("", c.user.DeleteAccount)
		profile.GET("/stats", c.user.GetStats)
		profile.POST("/username", c.user.UpdateUsername)
		profile.POST("/email", c.user.UpdateEmail)
		profile.POST("/password", c.user.UpdatePassword)
	}
}

func (a *App) registerActionRoutes(group *gin.RouterGroup, c *controllers) {
	group.Any("/studyApi", c.action.StudyAPI())
	group.Any("/deckApi", c.action.DeckAPI())
	group.Any("/cardApi", c.action.CardAPI())
	group.Any("/profileApi", c.action.ProfileAPI())
	group.POST("/importDeckApi", c.deck.Import)
	group.GET("/progressApi", c.progress.GetProgress)
}
