package router

import (
	"github.com/gin-gonic/gin"

	"login-portal/httpserver/internal/handler"
	"login-portal/httpserver/internal/middleware"
	"login-portal/httpserver/internal/view"
)

// Handlers 路由需要的全部 Handler
type Handlers struct {
	Pages  *handler.AuthHandler
	API    *handler.APIHandler
	Health *handler.HealthHandler
}

// SetupRouter 设置路由
func SetupRouter(h Handlers, allowedOrigins []string) *gin.Engine {
	// 创建 Gin Engine（不使用默认中间件）
	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())                   // Panic 恢复
	r.Use(middleware.RequestIDMiddleware()) // 请求 ID
	r.Use(middleware.LoggerMiddleware())    // 日志

	r.StaticFS("/static", view.Static())
	r.GET("/healthz", h.Health.Health)

	// 页面路由
	r.GET("/", h.Pages.Home)
	auth := r.Group("/auth")
	{
		auth.GET("/login", h.Pages.LoginPage)
		auth.POST("/login", h.Pages.Login)
		auth.GET("/register", h.Pages.RegisterPage)
		auth.POST("/register", h.Pages.Register)
		auth.POST("/logout", h.Pages.Logout)
	}

	// API 路由组
	api := r.Group("/api/v1", middleware.CORSMiddleware(allowedOrigins))
	{
		// 预检请求由 CORS 中间件直接返回
		api.OPTIONS("/*path", func(c *gin.Context) {})

		apiAuth := api.Group("/auth")
		{
			apiAuth.POST("/login", h.API.Login)
			apiAuth.POST("/logout", h.API.Logout)
			apiAuth.GET("/me", h.API.Me)
		}
	}

	return r
}

// Mode 将配置中的运行模式映射为 gin 模式
func Mode(mode string) string {
	switch mode {
	case "production", "release":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
