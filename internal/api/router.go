package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/pathtrack-backend-go/internal/config"
	"github.com/jengzang/pathtrack-backend-go/internal/handler"
	"github.com/jengzang/pathtrack-backend-go/internal/middleware"
	"github.com/jengzang/pathtrack-backend-go/internal/service"
)

// Services 路由依赖的服务
type Services struct {
	Tracking *service.TrackingService
	Paths    *service.PathService
	Limiter  *middleware.RateLimiter // 轨迹点上报限流
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, svc Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Path tracking API is running",
		})
	})

	sessionHandler := handler.NewSessionHandler(svc.Tracking)
	streamHandler := handler.NewStreamHandler(svc.Tracking, svc.Limiter)
	pathHandler := handler.NewPathHandler(svc.Paths)

	// API 路由组，全部需要 JWT
	api := r.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTSecret))
	{
		// 采集会话
		sessions := api.Group("/sessions")
		{
			sessions.POST("", sessionHandler.StartSession)
			sessions.GET("/:id", sessionHandler.GetSession)
			sessions.POST("/:id/fixes", middleware.RateLimit(svc.Limiter), sessionHandler.IngestFixes)
			sessions.POST("/:id/stop", sessionHandler.StopSession)
			sessions.POST("/:id/retry", sessionHandler.RetrySession)
			sessions.GET("/:id/stream", streamHandler.Stream)
		}

		// 已保存的路径
		paths := api.Group("/paths")
		{
			paths.GET("", pathHandler.GetPaths)
			paths.GET("/:id", pathHandler.GetPath)
			paths.DELETE("/:id", pathHandler.DeletePath)
		}
	}

	return r
}
