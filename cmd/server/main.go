package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/pathtrack-backend-go/internal/api"
	"github.com/jengzang/pathtrack-backend-go/internal/config"
	"github.com/jengzang/pathtrack-backend-go/internal/database"
	"github.com/jengzang/pathtrack-backend-go/internal/middleware"
	"github.com/jengzang/pathtrack-backend-go/internal/repository"
	"github.com/jengzang/pathtrack-backend-go/internal/service"
	"github.com/jengzang/pathtrack-backend-go/internal/session"
	"github.com/jengzang/pathtrack-backend-go/internal/tracking"
)

func main() {
	// 加载配置
	cfg := config.Load()

	thresholds, err := cfg.Thresholds()
	if err != nil {
		log.Fatal("Failed to load thresholds:", err)
	}

	// 初始化数据库
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		log.Fatal("Failed to create database directory:", err)
	}
	dbConfig := database.Config{
		Path: cfg.DBPath,
	}
	if err := database.Init(dbConfig); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()

	// 初始化服务
	pathRepo := repository.NewPathRepository(database.GetDB())
	manager := session.NewManager(tracking.NewEngine(thresholds), pathRepo, session.DefaultRetryPolicy)
	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	defer limiter.Stop()

	// 初始化路由
	gin.SetMode(gin.ReleaseMode)
	router := api.SetupRouter(cfg, api.Services{
		Tracking: service.NewTrackingService(manager),
		Paths:    service.NewPathService(pathRepo),
		Limiter:  limiter,
	})
	srv := &http.Server{Addr: cfg.Port, Handler: router}

	// 启动服务器
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 定期重试写库失败的路径
	go retryPending(ctx, manager, pendingRetryInterval)
	<-ctx.Done()

	// 优雅退出：先停止接收请求，再写出所有会话的缓冲路径
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	if err := manager.StopAll(shutdownCtx); err != nil {
		log.Printf("Some paths were not saved: %v", err)
	}
	log.Println("Server stopped")
}

const pendingRetryInterval = time.Minute

func retryPending(ctx context.Context, manager *session.Manager, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := manager.RetryPending(ctx); err != nil {
				log.Printf("Pending path retry failed: %v", err)
			}
		}
	}
}
