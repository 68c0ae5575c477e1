package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"login-portal/httpserver/config"
	"login-portal/httpserver/internal/router"
	"login-portal/httpserver/internal/view"
	"login-portal/httpserver/pkg/container"
	log "login-portal/httpserver/pkg/logger"
)

var (
	configPath = flag.String("config", "config/config.yaml", "配置文件路径")
)

func main() {
	// 解析命令行参数
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("加载配置失败: " + err.Error())
	}

	// 2. 初始化日志
	logConfig := &log.Config{
		Level:    cfg.Log.Level,
		Output:   cfg.Log.Output,
		FilePath: cfg.Log.FilePath,
	}
	if err := log.Init(logConfig); err != nil {
		panic("初始化日志失败: " + err.Error())
	}
	defer log.Sync()

	log.Info("HTTP Server 启动中...")
	log.Info("配置加载成功", zap.String("config_path", *configPath))

	// 3. 预解析页面模板，模板错误在启动时暴露
	if err := view.Load(); err != nil {
		log.Fatal("加载页面模板失败", zap.Error(err))
	}

	// 4. 初始化依赖注入容器
	gin.SetMode(router.Mode(cfg.Server.Mode))
	if err := container.Init(cfg); err != nil {
		log.Fatal("初始化依赖注入容器失败", zap.Error(err))
	}
	defer container.Close()

	var engine *gin.Engine
	if err := container.Invoke(func(r *gin.Engine) { engine = r }); err != nil {
		log.Fatal("创建路由失败", zap.Error(err))
	}
	log.Info("路由设置完成",
		zap.String("graphql_endpoint", cfg.GraphQL.Endpoint),
		zap.String("session_backend", cfg.Session.Backend))

	// 5. 启动 HTTP Server（在 goroutine 中）
	addr := cfg.Server.GetHTTPAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("HTTP Server 启动成功",
			zap.String("addr", addr),
			zap.String("mode", cfg.Server.Mode))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("启动 HTTP Server 失败", zap.Error(err))
		}
	}()

	// 6. 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("收到退出信号，开始优雅关闭...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("HTTP Server 关闭超时", zap.Error(err))
	}

	log.Info("HTTP Server 已关闭")
}
