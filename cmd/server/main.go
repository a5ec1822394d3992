// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hualuo/chaptergen/internal/api"
	"github.com/hualuo/chaptergen/internal/app"
	"github.com/hualuo/chaptergen/internal/config"
	"github.com/hualuo/chaptergen/internal/utils"
)

func main() {
	log.Println("🚀 启动章节生成服务器...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	log.Printf("✅ 配置加载完成，端口: %s", cfg.Port)

	// 2. 初始化日志
	if err := utils.InitLogger(filepath.Join(cfg.LogDir, "chaptergen.log")); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	if cfg.DebugMode {
		utils.GetLogger().SetLogLevel(utils.DEBUG)
	}

	// 3. 初始化所有服务（按依赖顺序）
	if err := app.InitServices(); err != nil {
		log.Fatalf("初始化服务失败: %v", err)
	}
	defer app.CloseServices()
	log.Println("✅ 所有服务初始化完成")

	// 4. 设置路由
	router, err := api.SetupRouter()
	if err != nil {
		log.Fatalf("❌ 设置路由失败: %v", err)
	}
	log.Println("✅ 路由设置完成")

	// 5. 启动服务器
	log.Printf("🌐 服务器启动在端口 %s", cfg.Port)
	log.Printf("🔗 访问地址: http://localhost:%s", cfg.Port)

	setupGracefulShutdown(router, cfg.Port)
}

// 优雅关闭函数
func setupGracefulShutdown(router *gin.Engine, port string) {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// 在新的 goroutine 中启动服务器
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ 启动服务器失败: %v", err)
		}
	}()

	// 等待中断信号以进行优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ 服务器强制关闭: %v", err)
	}

	log.Println("✅ 服务器优雅关闭完成")
}
