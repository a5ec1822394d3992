// internal/api/router.go
package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/hualuo/chaptergen/internal/config"
	"github.com/hualuo/chaptergen/internal/di"
	"github.com/hualuo/chaptergen/internal/services"
)

// SetupRouter 配置HTTP路由
func SetupRouter() (*gin.Engine, error) {
	cfg := config.GetCurrentConfig()
	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// 获取依赖注入容器
	container := di.GetContainer()

	// 只从容器获取服务，不再创建新实例
	projectService, ok := container.Get("project").(*services.ProjectService)
	if !ok {
		return nil, fmt.Errorf("项目服务未正确初始化")
	}

	chapterService, ok := container.Get("chapter").(*services.ChapterService)
	if !ok {
		return nil, fmt.Errorf("章节服务未正确初始化")
	}

	exportService, ok := container.Get("export").(*services.ExportService)
	if !ok {
		return nil, fmt.Errorf("导出服务未正确初始化")
	}

	handler := NewHandler(projectService, chapterService, exportService)

	// 创建路由
	r := gin.Default()

	// 启用CORS和请求追踪
	r.Use(corsMiddleware())
	r.Use(requestIDMiddleware())
	r.Use(requestLogMiddleware())

	registerRoutes(r, handler)

	return r, nil
}

// registerRoutes 注册全部HTTP端点
func registerRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/health", handler.Health)

	// 项目
	r.POST("/projects/from-transcript-txt", handler.CreateProjectFromTranscript)
	r.GET("/projects/:id", handler.GetProject)
	r.GET("/projects/:id/transcript", handler.GetTranscript)
	r.GET("/projects/:id/chapters", handler.GetChapters)
	r.POST("/projects/:id/generate_chapters", handler.GenerateChapters)
	r.GET("/projects/:id/export/bilibili", handler.ExportBilibili)

	// 章节
	r.PUT("/chapters/:id", handler.UpdateChapter)
	r.POST("/chapters/:id/regenerate", handler.RegenerateChapter)
}
