// internal/app/app.go
package app

import (
	"fmt"
	"log"

	"github.com/hualuo/chaptergen/internal/config"
	"github.com/hualuo/chaptergen/internal/di"
	"github.com/hualuo/chaptergen/internal/services"
	"github.com/hualuo/chaptergen/internal/storage"

	// 注册可用的LLM提供者
	_ "github.com/hualuo/chaptergen/internal/llm/providers/openai"
	_ "github.com/hualuo/chaptergen/internal/llm/providers/volcengine"
)

// InitServices 按依赖顺序初始化所有服务并注册到容器
func InitServices() error {
	cfg := config.GetCurrentConfig()
	container := di.GetContainer()

	// 1. 持久层
	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("初始化存储失败: %w", err)
	}
	container.Register("store", store)

	// 2. 章节生成器（LLM或stub，由配置选定）
	generator := services.NewChapterGenerator(cfg)
	container.Register("generator", generator)
	log.Printf("章节生成器: provider=%s", cfg.LLMProvider)

	// 3. 业务服务
	container.Register("project", services.NewProjectService(store))
	container.Register("chapter", services.NewChapterService(store, generator))
	container.Register("export", services.NewExportService(store))

	return nil
}

// CloseServices 释放持有的资源
func CloseServices() {
	container := di.GetContainer()
	if store, ok := container.Get("store").(*storage.Store); ok {
		if err := store.Close(); err != nil {
			log.Printf("关闭数据库失败: %v", err)
		}
	}
}
