// internal/services/export_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/hualuo/chaptergen/internal/errors"
	"github.com/hualuo/chaptergen/internal/models"
	"github.com/hualuo/chaptergen/internal/storage"
	"github.com/hualuo/chaptergen/internal/transcript"
)

// ExportService 把章节导出为目标平台的章节标记文本
type ExportService struct {
	store *storage.Store
}

// NewExportService 创建导出服务
func NewExportService(store *storage.Store) *ExportService {
	return &ExportService{store: store}
}

// ExportBilibili 导出Bilibili风格的章节标记：
// 每章一行，格式为 "HH:MM:SS 标题"，按(order, start_sec)排序
func (s *ExportService) ExportBilibili(ctx context.Context, projectID int64) (string, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		if err == storage.ErrNotFound {
			return "", apperrors.NewNotFoundError("Project not found.", err)
		}
		return "", fmt.Errorf("查询项目失败: %w", err)
	}

	chapters, err := s.store.ListChapters(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("查询章节失败: %w", err)
	}

	return FormatBilibiliChapters(chapters), nil
}

// FormatBilibiliChapters 把章节列表渲染成Bilibili章节标记文本
func FormatBilibiliChapters(chapters []models.Chapter) string {
	lines := make([]string, 0, len(chapters))
	for _, chapter := range chapters {
		lines = append(lines, fmt.Sprintf("%s %s", transcript.FormatHMS(chapter.StartSec), chapter.Title))
	}
	return strings.Join(lines, "\n")
}
