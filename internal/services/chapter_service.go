// internal/services/chapter_service.go
package services

import (
	"context"
	"fmt"

	apperrors "github.com/hualuo/chaptergen/internal/errors"
	"github.com/hualuo/chaptergen/internal/models"
	"github.com/hualuo/chaptergen/internal/storage"
	"github.com/hualuo/chaptergen/internal/timeline"
)

// ChapterService 管理章节的生成与编辑
type ChapterService struct {
	store     *storage.Store
	generator ChapterGenerator
}

// NewChapterService 创建章节服务
func NewChapterService(store *storage.Store, generator ChapterGenerator) *ChapterService {
	return &ChapterService{store: store, generator: generator}
}

// ListChapters 按(order, start_sec)升序返回项目的章节
func (s *ChapterService) ListChapters(ctx context.Context, projectID int64) ([]models.Chapter, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		if err == storage.ErrNotFound {
			return nil, apperrors.NewNotFoundError("Project not found.", err)
		}
		return nil, fmt.Errorf("查询项目失败: %w", err)
	}

	chapters, err := s.store.ListChapters(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.annotateEffectiveEnds(ctx, projectID, chapters)
}

// GenerateChapters 调用生成器为项目生成章节，并整体替换已有章节
func (s *ChapterService) GenerateChapters(ctx context.Context, projectID int64) ([]models.Chapter, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, apperrors.NewNotFoundError("Project not found.", err)
		}
		return nil, fmt.Errorf("查询项目失败: %w", err)
	}

	lines, err := s.store.ListTranscriptLines(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("查询转写行失败: %w", err)
	}
	if len(lines) == 0 {
		return nil, apperrors.NewValidationError("No transcript lines to generate chapters from.", nil)
	}

	drafts, err := s.generator.GenerateChapters(ctx, lines, project.MaxChapters)
	if err != nil {
		return nil, apperrors.NewProcessingError("生成章节失败", err)
	}

	chapters, err := s.store.ReplaceChapters(ctx, projectID, drafts)
	if err != nil {
		return nil, err
	}
	return annotateEffectiveEnds(chapters, lines), nil
}

func (s *ChapterService) annotateEffectiveEnds(ctx context.Context, projectID int64, chapters []models.Chapter) ([]models.Chapter, error) {
	lines, err := s.store.ListTranscriptLines(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("查询转写行失败: %w", err)
	}
	return annotateEffectiveEnds(chapters, lines), nil
}

// annotateEffectiveEnds 为每个章节填充显示用的有效结束时间
func annotateEffectiveEnds(chapters []models.Chapter, lines []models.TranscriptLine) []models.Chapter {
	for i := range chapters {
		end := timeline.EffectiveEnd(chapters[i], chapters, lines)
		chapters[i].EffectiveEndSec = &end
	}
	return chapters
}

// UpdateChapter 对单个章节做部分字段更新
func (s *ChapterService) UpdateChapter(ctx context.Context, chapterID int64, update models.ChapterUpdate) (*models.Chapter, error) {
	chapter, err := s.store.UpdateChapter(ctx, chapterID, update)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, apperrors.NewNotFoundError("Chapter not found.", err)
		}
		return nil, fmt.Errorf("更新章节失败: %w", err)
	}
	return chapter, nil
}

// RegenerateChapter 基于新的起始时间重新生成章节内容并覆盖存储记录
func (s *ChapterService) RegenerateChapter(ctx context.Context, chapterID int64, newStartSec int) (*models.Chapter, error) {
	chapter, err := s.store.GetChapter(ctx, chapterID)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, apperrors.NewNotFoundError("Chapter not found.", err)
		}
		return nil, fmt.Errorf("查询章节失败: %w", err)
	}

	lines, err := s.store.ListTranscriptLines(ctx, chapter.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("查询转写行失败: %w", err)
	}

	draft, err := s.generator.RegenerateChapter(ctx, lines, newStartSec)
	if err != nil {
		return nil, apperrors.NewProcessingError("重新生成章节失败", err)
	}

	updated, err := s.store.ApplyRegeneration(ctx, chapterID, draft)
	if err != nil {
		return nil, fmt.Errorf("应用重新生成结果失败: %w", err)
	}
	return updated, nil
}
