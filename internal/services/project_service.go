// internal/services/project_service.go
package services

import (
	"context"
	"fmt"

	apperrors "github.com/hualuo/chaptergen/internal/errors"
	"github.com/hualuo/chaptergen/internal/models"
	"github.com/hualuo/chaptergen/internal/storage"
	"github.com/hualuo/chaptergen/internal/transcript"
)

// ProjectService 管理项目及其转写稿的导入
type ProjectService struct {
	store *storage.Store
}

// NewProjectService 创建项目服务
func NewProjectService(store *storage.Store) *ProjectService {
	return &ProjectService{store: store}
}

// CreateFromTranscriptResult 导入转写稿的结果
type CreateFromTranscriptResult struct {
	Project             *models.Project `json:"project"`
	TranscriptLineCount int             `json:"transcript_line_count"`
}

// CreateFromTranscript 解析转写稿文本并创建项目和转写行
// 项目时长取所有行结束时间（缺失则用开始时间）的最大值
func (s *ProjectService) CreateFromTranscript(ctx context.Context, title string, platform *string, maxChapters int, transcriptTxt string) (*CreateFromTranscriptResult, error) {
	parsedLines := transcript.ParseTxt(transcriptTxt)
	if len(parsedLines) == 0 {
		return nil, apperrors.NewValidationError("No transcript lines found to import.", nil)
	}

	durationSec := 0
	for _, line := range parsedLines {
		end := line.EndSec
		if end < line.StartSec {
			end = line.StartSec
		}
		if end > durationSec {
			durationSec = end
		}
	}

	if maxChapters <= 0 {
		maxChapters = models.DefaultMaxChapters
	}

	project, err := s.store.CreateProject(ctx, title, platform, &durationSec, maxChapters)
	if err != nil {
		return nil, fmt.Errorf("创建项目失败: %w", err)
	}

	if err := s.store.InsertTranscriptLines(ctx, project.ID, parsedLines); err != nil {
		return nil, fmt.Errorf("导入转写行失败: %w", err)
	}

	// 导入完成后刷新项目时间戳并返回最新记录
	if err := s.store.TouchProject(ctx, project.ID); err != nil {
		return nil, fmt.Errorf("刷新项目时间戳失败: %w", err)
	}
	project, err = s.store.GetProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("读取项目失败: %w", err)
	}

	return &CreateFromTranscriptResult{
		Project:             project,
		TranscriptLineCount: len(parsedLines),
	}, nil
}

// GetProjectWithCounts 查询项目及其转写行数、章节数
func (s *ProjectService) GetProjectWithCounts(ctx context.Context, id int64) (*models.ProjectWithCounts, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, apperrors.NewNotFoundError("Project not found.", err)
		}
		return nil, fmt.Errorf("查询项目失败: %w", err)
	}

	lineCount, chapterCount, err := s.store.ProjectCounts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("统计项目数据失败: %w", err)
	}

	return &models.ProjectWithCounts{
		Project:             *project,
		TranscriptLineCount: lineCount,
		ChapterCount:        chapterCount,
	}, nil
}

// GetTranscript 查询项目的全部转写行（按start_sec升序）
func (s *ProjectService) GetTranscript(ctx context.Context, projectID int64) ([]models.TranscriptLine, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		if err == storage.ErrNotFound {
			return nil, apperrors.NewNotFoundError("Project not found.", err)
		}
		return nil, fmt.Errorf("查询项目失败: %w", err)
	}

	return s.store.ListTranscriptLines(ctx, projectID)
}
