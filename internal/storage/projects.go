// internal/storage/projects.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hualuo/chaptergen/internal/models"
)

// CreateProject 插入一个新项目并返回完整记录
func (s *Store) CreateProject(ctx context.Context, title string, platform *string, durationSec *int, maxChapters int) (*models.Project, error) {
	if maxChapters <= 0 {
		maxChapters = models.DefaultMaxChapters
	}

	now := time.Now().UTC()
	timestamp := formatTime(now)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO projects (title, platform, duration_sec, max_chapters, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		title,
		nullableString(platform),
		nullableInt(durationSec),
		maxChapters,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("插入项目失败: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("获取项目ID失败: %w", err)
	}

	return s.GetProject(ctx, id)
}

// GetProject 按ID查询项目
func (s *Store) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, title, platform, duration_sec, max_chapters, created_at, updated_at
         FROM projects WHERE id = ?`,
		id,
	)
	return scanProject(row)
}

// ProjectCounts 统计项目的转写行数和章节数
func (s *Store) ProjectCounts(ctx context.Context, projectID int64) (transcriptLines int, chapters int, err error) {
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM transcript_lines WHERE project_id = ?", projectID,
	).Scan(&transcriptLines)
	if err != nil {
		return 0, 0, fmt.Errorf("统计转写行数失败: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM chapters WHERE project_id = ?", projectID,
	).Scan(&chapters)
	if err != nil {
		return 0, 0, fmt.Errorf("统计章节数失败: %w", err)
	}

	return transcriptLines, chapters, nil
}

// TouchProject 刷新项目的updated_at时间戳
func (s *Store) TouchProject(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE projects SET updated_at = ? WHERE id = ?",
		formatTime(time.Now().UTC()), id,
	)
	if err != nil {
		return fmt.Errorf("更新项目时间戳失败: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("读取影响行数失败: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProject(row *sql.Row) (*models.Project, error) {
	var (
		project     models.Project
		platform    sql.NullString
		durationSec sql.NullInt64
		createdAt   string
		updatedAt   string
	)

	err := row.Scan(
		&project.ID,
		&project.Title,
		&platform,
		&durationSec,
		&project.MaxChapters,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("读取项目记录失败: %w", err)
	}

	project.Platform = stringPtr(platform)
	project.DurationSec = intPtr(durationSec)
	project.CreatedAt = parseTime(createdAt)
	project.UpdatedAt = parseTime(updatedAt)
	return &project, nil
}
