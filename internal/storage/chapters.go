// internal/storage/chapters.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hualuo/chaptergen/internal/models"
)

const chapterColumns = `id, project_id, title, start_sec, end_sec, summary, tags,
       source, confidence, ord, version, created_at, updated_at`

// ReplaceChapters 以生成器产出的草稿整体替换项目的章节（单事务），
// 返回替换后的章节列表
func (s *Store) ReplaceChapters(ctx context.Context, projectID int64, drafts []models.ChapterDraft) ([]models.Chapter, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("开启章节替换事务失败: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chapters WHERE project_id = ?", projectID); err != nil {
		return nil, fmt.Errorf("删除旧章节失败: %w", err)
	}

	timestamp := formatTime(time.Now().UTC())
	for idx, draft := range drafts {
		order := draft.Order
		if order <= 0 {
			order = idx + 1
		}
		source := draft.Source
		if source == "" {
			source = models.ChapterSourceAuto
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO chapters (project_id, title, start_sec, end_sec, summary, tags,
                                   source, confidence, ord, version, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			projectID,
			draft.Title,
			draft.StartSec,
			nullableInt(draft.EndSec),
			nullableString(draft.Summary),
			nullableString(draft.Tags),
			source,
			nullableFloat(draft.Confidence),
			order,
			timestamp,
			timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("插入章节失败: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("提交章节替换事务失败: %w", err)
	}

	return s.ListChapters(ctx, projectID)
}

// ListChapters 按(order, start_sec)升序返回项目的全部章节
func (s *Store) ListChapters(ctx context.Context, projectID int64) ([]models.Chapter, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"SELECT "+chapterColumns+" FROM chapters WHERE project_id = ? ORDER BY ord, start_sec",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("查询章节失败: %w", err)
	}
	defer rows.Close()

	chapters := []models.Chapter{}
	for rows.Next() {
		chapter, err := scanChapterRow(rows)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, *chapter)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历章节失败: %w", err)
	}

	return chapters, nil
}

// GetChapter 按ID查询章节
func (s *Store) GetChapter(ctx context.Context, id int64) (*models.Chapter, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+chapterColumns+" FROM chapters WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("查询章节失败: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("查询章节失败: %w", err)
		}
		return nil, ErrNotFound
	}
	return scanChapterRow(rows)
}

// UpdateChapter 对章节的可编辑字段做部分更新，nil字段保持原值
func (s *Store) UpdateChapter(ctx context.Context, id int64, update models.ChapterUpdate) (*models.Chapter, error) {
	chapter, err := s.GetChapter(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		chapter.Title = *update.Title
	}
	if update.Summary != nil {
		chapter.Summary = update.Summary
	}
	if update.StartSec != nil {
		chapter.StartSec = *update.StartSec
	}
	if update.EndSec != nil {
		chapter.EndSec = update.EndSec
	}
	if update.Order != nil {
		chapter.Order = *update.Order
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE chapters SET title = ?, summary = ?, start_sec = ?, end_sec = ?, ord = ?, updated_at = ?
         WHERE id = ?`,
		chapter.Title,
		nullableString(chapter.Summary),
		chapter.StartSec,
		nullableInt(chapter.EndSec),
		chapter.Order,
		formatTime(time.Now().UTC()),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("更新章节失败: %w", err)
	}

	return s.GetChapter(ctx, id)
}

// ApplyRegeneration 将重新生成的草稿内容覆盖到章节上
// 只覆盖标题、起点、摘要和来源，保留存储的end_sec等其余字段
func (s *Store) ApplyRegeneration(ctx context.Context, id int64, draft models.ChapterDraft) (*models.Chapter, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chapters SET title = ?, start_sec = ?, summary = ?, source = ?, updated_at = ?
         WHERE id = ?`,
		draft.Title,
		draft.StartSec,
		nullableString(draft.Summary),
		draft.Source,
		formatTime(time.Now().UTC()),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("应用重新生成结果失败: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("读取影响行数失败: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return s.GetChapter(ctx, id)
}

func scanChapterRow(rows *sql.Rows) (*models.Chapter, error) {
	var (
		chapter    models.Chapter
		endSec     sql.NullInt64
		summary    sql.NullString
		tags       sql.NullString
		confidence sql.NullFloat64
		createdAt  string
		updatedAt  string
	)

	err := rows.Scan(
		&chapter.ID,
		&chapter.ProjectID,
		&chapter.Title,
		&chapter.StartSec,
		&endSec,
		&summary,
		&tags,
		&chapter.Source,
		&confidence,
		&chapter.Order,
		&chapter.Version,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("读取章节记录失败: %w", err)
	}

	chapter.EndSec = intPtr(endSec)
	chapter.Summary = stringPtr(summary)
	chapter.Tags = stringPtr(tags)
	chapter.Confidence = floatPtr(confidence)
	chapter.CreatedAt = parseTime(createdAt)
	chapter.UpdatedAt = parseTime(updatedAt)
	return &chapter, nil
}
