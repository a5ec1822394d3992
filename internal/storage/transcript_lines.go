// internal/storage/transcript_lines.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hualuo/chaptergen/internal/models"
	"github.com/hualuo/chaptergen/internal/transcript"
)

// InsertTranscriptLines 批量插入解析后的转写行（单事务）
func (s *Store) InsertTranscriptLines(ctx context.Context, projectID int64, lines []transcript.ParsedLine) error {
	if len(lines) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启转写行事务失败: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transcript_lines (project_id, start_sec, end_sec, text, source, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("准备转写行插入语句失败: %w", err)
	}
	defer stmt.Close()

	timestamp := formatTime(time.Now().UTC())
	for _, line := range lines {
		if _, err := stmt.ExecContext(ctx,
			projectID, line.StartSec, line.EndSec, line.Text, models.SourceASR, timestamp,
		); err != nil {
			return fmt.Errorf("插入转写行失败: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交转写行事务失败: %w", err)
	}
	return nil
}

// ListTranscriptLines 按start_sec升序返回项目的全部转写行
func (s *Store) ListTranscriptLines(ctx context.Context, projectID int64) ([]models.TranscriptLine, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, project_id, start_sec, end_sec, text, source, created_at
         FROM transcript_lines WHERE project_id = ? ORDER BY start_sec`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("查询转写行失败: %w", err)
	}
	defer rows.Close()

	lines := []models.TranscriptLine{}
	for rows.Next() {
		var (
			line      models.TranscriptLine
			endSec    sql.NullInt64
			createdAt string
		)
		if err := rows.Scan(
			&line.ID, &line.ProjectID, &line.StartSec, &endSec, &line.Text, &line.Source, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("读取转写行失败: %w", err)
		}
		line.EndSec = intPtr(endSec)
		line.CreatedAt = parseTime(createdAt)
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历转写行失败: %w", err)
	}

	return lines, nil
}
