// internal/models/project.go
package models

import "time"

// DefaultMaxChapters 生成章节数量的软上限默认值
const DefaultMaxChapters = 10

// Project 表示一个项目：一份转写稿及其派生的章节
type Project struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Platform    *string   `json:"platform"`
	DurationSec *int      `json:"duration_sec"`
	MaxChapters int       `json:"max_chapters"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectWithCounts 项目详情，附带转写行数和章节数
type ProjectWithCounts struct {
	Project
	TranscriptLineCount int `json:"transcript_line_count"`
	ChapterCount        int `json:"chapter_count"`
}
