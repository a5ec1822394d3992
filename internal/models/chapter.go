// internal/models/chapter.go
package models

import "time"

// 章节来源标记
const (
	ChapterSourceAuto   = "auto"      // 默认自动生成
	ChapterSourceLLM    = "auto_llm"  // LLM生成
	ChapterSourceStub   = "auto_stub" // stub生成
	ChapterSourceAIEdit = "ai_edit"   // 基于新起点重新生成
	ChapterSourceManual = "manual"    // 手动编辑
)

// Chapter 表示项目转写稿中一个命名的时间区间
// 存储层不保证章节互不重叠，显示层按"有效结束时间"校正
type Chapter struct {
	ID         int64     `json:"id"`
	ProjectID  int64     `json:"project_id"`
	Title      string    `json:"title"`
	StartSec   int       `json:"start_sec"`
	EndSec     *int      `json:"end_sec"`
	Summary    *string   `json:"summary"`
	Tags       *string   `json:"tags"` // 逗号分隔
	Source     string    `json:"source"`
	Confidence *float64  `json:"confidence"`
	Order      int       `json:"order"`
	Version    int       `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// EffectiveEndSec 显示用的有效结束时间，由相邻章节和转写稿推导，
	// 只在返回章节列表时填充，不落库
	EffectiveEndSec *int `json:"effective_end_sec,omitempty"`
}

// ChapterDraft 生成器产出的章节草稿，入库前的中间形态
type ChapterDraft struct {
	Title      string   `json:"title"`
	StartSec   int      `json:"start_sec"`
	EndSec     *int     `json:"end_sec"`
	Summary    *string  `json:"summary"`
	Tags       *string  `json:"tags"`
	Source     string   `json:"source"`
	Confidence *float64 `json:"confidence"`
	Order      int      `json:"order"` // 0表示未指定，由调用方按序补齐
}

// ChapterUpdate 章节可编辑字段的部分更新
// nil表示该字段不更新
type ChapterUpdate struct {
	Title    *string `json:"title"`
	Summary  *string `json:"summary"`
	StartSec *int    `json:"start_sec"`
	EndSec   *int    `json:"end_sec"`
	Order    *int    `json:"order"`
}

// ChapterListResponse 章节列表响应
type ChapterListResponse struct {
	Chapters []Chapter `json:"chapters"`
}
