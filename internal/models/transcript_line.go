// internal/models/transcript_line.go
package models

import "time"

// TranscriptLine 表示转写稿中的一行（一条带时间戳的语音片段）
// 入库后不可变，按start_sec升序排列
type TranscriptLine struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	StartSec  int       `json:"start_sec"`
	EndSec    *int      `json:"end_sec"`
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// SourceASR 转写行的默认来源标记
const SourceASR = "asr"
