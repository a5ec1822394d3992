// internal/services/generator_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/hualuo/chaptergen/internal/config"
	"github.com/hualuo/chaptergen/internal/llm"
	"github.com/hualuo/chaptergen/internal/models"
	"github.com/hualuo/chaptergen/internal/timeline"
	"github.com/hualuo/chaptergen/internal/transcript"
)

// ChapterGenerator 章节生成器：从转写稿提出章节边界和摘要
// LLM实现和stub实现可互换，由启动时的配置选定
type ChapterGenerator interface {
	// GenerateChapters 从完整转写稿生成章节草稿列表
	GenerateChapters(ctx context.Context, lines []models.TranscriptLine, maxChapters int) ([]models.ChapterDraft, error)

	// RegenerateChapter 基于新的起始时间重写单个章节的内容
	RegenerateChapter(ctx context.Context, lines []models.TranscriptLine, newStartSec int) (models.ChapterDraft, error)
}

// NewChapterGenerator 按配置选择生成器实现
// 未配置API密钥或提供者初始化失败时退化为stub实现
func NewChapterGenerator(cfg *config.Config) ChapterGenerator {
	if cfg.LLMProvider == "stub" || cfg.LLMConfig["api_key"] == "" {
		return &StubChapterGenerator{}
	}

	provider, err := llm.GetProvider(cfg.LLMProvider, cfg.LLMConfig)
	if err != nil {
		log.Printf("警告: 初始化LLM提供者%s失败，退化为stub生成器: %v", cfg.LLMProvider, err)
		return &StubChapterGenerator{}
	}

	return &LLMChapterGenerator{provider: provider, fallback: &StubChapterGenerator{}}
}

// ----------------------------------------------------------------------------
// stub实现：按时间均分

// StubChapterGenerator 无LLM时的占位生成器，把转写稿按时间均分成章节
type StubChapterGenerator struct{}

func (g *StubChapterGenerator) GenerateChapters(_ context.Context, lines []models.TranscriptLine, maxChapters int) ([]models.ChapterDraft, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	sorted := sortedByStart(lines)
	duration, _ := timeline.LastLineEnd(sorted)

	chapterCount := maxChapters
	if chapterCount <= 0 || chapterCount > models.DefaultMaxChapters {
		chapterCount = models.DefaultMaxChapters
	}
	step := duration / chapterCount
	if step < 1 {
		step = 1
	}

	drafts := make([]models.ChapterDraft, 0, chapterCount)
	for idx := 0; idx < chapterCount; idx++ {
		start := idx * step
		end := (idx + 1) * step
		if end > duration {
			end = duration
		}
		summary := "Placeholder summary for this segment."
		confidence := 0.5
		drafts = append(drafts, models.ChapterDraft{
			Title:      fmt.Sprintf("Chapter %d: %s - %s", idx+1, transcript.FormatHMS(start), transcript.FormatHMS(end)),
			StartSec:   start,
			EndSec:     &end,
			Summary:    &summary,
			Source:     models.ChapterSourceStub,
			Confidence: &confidence,
			Order:      idx + 1,
		})
	}
	return drafts, nil
}

func (g *StubChapterGenerator) RegenerateChapter(_ context.Context, lines []models.TranscriptLine, newStartSec int) (models.ChapterDraft, error) {
	contextText := "No nearby transcript context."
	if line := firstLineAtOrAfter(lines, newStartSec); line != nil {
		contextText = line.Text
	}

	summary := "Auto-updated using nearby transcript: " + truncateRunes(contextText, 120)
	confidence := 0.6
	return models.ChapterDraft{
		Title:      fmt.Sprintf("Adjusted Chapter @ %s", transcript.FormatHMS(newStartSec)),
		StartSec:   newStartSec,
		Summary:    &summary,
		Source:     models.ChapterSourceAIEdit,
		Confidence: &confidence,
	}, nil
}

// ----------------------------------------------------------------------------
// LLM实现

// 提示词里要求模型只使用transcript中出现过的时间戳，
// 解析后仍会做一次吸附校正，不信任模型的输出
const chapterPromptTemplate = `你现在扮演一名非常懂中文财经/聊天直播节奏的「长视频剪辑编辑 + 文案总监」，要帮主播给一整场直播回放做【人类风格】的章节划分。

视频总时长约 %d 分钟。

请严格输出 JSON（必须符合下面规则）：
1）必须输出 %d 个章节，index 从 1 递增。
2）章节必须按时间顺序【连续覆盖】整段直播，不允许出现时间空档（gap）。
   - 第 1 章 start 必须是直播开头附近的一个 transcript 时间戳。
   - 对于中间章节：第 i 章的 end 必须等于第 i+1 章的 start（end = next_start）。
   - 最后一章 end 必须是直播结束附近的一个 transcript 时间戳。
3）start 和 end 的时间戳请【优先/尽量严格使用 transcript 中已经出现过的时间戳】；不要虚构不存在的时间点。
4）不要均分时间。每章标题<=18汉字，reason<=40字。

输出 JSON 格式如下：
{
  "chapters": [
    {
      "index": 1,
      "start": "HH:MM:SS",
      "end": "HH:MM:SS",
      "title": "章节标题（不超过18个汉字）",
      "reason": "简要说明这一章的结构/逻辑作用（不超过40字）"
    }
  ]
}

标题风格参考：
- 开场 / 正题 / 小结 / 总结 / 锦囊 / 收盘
- 正题开始：2026新趋势
- 逆天SC借屏道歉
- 下周锦囊：为什么波动加大

下面是 transcript（逐字稿，带时间戳）：
%s
`

const chapterSystemPrompt = "你是一个资深中文财经直播剪辑师，擅长拆分长视频章节并输出JSON。"

const regeneratePromptTemplate = `下面是一段直播转写稿片段，新章节从 %s 开始。
请为这个章节起一个标题（<=18汉字）和一句摘要（<=40字），严格输出JSON：
{"title": "...", "summary": "..."}

转写稿片段：
%s
`

// LLMChapterGenerator 调用LLM提出章节边界，失败时退化为stub结果
type LLMChapterGenerator struct {
	provider llm.Provider
	fallback *StubChapterGenerator
}

func (g *LLMChapterGenerator) GenerateChapters(ctx context.Context, lines []models.TranscriptLine, maxChapters int) ([]models.ChapterDraft, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	sorted := sortedByStart(lines)
	durationSec, _ := timeline.LastLineEnd(sorted)
	durationMinutes := durationSec / 60
	if durationMinutes < 1 {
		durationMinutes = 1
	}

	chapterCount := maxChapters
	if chapterCount <= 0 || chapterCount > models.DefaultMaxChapters {
		chapterCount = models.DefaultMaxChapters
	}

	prompt := fmt.Sprintf(chapterPromptTemplate, durationMinutes, chapterCount, buildTranscriptText(sorted))

	resp, err := g.provider.CompleteText(ctx, llm.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: chapterSystemPrompt,
		Temperature:  0.3,
		JSONMode:     true,
	})
	if err != nil {
		log.Printf("LLM章节生成失败，使用stub结果: %v", err)
		return g.fallback.GenerateChapters(ctx, lines, maxChapters)
	}

	drafts := parseChapterJSON(resp.Text)
	if len(drafts) == 0 {
		log.Printf("LLM返回内容无法解析出章节，使用stub结果")
		return g.fallback.GenerateChapters(ctx, lines, maxChapters)
	}

	drafts = snapToTranscript(drafts, sorted)
	sort.SliceStable(drafts, func(i, j int) bool {
		if drafts[i].Order != drafts[j].Order {
			return drafts[i].Order < drafts[j].Order
		}
		return drafts[i].StartSec < drafts[j].StartSec
	})

	if len(drafts) > chapterCount {
		drafts = drafts[:chapterCount]
	}
	return drafts, nil
}

func (g *LLMChapterGenerator) RegenerateChapter(ctx context.Context, lines []models.TranscriptLine, newStartSec int) (models.ChapterDraft, error) {
	window := contextWindow(lines, newStartSec, 12)
	if window == "" {
		return g.fallback.RegenerateChapter(ctx, lines, newStartSec)
	}

	prompt := fmt.Sprintf(regeneratePromptTemplate, transcript.FormatHMS(newStartSec), window)
	resp, err := g.provider.CompleteText(ctx, llm.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: chapterSystemPrompt,
		Temperature:  0.3,
		JSONMode:     true,
	})
	if err != nil {
		log.Printf("LLM章节重写失败，使用stub结果: %v", err)
		return g.fallback.RegenerateChapter(ctx, lines, newStartSec)
	}

	var parsed struct {
		Title   string `json:"title"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(resp.Text), &parsed); err != nil || parsed.Title == "" {
		log.Printf("LLM章节重写内容无法解析，使用stub结果")
		return g.fallback.RegenerateChapter(ctx, lines, newStartSec)
	}

	confidence := 0.6
	draft := models.ChapterDraft{
		Title:      parsed.Title,
		StartSec:   newStartSec,
		Source:     models.ChapterSourceAIEdit,
		Confidence: &confidence,
	}
	if parsed.Summary != "" {
		draft.Summary = &parsed.Summary
	} else {
		// 模型漏掉摘要时补上stub摘要，避免覆盖掉已有的摘要
		stubDraft, _ := g.fallback.RegenerateChapter(ctx, lines, newStartSec)
		draft.Summary = stubDraft.Summary
	}
	return draft, nil
}

// ----------------------------------------------------------------------------
// 解析与吸附

// llmChapterRow 模型输出的单个章节行
type llmChapterRow struct {
	Index  int    `json:"index"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// parseChapterJSON 解析模型输出的章节JSON，坏行跳过不报错
func parseChapterJSON(content string) []models.ChapterDraft {
	var parsed struct {
		Chapters []llmChapterRow `json:"chapters"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		log.Printf("解析LLM章节JSON失败: %v", err)
		return nil
	}

	drafts := make([]models.ChapterDraft, 0, len(parsed.Chapters))
	for idx, row := range parsed.Chapters {
		startSec, err := transcript.ParseHMS(defaultString(row.Start, "00:00:00"))
		if err != nil {
			log.Printf("跳过无法解析起始时间的章节行: %v", err)
			continue
		}
		endSec, err := transcript.ParseHMS(defaultString(row.End, "00:00:00"))
		if err != nil {
			log.Printf("跳过无法解析结束时间的章节行: %v", err)
			continue
		}

		title := row.Title
		if title == "" {
			title = fmt.Sprintf("Chapter %d", idx+1)
		}
		order := row.Index
		if order <= 0 {
			order = idx + 1
		}

		draft := models.ChapterDraft{
			Title:    title,
			StartSec: startSec,
			EndSec:   &endSec,
			Source:   models.ChapterSourceLLM,
			Order:    order,
		}
		if row.Reason != "" {
			reason := row.Reason
			draft.Summary = &reason
		}
		drafts = append(drafts, draft)
	}
	return drafts
}

// snapToTranscript 把章节边界吸附到transcript中真实出现过的时间点：
// 起点吸附到某行的开始时间，终点吸附到某行的结束时间，
// 先钳制进[min, max]区间，吸附后保证end >= start
func snapToTranscript(drafts []models.ChapterDraft, sorted []models.TranscriptLine) []models.ChapterDraft {
	if len(drafts) == 0 || len(sorted) == 0 {
		return drafts
	}

	starts := make([]int, len(sorted))
	ends := make([]int, len(sorted))
	for i, line := range sorted {
		starts[i] = line.StartSec
		end := line.StartSec
		if line.EndSec != nil {
			end = *line.EndSec
		}
		ends[i] = end
	}

	minTime := starts[0]
	for _, s := range starts {
		if s < minTime {
			minTime = s
		}
	}
	maxTime := ends[0]
	for _, e := range ends {
		if e > maxTime {
			maxTime = e
		}
	}

	snapped := make([]models.ChapterDraft, 0, len(drafts))
	for _, draft := range drafts {
		startRaw := clamp(draft.StartSec, minTime, maxTime)
		endRaw := draft.StartSec
		if draft.EndSec != nil {
			endRaw = *draft.EndSec
		}
		endRaw = clamp(endRaw, minTime, maxTime)

		snappedStart := timeline.NearestTime(startRaw, starts)
		snappedEnd := timeline.NearestTime(endRaw, ends)
		if snappedEnd < snappedStart {
			snappedEnd = snappedStart
		}

		draft.StartSec = snappedStart
		end := snappedEnd
		draft.EndSec = &end
		snapped = append(snapped, draft)
	}
	return snapped
}

// buildTranscriptText 把转写行还原成 [HH:MM:SS --> HH:MM:SS] 文本 的形式
func buildTranscriptText(sorted []models.TranscriptLine) string {
	segments := make([]string, 0, len(sorted))
	for _, line := range sorted {
		end := line.StartSec
		if line.EndSec != nil {
			end = *line.EndSec
		}
		segments = append(segments, fmt.Sprintf("[%s --> %s] %s",
			transcript.FormatHMS(line.StartSec), transcript.FormatHMS(end), line.Text))
	}
	return strings.Join(segments, "\n")
}

// contextWindow 取newStartSec之后最多maxLines行转写稿作为上下文
func contextWindow(lines []models.TranscriptLine, newStartSec, maxLines int) string {
	sorted := sortedByStart(lines)
	segments := []string{}
	for _, line := range sorted {
		if line.StartSec < newStartSec {
			continue
		}
		segments = append(segments, line.Text)
		if len(segments) >= maxLines {
			break
		}
	}
	return strings.Join(segments, "\n")
}

func firstLineAtOrAfter(lines []models.TranscriptLine, startSec int) *models.TranscriptLine {
	for i := range lines {
		if lines[i].StartSec >= startSec {
			return &lines[i]
		}
	}
	return nil
}

func sortedByStart(lines []models.TranscriptLine) []models.TranscriptLine {
	sorted := make([]models.TranscriptLine, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartSec < sorted[j].StartSec
	})
	return sorted
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func clamp(v, minValue, maxValue int) int {
	if v < minValue {
		return minValue
	}
	if v > maxValue {
		return maxValue
	}
	return v
}
