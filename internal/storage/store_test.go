// internal/storage/store_test.go
package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hualuo/chaptergen/internal/models"
	"github.com/hualuo/chaptergen/internal/transcript"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createTestProject(t *testing.T, store *Store) *models.Project {
	t.Helper()
	platform := "bilibili"
	duration := 120
	project, err := store.CreateProject(context.Background(), "测试直播回放", &platform, &duration, 10)
	if err != nil {
		t.Fatalf("创建测试项目失败: %v", err)
	}
	return project
}

func TestCreateAndGetProject(t *testing.T) {
	store := newTestStore(t)
	project := createTestProject(t, store)

	got, err := store.GetProject(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("查询项目失败: %v", err)
	}
	if got.Title != "测试直播回放" {
		t.Errorf("标题不符: %q", got.Title)
	}
	if got.Platform == nil || *got.Platform != "bilibili" {
		t.Errorf("平台不符: %v", got.Platform)
	}
	if got.DurationSec == nil || *got.DurationSec != 120 {
		t.Errorf("时长不符: %v", got.DurationSec)
	}
	if got.MaxChapters != 10 {
		t.Errorf("max_chapters不符: %d", got.MaxChapters)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("时间戳不应为零值")
	}
}

func TestGetProjectNotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetProject(context.Background(), 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("不存在的项目应返回ErrNotFound, 实际: %v", err)
	}
}

// 导入N行转写稿后，计数和按序读取应与导入内容完全一致
func TestTranscriptLineRoundTrip(t *testing.T) {
	store := newTestStore(t)
	project := createTestProject(t, store)
	ctx := context.Background()

	parsed := []transcript.ParsedLine{
		{StartSec: 10, EndSec: 12, Text: "第二句"},
		{StartSec: 0, EndSec: 5, Text: "第一句"},
		{StartSec: 20, EndSec: 25, Text: "第三句"},
	}
	if err := store.InsertTranscriptLines(ctx, project.ID, parsed); err != nil {
		t.Fatalf("插入转写行失败: %v", err)
	}

	lineCount, chapterCount, err := store.ProjectCounts(ctx, project.ID)
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if lineCount != 3 || chapterCount != 0 {
		t.Errorf("计数不符: lines=%d chapters=%d", lineCount, chapterCount)
	}

	lines, err := store.ListTranscriptLines(ctx, project.ID)
	if err != nil {
		t.Fatalf("查询转写行失败: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("期望3行，实际%d行", len(lines))
	}

	// 按start_sec升序返回
	wantTexts := []string{"第一句", "第二句", "第三句"}
	wantStarts := []int{0, 10, 20}
	for i, line := range lines {
		if line.Text != wantTexts[i] || line.StartSec != wantStarts[i] {
			t.Errorf("第%d行不符: %+v", i, line)
		}
		if line.Source != models.SourceASR {
			t.Errorf("来源标记应为asr: %q", line.Source)
		}
		if line.EndSec == nil {
			t.Errorf("第%d行end_sec缺失", i)
		}
	}
}

func TestReplaceChapters(t *testing.T) {
	store := newTestStore(t)
	project := createTestProject(t, store)
	ctx := context.Background()

	summary := "开场寒暄"
	confidence := 0.5
	first, err := store.ReplaceChapters(ctx, project.ID, []models.ChapterDraft{
		{Title: "开场", StartSec: 0, Summary: &summary, Source: models.ChapterSourceStub, Confidence: &confidence},
		{Title: "正题", StartSec: 60, Source: models.ChapterSourceStub},
	})
	if err != nil {
		t.Fatalf("替换章节失败: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("期望2个章节，实际%d个", len(first))
	}
	if first[0].Order != 1 || first[1].Order != 2 {
		t.Errorf("order应按序补齐: %d, %d", first[0].Order, first[1].Order)
	}

	// 再次替换应整体覆盖旧章节
	second, err := store.ReplaceChapters(ctx, project.ID, []models.ChapterDraft{
		{Title: "唯一章节", StartSec: 0, Source: models.ChapterSourceLLM, Order: 1},
	})
	if err != nil {
		t.Fatalf("二次替换章节失败: %v", err)
	}
	if len(second) != 1 || second[0].Title != "唯一章节" {
		t.Errorf("旧章节未被整体替换: %+v", second)
	}

	_, chapterCount, err := store.ProjectCounts(ctx, project.ID)
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if chapterCount != 1 {
		t.Errorf("替换后章节数应为1, 实际%d", chapterCount)
	}
}

func TestUpdateChapterPartial(t *testing.T) {
	store := newTestStore(t)
	project := createTestProject(t, store)
	ctx := context.Background()

	chapters, err := store.ReplaceChapters(ctx, project.ID, []models.ChapterDraft{
		{Title: "原标题", StartSec: 0, Source: models.ChapterSourceStub},
	})
	if err != nil {
		t.Fatalf("准备章节失败: %v", err)
	}
	chapter := chapters[0]

	newTitle := "改过的标题"
	newEnd := 90
	updated, err := store.UpdateChapter(ctx, chapter.ID, models.ChapterUpdate{
		Title:  &newTitle,
		EndSec: &newEnd,
	})
	if err != nil {
		t.Fatalf("更新章节失败: %v", err)
	}
	if updated.Title != newTitle {
		t.Errorf("标题未更新: %q", updated.Title)
	}
	if updated.EndSec == nil || *updated.EndSec != 90 {
		t.Errorf("end_sec未更新: %v", updated.EndSec)
	}
	// 未提供的字段保持原值
	if updated.StartSec != 0 || updated.Order != 1 {
		t.Errorf("未更新字段被改动: start=%d order=%d", updated.StartSec, updated.Order)
	}
}

// 以相同字段值更新应是幂等的
func TestUpdateChapterIdempotent(t *testing.T) {
	store := newTestStore(t)
	project := createTestProject(t, store)
	ctx := context.Background()

	summary := "摘要"
	chapters, err := store.ReplaceChapters(ctx, project.ID, []models.ChapterDraft{
		{Title: "标题", StartSec: 5, Summary: &summary, Source: models.ChapterSourceStub},
	})
	if err != nil {
		t.Fatalf("准备章节失败: %v", err)
	}
	chapter := chapters[0]

	updated, err := store.UpdateChapter(ctx, chapter.ID, models.ChapterUpdate{
		Title:    &chapter.Title,
		Summary:  chapter.Summary,
		StartSec: &chapter.StartSec,
		Order:    &chapter.Order,
	})
	if err != nil {
		t.Fatalf("幂等更新失败: %v", err)
	}

	if updated.Title != chapter.Title ||
		updated.StartSec != chapter.StartSec ||
		updated.Order != chapter.Order ||
		(updated.Summary == nil) != (chapter.Summary == nil) ||
		(updated.Summary != nil && *updated.Summary != *chapter.Summary) {
		t.Errorf("幂等更新后可编辑字段应保持一致: %+v vs %+v", updated, chapter)
	}
}

func TestApplyRegeneration(t *testing.T) {
	store := newTestStore(t)
	project := createTestProject(t, store)
	ctx := context.Background()

	end := 100
	chapters, err := store.ReplaceChapters(ctx, project.ID, []models.ChapterDraft{
		{Title: "旧标题", StartSec: 0, EndSec: &end, Source: models.ChapterSourceStub},
	})
	if err != nil {
		t.Fatalf("准备章节失败: %v", err)
	}

	summary := "基于新起点重写的摘要"
	updated, err := store.ApplyRegeneration(ctx, chapters[0].ID, models.ChapterDraft{
		Title:    "新标题",
		StartSec: 30,
		Summary:  &summary,
		Source:   models.ChapterSourceAIEdit,
	})
	if err != nil {
		t.Fatalf("应用重新生成失败: %v", err)
	}

	if updated.Title != "新标题" || updated.StartSec != 30 || updated.Source != models.ChapterSourceAIEdit {
		t.Errorf("重新生成结果未生效: %+v", updated)
	}
	// 存储的end_sec保持不变
	if updated.EndSec == nil || *updated.EndSec != 100 {
		t.Errorf("end_sec不应被覆盖: %v", updated.EndSec)
	}
}

func TestSchemaReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reopen.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("首次打开失败: %v", err)
	}
	project := createTestProject(t, store)
	if err := store.Close(); err != nil {
		t.Fatalf("关闭失败: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("重新打开失败: %v", err)
	}
	defer reopened.Close()

	if _, err := reopened.GetProject(context.Background(), project.ID); err != nil {
		t.Errorf("重新打开后数据应保留: %v", err)
	}
}
