// internal/api/handlers_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/hualuo/chaptergen/internal/models"
	"github.com/hualuo/chaptergen/internal/services"
	"github.com/hualuo/chaptergen/internal/storage"
)

const testTranscript = `# 测试转写稿
生成时间: 2026-01-01 12:00:00
[00:00:00 --> 00:01:00] 开场寒暄
[00:01:00 --> 00:05:00] 正题开始
[00:05:00 --> 00:09:40] 观点展开
[00:09:40 --> 00:10:00] 收尾总结
`

func newTestRouter(t *testing.T) *gin.Engine {
	r, _ := newTestEnv(t)
	return r
}

func newTestEnv(t *testing.T) (*gin.Engine, *storage.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.Open(filepath.Join(t.TempDir(), "api_test.db"))
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	generator := &services.StubChapterGenerator{}
	handler := NewHandler(
		services.NewProjectService(store),
		services.NewChapterService(store, generator),
		services.NewExportService(store),
	)

	r := gin.New()
	registerRoutes(r, handler)
	return r, store
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("序列化请求体失败: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createProject(t *testing.T, r *gin.Engine) services.CreateFromTranscriptResult {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/projects/from-transcript-txt", map[string]interface{}{
		"title":          "测试直播回放",
		"platform":       "bilibili",
		"max_chapters":   4,
		"transcript_txt": testTranscript,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("创建项目失败: %d %s", w.Code, w.Body.String())
	}

	var result services.CreateFromTranscriptResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("解析创建响应失败: %v", err)
	}
	return result
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("健康检查失败: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("健康检查响应不符: %s", w.Body.String())
	}
}

func TestCreateProjectFromTranscript(t *testing.T) {
	r := newTestRouter(t)
	result := createProject(t, r)

	if result.Project == nil {
		t.Fatal("响应应包含project")
	}
	if result.TranscriptLineCount != 4 {
		t.Errorf("transcript_line_count应为4: %d", result.TranscriptLineCount)
	}
	if result.Project.Title != "测试直播回放" {
		t.Errorf("标题不符: %q", result.Project.Title)
	}
	if result.Project.DurationSec == nil || *result.Project.DurationSec != 600 {
		t.Errorf("时长应为600秒: %v", result.Project.DurationSec)
	}
	if result.Project.MaxChapters != 4 {
		t.Errorf("max_chapters应为4: %d", result.Project.MaxChapters)
	}
}

// 没有可导入的转写行时返回400和原始错误文案
func TestCreateProjectNoLines(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/projects/from-transcript-txt", map[string]interface{}{
		"title":          "空项目",
		"transcript_txt": "没有时间戳的文本",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("期望400: %d", w.Code)
	}
	if w.Body.String() != "No transcript lines found to import." {
		t.Errorf("错误文案不符: %q", w.Body.String())
	}
}

func TestCreateProjectMissingTitle(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/projects/from-transcript-txt", map[string]interface{}{
		"transcript_txt": testTranscript,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("期望400: %d", w.Code)
	}
}

// 导入N行后，转写接口应原样返回这N行
func TestTranscriptRoundTrip(t *testing.T) {
	r := newTestRouter(t)
	result := createProject(t, r)

	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/projects/%d/transcript", result.Project.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("查询转写失败: %d %s", w.Code, w.Body.String())
	}

	var lines []models.TranscriptLine
	if err := json.Unmarshal(w.Body.Bytes(), &lines); err != nil {
		t.Fatalf("解析转写响应失败: %v", err)
	}
	if len(lines) != result.TranscriptLineCount {
		t.Fatalf("转写行数不符: %d vs %d", len(lines), result.TranscriptLineCount)
	}
	if lines[0].Text != "开场寒暄" || lines[3].Text != "收尾总结" {
		t.Errorf("转写内容不符: %+v", lines)
	}
	// 按start_sec升序
	for i := 1; i < len(lines); i++ {
		if lines[i].StartSec < lines[i-1].StartSec {
			t.Errorf("转写行未按start_sec排序")
		}
	}
}

func TestGetProjectNotFound(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/projects/9999", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("期望404: %d", w.Code)
	}
	if w.Body.String() != "Project not found." {
		t.Errorf("错误文案不符: %q", w.Body.String())
	}
}

func TestGetProjectInvalidID(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/projects/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("期望400: %d", w.Code)
	}
}

// 端到端：导入转写稿 → 生成章节 → 改标题 → 重新拉取 → 导出
func TestEndToEndFlow(t *testing.T) {
	r := newTestRouter(t)
	result := createProject(t, r)
	projectID := result.Project.ID

	// 生成章节
	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/projects/%d/generate_chapters", projectID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("生成章节失败: %d %s", w.Code, w.Body.String())
	}
	var generated models.ChapterListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &generated); err != nil {
		t.Fatalf("解析章节响应失败: %v", err)
	}
	if len(generated.Chapters) != 4 {
		t.Fatalf("stub生成器应生成4章: %d", len(generated.Chapters))
	}
	last := generated.Chapters[len(generated.Chapters)-1]
	if last.EffectiveEndSec == nil || *last.EffectiveEndSec != 600 {
		t.Errorf("最后一章的有效结束时间应为转写稿末尾600: %v", last.EffectiveEndSec)
	}

	// 编辑第一章的标题
	target := generated.Chapters[0]
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/chapters/%d", target.ID), map[string]interface{}{
		"title": "改过的标题",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("更新章节失败: %d %s", w.Code, w.Body.String())
	}
	var updated models.Chapter
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("解析更新响应失败: %v", err)
	}
	if updated.Title != "改过的标题" {
		t.Errorf("标题未更新: %q", updated.Title)
	}

	// 重新拉取：编辑生效且章节数不变
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/projects/%d/chapters", projectID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("查询章节失败: %d", w.Code)
	}
	var refetched models.ChapterListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &refetched); err != nil {
		t.Fatalf("解析章节响应失败: %v", err)
	}
	if len(refetched.Chapters) != len(generated.Chapters) {
		t.Errorf("章节数不应变化: %d vs %d", len(refetched.Chapters), len(generated.Chapters))
	}
	if refetched.Chapters[0].Title != "改过的标题" {
		t.Errorf("编辑后的标题未持久化: %q", refetched.Chapters[0].Title)
	}

	// 导出Bilibili章节标记
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/projects/%d/export/bilibili", projectID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("导出失败: %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("导出应为纯文本: %q", w.Header().Get("Content-Type"))
	}
	exportLines := strings.Split(w.Body.String(), "\n")
	if len(exportLines) != 4 {
		t.Fatalf("导出应有4行: %d", len(exportLines))
	}
	if exportLines[0] != "00:00:00 改过的标题" {
		t.Errorf("导出首行不符: %q", exportLines[0])
	}
}

// 生成章节会整体替换旧章节
func TestGenerateReplacesChapters(t *testing.T) {
	r := newTestRouter(t)
	result := createProject(t, r)
	projectID := result.Project.ID

	for i := 0; i < 2; i++ {
		w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/projects/%d/generate_chapters", projectID), nil)
		if w.Code != http.StatusOK {
			t.Fatalf("第%d次生成失败: %d", i+1, w.Code)
		}
	}

	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/projects/%d", projectID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("查询项目失败: %d", w.Code)
	}
	var project models.ProjectWithCounts
	if err := json.Unmarshal(w.Body.Bytes(), &project); err != nil {
		t.Fatalf("解析项目响应失败: %v", err)
	}
	if project.ChapterCount != 4 {
		t.Errorf("重复生成后章节数仍应为4: %d", project.ChapterCount)
	}
	if project.TranscriptLineCount != 4 {
		t.Errorf("转写行数应为4: %d", project.TranscriptLineCount)
	}
}

func TestRegenerateChapter(t *testing.T) {
	r := newTestRouter(t)
	result := createProject(t, r)
	projectID := result.Project.ID

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/projects/%d/generate_chapters", projectID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("生成章节失败: %d", w.Code)
	}
	var generated models.ChapterListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &generated); err != nil {
		t.Fatalf("解析章节响应失败: %v", err)
	}
	target := generated.Chapters[1]

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/chapters/%d/regenerate", target.ID), map[string]interface{}{
		"new_start_sec": 300,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("重新生成失败: %d %s", w.Code, w.Body.String())
	}
	var regenerated models.Chapter
	if err := json.Unmarshal(w.Body.Bytes(), &regenerated); err != nil {
		t.Fatalf("解析重新生成响应失败: %v", err)
	}
	if regenerated.StartSec != 300 {
		t.Errorf("起点应更新为300: %d", regenerated.StartSec)
	}
	if regenerated.Source != models.ChapterSourceAIEdit {
		t.Errorf("来源标记应为ai_edit: %q", regenerated.Source)
	}
	if regenerated.Title != "Adjusted Chapter @ 00:05:00" {
		t.Errorf("标题不符: %q", regenerated.Title)
	}
}

func TestRegenerateChapterMissingBody(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/chapters/1/regenerate", map[string]interface{}{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("缺少new_start_sec应返回400: %d", w.Code)
	}
}

// 没有转写行时生成章节返回400
func TestGenerateChaptersNoTranscript(t *testing.T) {
	r, store := newTestEnv(t)

	// 导入接口不允许空转写稿，直接写库造一个空项目
	project, err := store.CreateProject(context.Background(), "空项目", nil, nil, 0)
	if err != nil {
		t.Fatalf("创建空项目失败: %v", err)
	}

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/projects/%d/generate_chapters", project.ID), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("期望400: %d", w.Code)
	}
	if w.Body.String() != "No transcript lines to generate chapters from." {
		t.Errorf("错误文案不符: %q", w.Body.String())
	}
}

func TestGenerateChaptersProjectNotFound(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/projects/9999/generate_chapters", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("期望404: %d", w.Code)
	}
	if w.Body.String() != "Project not found." {
		t.Errorf("错误文案不符: %q", w.Body.String())
	}
}

func TestUpdateChapterNotFound(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPut, "/chapters/9999", map[string]interface{}{"title": "x"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("期望404: %d", w.Code)
	}
	if w.Body.String() != "Chapter not found." {
		t.Errorf("错误文案不符: %q", w.Body.String())
	}
}
