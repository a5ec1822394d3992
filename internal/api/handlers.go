// internal/api/handlers.go
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hualuo/chaptergen/internal/models"
	"github.com/hualuo/chaptergen/internal/services"
)

// Handler 处理API请求
type Handler struct {
	ProjectService *services.ProjectService // 项目服务
	ChapterService *services.ChapterService // 章节服务
	ExportService  *services.ExportService  // 导出服务
	Response       *ResponseHelper          // 响应助手
}

// NewHandler 创建API处理器
func NewHandler(
	projectService *services.ProjectService,
	chapterService *services.ChapterService,
	exportService *services.ExportService,
) *Handler {
	return &Handler{
		ProjectService: projectService,
		ChapterService: chapterService,
		ExportService:  exportService,
		Response:       NewResponseHelper(),
	}
}

// CreateProjectRequest 从转写稿创建项目的请求结构
type CreateProjectRequest struct {
	Title         string  `json:"title"`          // 项目标题
	Platform      *string `json:"platform"`       // 目标平台（可选）
	MaxChapters   *int    `json:"max_chapters"`   // 章节数量软上限（可选，默认10）
	TranscriptTxt string  `json:"transcript_txt"` // 转写稿全文
}

// RegenerateChapterRequest 重新生成章节的请求结构
type RegenerateChapterRequest struct {
	NewStartSec *int `json:"new_start_sec"` // 章节的新起始时间
}

// CreateProjectFromTranscript 解析转写稿并创建项目
// POST /projects/from-transcript-txt
func (h *Handler) CreateProjectFromTranscript(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "Invalid request body.")
		return
	}
	if req.Title == "" {
		h.Response.BadRequest(c, "Title is required.")
		return
	}

	maxChapters := models.DefaultMaxChapters
	if req.MaxChapters != nil {
		maxChapters = *req.MaxChapters
	}

	result, err := h.ProjectService.CreateFromTranscript(c.Request.Context(), req.Title, req.Platform, maxChapters, req.TranscriptTxt)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}

	h.Response.Success(c, result)
}

// GetProject 查询项目详情（含转写行数和章节数）
// GET /projects/:id
func (h *Handler) GetProject(c *gin.Context) {
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	project, err := h.ProjectService.GetProjectWithCounts(c.Request.Context(), projectID)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}

	h.Response.Success(c, project)
}

// GetTranscript 查询项目的转写行列表
// GET /projects/:id/transcript
func (h *Handler) GetTranscript(c *gin.Context) {
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	lines, err := h.ProjectService.GetTranscript(c.Request.Context(), projectID)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}

	h.Response.Success(c, lines)
}

// GetChapters 查询项目的章节列表
// GET /projects/:id/chapters
func (h *Handler) GetChapters(c *gin.Context) {
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	chapters, err := h.ChapterService.ListChapters(c.Request.Context(), projectID)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}

	h.Response.Success(c, models.ChapterListResponse{Chapters: chapters})
}

// GenerateChapters 为项目生成章节（整体替换已有章节）
// POST /projects/:id/generate_chapters
func (h *Handler) GenerateChapters(c *gin.Context) {
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	chapters, err := h.ChapterService.GenerateChapters(c.Request.Context(), projectID)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}

	h.Response.Success(c, models.ChapterListResponse{Chapters: chapters})
}

// UpdateChapter 部分更新单个章节的可编辑字段
// PUT /chapters/:id
func (h *Handler) UpdateChapter(c *gin.Context) {
	chapterID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var update models.ChapterUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		h.Response.BadRequest(c, "Invalid request body.")
		return
	}

	chapter, err := h.ChapterService.UpdateChapter(c.Request.Context(), chapterID, update)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}

	h.Response.Success(c, chapter)
}

// RegenerateChapter 基于新的起始时间重新生成章节内容
// POST /chapters/:id/regenerate
func (h *Handler) RegenerateChapter(c *gin.Context) {
	chapterID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req RegenerateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.NewStartSec == nil {
		h.Response.BadRequest(c, "new_start_sec is required.")
		return
	}

	chapter, err := h.ChapterService.RegenerateChapter(c.Request.Context(), chapterID, *req.NewStartSec)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}

	h.Response.Success(c, chapter)
}

// ExportBilibili 导出Bilibili章节标记文本
// GET /projects/:id/export/bilibili
func (h *Handler) ExportBilibili(c *gin.Context) {
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	content, err := h.ExportService.ExportBilibili(c.Request.Context(), projectID)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}

	h.Response.Text(c, content)
}

// Health 健康检查
// GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// pathID 解析路径中的数字ID，非法时直接写出400响应
func (h *Handler) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		h.Response.BadRequest(c, "Invalid id in path.")
		return 0, false
	}
	return id, true
}
