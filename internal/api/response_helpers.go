// internal/api/response_helpers.go
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/hualuo/chaptergen/internal/errors"
	"github.com/hualuo/chaptergen/internal/utils"
)

// ResponseHelper 响应助手类
// 成功响应直接返回资源JSON，非2xx响应统一为纯文本消息体，
// 客户端把消息原样展示给用户
type ResponseHelper struct{}

// NewResponseHelper 创建响应助手
func NewResponseHelper() *ResponseHelper {
	return &ResponseHelper{}
}

// Success 成功响应
func (rh *ResponseHelper) Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Text 纯文本成功响应（用于导出）
func (rh *ResponseHelper) Text(c *gin.Context, content string) {
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

// BadRequest 400错误响应
func (rh *ResponseHelper) BadRequest(c *gin.Context, message string) {
	c.String(http.StatusBadRequest, message)
}

// NotFound 404错误响应
func (rh *ResponseHelper) NotFound(c *gin.Context, message string) {
	c.String(http.StatusNotFound, message)
}

// InternalError 500错误响应
func (rh *ResponseHelper) InternalError(c *gin.Context, message string) {
	c.String(http.StatusInternalServerError, message)
}

// ServiceError 把服务层错误映射为对应的HTTP状态码
func (rh *ResponseHelper) ServiceError(c *gin.Context, err error) {
	switch {
	case apperrors.IsValidationError(err):
		rh.BadRequest(c, appErrorMessage(err))
	case apperrors.IsNotFoundError(err):
		rh.NotFound(c, appErrorMessage(err))
	default:
		// 内部细节只进日志，不进响应体
		utils.GetLogger().Error("请求处理失败", map[string]interface{}{
			"request_id": c.GetString("request_id"),
			"path":       c.Request.URL.Path,
			"error":      err.Error(),
		})
		rh.InternalError(c, "Internal server error.")
	}
}

// appErrorMessage 取AppError自身的消息，不附带错误链细节
func appErrorMessage(err error) string {
	var appError *apperrors.AppError
	if errors.As(err, &appError) {
		return appError.Message
	}
	return err.Error()
}
