// internal/utils/logger_test.go
package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// 文件日志按行写JSON条目
func TestLoggerWritesJSONEntries(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")
	if err := InitLogger(logFile); err != nil {
		t.Fatalf("初始化日志失败: %v", err)
	}

	logger := GetLogger()
	logger.Info("请求完成", map[string]interface{}{
		"method": "GET",
		"status": 200,
	})

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) == 0 {
		t.Fatal("日志文件为空")
	}

	var entry LogEntry
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("日志行不是合法JSON: %v", err)
	}
	if entry.Level != "INFO" {
		t.Errorf("日志级别不符: %q", entry.Level)
	}
	if entry.Message != "请求完成" {
		t.Errorf("日志消息不符: %q", entry.Message)
	}
	if entry.Fields["method"] != "GET" {
		t.Errorf("日志字段不符: %v", entry.Fields)
	}
	if entry.File == "" || entry.Line == 0 {
		t.Errorf("日志应带调用位置: %s:%d", entry.File, entry.Line)
	}
}

// 低于当前级别的日志不写入
func TestLoggerLevelFilter(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "filter.log")
	if err := InitLogger(logFile); err != nil {
		t.Fatalf("初始化日志失败: %v", err)
	}

	logger := GetLogger()
	logger.SetLogLevel(ERROR)
	defer logger.SetLogLevel(INFO)

	logger.Info("不应出现", nil)
	logger.Error("应该出现", nil)

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "不应出现") {
		t.Error("低级别日志不应写入文件")
	}
	if !strings.Contains(content, "应该出现") {
		t.Error("错误日志应写入文件")
	}
}
