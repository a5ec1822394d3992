// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

// 当前配置的单例实例
var (
	currentConfig *Config
	configMutex   sync.RWMutex
)

// Config 存储应用配置
type Config struct {
	Port      string
	DataDir   string
	LogDir    string
	DebugMode bool

	// 数据库位置（SQLite文件）
	DatabasePath string

	// 章节生成器相关配置
	LLMProvider string // volcengine / openai / stub
	LLMConfig   map[string]string
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// 尝试加载.env文件（可选）
	godotenv.Load()

	dataDir := getEnvPath("DATA_DIR", "data")

	config := &Config{
		Port:         getEnv("PORT", "8000"),
		DataDir:      dataDir,
		LogDir:       getEnvPath("LOG_DIR", "logs"),
		DebugMode:    getEnvBool("DEBUG_MODE", true),
		DatabasePath: getEnv("DATABASE_PATH", filepath.Join(dataDir, "chaptergen.db")),
		LLMProvider:  getEnv("LLM_PROVIDER", "volcengine"),
	}

	switch config.LLMProvider {
	case "volcengine":
		config.LLMConfig = map[string]string{
			"api_key":       getEnvAlias("VOLCENGINE_API_KEY", "ARK_API_KEY", ""),
			"default_model": getEnv("VOLCENGINE_MODEL", "doubao-seed-1-6"),
			"base_url":      getEnv("VOLCENGINE_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3/chat/completions"),
		}
	case "openai":
		config.LLMConfig = map[string]string{
			"api_key":       getEnv("OPENAI_API_KEY", ""),
			"default_model": getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			"base_url":      getEnv("OPENAI_BASE_URL", ""),
		}
	case "stub":
		config.LLMConfig = map[string]string{}
	default:
		return nil, fmt.Errorf("未知的LLM提供者: %s", config.LLMProvider)
	}

	// API密钥缺失时只记录警告，生成器会退化为stub模式
	if config.LLMProvider != "stub" && config.LLMConfig["api_key"] == "" {
		log.Printf("警告: 未设置%s API密钥，章节生成将使用stub模式", config.LLMProvider)
	}

	configMutex.Lock()
	currentConfig = config
	configMutex.Unlock()

	return config, nil
}

// GetCurrentConfig 返回当前配置的副本
func GetCurrentConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		// 紧急情况，返回一个基本配置
		baseConfig, _ := Load()
		return baseConfig
	}

	configCopy := *currentConfig
	return &configCopy
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAlias 获取环境变量，主键为空时尝试别名
func getEnvAlias(key, alias, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return getEnv(alias, defaultValue)
}

// getEnvPath 获取环境变量表示的路径，如果不存在则返回默认值
func getEnvPath(key, defaultValue string) string {
	path := getEnv(key, defaultValue)

	// 确保目录存在
	if _, err := os.Stat(path); os.IsNotExist(err) {
		err = os.MkdirAll(path, 0755)
		if err != nil {
			fmt.Printf("警告: 创建目录失败 %s: %v\n", path, err)
		}
	}

	return path
}

// getEnvBool 获取布尔类型环境变量
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}
