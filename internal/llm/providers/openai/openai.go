// internal/llm/providers/openai/openai.go
package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hualuo/chaptergen/internal/llm"
)

func init() {
	llm.Register("openai", func() llm.Provider {
		return &Provider{
			recommendedModels: []string{
				"gpt-4o",
				"gpt-4o-mini",
				"gpt-4.1-mini",
			},
		}
	})
}

// Provider 基于go-openai的提供者
// 配置base_url后也可对接任意OpenAI兼容端点
type Provider struct {
	client            *openai.Client
	defaultModel      string
	recommendedModels []string
}

func (p *Provider) Initialize(config map[string]string) error {
	apiKey, exists := config["api_key"]
	if !exists || apiKey == "" {
		return errors.New("OpenAI API密钥未提供")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL, exists := config["base_url"]; exists && baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	p.client = openai.NewClientWithConfig(clientConfig)

	if model, exists := config["default_model"]; exists && model != "" {
		p.defaultModel = model
	} else {
		p.defaultModel = "gpt-4o-mini"
	}

	return nil
}

func (p *Provider) GetName() string {
	return "OpenAI"
}

func (p *Provider) GetSupportedModels() []string {
	return p.recommendedModels
}

func (p *Provider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	messages := []openai.ChatCompletionMessage{}
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("调用OpenAI API失败: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("OpenAI API未返回任何结果")
	}

	return &llm.CompletionResponse{
		Text:         resp.Choices[0].Message.Content,
		FinishReason: string(resp.Choices[0].FinishReason),
		TokensUsed:   resp.Usage.TotalTokens,
		ModelName:    model,
		ProviderName: "openai",
	}, nil
}
