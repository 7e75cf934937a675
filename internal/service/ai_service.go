package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"study_tutor_backend/internal/config"
)

// AIService 封装 OpenAI 兼容的 chat/completions 接口
type AIService struct {
	mu     sync.RWMutex
	config config.AIConfig
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{config: cfg}
}

// UpdateConfig 配置热更新（configwatcher 回调）
func (s *AIService) UpdateConfig(cfg config.AIConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
}

// DefaultModel 当前生效的模型标识
func (s *AIService) DefaultModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.ActiveModel()
}

// Configured 是否已配置上游地址（健康检查用）
func (s *AIService) Configured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.BaseURL != ""
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string          `json:"model"`
	Temperature float64         `json:"temperature"`
	Messages    []AIChatMessage `json:"messages"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Chat 单轮非流式调用，返回第一个choice的内容
// model 为空时使用配置中的模型
func (s *AIService) Chat(ctx context.Context, model, systemPrompt, userMessage string) (string, error) {
	s.mu.RLock()
	cfg := s.config
	s.mu.RUnlock()

	if model == "" {
		model = cfg.ActiveModel()
	}

	reqBody := ChatCompletionRequest{
		Model:       model,
		Temperature: cfg.Temperature,
		Messages: []AIChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", cfg.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	client := &http.Client{Timeout: cfg.Timeout()}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}

	if result.Error != nil {
		return "", fmt.Errorf("AI API error: %s", result.Error.Message)
	}

	if len(result.Choices) > 0 {
		return result.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("AI returned no choices")
}
