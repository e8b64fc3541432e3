package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"aurex/internal/logger"
)

// 中文说明：
// Client：兼容 OpenAI / DeepSeek / Qwen 的聊天补全接口（/v1/chat/completions）。
// 单次请求不做内部重试，重试策略由调度层的 RetryPolicy 统一控制。

type Client struct {
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration

	httpc *http.Client
}

func NewClient(baseURL, model string, temperature float64, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		BaseURL:     baseURL,
		Model:       model,
		Temperature: temperature,
		Timeout:     timeout,
		httpc:       &http.Client{Timeout: timeout},
	}
}

// Chat 用指定凭据发起一次补全请求，返回首个 choice 的文本。
func (c *Client) Chat(ctx context.Context, apiKey, systemPrompt, userPrompt string) (string, error) {
	url := c.endpoint()

	messages := []map[string]string{}
	if systemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": systemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": userPrompt})
	body := map[string]any{"model": c.Model, "messages": messages, "temperature": c.Temperature}
	b, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("oracle 请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		logger.Warnf("[ORACLE] HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		return "", fmt.Errorf("oracle HTTP %d", resp.StatusCode)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", fmt.Errorf("oracle 响应解析失败: %w", err)
	}
	if len(r.Choices) == 0 {
		return "", fmt.Errorf("oracle 返回空 choices")
	}
	return r.Choices[0].Message.Content, nil
}

// 规范化 BaseURL，避免配置里已带 /chat/completions 导致路径重复。
func (c *Client) endpoint() string {
	url := c.BaseURL
	if url == "" {
		url = "https://api.openai.com/v1"
	}
	url = strings.TrimRight(url, "/")
	url = strings.TrimSuffix(url, "/chat/completions")
	return url + "/chat/completions"
}

// MaskKey 掩码凭据，日志里只露后 4 位。
func MaskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
