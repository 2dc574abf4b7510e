package shared

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNoAPIKey is returned when no API key is configured
var ErrNoAPIKey = errors.New("OpenAI API key not configured")

// Completer turns a system and user prompt into a single JSON object completion
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt, model string, temperature float64) (string, error)
}

// OpenAIClient wraps the OpenAI chat completions API
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIClient creates a client for the configured provider
func NewOpenAIClient(cfg *Config) *OpenAIClient {
	apiKey, _ := cfg.APIKey()
	return &OpenAIClient{
		apiKey:  apiKey,
		baseURL: cfg.BaseURL(),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// OpenAIRequest represents a request to the chat completions API
type OpenAIRequest struct {
	Model          string          `json:"model"`
	Messages       []OpenAIMessage `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat ResponseFormat  `json:"response_format"`
}

// OpenAIMessage represents a chat message
type OpenAIMessage struct {
	Role    string `json:"role"` // "system" or "user"
	Content string `json:"content"`
}

// ResponseFormat selects the provider's structured output mode
type ResponseFormat struct {
	Type string `json:"type"`
}

// OpenAIResponse represents a response from the chat completions API
type OpenAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// ProviderError is an error reported by the completion provider
type ProviderError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("OpenAI API error: %s - %s", e.Type, e.Message)
	}
	return fmt.Sprintf("OpenAI API error: status %d - %s", e.StatusCode, e.Message)
}

type openAIErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one system and one user message in JSON object mode and
// returns the first choice's content. No retry is attempted.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt, model string, temperature float64) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	request := OpenAIRequest{
		Model: model,
		Messages: []OpenAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    temperature,
		ResponseFormat: ResponseFormat{Type: "json_object"},
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errBody openAIErrorBody
		if err := json.Unmarshal(body, &errBody); err == nil && errBody.Error.Message != "" {
			return "", &ProviderError{StatusCode: resp.StatusCode, Type: errBody.Error.Type, Message: errBody.Error.Message}
		}
		return "", &ProviderError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var completion OpenAIResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}
	return completion.Choices[0].Message.Content, nil
}
