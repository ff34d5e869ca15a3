package nl2sql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxErrorBodyBytes = 2048

type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type OpenAITranslator struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewOpenAITranslator(cfg OpenAIConfig) (*OpenAITranslator, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &OpenAITranslator{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   model,
		client:  client,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Temperature is pinned to zero and a single candidate is requested so the
// same prompt keeps producing the same statement.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	N           int           `json:"n"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (t *OpenAITranslator) Translate(ctx context.Context, req Request) (Result, error) {
	prompt := BuildPrompt(req)
	body, err := json.Marshal(chatRequest{
		Model:       t.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0,
		N:           1,
	})
	if err != nil {
		return Result{}, &GenerationError{Op: "marshal request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Result{}, &GenerationError{Op: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return Result{}, &GenerationError{Op: "request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	rawRespBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &GenerationError{Op: "read response", Err: err}
	}
	if resp.StatusCode >= 400 {
		return Result{}, &GenerationError{
			Op:         "request",
			StatusCode: resp.StatusCode,
			Err:        errors.New(truncate(strings.TrimSpace(string(rawRespBody)), maxErrorBodyBytes)),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(rawRespBody, &parsed); err != nil {
		return Result{}, &GenerationError{Op: "decode response", Err: err}
	}
	if len(parsed.Choices) == 0 {
		return Result{}, &GenerationError{Op: "decode response", Err: errors.New("empty choices")}
	}

	sql := CleanSQL(parsed.Choices[0].Message.Content)
	if sql == "" {
		return Result{}, &GenerationError{Op: "decode response", Err: errors.New("model returned empty SQL")}
	}
	return Result{
		SQL:      sql,
		Prompt:   prompt,
		Provider: "openai-compatible",
		Model:    t.model,
	}, nil
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}
