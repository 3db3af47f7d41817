package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mindstorm-be/pkg/llm"
)

type HuggingFaceProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

var _ llm.LLMProvider = &HuggingFaceProvider{}

type responseFormat struct {
	Type string `json:"type"`
}

// Request Payload Structure (OpenAI Compatible)
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewHuggingFaceProvider(apiKey, baseURL, model string) *HuggingFaceProvider {
	if baseURL == "" {
		baseURL = "https://router.huggingface.co/v1" // Default Router URL
	}
	return &HuggingFaceProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *HuggingFaceProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return p.chat(ctx, history, nil, options...)
}

func (p *HuggingFaceProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	// Wrap single prompt into a user message
	messages := []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	}
	return p.Chat(ctx, messages, options...)
}

// Structured uses JSON mode and states the schema in a trailing system message;
// the router has no schema-constrained decoding, so validation happens locally.
func (p *HuggingFaceProvider) Structured(ctx context.Context, history []llm.Message, schema *llm.Schema, out any, options ...llm.Option) error {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	messages := append([]llm.Message{}, history...)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: "Respond with ONLY a JSON document matching this JSON schema. No other text.\n" + string(schemaJSON),
	})

	raw, err := p.chat(ctx, messages, &responseFormat{Type: "json_object"}, options...)
	if err != nil {
		return err
	}
	return llm.DecodeStructured(raw, schema, out)
}

func (p *HuggingFaceProvider) Image(ctx context.Context, prompt string) (*llm.ImageResult, error) {
	return nil, llm.ErrImageUnsupported
}

func (p *HuggingFaceProvider) chat(ctx context.Context, history []llm.Message, format *responseFormat, options ...llm.Option) (string, error) {
	opts := &llm.Options{
		Model:     p.model,
		MaxTokens: 500, // Default sane limit
	}
	for _, o := range options {
		o(opts)
	}

	messages := make([]chatMessage, len(history))
	for i, m := range history {
		messages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}

	reqBody := chatRequest{
		Model:          opts.Model,
		Messages:       messages,
		MaxTokens:      opts.MaxTokens,
		Temperature:    opts.Temperature,
		ResponseFormat: format,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", p.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("huggingface api error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("huggingface api returned error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("empty choices from huggingface api")
	}

	return chatResp.Choices[0].Message.Content, nil
}
