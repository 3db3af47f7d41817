package mock

import (
	"context"
	"fmt"
	"sync"

	"mindstorm-be/pkg/llm"
)

// Provider is a scriptable LLMProvider for tests and offline development.
// Without scripted functions it echoes the last user turn and returns empty structures.
type Provider struct {
	ChatFunc       func(history []llm.Message) (string, error)
	StructuredJSON func(history []llm.Message, schema *llm.Schema) (string, error)
	ImageFunc      func(prompt string) (*llm.ImageResult, error)

	mu              sync.Mutex
	chatCalls       [][]llm.Message
	structuredCalls [][]llm.Message
	imageCalls      []string
}

var _ llm.LLMProvider = &Provider{}

func NewProvider() *Provider {
	return &Provider{}
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	p.mu.Lock()
	p.chatCalls = append(p.chatCalls, history)
	p.mu.Unlock()

	if p.ChatFunc != nil {
		return p.ChatFunc(history)
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == llm.RoleUser {
			return fmt.Sprintf("I hear you: %q. Tell me more.", history[i].Content), nil
		}
	}
	return "Tell me more.", nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func (p *Provider) Structured(ctx context.Context, history []llm.Message, schema *llm.Schema, out any, options ...llm.Option) error {
	p.mu.Lock()
	p.structuredCalls = append(p.structuredCalls, history)
	p.mu.Unlock()

	raw := "{}"
	if p.StructuredJSON != nil {
		var err error
		raw, err = p.StructuredJSON(history, schema)
		if err != nil {
			return err
		}
	}
	return llm.DecodeStructured(raw, schema, out)
}

func (p *Provider) Image(ctx context.Context, prompt string) (*llm.ImageResult, error) {
	p.mu.Lock()
	p.imageCalls = append(p.imageCalls, prompt)
	p.mu.Unlock()

	if p.ImageFunc != nil {
		return p.ImageFunc(prompt)
	}
	return nil, llm.ErrImageUnsupported
}

func (p *Provider) ChatCalls() [][]llm.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]llm.Message(nil), p.chatCalls...)
}

func (p *Provider) StructuredCalls() [][]llm.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]llm.Message(nil), p.structuredCalls...)
}

func (p *Provider) ImageCalls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.imageCalls...)
}
