package llm

import (
	"context"
	"errors"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

var (
	ErrEmptyReply       = errors.New("llm returned an empty reply")
	ErrImageUnsupported = errors.New("image generation is not supported by this provider")
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// ImageResult is a rendered image returned by an image-capable provider.
type ImageResult struct {
	Data     []byte
	MIMEType string
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)

	// Structured asks the model for JSON matching schema and decodes it into out.
	// A response that does not conform to the schema is an error.
	Structured(ctx context.Context, history []Message, schema *Schema, out any, options ...Option) error

	// Image renders prompt into an image.
	Image(ctx context.Context, prompt string) (*ImageResult, error)
}
