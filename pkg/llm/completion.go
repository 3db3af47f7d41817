package llm

import (
	"context"
	"fmt"
	"strings"
)

// CompletionRequest is what a persona call needs from the completion service.
type CompletionRequest struct {
	Instructions string
	Goal         string
	History      []Message // most recent turns only, oldest first
	Input        string
	Anonymous    bool
}

// Messages flattens the request into a chat history: system prompt, prior turns, new input.
func (r CompletionRequest) Messages() []Message {
	system := strings.TrimSpace(r.Instructions)
	if goal := strings.TrimSpace(r.Goal); goal != "" {
		system += "\n\nSession goal: " + goal
	}
	if r.Anonymous {
		system += "\n\nNever reveal or guess who wrote any message."
	}

	messages := make([]Message, 0, len(r.History)+2)
	if system != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: system})
	}
	messages = append(messages, r.History...)
	messages = append(messages, Message{Role: RoleUser, Content: r.Input})
	return messages
}

// Complete runs a persona-style request and returns the trimmed reply.
// An empty reply is reported as ErrEmptyReply so callers never persist blank messages.
func Complete(ctx context.Context, p LLMProvider, req CompletionRequest, opts ...Option) (string, error) {
	reply, err := p.Chat(ctx, req.Messages(), opts...)
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}
