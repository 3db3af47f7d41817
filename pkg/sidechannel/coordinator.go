// Package sidechannel runs the private conversation between one participant and the
// facilitator, which can end with the participant's idea published to the group anonymously.
package sidechannel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"mindstorm-be/internal/pkg/logger"
	"mindstorm-be/pkg/conceptmap"
	"mindstorm-be/pkg/llm"
	"mindstorm-be/pkg/persona"

	"github.com/google/uuid"
)

const module = "SideChannel"

// AnonymousPrefix introduces a shared idea when it could not be rewritten.
const AnonymousPrefix = "An anonymous participant shared: "

var (
	ErrEmptyMessage           = errors.New("private message is empty")
	ErrFacilitatorUnavailable = errors.New("facilitator is unavailable")
)

type State string

const (
	StateIdle                  State = "idle"
	StateCollecting            State = "collecting"
	StateAwaitingShareDecision State = "awaiting_share_decision"
	StateShared                State = "shared"
	StateDeclined              State = "declined"
)

type Origin string

const (
	OriginUser        Origin = "user"
	OriginFacilitator Origin = "facilitator"
)

type Message struct {
	Origin  Origin
	Content string
}

type Thread struct {
	SessionID   uuid.UUID
	UserID      uuid.UUID
	State       State
	PendingIdea string
}

// Store persists private threads. Thread returns an idle thread when none exists yet.
type Store interface {
	Thread(ctx context.Context, sessionID, userID uuid.UUID) (*Thread, error)
	SaveThread(ctx context.Context, thread *Thread) error
	AppendMessage(ctx context.Context, sessionID, userID uuid.UUID, origin Origin, content string) error
	// History returns the last limit private messages, oldest first.
	History(ctx context.Context, sessionID, userID uuid.UUID, limit int) ([]Message, error)
}

// Publisher appends a facilitator-authored message to the shared transcript.
type Publisher interface {
	PublishAnonymous(ctx context.Context, sessionID uuid.UUID, content string) (uuid.UUID, error)
}

// ExtractionQueue schedules concept extraction for a published message.
type ExtractionQueue interface {
	Enqueue(ctx context.Context, src conceptmap.Source) error
}

type Request struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
	Goal      string
	Content   string
}

type Outcome struct {
	Reply     string
	State     State
	Published *uuid.UUID
}

type Coordinator struct {
	store     Store
	provider  llm.LLMProvider
	publisher Publisher
	queue     ExtractionQueue
	logger    logger.ILogger

	locks sync.Map
}

func NewCoordinator(store Store, provider llm.LLMProvider, publisher Publisher, queue ExtractionQueue, log logger.ILogger) *Coordinator {
	return &Coordinator{
		store:     store,
		provider:  provider,
		publisher: publisher,
		queue:     queue,
		logger:    log,
	}
}

func (c *Coordinator) lock(sessionID, userID uuid.UUID) func() {
	v, _ := c.locks.LoadOrStore(sessionID.String()+"/"+userID.String(), &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Handle processes one private message from a participant.
func (c *Coordinator) Handle(ctx context.Context, req Request) (*Outcome, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	unlock := c.lock(req.SessionID, req.UserID)
	defer unlock()

	thread, err := c.store.Thread(ctx, req.SessionID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load private thread: %w", err)
	}

	if thread.State == StateAwaitingShareDecision {
		switch ClassifyDecision(content) {
		case DecisionYes:
			return c.share(ctx, req, thread, content)
		case DecisionNo:
			return c.decline(ctx, req, thread, content)
		}
	}
	return c.collect(ctx, req, thread, content)
}

func (c *Coordinator) collect(ctx context.Context, req Request, thread *Thread, content string) (*Outcome, error) {
	if err := c.store.AppendMessage(ctx, req.SessionID, req.UserID, OriginUser, content); err != nil {
		return nil, fmt.Errorf("save private message: %w", err)
	}

	history, err := c.store.History(ctx, req.SessionID, req.UserID, persona.WindowSize+1)
	if err != nil {
		return nil, fmt.Errorf("load private history: %w", err)
	}
	if n := len(history); n > 0 {
		history = history[:n-1]
	}

	reply, err := llm.Complete(ctx, c.provider, llm.CompletionRequest{
		Instructions: persona.PrivateFacilitatorInstructions,
		Goal:         req.Goal,
		History:      toLLM(history),
		Input:        content,
	})
	if err != nil {
		c.logger.Error(module, "Private facilitator call failed", map[string]interface{}{
			"session_id": req.SessionID,
			"error":      err.Error(),
		})
		if thread.State != StateAwaitingShareDecision {
			thread.State = StateCollecting
			if err := c.store.SaveThread(ctx, thread); err != nil {
				c.logger.Warn(module, "Failed to save private thread", map[string]interface{}{"error": err.Error()})
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrFacilitatorUnavailable, err)
	}

	if err := c.store.AppendMessage(ctx, req.SessionID, req.UserID, OriginFacilitator, reply); err != nil {
		return nil, fmt.Errorf("save facilitator reply: %w", err)
	}

	thread.State = StateCollecting
	if AsksToShare(reply) {
		thread.State = StateAwaitingShareDecision
		thread.PendingIdea = content
	}
	if err := c.store.SaveThread(ctx, thread); err != nil {
		return nil, fmt.Errorf("save private thread: %w", err)
	}

	return &Outcome{Reply: reply, State: thread.State}, nil
}

func (c *Coordinator) share(ctx context.Context, req Request, thread *Thread, content string) (*Outcome, error) {
	if err := c.store.AppendMessage(ctx, req.SessionID, req.UserID, OriginUser, content); err != nil {
		return nil, fmt.Errorf("save private message: %w", err)
	}

	idea := strings.TrimSpace(thread.PendingIdea)
	if idea == "" {
		idea = c.latestIdea(ctx, req)
	}
	if idea == "" {
		// Nothing to publish; fall back to a normal exchange.
		thread.State = StateCollecting
		return c.replyOnly(ctx, req, thread, content)
	}

	announcement, err := llm.Complete(ctx, c.provider, llm.CompletionRequest{
		Instructions: persona.ShareRewriteInstructions,
		Goal:         req.Goal,
		Input:        idea,
		Anonymous:    true,
	})
	if err != nil {
		c.logger.Warn(module, "Rewrite of shared idea failed, publishing raw text", map[string]interface{}{
			"session_id": req.SessionID,
			"error":      err.Error(),
		})
		announcement = AnonymousPrefix + idea
	}

	messageID, err := c.publisher.PublishAnonymous(ctx, req.SessionID, announcement)
	if err != nil {
		return nil, fmt.Errorf("publish shared idea: %w", err)
	}

	if c.queue != nil {
		err := c.queue.Enqueue(ctx, conceptmap.Source{
			SessionID: req.SessionID,
			MessageID: messageID,
			Speaker:   persona.Facilitator.Speaker(),
			Content:   announcement,
		})
		if err != nil {
			c.logger.Error(module, "Failed to enqueue concept extraction", map[string]interface{}{
				"session_id": req.SessionID,
				"message_id": messageID,
				"error":      err.Error(),
			})
		}
	}

	if err := c.store.AppendMessage(ctx, req.SessionID, req.UserID, OriginFacilitator, persona.ShareAck); err != nil {
		return nil, fmt.Errorf("save share acknowledgment: %w", err)
	}

	thread.State = StateShared
	thread.PendingIdea = ""
	if err := c.store.SaveThread(ctx, thread); err != nil {
		return nil, fmt.Errorf("save private thread: %w", err)
	}

	c.logger.Info(module, "Shared private idea anonymously", map[string]interface{}{"session_id": req.SessionID, "message_id": messageID})
	return &Outcome{Reply: persona.ShareAck, State: StateShared, Published: &messageID}, nil
}

func (c *Coordinator) decline(ctx context.Context, req Request, thread *Thread, content string) (*Outcome, error) {
	if err := c.store.AppendMessage(ctx, req.SessionID, req.UserID, OriginUser, content); err != nil {
		return nil, fmt.Errorf("save private message: %w", err)
	}
	thread.State = StateDeclined
	thread.PendingIdea = ""
	return c.replyOnly(ctx, req, thread, content)
}

func (c *Coordinator) replyOnly(ctx context.Context, req Request, thread *Thread, content string) (*Outcome, error) {
	reply := persona.DeclineAck
	if thread.State != StateDeclined {
		reply = "Could you tell me a bit more about the idea you have in mind?"
	}
	if err := c.store.AppendMessage(ctx, req.SessionID, req.UserID, OriginFacilitator, reply); err != nil {
		return nil, fmt.Errorf("save facilitator reply: %w", err)
	}
	if err := c.store.SaveThread(ctx, thread); err != nil {
		return nil, fmt.Errorf("save private thread: %w", err)
	}
	return &Outcome{Reply: reply, State: thread.State}, nil
}

// latestIdea returns the most recent user message before the current one.
func (c *Coordinator) latestIdea(ctx context.Context, req Request) string {
	history, err := c.store.History(ctx, req.SessionID, req.UserID, persona.WindowSize+1)
	if err != nil || len(history) < 2 {
		return ""
	}
	for i := len(history) - 2; i >= 0; i-- {
		if history[i].Origin == OriginUser {
			return strings.TrimSpace(history[i].Content)
		}
	}
	return ""
}

func toLLM(history []Message) []llm.Message {
	out := make([]llm.Message, 0, len(history))
	for _, m := range history {
		role := llm.RoleAssistant
		if m.Origin == OriginUser {
			role = llm.RoleUser
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return out
}
