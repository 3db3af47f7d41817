// Package summary builds the end-of-session report: structured summary, graph snapshot
// and an optional illustration. Every step fails independently.
package summary

import (
	"context"
	"fmt"
	"strings"

	"mindstorm-be/internal/pkg/logger"
	"mindstorm-be/pkg/llm"
	"mindstorm-be/pkg/persona"
	"mindstorm-be/pkg/snapshot"

	"github.com/google/uuid"
)

const module = "Summarizer"

const (
	WarningSnapshot     = "snapshot could not be captured"
	WarningSummary      = "summary could not be generated"
	WarningIllustration = "illustration could not be generated"
)

const summaryInstructions = `You summarise a finished group brainstorming session.
Read the transcript and the concept map, then return:
- "summary": one paragraph describing what the group explored and concluded,
- "insights": 3 to 5 key insights,
- "ideas": 3 to 7 main ideas, each a short phrase,
- "action_items": 3 to 5 concrete next steps.
Write in the language of the transcript.`

// Line is one transcript entry as the summarizer sees it.
type Line struct {
	Speaker    persona.Speaker
	AuthorName string
	Anonymous  bool
	Content    string
}

type Input struct {
	SessionID  uuid.UUID
	Title      string
	Goal       string
	Transcript []Line
	Graph      snapshot.Graph
}

type Structured struct {
	Summary     string   `json:"summary"`
	Insights    []string `json:"insights"`
	Ideas       []string `json:"ideas"`
	ActionItems []string `json:"action_items"`
}

type Result struct {
	Structured      *Structured
	SnapshotURL     *string
	IllustrationURL *string
	Warnings        []string
}

// Schema is the structured-output contract of the summary call.
func Schema() *llm.Schema {
	str := &llm.Schema{Type: llm.TypeString}
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"summary":      {Type: llm.TypeString, Description: "one paragraph"},
			"insights":     llm.ArrayOf(str, 3, 5),
			"ideas":        llm.ArrayOf(str, 3, 7),
			"action_items": llm.ArrayOf(str, 3, 5),
		},
		Required: []string{"summary", "insights", "ideas", "action_items"},
	}
}

type Summarizer struct {
	provider   llm.LLMProvider
	snapshots  snapshot.Provider
	assets     snapshot.AssetStore
	illustrate bool
	logger     logger.ILogger
}

type Option func(*Summarizer)

func WithSnapshots(p snapshot.Provider) Option {
	return func(s *Summarizer) { s.snapshots = p }
}

// WithIllustration enables the image-generation step.
func WithIllustration(enabled bool) Option {
	return func(s *Summarizer) { s.illustrate = enabled }
}

func New(provider llm.LLMProvider, assets snapshot.AssetStore, log logger.ILogger, opts ...Option) *Summarizer {
	s := &Summarizer{provider: provider, assets: assets, logger: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize runs snapshot, structured summary and illustration. It never fails as a whole;
// failed steps leave their field empty and add a warning.
func (s *Summarizer) Summarize(ctx context.Context, in Input) *Result {
	res := &Result{}

	if url, err := s.captureSnapshot(ctx, in); err != nil {
		s.logger.Warn(module, "Snapshot step failed", map[string]interface{}{"session_id": in.SessionID, "error": err.Error()})
		res.Warnings = append(res.Warnings, WarningSnapshot)
	} else {
		res.SnapshotURL = url
	}

	structured, err := s.summarize(ctx, in)
	if err != nil {
		s.logger.Error(module, "Summary step failed", map[string]interface{}{"session_id": in.SessionID, "error": err.Error()})
		res.Warnings = append(res.Warnings, WarningSummary)
	} else {
		res.Structured = structured
	}

	if s.illustrate {
		url, err := s.illustration(ctx, in, structured)
		if err != nil {
			s.logger.Warn(module, "Illustration step failed", map[string]interface{}{"session_id": in.SessionID, "error": err.Error()})
			res.Warnings = append(res.Warnings, WarningIllustration)
		} else {
			res.IllustrationURL = url
		}
	}

	return res
}

func (s *Summarizer) captureSnapshot(ctx context.Context, in Input) (*string, error) {
	if s.snapshots == nil || s.assets == nil {
		return nil, nil
	}
	img, err := s.snapshots.Capture(ctx, in.Graph)
	if err != nil {
		return nil, err
	}
	url, err := s.assets.Save(ctx, "snapshot-"+in.SessionID.String(), img)
	if err != nil {
		return nil, err
	}
	return &url, nil
}

func (s *Summarizer) summarize(ctx context.Context, in Input) (*Structured, error) {
	history := []llm.Message{
		{Role: llm.RoleSystem, Content: summaryInstructions},
		{Role: llm.RoleUser, Content: Prompt(in)},
	}

	var out Structured
	if err := s.provider.Structured(ctx, history, Schema(), &out, llm.WithTemperature(0.3)); err != nil {
		return nil, fmt.Errorf("structured summary: %w", err)
	}
	out.Summary = strings.TrimSpace(out.Summary)
	return &out, nil
}

func (s *Summarizer) illustration(ctx context.Context, in Input, structured *Structured) (*string, error) {
	if s.assets == nil {
		return nil, fmt.Errorf("no asset store configured")
	}

	labels := make([]string, 0, len(in.Graph.Nodes))
	for _, n := range in.Graph.Nodes {
		if !n.Cancelled {
			labels = append(labels, n.Label)
		}
	}
	prompt := "A clean, colorful hand-drawn mind map illustration"
	if in.Title != "" {
		prompt += " about \"" + in.Title + "\""
	}
	if len(labels) > 0 {
		prompt += " with branches for: " + strings.Join(labels, ", ")
	} else if structured != nil && len(structured.Ideas) > 0 {
		prompt += " with branches for: " + strings.Join(structured.Ideas, ", ")
	}
	prompt += ". No small text, white background."

	img, err := s.provider.Image(ctx, prompt)
	if err != nil {
		return nil, err
	}
	url, err := s.assets.Save(ctx, "illustration-"+in.SessionID.String(), &snapshot.Image{Data: img.Data, MIMEType: img.MIMEType})
	if err != nil {
		return nil, err
	}
	return &url, nil
}

// Prompt flattens the session into the user turn of the summary call.
func Prompt(in Input) string {
	var b strings.Builder
	if in.Title != "" {
		fmt.Fprintf(&b, "Session: %s\n", in.Title)
	}
	if in.Goal != "" {
		fmt.Fprintf(&b, "Goal: %s\n", in.Goal)
	}

	b.WriteString("\nTranscript:\n")
	for _, l := range in.Transcript {
		fmt.Fprintf(&b, "[%s] %s\n", speakerName(l), l.Content)
	}

	b.WriteString("\nConcept map:\n")
	for _, n := range in.Graph.Nodes {
		if n.Cancelled {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", n.Label)
	}
	return b.String()
}

func speakerName(l Line) string {
	if p, ok := l.Speaker.Persona(); ok {
		return p.DisplayName()
	}
	if l.Anonymous || l.AuthorName == "" {
		return "Participant"
	}
	return l.AuthorName
}
