package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conceptSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"concepts": ArrayOf(&Schema{
				Type: TypeObject,
				Properties: map[string]*Schema{
					"label":       {Type: TypeString},
					"connects_to": ArrayOf(&Schema{Type: TypeString}, 0, 0),
				},
				Required: []string{"label"},
			}, 0, 3),
		},
		Required: []string{"concepts"},
	}
}

func TestDecodeStructured(t *testing.T) {
	type concept struct {
		Label      string   `json:"label"`
		ConnectsTo []string `json:"connects_to"`
	}
	type result struct {
		Concepts []concept `json:"concepts"`
	}

	tests := []struct {
		name    string
		raw     string
		wantErr bool
		wantLen int
	}{
		{name: "valid", raw: `{"concepts":[{"label":"fox","connects_to":["mascot"]}]}`, wantLen: 1},
		{name: "empty list", raw: `{"concepts":[]}`, wantLen: 0},
		{name: "code fence", raw: "```json\n{\"concepts\":[{\"label\":\"owl\"}]}\n```", wantLen: 1},
		{name: "missing required field", raw: `{}`, wantErr: true},
		{name: "wrong item type", raw: `{"concepts":[{"label":3}]}`, wantErr: true},
		{name: "nested array of wrong type", raw: `{"concepts":[{"label":"fox","connects_to":[1]}]}`, wantErr: true},
		{name: "too many items", raw: `{"concepts":[{"label":"a"},{"label":"b"},{"label":"c"},{"label":"d"}]}`, wantErr: true},
		{name: "not json", raw: `sure, here you go`, wantErr: true},
		{name: "blank", raw: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out result
			err := DecodeStructured(tt.raw, conceptSchema(), &out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, out.Concepts, tt.wantLen)
		})
	}
}

type staticProvider struct {
	reply string
	err   error
	seen  []Message
}

func (s *staticProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	s.seen = history
	return s.reply, s.err
}

func (s *staticProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return s.reply, s.err
}

func (s *staticProvider) Structured(ctx context.Context, history []Message, schema *Schema, out any, options ...Option) error {
	return s.err
}

func (s *staticProvider) Image(ctx context.Context, prompt string) (*ImageResult, error) {
	return nil, ErrImageUnsupported
}

func TestComplete(t *testing.T) {
	t.Run("builds system, history and input", func(t *testing.T) {
		p := &staticProvider{reply: "  a fox is clever  "}
		reply, err := Complete(context.Background(), p, CompletionRequest{
			Instructions: "You are Spark.",
			Goal:         "name a mascot",
			History:      []Message{{Role: RoleAssistant, Content: "welcome"}},
			Input:        "what about a fox?",
		})
		require.NoError(t, err)
		assert.Equal(t, "a fox is clever", reply)
		require.Len(t, p.seen, 3)
		assert.Equal(t, RoleSystem, p.seen[0].Role)
		assert.Contains(t, p.seen[0].Content, "Session goal: name a mascot")
		assert.Equal(t, RoleAssistant, p.seen[1].Role)
		assert.Equal(t, Message{Role: RoleUser, Content: "what about a fox?"}, p.seen[2])
	})

	t.Run("empty reply is an error", func(t *testing.T) {
		_, err := Complete(context.Background(), &staticProvider{reply: "\n"}, CompletionRequest{Input: "hi"})
		assert.ErrorIs(t, err, ErrEmptyReply)
	})

	t.Run("provider error is wrapped", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := Complete(context.Background(), &staticProvider{err: boom}, CompletionRequest{Input: "hi"})
		assert.ErrorIs(t, err, boom)
	})
}
