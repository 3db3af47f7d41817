package persona

import (
	"fmt"
	"testing"

	"mindstorm-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectMention(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   Persona
		wantOk bool
	}{
		{name: "spark lowercase", text: "@spark what about a fox?", want: IdeaGenerator, wantOk: true},
		{name: "spark any case mid sentence", text: "hey @SpArK, thoughts?", want: IdeaGenerator, wantOk: true},
		{name: "probe", text: "@probe is this realistic", want: Critic, wantOk: true},
		{name: "long form critic", text: "@critic please", want: Critic, wantOk: true},
		{name: "facilitator", text: "can the @Facilitator help", want: Facilitator, wantOk: true},
		{name: "anchor", text: "@anchor are we on track", want: GoalKeeper, wantOk: true},
		{name: "priority beats position", text: "@anchor and @probe and @spark", want: IdeaGenerator, wantOk: true},
		{name: "critic over facilitator", text: "@facilitator @probe", want: Critic, wantOk: true},
		{name: "no mention", text: "just a regular message", wantOk: false},
		{name: "bare at sign", text: "email me @ home", wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectMention(tt.text)
			assert.Equal(t, tt.wantOk, ok)
			if tt.wantOk {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestBuildWindow(t *testing.T) {
	var turns []Turn
	for i := 0; i < 14; i++ {
		sp := User
		if i%2 == 1 {
			sp = Critic.Speaker()
		}
		turns = append(turns, Turn{Speaker: sp, Content: fmt.Sprintf("m%d", i)})
	}

	window := BuildWindow(turns, WindowSize)
	require.Len(t, window, WindowSize)
	assert.Equal(t, "m4", window[0].Content)
	assert.Equal(t, "m13", window[9].Content)
	assert.Equal(t, llm.RoleUser, window[0].Role)
	assert.Equal(t, llm.RoleAssistant, window[1].Role)
}

func TestBuildWindowShortHistory(t *testing.T) {
	window := BuildWindow([]Turn{{Speaker: Facilitator.Speaker(), Content: "welcome"}}, WindowSize)
	require.Len(t, window, 1)
	assert.Equal(t, llm.RoleAssistant, window[0].Role)
}

func TestParse(t *testing.T) {
	for _, p := range Priority {
		got, err := Parse(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
		assert.NotEmpty(t, p.Instructions())
		assert.NotEmpty(t, p.DisplayName())
	}

	_, err := Parse("moderator")
	assert.Error(t, err)

	_, err = ParseSpeaker("user")
	assert.NoError(t, err)
	_, err = ParseSpeaker("")
	assert.Error(t, err)
}

func TestRequestIncludesGoal(t *testing.T) {
	req := Request(IdeaGenerator, "name a mascot", nil, "@spark what about a fox?")
	msgs := req.Messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Content, "Spark")
	assert.Contains(t, msgs[0].Content, "name a mascot")
	assert.Equal(t, "@spark what about a fox?", msgs[1].Content)
}
