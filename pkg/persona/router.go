package persona

import (
	"strings"

	"mindstorm-be/pkg/llm"
)

// WindowSize is how many prior messages a persona sees.
const WindowSize = 10

// mentionTokens lists, per persona, the lowercase tokens that address it.
// The short handles are what the chat UI advertises; the long forms are accepted too.
var mentionTokens = map[Persona][]string{
	IdeaGenerator: {"@spark", "@ideagenerator"},
	Critic:        {"@probe", "@critic"},
	Facilitator:   {"@facilitator"},
	GoalKeeper:    {"@anchor", "@goalkeeper"},
}

// DetectMention scans text case-insensitively for a persona mention.
// When several personas are mentioned the one earliest in Priority wins,
// regardless of where the tokens appear in the text.
func DetectMention(text string) (Persona, bool) {
	lower := strings.ToLower(text)
	for _, p := range Priority {
		for _, token := range mentionTokens[p] {
			if strings.Contains(lower, token) {
				return p, true
			}
		}
	}
	return "", false
}

// Turn is one transcript entry as seen by the router.
type Turn struct {
	Speaker Speaker
	Content string
}

// BuildWindow keeps the last n turns (oldest first) and recasts them as binary roles:
// human messages become "user", every persona message becomes "assistant".
func BuildWindow(turns []Turn, n int) []llm.Message {
	if n <= 0 {
		n = WindowSize
	}
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}

	window := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		role := llm.RoleAssistant
		if t.Speaker == User {
			role = llm.RoleUser
		}
		window = append(window, llm.Message{Role: role, Content: t.Content})
	}
	return window
}

// Request assembles the completion request for persona p answering trigger.
func Request(p Persona, goal string, prior []Turn, trigger string) llm.CompletionRequest {
	return llm.CompletionRequest{
		Instructions: p.Instructions(),
		Goal:         goal,
		History:      BuildWindow(prior, WindowSize),
		Input:        trigger,
	}
}
