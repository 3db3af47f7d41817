// Package persona defines the four scripted AI roles of a brainstorming session,
// their instructions, mention routing and the bounded context they receive.
package persona

import "fmt"

// Persona is one of the four fixed AI roles. The zero value is not a valid persona.
type Persona string

const (
	IdeaGenerator Persona = "ideaGenerator"
	Critic        Persona = "critic"
	Facilitator   Persona = "facilitator"
	GoalKeeper    Persona = "goalKeeper"
)

// Priority is the fixed order used to break ties between mentions.
var Priority = []Persona{IdeaGenerator, Critic, Facilitator, GoalKeeper}

// Speaker tags the author of a chat message: a persona or a human user.
type Speaker string

const User Speaker = "user"

func (p Persona) Valid() bool {
	switch p {
	case IdeaGenerator, Critic, Facilitator, GoalKeeper:
		return true
	}
	return false
}

func (p Persona) Speaker() Speaker {
	return Speaker(p)
}

// Persona reports which persona spoke, or false for a human user.
func (s Speaker) Persona() (Persona, bool) {
	p := Persona(s)
	return p, p.Valid()
}

func (s Speaker) Valid() bool {
	if s == User {
		return true
	}
	_, ok := s.Persona()
	return ok
}

func Parse(s string) (Persona, error) {
	p := Persona(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown persona %q", s)
	}
	return p, nil
}

func ParseSpeaker(s string) (Speaker, error) {
	sp := Speaker(s)
	if !sp.Valid() {
		return "", fmt.Errorf("unknown speaker %q", s)
	}
	return sp, nil
}

// DisplayName is the name participants see in the chat.
func (p Persona) DisplayName() string {
	switch p {
	case IdeaGenerator:
		return "Spark"
	case Critic:
		return "Probe"
	case Facilitator:
		return "Facilitator"
	case GoalKeeper:
		return "Anchor"
	}
	return ""
}

// Handle is the canonical mention token for the persona.
func (p Persona) Handle() string {
	switch p {
	case IdeaGenerator:
		return "@spark"
	case Critic:
		return "@probe"
	case Facilitator:
		return "@facilitator"
	case GoalKeeper:
		return "@anchor"
	}
	return ""
}

// Instructions are the fixed behavioral instructions sent as the system prompt.
func (p Persona) Instructions() string {
	switch p {
	case IdeaGenerator:
		return ideaGeneratorInstructions
	case Critic:
		return criticInstructions
	case Facilitator:
		return facilitatorInstructions
	case GoalKeeper:
		return goalKeeperInstructions
	}
	return ""
}
