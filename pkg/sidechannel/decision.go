package sidechannel

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type Decision int

const (
	DecisionNone Decision = iota
	DecisionYes
	DecisionNo
)

func (d Decision) String() string {
	switch d {
	case DecisionYes:
		return "yes"
	case DecisionNo:
		return "no"
	}
	return "none"
}

var (
	yesWords = []string{"yes", "yeah", "yep", "sure", "okay", "ok", "y", "share", "post"}
	noWords  = []string{"nope", "nah", "no", "n", "don't", "dont"}
)

// ClassifyDecision matches a reply to the share question against the yes/no vocabulary.
// A word matches when the trimmed input starts with it, case-insensitively, and the next
// character is not a letter: "yes please" is yes, "nothing" matches nothing.
func ClassifyDecision(text string) Decision {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.ReplaceAll(t, "’", "'")

	if hasWordPrefix(t, yesWords) {
		return DecisionYes
	}
	if hasWordPrefix(t, noWords) {
		return DecisionNo
	}
	return DecisionNone
}

func hasWordPrefix(t string, words []string) bool {
	for _, w := range words {
		if !strings.HasPrefix(t, w) {
			continue
		}
		rest := t[len(w):]
		if rest == "" {
			return true
		}
		if r, _ := utf8.DecodeRuneInString(rest); !unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// AsksToShare reports whether a facilitator reply asks the user to share with the group.
func AsksToShare(reply string) bool {
	lower := strings.ToLower(reply)
	return strings.Contains(lower, "share") && strings.Contains(lower, "group")
}
