// Package refs finds citation tokens such as [source:abc1] or
// [note:x, source_insight:y] in generated answers, resolves them to display
// labels and splits text into literal and reference segments.
//
// The token grammar is shared with the backend's answer prompts:
//
//	"[" ref ("," ref)* "]"
//	ref = ("source" | "note" | "source_insight") ":" [a-z0-9]+
package refs

import (
	"regexp"
	"strings"
)

type Kind string

const (
	KindSource  Kind = "source"
	KindNote    Kind = "note"
	KindInsight Kind = "source_insight"
)

// Fallback is the label stored when a lookup fails.
func (k Kind) Fallback() string {
	switch k {
	case KindSource:
		return "Source"
	case KindNote:
		return "Note"
	case KindInsight:
		return "Insight"
	default:
		return "Reference"
	}
}

// Token is one reference such as source:abc1.
type Token struct {
	Kind Kind
	ID   string
}

// String returns the canonical form kind:id, which is also the record id
// the backend expects in lookups.
func (t Token) String() string {
	return string(t.Kind) + ":" + t.ID
}

var (
	bracketRe = regexp.MustCompile(`\[([^\]]+)\]`)
	tokenRe   = regexp.MustCompile(`^(source_insight|source|note):([a-z0-9]+)$`)
)

// ParseToken parses a single trimmed reference.
func ParseToken(s string) (Token, bool) {
	m := tokenRe.FindStringSubmatch(s)
	if m == nil {
		return Token{}, false
	}
	return Token{Kind: Kind(m[1]), ID: m[2]}, true
}

// parseGroup parses a bracket body. Every comma-separated part must be a
// valid token or the whole group is rejected.
func parseGroup(body string) ([]Token, bool) {
	parts := strings.Split(body, ",")
	tokens := make([]Token, 0, len(parts))
	for _, p := range parts {
		tok, ok := ParseToken(strings.TrimSpace(p))
		if !ok {
			return nil, false
		}
		tokens = append(tokens, tok)
	}
	return tokens, true
}
