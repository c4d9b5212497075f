package service

import (
	"fmt"
	"strings"

	"cosmiq-cli/internal/refs"
)

// Reference is one numbered entry in an answer's reference list.
type Reference struct {
	N     int
	Token refs.Token
	Label string
}

// AnnotateReferences renders text with each reference shown as "n: label",
// numbered by first appearance, and returns the numbered list. Labels not
// yet resolved read "Loading...".
func AnnotateReferences(text string, labels refs.Labels) (string, []Reference) {
	tokens := refs.Scan(text)
	index := make(map[refs.Token]int, len(tokens))
	list := make([]Reference, 0, len(tokens))
	for i, tok := range tokens {
		index[tok] = i + 1
		label := refs.LoadingLabel
		if labels != nil {
			if l, ok := labels.Label(tok.String()); ok {
				label = l
			}
		}
		list = append(list, Reference{N: i + 1, Token: tok, Label: label})
	}

	var b strings.Builder
	for _, seg := range refs.Render(text, labels) {
		if !seg.Ref {
			b.WriteString(seg.Text)
			continue
		}
		fmt.Fprintf(&b, "%d: %s", index[seg.Token], seg.Text)
	}
	return b.String(), list
}

// ReferenceAt returns the nth (1-based) reference of text.
func ReferenceAt(text string, n int) (refs.Token, bool) {
	tokens := refs.Scan(text)
	if n < 1 || n > len(tokens) {
		return refs.Token{}, false
	}
	return tokens[n-1], true
}

// FormatReference renders one reference list line, e.g.
// "[2] Attention Is All You Need (source:abc1)".
func FormatReference(r Reference) string {
	return fmt.Sprintf("[%d] %s (%s)", r.N, r.Label, r.Token)
}
