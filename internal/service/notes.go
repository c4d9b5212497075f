package service

import (
	"strings"

	"cosmiq-cli/internal/api"
)

const (
	noteTitleLen = 100
	// DefaultNoteTitle titles notes saved from an answer without a question.
	DefaultNoteTitle = "Chat Response"
)

// NoteTitle derives a note title from the question that produced an answer:
// its first 100 characters, or fallback when it is blank.
func NoteTitle(question, fallback string) string {
	q := strings.TrimSpace(question)
	if q == "" {
		return fallback
	}
	runes := []rune(q)
	if len(runes) > noteTitleLen {
		runes = runes[:noteTitleLen]
	}
	return string(runes)
}

// NoteDisplay holds display-ready note info.
type NoteDisplay struct {
	ID      string
	Title   string
	Type    string
	Excerpt string
	Updated string
}

// FormatNoteRow maps a raw Note to a display-ready struct.
func FormatNoteRow(n api.Note) NoteDisplay {
	title := n.TitleText()
	if title == "" {
		title = "(untitled)"
	}
	typ := "human"
	if n.NoteType == api.NoteTypeAI {
		typ = "ai"
	}
	return NoteDisplay{
		ID:      n.ID,
		Title:   title,
		Type:    typ,
		Excerpt: Truncate(strings.Join(strings.Fields(n.ContentText()), " "), 60),
		Updated: n.Updated,
	}
}
