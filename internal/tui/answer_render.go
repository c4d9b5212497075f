package tui

import (
	"fmt"
	"strings"

	"cosmiq-cli/internal/refs"
	"cosmiq-cli/internal/service"

	"github.com/charmbracelet/glamour"
)

const maxAnswerWidth = 100

// answerRenderer renders completed answers with glamour. When glamour cannot
// be set up it falls back to wrapped plain text.
type answerRenderer struct {
	tr    *glamour.TermRenderer
	width int
}

// newAnswerRenderer builds a renderer for the terminal width. An empty style
// picks one from the terminal background.
func newAnswerRenderer(width int, style string) *answerRenderer {
	if width <= 0 || width > maxAnswerWidth {
		width = maxAnswerWidth
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width - 4)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		tr = nil
	}
	return &answerRenderer{tr: tr, width: width}
}

func (r *answerRenderer) render(markdown string) string {
	if r == nil {
		return markdown
	}
	if r.tr == nil {
		return wrapText(markdown, r.width-4)
	}
	out, err := r.tr.Render(markdown)
	if err != nil {
		return wrapText(markdown, r.width-4)
	}
	return strings.Trim(out, "\n")
}

// answerLines builds the printed block for a completed answer: the body with
// numbered references followed by the reference list.
func answerLines(r *answerRenderer, text string, labels refs.Labels) []string {
	body, list := service.AnnotateReferences(service.StripHTML(text), labels)
	lines := []string{r.render(body)}
	if len(list) == 0 {
		return lines
	}
	lines = append(lines, "", refHeaderStyle.Render("  📎 References"))
	for _, ref := range list {
		lines = append(lines, fmt.Sprintf("  %s %s %s",
			refNumberStyle.Render(fmt.Sprintf("[%d]", ref.N)),
			ref.Label,
			dimStyle.Render("("+ref.Token.String()+")")))
	}
	lines = append(lines, dimStyle.Render("  /ref <n> opens a reference"))
	return lines
}
