package display

import (
	"fmt"
	"io"
	"strings"

	"cosmiq-cli/internal/answer"
	"cosmiq-cli/internal/service"
)

// AnswerPrinter writes a streaming answer to a terminal as it grows.
type AnswerPrinter struct {
	w        io.Writer
	md       mdPrinter
	printed  string
	started  bool
	planned  bool
	searches int
}

func NewAnswerPrinter(w io.Writer) *AnswerPrinter {
	return &AnswerPrinter{w: w, md: mdPrinter{w: w}}
}

// Strategy prints the reasoning once and every search term not yet shown.
func (p *AnswerPrinter) Strategy(s *answer.Strategy) {
	if s == nil || p.started {
		return
	}
	if !p.planned {
		p.planned = true
		fmt.Fprintf(p.w, "\n  %s🔍 Strategy%s\n", Bold+Magenta, Reset)
		if r := strings.TrimSpace(s.Reasoning); r != "" {
			for _, line := range strings.Split(r, "\n") {
				fmt.Fprintf(p.w, "     %s%s%s\n", Dim, line, Reset)
			}
		}
	}
	if p.searches > len(s.Searches) {
		p.searches = 0
	}
	for _, q := range s.Searches[p.searches:] {
		fmt.Fprintf(p.w, "     %s•%s %s\n", Blue, Reset, q.Term)
	}
	p.searches = len(s.Searches)
}

// Update prints the part of text not yet shown. Text that does not extend
// what was printed (a final answer replacing the draft) starts a new block.
func (p *AnswerPrinter) Update(text string) {
	if text == p.printed {
		return
	}
	if !p.started {
		p.started = true
		fmt.Fprintln(p.w)
		fmt.Fprintf(p.w, "  %s💬 Answer%s\n\n", Bold+Green, Reset)
	}
	if strings.HasPrefix(text, p.printed) {
		p.md.write(text[len(p.printed):])
	} else {
		p.md.flush()
		fmt.Fprintf(p.w, "\n  %s↻ Revised answer%s\n\n", Yellow, Reset)
		p.md = mdPrinter{w: p.w}
		p.md.write(text)
	}
	p.printed = text
}

// Finish flushes any partial line.
func (p *AnswerPrinter) Finish() {
	p.md.flush()
}

// References prints a numbered reference list.
func References(w io.Writer, list []service.Reference) {
	if len(list) == 0 {
		return
	}
	fmt.Fprintf(w, "\n  %s📎 References%s\n", Bold+Blue, Reset)
	for _, r := range list {
		fmt.Fprintf(w, "     %s\n", service.FormatReference(r))
	}
}
