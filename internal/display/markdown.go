package display

import (
	"fmt"
	"io"
	"strings"

	"cosmiq-cli/internal/service"
)

const (
	italic    = "\033[3m"
	underline = "\033[4m"
	boldCyan  = "\033[1;36m"
)

// mdPrinter renders streamed markdown one complete line at a time.
type mdPrinter struct {
	w      io.Writer
	buf    string
	inCode bool
}

func (m *mdPrinter) write(text string) {
	m.buf += service.StripHTML(text)
	for {
		idx := strings.IndexByte(m.buf, '\n')
		if idx < 0 {
			break
		}
		line := m.buf[:idx]
		m.buf = m.buf[idx+1:]
		fmt.Fprintln(m.w, m.renderLine(line))
	}
}

func (m *mdPrinter) flush() {
	if m.buf == "" {
		return
	}
	fmt.Fprintln(m.w, m.renderLine(m.buf))
	m.buf = ""
}

func (m *mdPrinter) renderLine(line string) string {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, "```") {
		if !m.inCode {
			m.inCode = true
			lang := strings.TrimSpace(trimmed[3:])
			if lang != "" {
				return fmt.Sprintf("  %s┌─ %s ─%s", Dim, lang, Reset)
			}
			return fmt.Sprintf("  %s┌──%s", Dim, Reset)
		}
		m.inCode = false
		return fmt.Sprintf("  %s└──%s", Dim, Reset)
	}

	if m.inCode {
		return fmt.Sprintf("  %s│%s %s", Dim, Reset, line)
	}

	for _, prefix := range []string{"#### ", "### "} {
		if strings.HasPrefix(trimmed, prefix) {
			return fmt.Sprintf("  %s%s%s", Bold, trimmed[len(prefix):], Reset)
		}
	}
	for _, prefix := range []string{"## ", "# "} {
		if strings.HasPrefix(trimmed, prefix) {
			return fmt.Sprintf("\n  %s%s%s", boldCyan, trimmed[len(prefix):], Reset)
		}
	}

	if trimmed == "---" || trimmed == "***" || trimmed == "___" {
		return fmt.Sprintf("  %s%s%s", Dim, strings.Repeat("─", 40), Reset)
	}

	if strings.HasPrefix(trimmed, "> ") {
		return fmt.Sprintf("  %s│%s %s", Dim, Reset, renderInline(trimmed[2:]))
	}

	indent := len(line) - len(strings.TrimLeft(line, " \t"))
	pad := strings.Repeat(" ", indent)

	if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
		return fmt.Sprintf("%s  • %s", pad, renderInline(trimmed[2:]))
	}

	if dotIdx := strings.Index(trimmed, ". "); dotIdx > 0 && dotIdx <= 3 && allDigits(trimmed[:dotIdx]) {
		return fmt.Sprintf("%s  %s. %s", pad, trimmed[:dotIdx], renderInline(trimmed[dotIdx+2:]))
	}

	if trimmed == "" {
		return ""
	}
	return "  " + renderInline(line)
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

// renderInline styles **bold**, *italic*, `code` and [text](url).
func renderInline(text string) string {
	var out strings.Builder
	i := 0
	for i < len(text) {
		if i+3 < len(text) && text[i] == '*' && text[i+1] == '*' {
			end := strings.Index(text[i+2:], "**")
			if end > 0 {
				out.WriteString(Bold)
				out.WriteString(renderInline(text[i+2 : i+2+end]))
				out.WriteString(Reset)
				i += 4 + end
				continue
			}
		}

		if text[i] == '*' && (i == 0 || text[i-1] == ' ') {
			end := strings.IndexByte(text[i+1:], '*')
			if end > 0 {
				out.WriteString(italic)
				out.WriteString(text[i+1 : i+1+end])
				out.WriteString(Reset)
				i += 2 + end
				continue
			}
		}

		if text[i] == '`' {
			end := strings.IndexByte(text[i+1:], '`')
			if end >= 0 {
				out.WriteString(Dim)
				out.WriteString(text[i+1 : i+1+end])
				out.WriteString(Reset)
				i += 2 + end
				continue
			}
		}

		if text[i] == '[' {
			cb := strings.IndexByte(text[i:], ']')
			if cb > 1 && i+cb+1 < len(text) && text[i+cb+1] == '(' {
				cp := strings.IndexByte(text[i+cb+1:], ')')
				if cp > 0 {
					out.WriteString(underline)
					out.WriteString(text[i+1 : i+cb])
					out.WriteString(Reset)
					out.WriteString(Dim)
					out.WriteString(" (")
					out.WriteString(text[i+cb+2 : i+cb+1+cp])
					out.WriteString(")")
					out.WriteString(Reset)
					i += cb + 1 + cp + 1
					continue
				}
			}
		}

		out.WriteByte(text[i])
		i++
	}
	return out.String()
}

// RenderMarkdown renders a complete markdown document.
func RenderMarkdown(text string) string {
	m := mdPrinter{}
	var lines []string
	for _, line := range strings.Split(service.StripHTML(text), "\n") {
		lines = append(lines, m.renderLine(line))
	}
	return strings.Join(lines, "\n")
}
