package tui

import (
	"fmt"
	"strings"
)

// ─── Welcome Screen ─────────────────────────────────────────────────────────

const logoMark = "◆◇◆"

func renderWelcome(version, server, notebook, mode string, width int) string {
	titleLine := logoMarkStyle.Render(logoMark) + " " + logoTitleStyle.Render("CosmiQ") + " " + versionStyle.Render("v"+version)

	var infoLine string
	if server == "" {
		infoLine = welcomeHintStyle.Render("Run: cosmiq config set server <url>")
	} else {
		serverDisplay := server
		if len(serverDisplay) > 40 {
			serverDisplay = serverDisplay[:37] + "..."
		}
		notebookDisplay := dimStyle.Render("no notebook")
		if notebook != "" {
			notebookDisplay = notebook
			if len(notebookDisplay) > 36 {
				notebookDisplay = notebookDisplay[:33] + "..."
			}
		}
		infoLine = welcomeInfoLabel.Render(fmt.Sprintf("%s · %s · %s mode", serverDisplay, notebookDisplay, mode))
	}

	hint := welcomeHintStyle.Render("Ask a question, or type /help")
	rule := separatorStyle.Render(strings.Repeat("─", min(max(width, 20), 60)))
	return fmt.Sprintf("\n%s\n%s\n%s\n%s\n", titleLine, infoLine, hint, rule)
}

// ─── Plain text ─────────────────────────────────────────────────────────────

// wrapText breaks every line of text at word boundaries so none is wider
// than width runes. Words longer than a line are split hard. Blank lines and
// leading indentation are kept.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		indent := line[:len(line)-len(trimmed)]
		words := strings.Fields(trimmed)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		avail := max(width-len([]rune(indent)), 1)
		var cur []rune
		for _, w := range words {
			r := []rune(w)
			if len(cur) > 0 && len(cur)+1+len(r) > avail {
				out = append(out, indent+string(cur))
				cur = nil
			}
			for len(r) > avail {
				out = append(out, indent+string(r[:avail]))
				r = r[avail:]
			}
			if len(cur) > 0 {
				cur = append(cur, ' ')
			}
			cur = append(cur, r...)
		}
		out = append(out, indent+string(cur))
	}
	return strings.Join(out, "\n")
}

func indentText(text, prefix string) string {
	lines := strings.Split(text, "\n")
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(prefix)
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
