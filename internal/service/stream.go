package service

import (
	"regexp"
	"strings"

	"cosmiq-cli/internal/api"
)

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// StripHTML converts HTML breaks to newlines and removes all HTML tags.
func StripHTML(s string) string {
	s = strings.ReplaceAll(s, "<br/>", "\n")
	s = strings.ReplaceAll(s, "<br>", "\n")
	s = strings.ReplaceAll(s, "<br />", "\n")
	s = htmlTagRe.ReplaceAllString(s, "")
	return s
}

// StrategyDisplay condenses a strategy event into one status line, e.g.
// "Searching: graphene, band gap".
func StrategyDisplay(reasoning string, searches []api.SearchPlan) string {
	var terms []string
	for _, s := range searches {
		if t := strings.TrimSpace(s.Term); t != "" {
			terms = append(terms, t)
		}
	}
	if len(terms) > 0 {
		return "Searching: " + strings.Join(terms, ", ")
	}
	reasoning = strings.Join(strings.Fields(reasoning), " ")
	if reasoning == "" {
		return "Planning..."
	}
	return Truncate(reasoning, 80)
}

// Tail returns the last n runes of s with newlines flattened, for one-line
// progress views.
func Tail(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return "..." + string(runes[len(runes)-n:])
}

// Truncate shortens s to n runes, adding "..." when it cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
