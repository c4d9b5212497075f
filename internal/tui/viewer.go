package tui

import (
	"context"
	"fmt"

	"cosmiq-cli/internal/api"
	"cosmiq-cli/internal/refs"
	"cosmiq-cli/internal/service"

	tea "github.com/charmbracelet/bubbletea"
)

type refDetailMsg struct {
	kind  refs.Kind
	id    string
	title string
	meta  []string
	body  string
	err   error
}

// refViewer turns a reference open into a fetch command. Sources and notes
// get a full detail view; insights show their type and content.
type refViewer struct {
	ctx    context.Context
	client api.API
	cmd    tea.Cmd
}

func (v *refViewer) ShowSource(id string) {
	ctx, client := v.ctx, v.client
	v.cmd = func() tea.Msg {
		s, err := client.GetSource(ctx, id)
		if err != nil {
			return refDetailMsg{kind: refs.KindSource, id: id, err: err}
		}
		row := service.FormatSourceRow(*s)
		meta := []string{"Type: " + row.Kind}
		if row.Location != "" {
			meta = append(meta, "Location: "+row.Location)
		}
		if len(s.Topics) > 0 {
			meta = append(meta, fmt.Sprintf("Topics: %v", s.Topics))
		}
		if row.Insights > 0 {
			meta = append(meta, fmt.Sprintf("Insights: %d", row.Insights))
		}
		body := ""
		if s.FullText != nil {
			body = *s.FullText
		}
		return refDetailMsg{kind: refs.KindSource, id: id, title: refs.SourceLabel(s), meta: meta, body: body}
	}
}

func (v *refViewer) ShowNote(id string) {
	ctx, client := v.ctx, v.client
	v.cmd = func() tea.Msg {
		n, err := client.GetNote(ctx, id)
		if err != nil {
			return refDetailMsg{kind: refs.KindNote, id: id, err: err}
		}
		var meta []string
		if n.NoteType != "" {
			meta = append(meta, "Type: "+n.NoteType)
		}
		return refDetailMsg{kind: refs.KindNote, id: id, title: refs.NoteLabel(n), meta: meta, body: n.ContentText()}
	}
}

func (v *refViewer) ShowInsight(id string) {
	ctx, client := v.ctx, v.client
	v.cmd = func() tea.Msg {
		in, err := client.GetInsight(ctx, id)
		if err != nil {
			return refDetailMsg{kind: refs.KindInsight, id: id, err: err}
		}
		var meta []string
		if in.SourceID != "" {
			meta = append(meta, "Source: "+in.SourceID)
		}
		return refDetailMsg{kind: refs.KindInsight, id: id, title: refs.InsightLabel(in), meta: meta, body: in.Content}
	}
}

// openRef returns the command that fetches tok's record.
func openRef(ctx context.Context, client api.API, tok refs.Token) tea.Cmd {
	v := &refViewer{ctx: ctx, client: client}
	refs.Open(v, tok)
	return v.cmd
}
