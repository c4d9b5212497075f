package tui

import (
	"strings"

	"cosmiq-cli/internal/api"
	"cosmiq-cli/internal/service"
)

// ─── Output types ───────────────────────────────────────────────────────────

// OutputType identifies the kind of stream output event.
type OutputType int

const (
	OutputStrategyHeader OutputType = iota // "Strategy" header, once per answer
	OutputReasoning                        // One line of strategy reasoning
	OutputSearch                           // One planned search
	OutputBlank                            // Blank separator line
)

// OutputEvent is a structured event emitted by the StreamProcessor.
// The consumer (model.go) decides how to render each type.
type OutputEvent struct {
	Type   OutputType
	Text   string
	Detail string // search instructions (OutputSearch only)
	Index  int    // 1-based search number (OutputSearch only)
}

// ─── StreamProcessor ────────────────────────────────────────────────────────

// StreamProcessor turns stream events into printable strategy output and a
// status line. Answer text itself is rendered once the answer completes.
// It has no dependency on Bubble Tea.
type StreamProcessor struct {
	headerShown bool
	reasoning   string
	seenSearch  map[string]bool
	searches    int
	answering   bool
	replaced    bool
	lastStatus  string
}

func NewStreamProcessor() *StreamProcessor {
	return &StreamProcessor{seenSearch: make(map[string]bool)}
}

// LastStatus returns the latest status text for the spinner.
func (sp *StreamProcessor) LastStatus() string {
	return sp.lastStatus
}

// Answering reports whether answer text has started arriving.
func (sp *StreamProcessor) Answering() bool {
	return sp.answering
}

// Replaced reports whether a final answer superseded the streamed draft.
func (sp *StreamProcessor) Replaced() bool {
	return sp.replaced
}

// Process handles a single stream event and returns output events.
func (sp *StreamProcessor) Process(ev api.StreamEvent) []OutputEvent {
	switch ev.Type {
	case api.EventStrategy:
		return sp.handleStrategy(ev)
	case api.EventAnswer:
		if ev.Content == "" {
			return nil
		}
		sp.answering = true
		sp.lastStatus = "Writing answer..."
	case api.EventFinalAnswer:
		if ev.FinalAnswer == "" {
			return nil
		}
		sp.replaced = sp.answering
		sp.answering = true
		sp.lastStatus = "Finalizing answer..."
	}
	return nil
}

// Flush closes the strategy block. Called on stream end or cancel.
func (sp *StreamProcessor) Flush() []OutputEvent {
	if !sp.headerShown {
		return nil
	}
	sp.headerShown = false
	return []OutputEvent{{Type: OutputBlank}}
}

func (sp *StreamProcessor) handleStrategy(ev api.StreamEvent) []OutputEvent {
	sp.lastStatus = service.StrategyDisplay(ev.Reasoning, ev.Searches)
	if sp.answering {
		// Plans arriving after the answer started are not printed.
		return nil
	}

	var out []OutputEvent
	header := func() {
		if !sp.headerShown {
			sp.headerShown = true
			out = append(out, OutputEvent{Type: OutputStrategyHeader, Text: "Strategy"})
		}
	}

	reasoning := strings.TrimSpace(ev.Reasoning)
	if reasoning != "" && reasoning != sp.reasoning {
		header()
		// Repeated strategy events resend the full reasoning; print only the new part.
		fresh := reasoning
		if sp.reasoning != "" && strings.HasPrefix(reasoning, sp.reasoning) {
			fresh = strings.TrimSpace(reasoning[len(sp.reasoning):])
		}
		sp.reasoning = reasoning
		for _, line := range strings.Split(fresh, "\n") {
			if strings.TrimSpace(line) != "" {
				out = append(out, OutputEvent{Type: OutputReasoning, Text: strings.TrimSpace(line)})
			}
		}
	}

	for _, s := range ev.Searches {
		term := strings.TrimSpace(s.Term)
		if term == "" || sp.seenSearch[term] {
			continue
		}
		header()
		sp.seenSearch[term] = true
		sp.searches++
		out = append(out, OutputEvent{
			Type:   OutputSearch,
			Text:   term,
			Detail: strings.TrimSpace(s.Instructions),
			Index:  sp.searches,
		})
	}
	return out
}
