// Package answer folds a stream of ask events into one answer and keeps the
// conversation history for Ask and Chat modes.
package answer

import (
	"errors"

	"cosmiq-cli/internal/api"
)

type State int

const (
	Idle State = iota
	Streaming
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return "unknown"
}

var (
	ErrBusy          = errors.New("an answer is already streaming")
	ErrEmptyQuestion = errors.New("question is empty")
)

// Strategy is the planning metadata of the latest "strategy" event.
type Strategy struct {
	Reasoning string
	Searches  []api.SearchPlan
}

// Assembler accumulates one answer. The zero value is Idle.
type Assembler struct {
	state    State
	text     string
	failure  string
	strategy *Strategy
	replaced bool
}

func (a *Assembler) State() State { return a.state }

// Text is the draft while streaming and the answer once Completed. It is
// empty in every other state.
func (a *Assembler) Text() string { return a.text }

// Failure is the message of the error that moved the assembler to Failed.
func (a *Assembler) Failure() string { return a.failure }

// Strategy returns the latest planning metadata, or nil.
func (a *Assembler) Strategy() *Strategy { return a.strategy }

// Replaced reports whether a final_answer superseded the streamed draft.
func (a *Assembler) Replaced() bool { return a.replaced }

// Begin starts a new answer. It fails with ErrBusy while Streaming.
func (a *Assembler) Begin() error {
	if a.state == Streaming {
		return ErrBusy
	}
	*a = Assembler{state: Streaming}
	return nil
}

// Apply folds ev into the answer and reports whether Text changed. Events
// outside Streaming are ignored.
func (a *Assembler) Apply(ev api.StreamEvent) bool {
	if a.state != Streaming {
		return false
	}
	switch ev.Type {
	case api.EventStrategy:
		a.strategy = &Strategy{Reasoning: ev.Reasoning, Searches: ev.Searches}
	case api.EventAnswer:
		if ev.Content != "" {
			a.text += ev.Content
			return true
		}
	case api.EventFinalAnswer:
		if ev.FinalAnswer != "" {
			changed := a.text != ev.FinalAnswer
			a.text = ev.FinalAnswer
			a.replaced = true
			return changed
		}
	case api.EventComplete:
		a.Finish()
	case api.EventError:
		a.Fail(ev.Message)
	}
	return false
}

// Finish moves a streaming answer to Completed and freezes its text.
func (a *Assembler) Finish() bool {
	if a.state != Streaming {
		return false
	}
	a.state = Completed
	return true
}

// Fail moves a streaming answer to Failed and drops the draft.
func (a *Assembler) Fail(message string) bool {
	if a.state != Streaming {
		return false
	}
	a.state = Failed
	a.failure = message
	a.text = ""
	return true
}

// Abort drops any answer in progress and returns to Idle.
func (a *Assembler) Abort() {
	*a = Assembler{}
}
