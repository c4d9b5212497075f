package answer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"cosmiq-cli/internal/api"
)

type Mode int

const (
	// Ask answers single questions; history holds question/answer pairs.
	Ask Mode = iota
	// Chat is multi-turn; history holds user and assistant messages.
	Chat
)

func (m Mode) String() string {
	if m == Chat {
		return "chat"
	}
	return "ask"
}

// ParseMode accepts "ask" or "chat".
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ask":
		return Ask, true
	case "chat":
		return Chat, true
	}
	return Ask, false
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one history item. Ask entries carry both Question and Content;
// Chat entries carry one message in Content.
type Entry struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Question  string    `json:"question,omitempty"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Models names the backend models used for one ask.
type Models struct {
	Strategy string
	Answer   string
	Final    string
}

// ErrNoAnswer is returned by Run when the stream completed without text.
var ErrNoAnswer = errors.New("no answer was produced")

// Conversation owns the in-flight answer and the history of one view. It is
// not safe for concurrent use.
type Conversation struct {
	mode      Mode
	asm       Assembler
	question  string
	committed bool
	history   []Entry

	now   func() time.Time
	newID func() string
}

func New(mode Mode) *Conversation {
	return &Conversation{
		mode:  mode,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

func (c *Conversation) Mode() Mode       { return c.mode }
func (c *Conversation) State() State     { return c.asm.State() }
func (c *Conversation) Draft() string    { return c.asm.Text() }
func (c *Conversation) Question() string { return c.question }

// Strategy returns the latest planning metadata of the current answer.
func (c *Conversation) Strategy() *Strategy { return c.asm.Strategy() }

// Failure returns the error message of a failed answer.
func (c *Conversation) Failure() string { return c.asm.Failure() }

// Streaming reports whether an answer is in flight.
func (c *Conversation) Streaming() bool { return c.asm.State() == Streaming }

// History returns a copy of the committed entries.
func (c *Conversation) History() []Entry {
	out := make([]Entry, len(c.history))
	copy(out, c.history)
	return out
}

// Clear drops the history. It fails with ErrBusy while streaming.
func (c *Conversation) Clear() error {
	if c.Streaming() {
		return ErrBusy
	}
	c.history = nil
	c.asm.Abort()
	return nil
}

// Submit starts a new answer for question. In Chat mode the user message is
// added to the history immediately.
func (c *Conversation) Submit(question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return ErrEmptyQuestion
	}
	if err := c.asm.Begin(); err != nil {
		return err
	}
	c.question = question
	c.committed = false
	if c.mode == Chat {
		c.history = append(c.history, c.entry(RoleUser, "", question))
	}
	return nil
}

// Request builds the ask request for the current question. Chat uses the
// answer model for every role.
func (c *Conversation) Request(m Models) api.AskRequest {
	req := api.AskRequest{
		Question:         c.question,
		StrategyModel:    m.Strategy,
		AnswerModel:      m.Answer,
		FinalAnswerModel: m.Final,
	}
	if c.mode == Chat {
		req.StrategyModel = m.Answer
		req.FinalAnswerModel = m.Answer
	}
	return req
}

// Apply folds one event into the draft and reports whether it changed.
func (c *Conversation) Apply(ev api.StreamEvent) bool {
	return c.asm.Apply(ev)
}

// Complete finishes the answer and commits it to the history, once, if it
// has text. The committed entry is returned.
func (c *Conversation) Complete() (Entry, bool) {
	c.asm.Finish()
	if c.asm.State() != Completed || c.committed {
		return Entry{}, false
	}
	c.committed = true
	text := c.asm.Text()
	if strings.TrimSpace(text) == "" {
		return Entry{}, false
	}
	e := c.entry(RoleAssistant, c.question, text)
	if c.mode == Chat {
		e.Question = ""
	}
	c.history = append(c.history, e)
	return e, true
}

// Fail marks the answer failed. Nothing is committed.
func (c *Conversation) Fail(err error) bool {
	msg := "request failed"
	var se *api.StreamError
	switch {
	case errors.As(err, &se):
		msg = se.Message
	case err != nil:
		msg = err.Error()
	}
	return c.asm.Fail(msg)
}

// Cancel abandons the answer in flight. Later events are ignored.
func (c *Conversation) Cancel() {
	if c.Streaming() {
		c.asm.Abort()
	}
}

func (c *Conversation) entry(role Role, question, content string) Entry {
	return Entry{
		ID:        c.newID(),
		Role:      role,
		Question:  question,
		Content:   content,
		Timestamp: c.now(),
	}
}

// Run submits question and drives one stream to its end. onUpdate, if set,
// receives the draft each time it changes.
func (c *Conversation) Run(ctx context.Context, asker api.Asker, question string, m Models, onUpdate func(draft string)) (Entry, error) {
	if err := c.Submit(question); err != nil {
		return Entry{}, err
	}

	var (
		entry Entry
		ok    bool
	)
	err := asker.AskStream(ctx, c.Request(m), api.StreamHandler{
		OnEvent: func(ev api.StreamEvent) {
			if c.Apply(ev) && onUpdate != nil {
				onUpdate(c.Draft())
			}
		},
		OnComplete: func() { entry, ok = c.Complete() },
		OnError:    func(err error) { c.Fail(err) },
	})
	if ctx.Err() != nil {
		c.Cancel()
		return Entry{}, ctx.Err()
	}
	if err != nil {
		c.Fail(err)
		return Entry{}, err
	}
	if !ok {
		// A stream that ended without OnComplete still completes.
		entry, ok = c.Complete()
	}
	if !ok {
		return Entry{}, ErrNoAnswer
	}
	return entry, nil
}
