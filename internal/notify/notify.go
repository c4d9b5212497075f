// Package notify is a small publish/subscribe channel for user-facing
// toasts.
package notify

import (
	"errors"
	"sync"
	"time"

	"cosmiq-cli/internal/api"
)

type Variant string

const (
	Default Variant = "default"
	Success Variant = "success"
	Error   Variant = "error"
	Warning Variant = "warning"
	Info    Variant = "info"
)

const DefaultDuration = 3 * time.Second

type Toast struct {
	ID          int
	Title       string
	Description string
	Variant     Variant
	Duration    time.Duration
}

// Notifier fans toasts out to subscribers. The zero value is ready to use.
type Notifier struct {
	mu        sync.Mutex
	nextID    int
	subs      map[int]func(Toast)
	lastToast int
}

// Subscribe registers fn and returns a func that removes it. fn is called
// synchronously from Notify and must not block.
func (n *Notifier) Subscribe(fn func(Toast)) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func(Toast))
	}
	id := n.nextID
	n.nextID++
	n.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs, id)
		})
	}
}

// Notify delivers t to every current subscriber and returns it with its ID
// and defaults filled in.
func (n *Notifier) Notify(t Toast) Toast {
	if t.Variant == "" {
		t.Variant = Default
	}
	if t.Duration <= 0 {
		t.Duration = DefaultDuration
	}

	n.mu.Lock()
	n.lastToast++
	t.ID = n.lastToast
	subs := make([]func(Toast), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn(t)
	}
	return t
}

func (n *Notifier) Subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

func (n *Notifier) Success(title, description string) Toast {
	return n.Notify(Toast{Title: title, Description: description, Variant: Success})
}

func (n *Notifier) Info(title, description string) Toast {
	return n.Notify(Toast{Title: title, Description: description, Variant: Info})
}

// Failure publishes err as an error toast. Transport errors show the
// server's detail; stream errors show the backend message.
func (n *Notifier) Failure(title string, err error) Toast {
	return n.Notify(Toast{Title: title, Description: Describe(err), Variant: Error})
}

// Describe returns the user-facing text for err.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var he *api.HTTPError
	if errors.As(err, &he) && he.Detail != "" {
		return he.Detail
	}
	var se *api.StreamError
	if errors.As(err, &se) {
		return se.Error()
	}
	return err.Error()
}
