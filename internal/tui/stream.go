package tui

import (
	"context"

	"cosmiq-cli/internal/api"
	"cosmiq-cli/internal/config"
	"cosmiq-cli/internal/notify"
	"cosmiq-cli/internal/refs"

	tea "github.com/charmbracelet/bubbletea"
)

// ─── Messages sent from background goroutines to Bubble Tea ─────────────────
//
// Every message tied to an answer carries the generation it was started in.
// Cancelling or starting a new question bumps the generation, so late
// messages from an abandoned stream are dropped.

type streamEventMsg struct {
	gen int
	ev  api.StreamEvent
}

type streamDoneMsg struct {
	gen int
	err error
}

type refsResolvedMsg struct {
	gen int
	err error
}

type toastMsg struct {
	toast notify.Toast
}

type configReloadedMsg struct {
	cfg *config.Config
}

// ─── Stream command ─────────────────────────────────────────────────────────
//
// Runs the ask request in a goroutine, forwarding events through a channel
// in arrival order. The returned tea.Cmd reads one message; the model
// re-arms it after each event.

func beginStream(ctx context.Context, client api.Asker, req api.AskRequest, gen int) (<-chan tea.Msg, tea.Cmd) {
	ch := make(chan tea.Msg, 64)

	go func() {
		defer close(ch)

		send := func(msg tea.Msg) {
			select {
			case ch <- msg:
			case <-ctx.Done():
			}
		}

		err := client.AskStream(ctx, req, api.StreamHandler{
			OnEvent: func(ev api.StreamEvent) {
				send(streamEventMsg{gen: gen, ev: ev})
			},
		})
		send(streamDoneMsg{gen: gen, err: err})
	}()

	return ch, waitForStream(ch)
}

// waitForStream reads the next message from the channel. A closed channel
// yields no message.
func waitForStream(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// resolveRefs looks up every pending reference of text.
func resolveRefs(ctx context.Context, r *refs.Resolver, text string, gen int) tea.Cmd {
	return func() tea.Msg {
		return refsResolvedMsg{gen: gen, err: r.Resolve(ctx, text)}
	}
}

// ─── Toasts and config reloads ──────────────────────────────────────────────

// subscribeToasts bridges notifier deliveries into a channel the model
// drains with waitForToast.
func subscribeToasts(n *notify.Notifier) (<-chan notify.Toast, func()) {
	ch := make(chan notify.Toast, 16)
	unsubscribe := n.Subscribe(func(t notify.Toast) {
		select {
		case ch <- t:
		default:
		}
	})
	return ch, unsubscribe
}

func waitForToast(ch <-chan notify.Toast) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		t, ok := <-ch
		if !ok {
			return nil
		}
		return toastMsg{toast: t}
	}
}

func watchConfig(cfg *config.Config) <-chan *config.Config {
	ch := make(chan *config.Config, 1)
	cfg.Watch(func(next *config.Config) {
		select {
		case ch <- next:
		default:
		}
	})
	return ch
}

func waitForConfig(ch <-chan *config.Config) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		cfg, ok := <-ch
		if !ok {
			return nil
		}
		return configReloadedMsg{cfg: cfg}
	}
}
