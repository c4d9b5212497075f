package tui

import (
	"fmt"

	"cosmiq-cli/internal/answer"
	"cosmiq-cli/internal/api"
	"cosmiq-cli/internal/config"
	"cosmiq-cli/internal/notify"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Options configures the interactive session.
type Options struct {
	Version string
	Profile string
	Mode    answer.Mode
	// Style is a glamour style name; empty picks one from the terminal.
	Style string

	Config   *config.Config
	Client   api.API
	Logger   *zap.Logger
	Notifier *notify.Notifier
}

// Run launches the interactive TUI (inline: output is printed above the
// prompt). A nil Client is built from Config.
func Run(opts Options) error {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Client == nil && opts.Config != nil && opts.Config.Server != "" {
		opts.Client = api.NewClient(opts.Config, api.WithLogger(opts.Logger.Named("api")))
	}
	if opts.Notifier == nil {
		opts.Notifier = &notify.Notifier{}
	}

	m := initialModel(opts)

	toasts, unsubscribe := subscribeToasts(opts.Notifier)
	defer unsubscribe()
	m.toastCh = toasts
	if opts.Config != nil {
		m.cfgCh = watchConfig(opts.Config)
	}

	opts.Logger.Info("tui started", zap.String("mode", opts.Mode.String()), zap.String("profile", config.ProfileName(opts.Profile)))
	p := tea.NewProgram(m)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
