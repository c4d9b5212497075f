package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"cosmiq-cli/internal/answer"
	"cosmiq-cli/internal/api"
	"cosmiq-cli/internal/config"
	"cosmiq-cli/internal/display"
	"cosmiq-cli/internal/logging"
	"cosmiq-cli/internal/notify"
	"cosmiq-cli/internal/refs"
	"cosmiq-cli/internal/service"
	"cosmiq-cli/internal/tui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// newClient builds the backend client. Tests replace it with a fake.
var newClient = func(cfg *config.Config, log *zap.Logger) api.API {
	return api.NewClient(cfg, api.WithLogger(log.Named("api")))
}

// runTUI starts the interactive session. Tests replace it.
var runTUI = tui.Run

// app carries what every command needs after the global flags are parsed.
type app struct {
	profile  string
	output   string
	logLevel string

	format   display.Format
	cfg      *config.Config
	log      *zap.Logger
	notifier *notify.Notifier
	client   api.API
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{}
	root := newRootCmd(a)
	err := root.ExecuteContext(ctx)
	if a.log != nil {
		_ = a.log.Sync()
	}
	if err != nil {
		var shown reportedError
		if !errors.As(err, &shown) {
			display.Error(notify.Describe(err))
		}
		os.Exit(1)
	}
}

// reportedError marks an error the command has already shown as a toast.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "cosmiq",
		Short:         "Terminal client for CosmiQ research notebooks",
		Long:          "cosmiq asks questions against your CosmiQ notebooks and manages their sources, notes,\nmodels and podcasts. Run it without a command for the interactive session.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.interactive(answer.Ask)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.profile, "profile", "", "configuration profile (default profile when empty)")
	flags.StringVarP(&a.output, "output", "o", "table", "output format: table, json or yaml")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides config)")

	root.AddCommand(
		newAskCmd(a),
		newChatCmd(a),
		newSearchCmd(a),
		newImportCmd(a),
		newNotebooksCmd(a),
		newSourcesCmd(a),
		newNotesCmd(a),
		newModelsCmd(a),
		newTransformationsCmd(a),
		newPodcastsCmd(a),
		newSettingsCmd(a),
		newConfigCmd(a),
		newProfilesCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads the profile's config and builds the logger and notifier.
// The client is built lazily by backend() so commands that never talk to the
// backend work without a server.
func (a *app) setup() error {
	format, err := display.ParseFormat(a.output)
	if err != nil {
		return err
	}
	a.format = format

	cfg, err := config.Load(a.profile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	path := cfg.LogFile
	if path == "" {
		dir, err := config.Dir()
		if err != nil {
			return err
		}
		path = logging.DefaultPath(dir)
	}
	log, err := logging.New(path, level)
	if err != nil {
		return err
	}
	a.log = log.With(zap.String("profile", config.ProfileName(a.profile)))

	a.notifier = &notify.Notifier{}
	return nil
}

// backend returns the backend client, validating the server setting first.
func (a *app) backend() (api.API, error) {
	if a.client != nil {
		return a.client, nil
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	a.client = newClient(a.cfg, a.log)
	return a.client, nil
}

// notebook resolves the --notebook flag, falling back to the configured one.
func (a *app) notebook(flag string) (string, error) {
	if flag != "" {
		return service.ParseNotebookRef(flag)
	}
	if err := a.cfg.ValidateNotebook(); err != nil {
		return "", err
	}
	return a.cfg.NotebookID, nil
}

func (a *app) interactive(mode answer.Mode) error {
	var client api.API
	if a.cfg.Server != "" {
		client = newClient(a.cfg, a.log)
	}
	return runTUI(tui.Options{
		Version:  version,
		Profile:  a.profile,
		Mode:     mode,
		Config:   a.cfg,
		Client:   client,
		Logger:   a.log,
		Notifier: a.notifier,
	})
}

// toasts prints notifier deliveries on the terminal until the returned
// func is called.
func (a *app) toasts() func() {
	return a.notifier.Subscribe(display.Toast)
}

// models returns the configured models, filling unset roles with the
// backend's default chat model.
func (a *app) models(ctx context.Context, client api.API) (answer.Models, error) {
	s, ans, f := a.cfg.Models()
	configured := answer.Models{Strategy: s, Answer: ans, Final: f}
	if configured.Strategy != "" && configured.Answer != "" && configured.Final != "" {
		return configured, nil
	}
	list, err := client.ListModels(ctx, api.ModelLanguage)
	if err != nil {
		return answer.Models{}, fmt.Errorf("listing models: %w", err)
	}
	defaults, err := client.GetDefaultModels(ctx)
	if err != nil {
		a.log.Warn("default models unavailable", zap.Error(err))
	}
	m := service.SelectModels(configured, list, defaults)
	if m.Answer == "" {
		return answer.Models{}, fmt.Errorf("no language model configured. Run: cosmiq%s config set model <id>", a.profileFlag())
	}
	return m, nil
}

// resolver builds a reference resolver honoring the lookup settings.
func (a *app) resolver(client api.API) *refs.Resolver {
	return refs.NewResolver(client,
		refs.WithLogger(a.log.Named("refs")),
		refs.WithConcurrency(a.cfg.LookupConcurrency),
		refs.WithRate(a.cfg.LookupRate),
	)
}

func (a *app) profileFlag() string {
	if a.profile == "" {
		return ""
	}
	return " --profile " + a.profile
}

// print writes v in the selected output format, using table for the
// default format.
func (a *app) print(v any, table func() *display.Table) error {
	return display.Print(display.Out, a.format, v, table)
}

// ─── helpers ────────────────────────────────────────────────────────────────

func versionString() string {
	if commit == "none" {
		return "cosmiq " + version
	}
	return fmt.Sprintf("cosmiq %s\n  commit: %s\n  built:  %s", version, commit, date)
}

func notSet(s string) string {
	if s == "" {
		return display.Dim + "(not set)" + display.Reset
	}
	return s
}

func maskToken(token string) string {
	if token == "" {
		return notSet("")
	}
	end := min(len(token), 4)
	return token[:end] + strings.Repeat("*", 8)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
