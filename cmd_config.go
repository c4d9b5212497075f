package main

import (
	"fmt"
	"strings"

	"cosmiq-cli/internal/config"
	"cosmiq-cli/internal/display"
	"cosmiq-cli/internal/service"

	"github.com/spf13/cobra"
)

// ─── config ─────────────────────────────────────────────────────────────────

// configView is what config show prints for json and yaml output. The
// token is masked.
type configView struct {
	Profile           string  `json:"profile"`
	Path              string  `json:"path"`
	Server            string  `json:"server"`
	Token             string  `json:"token,omitempty"`
	NotebookID        string  `json:"notebook_id,omitempty"`
	NotebookURL       string  `json:"notebook_url,omitempty"`
	StrategyModel     string  `json:"strategy_model,omitempty"`
	AnswerModel       string  `json:"answer_model,omitempty"`
	FinalAnswerModel  string  `json:"final_answer_model,omitempty"`
	RequestTimeout    string  `json:"request_timeout"`
	LookupConcurrency int     `json:"lookup_concurrency"`
	LookupRate        float64 `json:"lookup_rate"`
	LogFile           string  `json:"log_file,omitempty"`
	LogLevel          string  `json:"log_level"`
}

func newConfigView(profile string, c *config.Config) configView {
	v := configView{
		Profile:           config.ProfileName(profile),
		Path:              c.Path(),
		Server:            c.Server,
		NotebookID:        c.NotebookID,
		StrategyModel:     c.StrategyModel,
		AnswerModel:       c.AnswerModel,
		FinalAnswerModel:  c.FinalAnswerModel,
		RequestTimeout:    c.RequestTimeout.String(),
		LookupConcurrency: c.LookupConcurrency,
		LookupRate:        c.LookupRate,
		LogFile:           c.LogFile,
		LogLevel:          c.LogLevel,
	}
	if c.Token != "" {
		v.Token = maskToken(c.Token)
	}
	if c.NotebookID != "" && c.Server != "" {
		v.NotebookURL = service.BuildNotebookURL(c.Server, c.NotebookID)
	}
	return v
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the CLI configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the active configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := newConfigView(a.profile, a.cfg)
			if a.format != display.FormatTable {
				return a.print(v, nil)
			}

			display.Header("CosmiQ CLI Configuration")
			display.Info("Profile:", v.Profile)
			display.Info("File:", v.Path)
			display.Info("Server:", notSet(v.Server))
			display.Info("Token:", maskToken(a.cfg.Token))
			display.Info("Notebook:", notSet(v.NotebookID))
			if v.NotebookURL != "" {
				display.Info("Notebook URL:", v.NotebookURL)
			}
			display.Info("Strategy model:", notSet(v.StrategyModel))
			display.Info("Answer model:", notSet(v.AnswerModel))
			display.Info("Final model:", notSet(v.FinalAnswerModel))
			display.Info("Request timeout:", v.RequestTimeout)
			display.Info("Lookups:", fmt.Sprintf("%d concurrent, %s", v.LookupConcurrency, rateLabel(v.LookupRate)))
			display.Info("Log level:", v.LogLevel)
			fmt.Fprintln(display.Out)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  "Set a configuration value in the active profile.\n\nKeys: " + strings.Join(config.Keys, ", ") + "\n\"notebook\" is an alias for notebook_id and accepts a notebook URL; \"model\" sets all three models.",
		Example: `  cosmiq config set server http://localhost:5055
  cosmiq --profile staging config set token s3cret
  cosmiq config set notebook http://localhost:3000/notebook/notebook:abc`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if key == "notebook" || key == "notebook_id" {
				id, err := service.ParseNotebookRef(value)
				if err != nil {
					return err
				}
				value = id
			}
			if err := a.cfg.Set(key, value); err != nil {
				return err
			}
			if err := a.cfg.Save(); err != nil {
				return err
			}
			shown := value
			if key == "token" {
				shown = maskToken(value)
			}
			display.Success(fmt.Sprintf("%s set to %s", key, shown))
			return nil
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(display.Out, a.cfg.Path())
			return nil
		},
	}

	cmd.AddCommand(show, set, path)
	return cmd
}

func rateLabel(perSecond float64) string {
	if perSecond <= 0 {
		return "no rate limit"
	}
	return fmt.Sprintf("%g/s", perSecond)
}

// ─── profiles ───────────────────────────────────────────────────────────────

func newProfilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List configuration profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := config.ListProfiles()
			if err != nil {
				return err
			}
			if a.format != display.FormatTable {
				return a.print(profiles, nil)
			}

			display.Header("Profiles")
			if len(profiles) == 0 {
				display.Warn("No profiles found. Run: cosmiq config set server <url>")
				return nil
			}
			active := config.ProfileName(a.profile)
			for _, p := range profiles {
				marker := "  "
				if p == active {
					marker = display.Green + "* " + display.Reset
				}
				fmt.Fprintf(display.Out, "  %s%s\n", marker, p)
			}
			fmt.Fprintln(display.Out)
			return nil
		},
	}
}

// ─── version ────────────────────────────────────────────────────────────────

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(display.Out, versionString())
			return nil
		},
	}
}
