package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"cosmiq-cli/internal/api"
	"cosmiq-cli/internal/config"
	"cosmiq-cli/internal/display"
	"cosmiq-cli/internal/service"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ─── models ─────────────────────────────────────────────────────────────────

func newModelsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "models",
		Aliases: []string{"model"},
		Short:   "Manage models and the backend defaults",
	}

	var modelType string
	list := &cobra.Command{
		Use:   "list",
		Short: "List configured models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			models, err := client.ListModels(cmd.Context(), modelType)
			if err != nil {
				return fmt.Errorf("listing models: %w", err)
			}
			defaults, err := client.GetDefaultModels(cmd.Context())
			if err != nil {
				return fmt.Errorf("getting default models: %w", err)
			}
			return a.print(models, func() *display.Table {
				t := &display.Table{Headers: []string{"", "ID", "Name", "Provider", "Type"}}
				for _, m := range service.FormatModels(models, defaults) {
					def := ""
					if m.Default {
						def = "*"
					}
					t.Append(def, m.ID, m.Name, m.Provider, m.Type)
				}
				return t
			})
		},
	}
	list.Flags().StringVarP(&modelType, "type", "t", "", "filter by type: language, embedding, text_to_speech, speech_to_text")

	defaults := &cobra.Command{
		Use:   "defaults",
		Short: "Show the default model for each role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			d, err := client.GetDefaultModels(cmd.Context())
			if err != nil {
				return fmt.Errorf("getting default models: %w", err)
			}
			if a.format != display.FormatTable {
				return a.print(d, nil)
			}
			display.Header("Default models")
			for _, row := range service.DefaultModelRows(d) {
				display.Info(row[0]+":", row[1])
			}
			s, ans, f := a.cfg.Models()
			if ans != "" {
				fmt.Fprintln(display.Out)
				display.SubHeader("Configured for ask (profile " + config.ProfileName(a.profile) + ")")
				display.Info("Strategy:", s)
				display.Info("Answer:", ans)
				display.Info("Final answer:", f)
			}
			fmt.Fprintln(display.Out)
			return nil
		},
	}

	setDefault := &cobra.Command{
		Use:     "set <role> <model-id>",
		Short:   "Change the backend default model for one role",
		Long:    "Change the backend default model for one role. Roles: " + strings.Join(service.DefaultModelRoles(), ", ") + ".",
		Example: `  cosmiq models defaults set chat model:abc`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			update, err := service.DefaultModelUpdate(args[0], args[1])
			if err != nil {
				return err
			}
			client, err := a.backend()
			if err != nil {
				return err
			}
			d, err := client.UpdateDefaultModels(cmd.Context(), update)
			if err != nil {
				return fmt.Errorf("updating default models: %w", err)
			}
			if a.format != display.FormatTable {
				return a.print(d, nil)
			}
			display.Success(fmt.Sprintf("Default %s model set to %s", args[0], args[1]))
			return nil
		},
	}
	defaults.AddCommand(setDefault)

	var provider, addType string
	add := &cobra.Command{
		Use:     "add <name>",
		Short:   "Register a model with the backend",
		Example: `  cosmiq models add gpt-4o --provider openai --type language`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if provider == "" {
				return fmt.Errorf("--provider is required")
			}
			if !service.ValidModelType(addType) {
				return fmt.Errorf("invalid model type %q (valid: %s, %s, %s, %s)", addType,
					api.ModelLanguage, api.ModelEmbedding, api.ModelTextToSpeech, api.ModelSpeechToText)
			}
			client, err := a.backend()
			if err != nil {
				return err
			}
			m, err := client.CreateModel(cmd.Context(), api.CreateModelRequest{Name: args[0], Provider: provider, Type: addType})
			if err != nil {
				return fmt.Errorf("adding model: %w", err)
			}
			if a.format != display.FormatTable {
				return a.print(m, nil)
			}
			display.Success(fmt.Sprintf("Added %s/%s (%s)", m.Provider, m.Name, m.ID))
			return nil
		},
	}
	add.Flags().StringVarP(&provider, "provider", "p", "", "model provider, e.g. openai or ollama")
	add.Flags().StringVarP(&addType, "type", "t", api.ModelLanguage, "model type: language, embedding, text_to_speech, speech_to_text")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			if err := client.DeleteModel(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("deleting model: %w", err)
			}
			display.Success("Deleted " + args[0])
			if s, ans, f := a.cfg.Models(); args[0] == s || args[0] == ans || args[0] == f {
				display.Warn("The active profile still uses that model. Change it with: cosmiq" + a.profileFlag() + " config set model <id>")
			}
			return nil
		},
	}

	cmd.AddCommand(list, defaults, add, del)
	return cmd
}

// resolveTransformation returns the transformation ref names: a record id
// is used as is, anything else is looked up by id or name.
func resolveTransformation(ctx context.Context, client api.API, ref string) (string, error) {
	if strings.HasPrefix(ref, "transformation:") {
		return ref, nil
	}
	tfs, err := client.ListTransformations(ctx)
	if err != nil {
		return "", fmt.Errorf("listing transformations: %w", err)
	}
	tf, ok := service.FindTransformation(tfs, ref)
	if !ok {
		return "", fmt.Errorf("transformation %q not found", ref)
	}
	return tf.ID, nil
}

// ─── transformations ────────────────────────────────────────────────────────

func newTransformationsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transformations",
		Aliases: []string{"transformation", "tf"},
		Short:   "Manage and run transformations",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List transformations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			tfs, err := client.ListTransformations(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing transformations: %w", err)
			}
			return a.print(tfs, func() *display.Table {
				t := &display.Table{Headers: []string{"ID", "Name", "Title", "Default", "Description"}}
				for _, tf := range service.FormatTransformations(tfs) {
					t.Append(tf.ID, tf.Name, tf.Title, yesNo(tf.ApplyDefault), tf.Description)
				}
				return t
			})
		},
	}

	var model string
	execute := &cobra.Command{
		Use:   "execute <id|name> [text|-]",
		Short: "Run a transformation on text",
		Long:  "Run a transformation on the given text. With \"-\" or no text the input is read from stdin.",
		Example: `  cosmiq transformations execute summary "Long text to summarize..."
  cat paper.md | cosmiq transformations execute key_insights`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			tfs, err := client.ListTransformations(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing transformations: %w", err)
			}
			tf, ok := service.FindTransformation(tfs, args[0])
			if !ok {
				return fmt.Errorf("transformation %q not found", args[0])
			}

			input := ""
			if len(args) == 2 && args[1] != "-" {
				input = args[1]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				input = string(data)
			}
			if strings.TrimSpace(input) == "" {
				return fmt.Errorf("no input text")
			}

			if model == "" {
				m, err := a.models(cmd.Context(), client)
				if err != nil {
					return err
				}
				model = m.Answer
			}

			display.Spinner("Running " + tf.Name + "...")
			resp, err := client.ExecuteTransformation(cmd.Context(), api.ExecuteTransformationRequest{
				TransformationID: tf.ID,
				InputText:        input,
				ModelID:          model,
			})
			display.ClearLine()
			if err != nil {
				return fmt.Errorf("running transformation: %w", err)
			}
			if a.format != display.FormatTable {
				return a.print(resp, nil)
			}
			fmt.Fprintln(display.Out, display.RenderMarkdown(resp.Output))
			return nil
		},
	}
	execute.Flags().StringVarP(&model, "model", "m", "", "model id (default: the answer model)")

	get := &cobra.Command{
		Use:   "get <id|name>",
		Short: "Show a transformation and its prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			id, err := resolveTransformation(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			tf, err := client.GetTransformation(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("getting transformation: %w", err)
			}
			if a.format != display.FormatTable {
				return a.print(tf, nil)
			}
			display.Header(tf.Title)
			display.Info("ID:", tf.ID)
			display.Info("Name:", tf.Name)
			display.Info("Apply by default:", yesNo(tf.ApplyDefault))
			if tf.Description != "" {
				display.Info("Description:", tf.Description)
			}
			fmt.Fprintln(display.Out)
			display.SubHeader("Prompt")
			fmt.Fprintln(display.Out, tf.Prompt)
			fmt.Fprintln(display.Out)
			return nil
		},
	}

	var create api.CreateTransformationRequest
	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a transformation",
		Long:  "Create a transformation. With --prompt - the prompt is read from stdin.",
		Example: `  cosmiq transformations create tldr --title "TL;DR" --prompt "Summarize in three bullets."
  cosmiq transformations create glossary --prompt - < glossary-prompt.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := promptArg(cmd, create.Prompt)
			if err != nil {
				return err
			}
			req := create
			req.Name = args[0]
			req.Prompt = prompt
			if req.Title == "" {
				req.Title = req.Name
			}
			client, err := a.backend()
			if err != nil {
				return err
			}
			tf, err := client.CreateTransformation(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("creating transformation: %w", err)
			}
			if a.format != display.FormatTable {
				return a.print(tf, nil)
			}
			display.Success(fmt.Sprintf("Created transformation %s (%s)", tf.Name, tf.ID))
			return nil
		},
	}
	createCmd.Flags().StringVar(&create.Title, "title", "", "display title (default: the name)")
	createCmd.Flags().StringVarP(&create.Description, "description", "d", "", "what the transformation does")
	createCmd.Flags().StringVar(&create.Prompt, "prompt", "", "prompt text, or - to read it from stdin")
	createCmd.Flags().BoolVar(&create.ApplyDefault, "apply-default", false, "run it on every new source")

	var (
		newName, newTitle, newDescription, newPrompt string
		applyDefault                                 bool
	)
	update := &cobra.Command{
		Use:     "update <id|name>",
		Short:   "Change a transformation",
		Long:    "Change a transformation. Only the flags given are sent.",
		Example: `  cosmiq transformations update tldr --apply-default=false`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req api.UpdateTransformationRequest
			flags := cmd.Flags()
			if flags.Changed("name") {
				req.Name = &newName
			}
			if flags.Changed("title") {
				req.Title = &newTitle
			}
			if flags.Changed("description") {
				req.Description = &newDescription
			}
			if flags.Changed("prompt") {
				prompt, err := promptArg(cmd, newPrompt)
				if err != nil {
					return err
				}
				req.Prompt = &prompt
			}
			if flags.Changed("apply-default") {
				req.ApplyDefault = &applyDefault
			}
			if req == (api.UpdateTransformationRequest{}) {
				return fmt.Errorf("nothing to update: pass at least one of --name, --title, --description, --prompt, --apply-default")
			}
			client, err := a.backend()
			if err != nil {
				return err
			}
			id, err := resolveTransformation(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			tf, err := client.UpdateTransformation(cmd.Context(), id, req)
			if err != nil {
				return fmt.Errorf("updating transformation: %w", err)
			}
			if a.format != display.FormatTable {
				return a.print(tf, nil)
			}
			display.Success("Updated " + tf.ID)
			return nil
		},
	}
	update.Flags().StringVar(&newName, "name", "", "new name")
	update.Flags().StringVar(&newTitle, "title", "", "new display title")
	update.Flags().StringVarP(&newDescription, "description", "d", "", "new description")
	update.Flags().StringVar(&newPrompt, "prompt", "", "new prompt text, or - to read it from stdin")
	update.Flags().BoolVar(&applyDefault, "apply-default", false, "run it on every new source")

	del := &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete a transformation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			id, err := resolveTransformation(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			if err := client.DeleteTransformation(cmd.Context(), id); err != nil {
				return fmt.Errorf("deleting transformation: %w", err)
			}
			display.Success("Deleted " + id)
			return nil
		},
	}

	cmd.AddCommand(list, get, execute, createCmd, update, del)
	return cmd
}

// promptArg returns flag, or stdin when flag is "-". The result must not be
// blank.
func promptArg(cmd *cobra.Command, flag string) (string, error) {
	prompt := flag
	if flag == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		prompt = string(data)
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("--prompt is required")
	}
	return prompt, nil
}

// ─── settings ───────────────────────────────────────────────────────────────

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change backend settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			settings, err := client.GetSettings(cmd.Context())
			if err != nil {
				return fmt.Errorf("getting settings: %w", err)
			}
			return a.print(settings, func() *display.Table {
				return settingsTable(settings)
			})
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one backend setting",
		Long:  "Change one backend setting. The value is parsed as YAML, so true, 3 and [a, b] keep their types.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			value, err := parseSettingValue(args[1])
			if err != nil {
				return err
			}
			updated, err := client.UpdateSettings(cmd.Context(), api.Settings{args[0]: value})
			if err != nil {
				return fmt.Errorf("updating settings: %w", err)
			}
			if a.format != display.FormatTable {
				return a.print(updated, nil)
			}
			display.Success(fmt.Sprintf("%s set to %v", args[0], updated[args[0]]))
			return nil
		},
	}

	cmd.AddCommand(set)
	return cmd
}

func settingsTable(s api.Settings) *display.Table {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	t := &display.Table{Headers: []string{"Key", "Value"}}
	for _, k := range keys {
		t.Append(k, fmt.Sprint(s[k]))
	}
	return t
}

func parseSettingValue(raw string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("invalid value %q: %w", raw, err)
	}
	if v == nil {
		return raw, nil
	}
	return v, nil
}
