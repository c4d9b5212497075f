package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cosmiq-cli/internal/answer"
	"cosmiq-cli/internal/api"
	"cosmiq-cli/internal/display"
	"cosmiq-cli/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ─── ask ────────────────────────────────────────────────────────────────────

type askOptions struct {
	simple bool
	noRefs bool
	save   bool
	title  string
}

// askResult is what ask prints for --json and --output yaml.
type askResult struct {
	Question   string         `json:"question"`
	Answer     string         `json:"answer"`
	Models     askModels      `json:"models"`
	References []askReference `json:"references,omitempty"`
	NoteID     string         `json:"note_id,omitempty"`
}

type askModels struct {
	Strategy string `json:"strategy_model"`
	Answer   string `json:"answer_model"`
	Final    string `json:"final_answer_model"`
}

type askReference struct {
	N     int    `json:"n"`
	Token string `json:"token"`
	Label string `json:"label"`
}

func newAskCmd(a *app) *cobra.Command {
	var (
		opts   askOptions
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question and stream the answer",
		Example: `  cosmiq ask "What are the main findings across my sources?"
  cosmiq ask --json "Summarize the methodology" | jq .answer`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				a.format = display.FormatJSON
			}
			return a.ask(cmd.Context(), strings.Join(args, " "), opts)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the finished answer as JSON instead of streaming it")
	cmd.Flags().BoolVar(&opts.simple, "simple", false, "use the non-streaming endpoint")
	cmd.Flags().BoolVar(&opts.noRefs, "no-refs", false, "skip reference lookups")
	cmd.Flags().BoolVar(&opts.save, "save", false, "save the answer as a note in the configured notebook")
	cmd.Flags().StringVar(&opts.title, "title", "", "note title for --save (default: the question)")
	return cmd
}

func (a *app) ask(ctx context.Context, question string, opts askOptions) error {
	client, err := a.backend()
	if err != nil {
		return err
	}
	if opts.save {
		if err := a.cfg.ValidateNotebook(); err != nil {
			return err
		}
	}
	models, err := a.models(ctx, client)
	if err != nil {
		return err
	}

	streaming := a.format == display.FormatTable
	a.log.Info("ask",
		zap.String("question", service.Truncate(question, 80)),
		zap.String("answer_model", models.Answer),
		zap.Bool("simple", opts.simple))

	if streaming {
		fmt.Fprintf(display.Out, "\n  %s❓ %s%s\n", display.Bold, question, display.Reset)
	}

	var text string
	if opts.simple {
		text, err = a.askSimple(ctx, client, question, models, streaming)
	} else {
		text, err = a.askStream(ctx, client, question, models, streaming)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			display.Warn("Answer cancelled.")
			return nil
		}
		if streaming {
			defer a.toasts()()
			a.notifier.Failure("Answer failed", err)
			return reportedError{err}
		}
		return err
	}

	result := askResult{
		Question: question,
		Answer:   text,
		Models:   askModels{Strategy: models.Strategy, Answer: models.Answer, Final: models.Final},
	}

	var list []service.Reference
	if !opts.noRefs {
		r := a.resolver(client)
		if err := r.Resolve(ctx, text); err != nil {
			return err
		}
		_, list = service.AnnotateReferences(text, r.Cache())
		for _, ref := range list {
			result.References = append(result.References, askReference{N: ref.N, Token: ref.Token.String(), Label: ref.Label})
		}
	}

	if opts.save {
		note, err := a.saveAnswer(ctx, client, question, text, opts.title, streaming)
		if err != nil {
			return err
		}
		result.NoteID = note.ID
	}

	if !streaming {
		return a.print(result, nil)
	}
	display.References(display.Out, list)
	fmt.Fprintln(display.Out)
	return nil
}

// askStream runs one streamed answer. When show is set the strategy and
// the growing answer are written to the terminal.
func (a *app) askStream(ctx context.Context, client api.API, question string, models answer.Models, show bool) (string, error) {
	conv := answer.New(answer.Ask)

	var (
		asker    api.Asker = client
		onUpdate func(string)
		printer  *display.AnswerPrinter
	)
	if show {
		printer = display.NewAnswerPrinter(display.Out)
		asker = strategyTap{Asker: client, onStrategy: func() { printer.Strategy(conv.Strategy()) }}
		onUpdate = printer.Update
	}

	entry, err := conv.Run(ctx, asker, question, models, onUpdate)
	if printer != nil {
		printer.Finish()
	}
	if err != nil {
		if errors.Is(err, answer.ErrNoAnswer) {
			return "", fmt.Errorf("the backend returned no answer")
		}
		return "", err
	}
	return entry.Content, nil
}

func (a *app) askSimple(ctx context.Context, client api.API, question string, models answer.Models, show bool) (string, error) {
	if show {
		display.Spinner("Waiting for the answer...")
	}
	resp, err := client.AskSimple(ctx, api.AskRequest{
		Question:         question,
		StrategyModel:    models.Strategy,
		AnswerModel:      models.Answer,
		FinalAnswerModel: models.Final,
	})
	if show {
		display.ClearLine()
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Answer) == "" {
		return "", fmt.Errorf("the backend returned no answer")
	}
	if show {
		p := display.NewAnswerPrinter(display.Out)
		p.Update(resp.Answer)
		p.Finish()
	}
	return resp.Answer, nil
}

// saveAnswer stores text as an AI note in the configured notebook.
func (a *app) saveAnswer(ctx context.Context, client api.API, question, text, title string, show bool) (*api.Note, error) {
	if title == "" {
		title = service.NoteTitle(question, service.DefaultNoteTitle)
	}
	if show {
		defer a.toasts()()
	}
	note, err := client.CreateNote(ctx, api.CreateNoteRequest{
		Content:    text,
		Title:      title,
		NoteType:   api.NoteTypeAI,
		NotebookID: a.cfg.NotebookID,
	})
	if err != nil {
		return nil, fmt.Errorf("saving note: %w", err)
	}
	a.notifier.Success("Saved to notebook", title)
	return note, nil
}

// strategyTap reports strategy events after the conversation has applied
// them.
type strategyTap struct {
	api.Asker
	onStrategy func()
}

func (t strategyTap) AskStream(ctx context.Context, req api.AskRequest, h api.StreamHandler) error {
	inner := h.OnEvent
	h.OnEvent = func(ev api.StreamEvent) {
		if inner != nil {
			inner(ev)
		}
		if ev.Type == api.EventStrategy {
			t.onStrategy()
		}
	}
	return t.Asker.AskStream(ctx, req, h)
}

// ─── chat ───────────────────────────────────────────────────────────────────

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive session in chat mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.interactive(answer.Chat)
		},
	}
}
