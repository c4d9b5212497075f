package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"cosmiq-cli/internal/api"
	"cosmiq-cli/internal/display"
	"cosmiq-cli/internal/service"

	"github.com/spf13/cobra"
)

// ─── notebooks ──────────────────────────────────────────────────────────────

func newNotebooksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notebooks",
		Aliases: []string{"notebook", "nb"},
		Short:   "List and manage notebooks",
	}

	var (
		archived bool
		orderBy  string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List notebooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			books, err := client.ListNotebooks(cmd.Context(), api.NotebookListOptions{OrderBy: orderBy})
			if err != nil {
				return fmt.Errorf("listing notebooks: %w", err)
			}
			books = service.FilterArchived(books, archived)
			return a.print(books, func() *display.Table {
				t := &display.Table{Headers: []string{"", "ID", "Name", "Description", "Updated", "Archived"}}
				for _, b := range books {
					row := service.FormatNotebookRow(b)
					active := ""
					if row.ID == a.cfg.NotebookID {
						active = "*"
					}
					t.Append(active, row.ID, row.Name, row.Description, display.FormatTime(row.Updated), yesNo(row.Archived))
				}
				return t
			})
		},
	}
	list.Flags().BoolVar(&archived, "archived", false, "include archived notebooks")
	list.Flags().StringVar(&orderBy, "order-by", "updated desc", "sort order passed to the backend")

	var description string
	var use bool
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a notebook",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			nb, err := client.CreateNotebook(cmd.Context(), api.CreateNotebookRequest{
				Name:        strings.Join(args, " "),
				Description: description,
			})
			if err != nil {
				return fmt.Errorf("creating notebook: %w", err)
			}
			if use {
				a.cfg.NotebookID = nb.ID
				if err := a.cfg.Save(); err != nil {
					return err
				}
			}
			if a.format != display.FormatTable {
				return a.print(nb, nil)
			}
			display.Success(fmt.Sprintf("Created notebook %s (%s)", nb.Name, nb.ID))
			if use {
				display.Info("Active notebook:", nb.ID)
			}
			return nil
		},
	}
	create.Flags().StringVarP(&description, "description", "d", "", "notebook description")
	create.Flags().BoolVar(&use, "use", false, "make the new notebook the active one")

	archive := &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive a notebook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			id, err := service.ParseNotebookRef(args[0])
			if err != nil {
				return err
			}
			yes := true
			if _, err := client.UpdateNotebook(cmd.Context(), id, api.UpdateNotebookRequest{Archived: &yes}); err != nil {
				return fmt.Errorf("archiving notebook: %w", err)
			}
			display.Success("Archived " + id)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a notebook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			id, err := service.ParseNotebookRef(args[0])
			if err != nil {
				return err
			}
			if err := client.DeleteNotebook(cmd.Context(), id); err != nil {
				return fmt.Errorf("deleting notebook: %w", err)
			}
			display.Success("Deleted " + id)
			if id == a.cfg.NotebookID {
				display.Warn("That was the active notebook. Pick another with: cosmiq" + a.profileFlag() + " config set notebook <id>")
			}
			return nil
		},
	}

	cmd.AddCommand(list, create, archive, del)
	return cmd
}

// ─── sources ────────────────────────────────────────────────────────────────

func newSourcesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sources",
		Aliases: []string{"source"},
		Short:   "List and manage the sources of a notebook",
	}

	var notebook string
	list := &cobra.Command{
		Use:   "list",
		Short: "List sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			nb, err := a.notebook(notebook)
			if err != nil {
				return err
			}
			sources, err := client.ListSources(cmd.Context(), nb)
			if err != nil {
				return fmt.Errorf("listing sources: %w", err)
			}
			return a.print(sources, func() *display.Table {
				t := &display.Table{Headers: []string{"ID", "Title", "Kind", "Insights", "Updated"}}
				for _, s := range sources {
					row := service.FormatSourceRow(s)
					t.Append(row.ID, service.Truncate(row.Title, 50), row.Kind, strconv.Itoa(row.Insights), display.FormatTime(row.Updated))
				}
				return t
			})
		},
	}
	list.Flags().StringVarP(&notebook, "notebook", "n", "", "notebook id or URL (default: configured notebook)")

	var full bool
	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a source and its insights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			src, err := client.GetSource(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("getting source: %w", err)
			}
			insights, err := client.ListSourceInsights(cmd.Context(), src.ID)
			if err != nil {
				return fmt.Errorf("listing insights: %w", err)
			}
			src.Insights = insights
			if a.format != display.FormatTable {
				return a.print(src, nil)
			}

			row := service.FormatSourceRow(*src)
			display.Header(row.Title)
			display.Info("ID:", row.ID)
			display.Info("Kind:", row.Kind)
			if row.Location != "" {
				display.Info("Location:", row.Location)
			}
			if len(src.Topics) > 0 {
				display.Info("Topics:", strings.Join(src.Topics, ", "))
			}
			display.Info("Updated:", display.FormatTime(row.Updated))
			for _, in := range insights {
				fmt.Fprintln(display.Out)
				display.SubHeader("💡 " + in.InsightType + "  " + display.Dim + in.ID + display.Reset)
				fmt.Fprintln(display.Out, display.RenderMarkdown(in.Content))
			}
			if full && src.FullText != nil {
				fmt.Fprintln(display.Out)
				display.SubHeader("Full text")
				fmt.Fprintln(display.Out, *src.FullText)
			}
			fmt.Fprintln(display.Out)
			return nil
		},
	}
	get.Flags().BoolVar(&full, "full", false, "print the source's full text")

	var (
		kind, title, content string
		embed                bool
	)
	add := &cobra.Command{
		Use:   "add <url|path>",
		Short: "Add a source to a notebook",
		Example: `  cosmiq sources add https://arxiv.org/abs/1706.03762
  cosmiq sources add --type text --title "Meeting notes" --content "..."`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !service.ValidSourceType(kind) {
				return fmt.Errorf("invalid source type %q (valid: %s)", kind, strings.Join(service.SourceTypes(), ", "))
			}
			client, err := a.backend()
			if err != nil {
				return err
			}
			nb, err := a.notebook(notebook)
			if err != nil {
				return err
			}
			req := api.CreateSourceRequest{NotebookID: nb, Type: kind, Title: title, Embed: embed}
			switch kind {
			case "text":
				if content == "" {
					return fmt.Errorf("--content is required for text sources")
				}
				req.Content = content
			case "file":
				if len(args) == 0 {
					return fmt.Errorf("a file path is required")
				}
				req.FilePath = args[0]
			default:
				if len(args) == 0 {
					return fmt.Errorf("a URL is required")
				}
				req.URL = args[0]
			}
			src, err := client.CreateSource(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("adding source: %w", err)
			}
			if a.format != display.FormatTable {
				return a.print(src, nil)
			}
			display.Success(fmt.Sprintf("Added %s (%s)", src.TitleOr("source"), src.ID))
			return nil
		},
	}
	add.Flags().StringVarP(&notebook, "notebook", "n", "", "notebook id or URL (default: configured notebook)")
	add.Flags().StringVarP(&kind, "type", "t", "url", "source type: "+strings.Join(service.SourceTypes(), ", "))
	add.Flags().StringVar(&title, "title", "", "source title")
	add.Flags().StringVar(&content, "content", "", "source text for --type text")
	add.Flags().BoolVar(&embed, "embed", true, "embed the source for vector search")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			if err := client.DeleteSource(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("deleting source: %w", err)
			}
			display.Success("Deleted " + args[0])
			return nil
		},
	}

	var insightModel string
	insight := &cobra.Command{
		Use:     "insight <source-id> <transformation>",
		Short:   "Run a transformation on a source and store the result as an insight",
		Example: `  cosmiq sources insight source:abc1 key_insights`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			tfID, err := resolveTransformation(cmd.Context(), client, args[1])
			if err != nil {
				return err
			}
			display.Spinner("Generating insight...")
			in, err := client.CreateSourceInsight(cmd.Context(), args[0], tfID, insightModel)
			display.ClearLine()
			if err != nil {
				return fmt.Errorf("creating insight: %w", err)
			}
			if a.format != display.FormatTable {
				return a.print(in, nil)
			}
			display.SubHeader("💡 " + in.InsightType + "  " + display.Dim + in.ID + display.Reset)
			fmt.Fprintln(display.Out, display.RenderMarkdown(in.Content))
			return nil
		},
	}
	insight.Flags().StringVarP(&insightModel, "model", "m", "", "model id (default: the backend's transformation model)")

	var (
		newTitle string
		topics   []string
	)
	edit := &cobra.Command{
		Use:     "edit <id>",
		Short:   "Change a source's title or topics",
		Example: `  cosmiq sources edit source:abc1 --title "Attention paper" --topics nlp,transformers`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req api.UpdateSourceRequest
			if cmd.Flags().Changed("title") {
				req.Title = &newTitle
			}
			if cmd.Flags().Changed("topics") {
				req.Topics = topics
			}
			if req.Title == nil && req.Topics == nil {
				return fmt.Errorf("nothing to update: pass --title or --topics")
			}
			client, err := a.backend()
			if err != nil {
				return err
			}
			src, err := client.UpdateSource(cmd.Context(), args[0], req)
			if err != nil {
				return fmt.Errorf("updating source: %w", err)
			}
			if a.format != display.FormatTable {
				return a.print(src, nil)
			}
			display.Success(fmt.Sprintf("Updated %s (%s)", src.TitleOr("source"), src.ID))
			return nil
		},
	}
	edit.Flags().StringVar(&newTitle, "title", "", "new title")
	edit.Flags().StringSliceVar(&topics, "topics", nil, "comma-separated topics, replacing the current ones")

	cmd.AddCommand(list, get, add, edit, insight, del)
	return cmd
}

// ─── notes ──────────────────────────────────────────────────────────────────

func newNotesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notes",
		Aliases: []string{"note"},
		Short:   "List and manage the notes of a notebook",
	}

	var notebook string
	list := &cobra.Command{
		Use:   "list",
		Short: "List notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			nb, err := a.notebook(notebook)
			if err != nil {
				return err
			}
			notes, err := client.ListNotes(cmd.Context(), nb)
			if err != nil {
				return fmt.Errorf("listing notes: %w", err)
			}
			return a.print(notes, func() *display.Table {
				t := &display.Table{Headers: []string{"ID", "Title", "Type", "Excerpt", "Updated"}}
				for _, n := range notes {
					row := service.FormatNoteRow(n)
					t.Append(row.ID, service.Truncate(row.Title, 40), row.Type, row.Excerpt, display.FormatTime(row.Updated))
				}
				return t
			})
		},
	}
	list.Flags().StringVarP(&notebook, "notebook", "n", "", "notebook id or URL (default: configured notebook)")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			note, err := client.GetNote(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("getting note: %w", err)
			}
			if a.format != display.FormatTable {
				return a.print(note, nil)
			}
			row := service.FormatNoteRow(*note)
			display.Header("📝 " + row.Title)
			display.Info("ID:", row.ID)
			display.Info("Type:", row.Type)
			display.Info("Updated:", display.FormatTime(row.Updated))
			fmt.Fprintln(display.Out)
			fmt.Fprintln(display.Out, display.RenderMarkdown(note.ContentText()))
			return nil
		},
	}

	var title, noteType string
	create := &cobra.Command{
		Use:   "create <content>",
		Short: "Create a note",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if noteType != api.NoteTypeHuman && noteType != api.NoteTypeAI {
				return fmt.Errorf("invalid note type %q (valid: %s, %s)", noteType, api.NoteTypeHuman, api.NoteTypeAI)
			}
			client, err := a.backend()
			if err != nil {
				return err
			}
			nb, err := a.notebook(notebook)
			if err != nil {
				return err
			}
			defer a.toasts()()
			note, err := client.CreateNote(cmd.Context(), api.CreateNoteRequest{
				Content:    strings.Join(args, " "),
				Title:      title,
				NoteType:   noteType,
				NotebookID: nb,
			})
			if err != nil {
				return fmt.Errorf("creating note: %w", err)
			}
			if a.format != display.FormatTable {
				return a.print(note, nil)
			}
			a.notifier.Success("Note created", note.ID)
			return nil
		},
	}
	create.Flags().StringVarP(&notebook, "notebook", "n", "", "notebook id or URL (default: configured notebook)")
	create.Flags().StringVar(&title, "title", "", "note title")
	create.Flags().StringVar(&noteType, "type", api.NoteTypeHuman, "note type: human or ai")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			if err := client.DeleteNote(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("deleting note: %w", err)
			}
			display.Success("Deleted " + args[0])
			return nil
		},
	}

	var editTitle, editContent string
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a note's title or content",
		Long:  "Change a note's title or content. With --content - the content is read from stdin.",
		Example: `  cosmiq notes edit note:n1 --title "Open questions"
  cosmiq notes edit note:n1 --content - < draft.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req api.UpdateNoteRequest
			if cmd.Flags().Changed("title") {
				req.Title = &editTitle
			}
			if cmd.Flags().Changed("content") {
				content := editContent
				if content == "-" {
					data, err := io.ReadAll(cmd.InOrStdin())
					if err != nil {
						return fmt.Errorf("reading stdin: %w", err)
					}
					content = string(data)
				}
				if strings.TrimSpace(content) == "" {
					return fmt.Errorf("note content cannot be empty")
				}
				req.Content = &content
			}
			if req.Title == nil && req.Content == nil {
				return fmt.Errorf("nothing to update: pass --title or --content")
			}
			client, err := a.backend()
			if err != nil {
				return err
			}
			defer a.toasts()()
			note, err := client.UpdateNote(cmd.Context(), args[0], req)
			if err != nil {
				return fmt.Errorf("updating note: %w", err)
			}
			if a.format != display.FormatTable {
				return a.print(note, nil)
			}
			a.notifier.Success("Note updated", note.ID)
			return nil
		},
	}
	edit.Flags().StringVar(&editTitle, "title", "", "new title")
	edit.Flags().StringVar(&editContent, "content", "", "new content, or - to read it from stdin")

	cmd.AddCommand(list, get, create, edit, del)
	return cmd
}
