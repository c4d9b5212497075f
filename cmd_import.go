package main

import (
	"fmt"

	"cosmiq-cli/internal/display"
	"cosmiq-cli/internal/manifest"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		notebook string
		count    int
	)
	cmd := &cobra.Command{
		Use:   "import <manifest.yaml>",
		Short: "Add the sources and notes listed in a YAML manifest",
		Long: `Add the sources and notes listed in a YAML manifest to a notebook.

The notebook is taken from --notebook, then the manifest's "notebook" key,
then the configured notebook. Entries are created in file order, sources
first; the import stops at the first failure.`,
		Example: `  cosmiq import reading-list.yaml
  cosmiq import --count 3 -n notebook:abc reading-list.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}
			if m.Len() == 0 {
				display.Warn("Nothing to import.")
				return nil
			}
			client, err := a.backend()
			if err != nil {
				return err
			}
			ref := notebook
			if ref == "" {
				ref = m.Notebook
			}
			nb, err := a.notebook(ref)
			if err != nil {
				return err
			}

			table := a.format == display.FormatTable
			created, err := manifest.Import(cmd.Context(), client, m, nb, manifest.Options{
				Count: count,
				OnCreated: func(c manifest.Created) {
					a.log.Info("imported", zap.String("kind", c.Kind), zap.String("name", c.Name), zap.String("id", c.RemoteID))
					if table {
						display.Success(fmt.Sprintf("%s %s → %s", c.Kind, c.Name, c.RemoteID))
					}
				},
			})
			if err != nil {
				if table && len(created) > 0 {
					display.Warn(fmt.Sprintf("Imported %d of %d before the failure.", len(created), m.Len()))
				}
				return err
			}
			if !table {
				return a.print(created, nil)
			}
			fmt.Fprintf(display.Out, "\n  Imported %d entries into %s\n\n", len(created), nb)
			return nil
		},
	}
	cmd.Flags().StringVarP(&notebook, "notebook", "n", "", "notebook id or URL")
	cmd.Flags().IntVar(&count, "count", 0, "import only the first N entries (0: all)")
	return cmd
}
