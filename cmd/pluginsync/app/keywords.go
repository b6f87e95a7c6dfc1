package app

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/pluginsync/pluginsync/internal/cmd/output"
	"github.com/pluginsync/pluginsync/internal/store/schema"
	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/plugins"
)

// NewKeywordsCommand creates the keywords command group.
func (a *App) NewKeywordsCommand() *cobra.Command {
	var dev bool
	cmd := &cobra.Command{
		Use:     "keywords",
		GroupID: "management",
		Short:   "Inspect or load the keyword-to-category table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().BoolVar(&dev, "dev", false, "use the development store")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the keyword table of the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.Client(ctx, dev)
			if err != nil {
				return err
			}
			keywords, err := client.Store().Keywords(ctx)
			if err != nil {
				return err
			}
			format := output.DetectFormat(a.config.Format)
			return output.Write(cmd.OutOrStdout(), format, keywords, keywordsTable(keywords))
		},
	})

	var dryRun bool
	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the keyword table of a sqlite or postgres store from YAML",
		Long: `Import loads categories and keywords from a YAML file:

  categories:
    - id: tasks
      name: Task management
  keywords:
    - keyword: todo
      categories: [tasks]

Categories are upserted by id and the keyword table is replaced. SeaTable
bases are edited in SeaTable itself. With --dry-run the resolved table is
printed and no store is opened.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kf, err := schema.LoadKeywordFile(args[0])
			if err != nil {
				return err
			}
			if dryRun {
				keywords := kf.Resolve()
				format := output.DetectFormat(a.config.Format)
				return output.Write(cmd.OutOrStdout(), format, keywords, keywordsTable(keywords))
			}

			ctx := cmd.Context()
			client, err := a.Client(ctx, dev)
			if err != nil {
				return err
			}
			importer, ok := client.Store().(KeywordImporter)
			if !ok {
				return errors.NewConfigError("keywords", "the configured store does not support keyword import", nil)
			}
			if err := importer.ImportKeywords(ctx, kf); err != nil {
				return err
			}
			a.logger.Info().
				Int("categories", len(kf.Categories)).
				Int("keywords", len(kf.Keywords)).
				Str("file", args[0]).
				Msg("Imported keyword table")
			return nil
		},
	}
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the resolved table without writing it")
	cmd.AddCommand(importCmd)
	return cmd
}

func keywordsTable(keywords []plugins.Keyword) output.Data {
	rows := make([][]string, 0, len(keywords))
	for _, k := range keywords {
		names := make([]string, 0, len(k.Categories))
		for _, c := range k.Categories {
			names = append(names, c.DisplayValue)
		}
		rows = append(rows, []string{k.Keyword, strings.Join(names, ", ")})
	}
	return output.Data{Headers: []string{"Keyword", "Categories"}, Rows: rows}
}
