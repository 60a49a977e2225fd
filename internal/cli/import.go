package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/shop_catalog/internal/document"
)

func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [document]",
		Short: "Seed an empty database from a JSON document",
		Long: `Import the products of a JSON document, with their comments and extra
fields, into the relational store. Nothing is imported when the store
already holds products. The document defaults to DOCUMENT_PATH.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runImport(cmd, rootOpts, path)
		},
	}
	return cmd
}

func runImport(cmd *cobra.Command, opts *RootOptions, path string) error {
	ctx := cmd.Context()
	l := opts.logger.With("cmd", "import")

	st, err := openStores(ctx, opts.cfg, path)
	if err != nil {
		return err
	}
	defer st.Close()

	if !st.Document.Exists() {
		return fmt.Errorf("document %s does not exist", st.Document.Path)
	}

	res, err := document.ImportIfEmpty(ctx, st.Document, st.Repo)
	if err != nil {
		return err
	}
	l.Info("import_done", "path", st.Document.Path, "imported", res.Imported, "skipped", res.Skipped)
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d products (%d skipped)\n", res.Imported, res.Skipped)
	return nil
}
