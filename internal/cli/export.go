package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [document]",
		Short: "Rebuild the JSON document from the database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runExport(cmd, rootOpts, path)
		},
	}
	return cmd
}

func runExport(cmd *cobra.Command, opts *RootOptions, path string) error {
	ctx := cmd.Context()

	st, err := openStores(ctx, opts.cfg, path)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Document.Rebuild(ctx, st.Repo); err != nil {
		return err
	}
	opts.logger.With("cmd", "export").Info("export_done", "path", st.Document.Path)
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", st.Document.Path)
	return nil
}
