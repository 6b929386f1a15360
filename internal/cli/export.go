package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/internal/inventory"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		output string
		search string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export items to CSV",
		Long: `Export loads every item of the query and writes them as CSV with the
header id,name,category,quantity. Use --output - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			if err := e.model.ResetAndReload(ctx, search); err != nil {
				return e.fail(err)
			}
			if err := e.model.LoadAll(ctx); err != nil {
				return e.fail(err)
			}

			if output == "-" {
				if err := e.model.ExportCSV(cmd.OutOrStdout()); err != nil {
					return sysError(fmt.Errorf("export: %w", err))
				}
				return nil
			}

			f, err := os.Create(output)
			if err != nil {
				return sysError(fmt.Errorf("create %s: %w", output, err))
			}
			if err := e.model.ExportCSV(f); err != nil {
				f.Close()
				return sysError(fmt.Errorf("export: %w", err))
			}
			if err := f.Close(); err != nil {
				return sysError(fmt.Errorf("close %s: %w", output, err))
			}

			n := len(e.model.Items())
			if opts.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"file": output, "items": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d items to %s\n", n, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", inventory.DefaultExportFile, "output file, - for stdout")
	cmd.Flags().StringVar(&search, "search", "", "name prefix to filter by")
	return cmd
}
