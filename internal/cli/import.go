package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/internal/inventory"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import items from CSV",
		Long: `Import reads a CSV file with the header id,name,category,quantity (the
format written by export) and upserts every row. The id column is optional.
Use - to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return userError(fmt.Errorf("open %s: %w", args[0], err))
				}
				defer f.Close()
				r = f
			}

			updates, err := inventory.ParseCSV(r)
			if err != nil {
				return userError(err)
			}

			e, err := opts.openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			n, err := e.model.ImportItems(cmd.Context(), updates)
			if err != nil {
				return e.fail(err)
			}

			if opts.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]int{"imported": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d items\n", n)
			return nil
		},
	}
}
