package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete items by ID",
		Long:  "Delete removes each item. Deleting an item that does not exist succeeds.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			removed := make([]string, 0, len(args))
			for _, id := range args {
				if err := e.model.RemoveItem(cmd.Context(), id); err != nil {
					return e.fail(err)
				}
				removed = append(removed, id)
			}

			if opts.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string][]string{"removed": removed})
			}
			for _, id := range removed {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
			}
			return nil
		},
	}
}
