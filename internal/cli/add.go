package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newAddCmd(opts *rootOptions) *cobra.Command {
	var (
		name     string
		category string
		quantity int
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an item, or merge into the item with the same name",
		Long: `Add stores an item under an ID derived from its name. Adding a name that
already exists updates that item.

Example:
  pantry add --name Apples --category fruit --quantity 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return userError(errors.New("--name is required"))
			}
			cat, err := parseCategory(category)
			if err != nil {
				return userError(err)
			}

			e, err := opts.openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			item, err := e.model.AddItem(cmd.Context(), name, cat, quantity)
			if err != nil {
				return e.fail(err)
			}
			return writeItem(cmd.OutOrStdout(), opts.jsonMode, "Added", item)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "item name (required)")
	cmd.Flags().StringVar(&category, "category", "", "item category (required, see pantry categories)")
	cmd.Flags().IntVar(&quantity, "quantity", 1, "item quantity")
	return cmd
}
