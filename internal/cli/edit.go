package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/internal/inventory"
)

func newEditCmd(opts *rootOptions) *cobra.Command {
	var (
		name     string
		category string
		quantity int
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an item, keeping its ID",
		Long: `Edit changes the given fields of an item. The ID stays the same when the
item is renamed.

Example:
  pantry edit apples --quantity 5
  pantry edit apples --name "Green Apples"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("name") && !flags.Changed("category") && !flags.Changed("quantity") {
				return userError(errors.New("nothing to change: set --name, --category or --quantity"))
			}
			if flags.Changed("category") {
				cat, err := parseCategory(category)
				if err != nil {
					return userError(err)
				}
				category = cat
			}

			e, err := opts.openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			if err := e.model.ResetAndReload(ctx, ""); err != nil {
				return e.fail(err)
			}
			if err := e.model.LoadAll(ctx); err != nil {
				return e.fail(err)
			}

			id := args[0]
			item, err := e.model.Find(id)
			if errors.Is(err, inventory.ErrItemNotFound) {
				msg := fmt.Sprintf("item %q not found", id)
				if hints := suggestIDs(id, e.model.Items()); len(hints) > 0 {
					msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(hints, ", "))
				}
				return &exitError{code: exitUserError, msg: msg, err: err}
			}

			if flags.Changed("name") {
				item.Name = name
			}
			if flags.Changed("category") {
				item.Category = category
			}
			if flags.Changed("quantity") {
				item.Quantity = quantity
			}

			stored, err := e.model.EditItem(ctx, item)
			if err != nil {
				return e.fail(err)
			}
			return writeItem(cmd.OutOrStdout(), opts.jsonMode, "Updated", stored)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new item name")
	cmd.Flags().StringVar(&category, "category", "", "new item category")
	cmd.Flags().IntVar(&quantity, "quantity", 0, "new item quantity")
	return cmd
}
