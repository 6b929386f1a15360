package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// listFlags holds the paging flags shared by list and search.
type listFlags struct {
	search string
	pages  int
	all    bool
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.pages, "pages", 1, "number of pages to load")
	cmd.Flags().BoolVar(&f.all, "all", false, "load every page")
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items ordered by name",
		Long: `List loads the first page of items ordered by name. Use --pages to load
more pages or --all to load every page. --search keeps only items whose
name starts with the term, ignoring case.

Example:
  pantry list
  pantry list --search ap --all
  pantry list --pages 3 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts, f)
		},
	}
	cmd.Flags().StringVar(&f.search, "search", "", "name prefix to filter by")
	f.register(cmd)
	return cmd
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "List items whose name starts with term",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.search = strings.Join(args, " ")
			return runList(cmd, opts, f)
		},
	}
	f.register(cmd)
	return cmd
}

func runList(cmd *cobra.Command, opts *rootOptions, f listFlags) error {
	if f.pages < 1 {
		return userError(fmt.Errorf("--pages must be at least 1, got %d", f.pages))
	}

	e, err := opts.openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	m := e.model
	if err := m.ResetAndReload(ctx, f.search); err != nil {
		return e.fail(err)
	}
	if f.all {
		if err := m.LoadAll(ctx); err != nil {
			return e.fail(err)
		}
	} else {
		for i := 1; i < f.pages && m.HasMore(); i++ {
			if err := m.LoadNextPage(ctx); err != nil {
				return e.fail(err)
			}
		}
	}

	items := m.Items()
	w := cmd.OutOrStdout()
	if opts.jsonMode {
		out := listOutput{Items: items, Search: m.Search(), HasMore: m.HasMore()}
		if c := m.Cursor(); c != nil && m.HasMore() {
			out.Cursor = c.Encode()
		}
		return writeJSON(w, out)
	}

	if len(items) == 0 {
		fmt.Fprintln(w, "No items found.")
		return nil
	}
	fmt.Fprintln(w, renderItems(items))
	if m.HasMore() {
		fmt.Fprintln(w, "More items available; use --pages or --all to load them.")
	}
	return nil
}
