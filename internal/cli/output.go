package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// listOutput is the JSON shape of list and search results.
type listOutput struct {
	Items   []types.Item `json:"items"`
	Search  string       `json:"search,omitempty"`
	HasMore bool         `json:"has_more"`
	Cursor  string       `json:"cursor,omitempty"`
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal JSON: %w", err))
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// renderItems returns the items as a bordered table.
func renderItems(items []types.Item) string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{it.ItemID, it.Name, it.Category, strconv.Itoa(it.Quantity)})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "CATEGORY", "QTY").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

// writeItem prints a single item.
func writeItem(w io.Writer, jsonMode bool, verb string, it types.Item) error {
	if jsonMode {
		return writeJSON(w, it)
	}
	fmt.Fprintf(w, "%s %s (%s): %s, quantity %d\n", verb, it.Name, it.ItemID, it.Category, it.Quantity)
	return nil
}
