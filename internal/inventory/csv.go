package inventory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// DefaultExportFile is the file name used when exporting without a path.
const DefaultExportFile = "inventory.csv"

// csvHeader is the column order of exported files.
var csvHeader = []string{"id", "name", "category", "quantity"}

// ErrMalformedCSV reports an import file that cannot be read as inventory.
var ErrMalformedCSV = fmt.Errorf("%w: malformed CSV", types.ErrValidation)

// ExportCSV writes the loaded items, not the full remote collection, as CSV
// with a header row.
func (m *Model) ExportCSV(w io.Writer) error {
	return WriteCSV(w, m.Items())
}

// WriteCSV writes items as CSV with a header row.
func WriteCSV(w io.Writer, items []types.Item) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, it := range items {
		row := []string{it.ItemID, it.Name, it.Category, strconv.Itoa(it.Quantity)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing item %s: %w", it.ItemID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParseCSV reads a file produced by ExportCSV. Columns are located by the
// header, so their order may differ. The id column is optional; rows
// without an ID derive it from the name. Categories match case-insensitively.
func ParseCSV(r io.Reader) ([]types.ItemUpdate, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}

	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range csvHeader[1:] {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformedCSV, required)
		}
	}

	var updates []types.ItemUpdate
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		line, _ := cr.FieldPos(0)

		u, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		updates = append(updates, u)
	}
	return updates, nil
}

func parseRow(row []string, cols map[string]int) (types.ItemUpdate, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	name := field("name")
	if name == "" {
		return types.ItemUpdate{}, types.ErrInvalidName
	}
	category, err := types.ParseCategory(field("category"))
	if err != nil {
		return types.ItemUpdate{}, err
	}
	quantity, err := strconv.Atoi(field("quantity"))
	if err != nil || quantity < 0 {
		return types.ItemUpdate{}, types.ErrInvalidQuantity
	}

	return types.ItemUpdate{
		ItemID:   field("id"),
		Name:     &name,
		Category: &category,
		Quantity: &quantity,
	}, nil
}
