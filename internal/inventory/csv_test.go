package inventory

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mesh-intelligence/pantry/internal/logging"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

func TestExportCSV_Empty(t *testing.T) {
	m := New(&fakeStore{}, "u1", WithLogger(logging.NullLogger()))

	var buf bytes.Buffer
	require.NoError(t, m.ExportCSV(&buf))
	assert.Equal(t, "id,name,category,quantity\n", buf.String())
}

func TestExportCSV_LoadedItems(t *testing.T) {
	items := []types.Item{
		{ItemID: "apples", Name: "Apples", Category: types.CategoryFruit, Quantity: 3},
		{ItemID: "cheddar", Name: "Cheddar, aged", Category: types.CategoryDairy, Quantity: 1},
	}
	store := &fakeStore{
		fetch: func(context.Context, *types.Cursor, string) (types.Page, error) {
			return types.Page{Items: items}, nil
		},
	}
	m := New(store, "u1", WithLogger(logging.NullLogger()))
	require.NoError(t, m.LoadNextPage(context.Background()))

	var buf bytes.Buffer
	require.NoError(t, m.ExportCSV(&buf))
	want := "id,name,category,quantity\n" +
		"apples,Apples,Fruit,3\n" +
		"cheddar,\"Cheddar, aged\",Dairy,1\n"
	assert.Equal(t, want, buf.String())
}

func TestCSVRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		drawn := rapid.SliceOfN(rapid.Custom(func(t *rapid.T) types.Item {
			return types.Item{
				ItemID:   rapid.StringMatching(`[a-z0-9][a-z0-9-]{0,11}`).Draw(t, "id"),
				Name:     rapid.StringMatching(`[A-Za-z0-9][A-Za-z0-9,"' \r\n\t]{0,14}[A-Za-z0-9]`).Draw(t, "name"),
				Category: rapid.SampledFrom(types.Categories).Draw(t, "category"),
				Quantity: rapid.IntRange(0, 10000).Draw(t, "quantity"),
			}
		}), 0, 20).Draw(t, "items")

		// Only names the store accepts can be exported.
		items := []types.Item{}
		for _, it := range drawn {
			if err := it.Update().Validate(); err != nil {
				assert.ErrorIs(t, err, types.ErrInvalidName)
				assert.True(t, strings.ContainsAny(it.Name, "\r\n\t"))
				continue
			}
			items = append(items, it)
		}

		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, items))
		assert.Equal(t, len(items)+1, strings.Count(buf.String(), "\n"))

		updates, err := ParseCSV(&buf)
		require.NoError(t, err)
		require.Len(t, updates, len(items))
		for i, u := range updates {
			assert.Equal(t, items[i].ItemID, u.ItemID)
			assert.Equal(t, items[i].Name, *u.Name)
			assert.Equal(t, items[i].Category, *u.Category)
			assert.Equal(t, items[i].Quantity, *u.Quantity)
		}
	})
}

func TestParseCSV(t *testing.T) {
	t.Run("reordered columns and missing id", func(t *testing.T) {
		in := "Quantity,Name,Category\n4,Brown Rice,grain\n"
		updates, err := ParseCSV(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, updates, 1)
		assert.Equal(t, "brown-rice", updates[0].ID())
		assert.Equal(t, types.CategoryGrain, *updates[0].Category)
		assert.Equal(t, 4, *updates[0].Quantity)
	})

	errorCases := []struct {
		name    string
		in      string
		wantErr error
	}{
		{name: "empty input", in: "", wantErr: ErrMalformedCSV},
		{name: "missing column", in: "id,name,quantity\na,A,1\n", wantErr: ErrMalformedCSV},
		{name: "ragged row", in: "id,name,category,quantity\na,A,Fruit\n", wantErr: ErrMalformedCSV},
		{name: "empty name", in: "id,name,category,quantity\na,,Fruit,1\n", wantErr: types.ErrInvalidName},
		{name: "unknown category", in: "id,name,category,quantity\na,A,Candy,1\n", wantErr: types.ErrInvalidCategory},
		{name: "bad quantity", in: "id,name,category,quantity\na,A,Fruit,many\n", wantErr: types.ErrInvalidQuantity},
		{name: "negative quantity", in: "id,name,category,quantity\na,A,Fruit,-2\n", wantErr: types.ErrInvalidQuantity},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.in))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, types.IsValidation(err))
		})
	}
}
