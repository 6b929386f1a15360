// Package storetest provides the conformance suite every types.Backend
// implementation runs from its own tests.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Factory returns a freshly attached backend. The factory registers its own
// cleanup with t.
type Factory func(t *testing.T) types.Backend

// TB is the subset of testing.TB that both *testing.T and *rapid.T provide.
type TB interface {
	require.TestingT
	Helper()
}

// userCounter gives property-test iterations disjoint collections.
var userCounter atomic.Int64

// Run executes the conformance suite against backends produced by newBackend.
func Run(t *testing.T, newBackend Factory) {
	t.Run("UpsertCreatesItem", func(t *testing.T) { testUpsertCreates(t, newBackend(t)) })
	t.Run("UpsertMergesFields", func(t *testing.T) { testUpsertMerges(t, newBackend(t)) })
	t.Run("UpsertLastWriteWins", func(t *testing.T) { testLastWriteWins(t, newBackend(t)) })
	t.Run("UpsertRejectsInvalid", func(t *testing.T) { testUpsertInvalid(t, newBackend(t)) })
	t.Run("RemoveIsIdempotent", func(t *testing.T) { testRemoveIdempotent(t, newBackend(t)) })
	t.Run("EmptyCollection", func(t *testing.T) { testEmptyCollection(t, newBackend(t)) })
	t.Run("PagesOrderedByName", func(t *testing.T) { testPagesOrdered(t, newBackend(t)) })
	t.Run("RenameKeepsIdentifier", func(t *testing.T) { testRename(t, newBackend(t)) })
	t.Run("PrefixSearch", func(t *testing.T) { testPrefixSearch(t, newBackend(t)) })
	t.Run("CursorMismatch", func(t *testing.T) { testCursorMismatch(t, newBackend(t)) })
	t.Run("UserScoping", func(t *testing.T) { testUserScoping(t, newBackend(t)) })
	t.Run("Detached", func(t *testing.T) { testDetached(t, newBackend(t)) })
	t.Run("ChainedPagesMatchFullScan", func(t *testing.T) { testChainedPagesProperty(t, newBackend(t)) })
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

// NewItem returns the update that creates an item with every field set.
func NewItem(name, category string, quantity int) types.ItemUpdate {
	return types.ItemUpdate{Name: strPtr(name), Category: strPtr(category), Quantity: intPtr(quantity)}
}

// FullScan returns every item of the user's collection matching prefix in
// a single page.
func FullScan(t TB, b types.Backend, userID, prefix string) []types.Item {
	t.Helper()
	page, err := b.FetchPage(context.Background(), userID, types.PageQuery{Prefix: prefix, Limit: types.MaxPageSize})
	require.NoError(t, err)
	return page.Items
}

// ChainedScan walks the user's collection page by page, following Next
// cursors until an empty page is returned.
func ChainedScan(t TB, b types.Backend, userID, prefix string, pageSize int) []types.Item {
	t.Helper()
	var all []types.Item
	var after *types.Cursor
	for i := 0; ; i++ {
		require.Less(t, i, 10000, "pagination did not terminate")
		page, err := b.FetchPage(context.Background(), userID, types.PageQuery{Prefix: prefix, Limit: pageSize, After: after})
		require.NoError(t, err)
		require.LessOrEqual(t, len(page.Items), pageSize)
		if len(page.Items) == 0 {
			require.Nil(t, page.Next, "empty page must not carry a cursor")
			return all
		}
		require.NotNil(t, page.Next)
		all = append(all, page.Items...)
		after = page.Next
	}
}

func ids(items []types.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ItemID
	}
	return out
}

func testUpsertCreates(t *testing.T, b types.Backend) {
	ctx := context.Background()
	got, err := b.Upsert(ctx, "u1", NewItem("Apples", types.CategoryFruit, 3))
	require.NoError(t, err)
	assert.Equal(t, "apples", got.ItemID)
	assert.False(t, got.CreatedAt.IsZero())

	items := FullScan(t, b, "u1", "")
	require.Len(t, items, 1)
	assert.Equal(t, "apples", items[0].ItemID)
	assert.Equal(t, "Apples", items[0].Name)
	assert.Equal(t, types.CategoryFruit, items[0].Category)
	assert.Equal(t, 3, items[0].Quantity)
	assert.True(t, got.CreatedAt.Equal(items[0].CreatedAt))
}

func testUpsertMerges(t *testing.T, b types.Backend) {
	ctx := context.Background()
	created, err := b.Upsert(ctx, "u1", NewItem("Milk", types.CategoryDairy, 1))
	require.NoError(t, err)

	merged, err := b.Upsert(ctx, "u1", types.ItemUpdate{ItemID: "milk", Quantity: intPtr(4)})
	require.NoError(t, err)
	assert.Equal(t, "Milk", merged.Name)
	assert.Equal(t, types.CategoryDairy, merged.Category)
	assert.Equal(t, 4, merged.Quantity)

	items := FullScan(t, b, "u1", "")
	require.Len(t, items, 1)
	assert.Equal(t, merged.Quantity, items[0].Quantity)
	assert.Equal(t, types.CategoryDairy, items[0].Category, "unspecified field kept")
	assert.True(t, created.CreatedAt.Equal(items[0].CreatedAt), "CreatedAt kept")
}

func testLastWriteWins(t *testing.T, b types.Backend) {
	ctx := context.Background()
	for q := 1; q <= 3; q++ {
		_, err := b.Upsert(ctx, "u1", NewItem("Rice", types.CategoryGrain, q))
		require.NoError(t, err)
	}
	_, err := b.Upsert(ctx, "u1", NewItem("rice", types.CategoryOther, 7))
	require.NoError(t, err)

	items := FullScan(t, b, "u1", "")
	require.Len(t, items, 1, "same identifier stored once")
	assert.Equal(t, "rice", items[0].ItemID)
	assert.Equal(t, "rice", items[0].Name)
	assert.Equal(t, types.CategoryOther, items[0].Category)
	assert.Equal(t, 7, items[0].Quantity)
}

func testUpsertInvalid(t *testing.T, b types.Backend) {
	ctx := context.Background()
	tests := []struct {
		name    string
		userID  string
		update  types.ItemUpdate
		wantErr error
	}{
		{name: "empty user", userID: "", update: NewItem("Apples", types.CategoryFruit, 1), wantErr: types.ErrInvalidUser},
		{name: "blank name", userID: "u1", update: NewItem(" ", types.CategoryFruit, 1), wantErr: types.ErrInvalidName},
		{name: "unknown category", userID: "u1", update: NewItem("Apples", "Candy", 1), wantErr: types.ErrInvalidCategory},
		{name: "negative quantity", userID: "u1", update: NewItem("Apples", types.CategoryFruit, -2), wantErr: types.ErrInvalidQuantity},
		{name: "create without name", userID: "u1", update: types.ItemUpdate{ItemID: "ghost", Quantity: intPtr(1)}, wantErr: types.ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Upsert(ctx, tt.userID, tt.update)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, FullScan(t, b, "u1", ""), "rejected upserts must not store anything")
}

func testRemoveIdempotent(t *testing.T, b types.Backend) {
	ctx := context.Background()
	_, err := b.Upsert(ctx, "u1", NewItem("Eggs", types.CategoryDairy, 12))
	require.NoError(t, err)

	require.NoError(t, b.Remove(ctx, "u1", "eggs"))
	assert.Empty(t, FullScan(t, b, "u1", ""))
	assert.NoError(t, b.Remove(ctx, "u1", "eggs"), "second remove must not fail")
	assert.NoError(t, b.Remove(ctx, "u1", "never-existed"))
	assert.ErrorIs(t, b.Remove(ctx, "u1", ""), types.ErrInvalidID)
}

func testEmptyCollection(t *testing.T, b types.Backend) {
	page, err := b.FetchPage(context.Background(), "nobody", types.PageQuery{})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Nil(t, page.Next)
}

func testPagesOrdered(t *testing.T, b types.Backend) {
	ctx := context.Background()
	for _, name := range []string{"Oats", "Beef", "apples", "Carrots", "Milk", "Bread", "Zucchini"} {
		_, err := b.Upsert(ctx, "u1", NewItem(name, types.CategoryOther, 1))
		require.NoError(t, err)
	}

	page, err := b.FetchPage(ctx, "u1", types.PageQuery{Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"beef", "bread", "carrots"}, ids(page.Items))
	require.NotNil(t, page.Next)
	assert.Equal(t, "carrots", page.Next.ItemID)

	page, err = b.FetchPage(ctx, "u1", types.PageQuery{Limit: 3, After: page.Next})
	require.NoError(t, err)
	assert.Equal(t, []string{"milk", "oats", "zucchini"}, ids(page.Items))

	page, err = b.FetchPage(ctx, "u1", types.PageQuery{Limit: 3, After: page.Next})
	require.NoError(t, err)
	assert.Equal(t, []string{"apples"}, ids(page.Items), "lower-case names sort after upper-case")

	page, err = b.FetchPage(ctx, "u1", types.PageQuery{Limit: 3, After: page.Next})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Nil(t, page.Next)
}

func testRename(t *testing.T, b types.Backend) {
	ctx := context.Background()
	for _, name := range []string{"Apples", "Milk"} {
		_, err := b.Upsert(ctx, "u1", NewItem(name, types.CategoryOther, 1))
		require.NoError(t, err)
	}
	_, err := b.Upsert(ctx, "u1", types.ItemUpdate{ItemID: "apples", Name: strPtr("Pink Lady")})
	require.NoError(t, err)

	items := FullScan(t, b, "u1", "")
	assert.Equal(t, []string{"milk", "apples"}, ids(items))
	assert.Equal(t, "Pink Lady", items[1].Name)
	assert.Empty(t, FullScan(t, b, "u1", "app"), "old name no longer matches")
	assert.Len(t, FullScan(t, b, "u1", "pink"), 1)
}

func testPrefixSearch(t *testing.T, b types.Backend) {
	ctx := context.Background()
	for _, name := range []string{"Apples", "apricots", "Avocado", "Pineapple", "Applesauce"} {
		_, err := b.Upsert(ctx, "u1", NewItem(name, types.CategoryFruit, 1))
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"apples", "applesauce"}, ids(FullScan(t, b, "u1", "APPLE")))
	assert.Equal(t, []string{"apples", "applesauce", "apricots"}, ids(ChainedScan(t, b, "u1", " ap", 1)))
	assert.Empty(t, FullScan(t, b, "u1", "kiwi"))
	assert.Len(t, FullScan(t, b, "u1", ""), 5)
}

func testCursorMismatch(t *testing.T, b types.Backend) {
	ctx := context.Background()
	for _, name := range []string{"Apples", "Apricots"} {
		_, err := b.Upsert(ctx, "u1", NewItem(name, types.CategoryFruit, 1))
		require.NoError(t, err)
	}
	page, err := b.FetchPage(ctx, "u1", types.PageQuery{Prefix: "ap", Limit: 1})
	require.NoError(t, err)
	require.NotNil(t, page.Next)

	_, err = b.FetchPage(ctx, "u1", types.PageQuery{Limit: 1, After: page.Next})
	assert.ErrorIs(t, err, types.ErrCursorMismatch)
}

func testUserScoping(t *testing.T, b types.Backend) {
	ctx := context.Background()
	_, err := b.Upsert(ctx, "alice", NewItem("Apples", types.CategoryFruit, 1))
	require.NoError(t, err)
	_, err = b.Upsert(ctx, "bob", NewItem("Apples", types.CategoryFruit, 9))
	require.NoError(t, err)

	require.NoError(t, b.Remove(ctx, "bob", "apples"))

	alice := FullScan(t, b, "alice", "")
	require.Len(t, alice, 1)
	assert.Equal(t, 1, alice[0].Quantity)
	assert.Empty(t, FullScan(t, b, "bob", ""))

	_, err = b.FetchPage(ctx, "", types.PageQuery{})
	assert.ErrorIs(t, err, types.ErrInvalidUser)
}

func testDetached(t *testing.T, b types.Backend) {
	ctx := context.Background()
	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "Detach is idempotent")

	_, err := b.FetchPage(ctx, "u1", types.PageQuery{})
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	_, err = b.Upsert(ctx, "u1", NewItem("Apples", types.CategoryFruit, 1))
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	assert.ErrorIs(t, b.Remove(ctx, "u1", "apples"), types.ErrStoreDetached)
}

// testChainedPagesProperty checks that walking any collection with chained
// cursors yields the full scan: ordered by (name, ID), no duplicates, no gaps.
func testChainedPagesProperty(t *testing.T, b types.Backend) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		userID := fmt.Sprintf("prop-%d", userCounter.Add(1))
		names := rapid.SliceOfN(rapid.StringMatching(`[A-Za-z]{1,6}( [a-z]{1,4})?`), 0, 30).Draw(rt, "names")
		pageSize := rapid.IntRange(1, 7).Draw(rt, "pageSize")

		want := map[string]string{}
		for _, name := range names {
			item, err := b.Upsert(ctx, userID, NewItem(name, types.CategoryOther, len(name)))
			if err != nil {
				rt.Fatalf("upsert %q: %v", name, err)
			}
			want[item.ItemID] = item.Name
		}

		expected := make([]types.Item, 0, len(want))
		for id, name := range want {
			expected = append(expected, types.Item{ItemID: id, Name: name})
		}
		sort.Slice(expected, func(i, j int) bool {
			if expected[i].Name != expected[j].Name {
				return expected[i].Name < expected[j].Name
			}
			return expected[i].ItemID < expected[j].ItemID
		})

		got := ChainedScan(rt, b, userID, "", pageSize)
		if len(got) != len(expected) {
			rt.Fatalf("chained scan returned %d items, want %d", len(got), len(expected))
		}
		for i := range got {
			if got[i].ItemID != expected[i].ItemID || got[i].Name != expected[i].Name {
				rt.Fatalf("position %d: got %s/%q, want %s/%q",
					i, got[i].ItemID, got[i].Name, expected[i].ItemID, expected[i].Name)
			}
		}
	})
}
