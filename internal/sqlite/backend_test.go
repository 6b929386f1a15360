// Tests for the SQLite backend lifecycle and JSONL persistence.
package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pantry/internal/storetest"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// setupBackend creates an attached Backend in a temp dir and detaches it on
// cleanup.
func setupBackend(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return b
}

func TestBackendConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) types.Backend { return setupBackend(t) })
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()
	b := NewBackend()
	config := types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}

	require.NoError(t, b.Attach(config))
	defer b.Detach()

	for _, name := range []string{dbFileName, jsonlFileName} {
		_, err := os.Stat(filepath.Join(tmpDir, name))
		assert.NoError(t, err, "%s should exist after Attach", name)
	}

	info, err := os.Stat(filepath.Join(tmpDir, jsonlFileName))
	require.NoError(t, err)
	assert.Zero(t, info.Size(), "new inventory.jsonl starts empty")

	assert.ErrorIs(t, b.Attach(config), types.ErrAlreadyAttached)
}

func TestBackend_AttachRejectsInvalidConfig(t *testing.T) {
	b := NewBackend()
	assert.ErrorIs(t, b.Attach(types.Config{DataDir: t.TempDir()}), types.ErrBackendEmpty)
	assert.ErrorIs(t, b.Attach(types.Config{Backend: "postgres", DataDir: t.TempDir()}), types.ErrBackendUnknown)
}

func TestBackend_DataSurvivesReattach(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	config := types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}

	b := NewBackend()
	require.NoError(t, b.Attach(config))
	created, err := b.Upsert(ctx, "u1", storetest.NewItem("Apples", types.CategoryFruit, 3))
	require.NoError(t, err)
	_, err = b.Upsert(ctx, "u1", storetest.NewItem("Milk", types.CategoryDairy, 1))
	require.NoError(t, err)
	require.NoError(t, b.Remove(ctx, "u1", "milk"))
	require.NoError(t, b.Detach())

	b2 := NewBackend()
	require.NoError(t, b2.Attach(config))
	defer b2.Detach()

	items := storetest.FullScan(t, b2, "u1", "")
	require.Len(t, items, 1)
	assert.Equal(t, "apples", items[0].ItemID)
	assert.Equal(t, 3, items[0].Quantity)
	assert.True(t, created.CreatedAt.Equal(items[0].CreatedAt))
}

func TestBackend_JSONLFormat(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)
	b.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

	_, err := b.Upsert(ctx, "u1", storetest.NewItem("Apples", types.CategoryFruit, 3))
	require.NoError(t, err)

	data, err := os.ReadFile(b.jsonlPath())
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"user_id":"u1","item_id":"apples","name":"Apples","category":"Fruit","quantity":3,
		  "created_at":"2026-03-04T05:06:07Z","updated_at":"2026-03-04T05:06:07Z"}`,
		strings.TrimSpace(string(data)))
}

func TestBackend_LoadSkipsMalformedLines(t *testing.T) {
	tmpDir := t.TempDir()
	content := strings.Join([]string{
		`{"user_id":"u1","item_id":"apples","name":"Apples","category":"Fruit","quantity":3,"created_at":"2026-01-01T00:00:00Z","updated_at":"2026-01-01T00:00:00Z"}`,
		`not json at all`,
		``,
		`{"user_id":"u1","item_id":"","name":"Nameless"}`,
		`{"user_id":"u1","item_id":"bad-time","name":"Bad","category":"Other","quantity":1,"created_at":"yesterday","updated_at":"today"}`,
		`{"user_id":"u1","item_id":"apples","name":"Apples","category":"Fruit","quantity":8,"created_at":"2026-01-01T00:00:00Z","updated_at":"2026-01-02T00:00:00Z"}`,
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, jsonlFileName), []byte(content), 0o644))

	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}))
	defer b.Detach()

	items := storetest.FullScan(t, b, "u1", "")
	require.Len(t, items, 1)
	assert.Equal(t, 8, items[0].Quantity, "later line for the same key wins")
}

func TestBackend_RemoveAbsentLeavesJSONLUntouched(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)
	_, err := b.Upsert(ctx, "u1", storetest.NewItem("Apples", types.CategoryFruit, 3))
	require.NoError(t, err)

	before, err := os.Stat(b.jsonlPath())
	require.NoError(t, err)
	require.NoError(t, b.Remove(ctx, "u1", "pears"))
	after, err := os.Stat(b.jsonlPath())
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestBackend_AttachFailsWhenStaleDBCannotBeRemoved(t *testing.T) {
	tmpDir := t.TempDir()
	// A non-empty directory in place of the database file cannot be removed.
	dbPath := filepath.Join(tmpDir, dbFileName)
	require.NoError(t, os.MkdirAll(filepath.Join(dbPath, "keep"), 0o755))

	b := NewBackend()
	err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: tmpDir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "removing stale")

	// A failed attach leaves the backend detached and reusable.
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	require.NoError(t, b.Detach())
}

func TestBackend_FailedPersistLeavesTableUnchanged(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)
	_, err := b.Upsert(ctx, "u1", storetest.NewItem("Apples", types.CategoryFruit, 3))
	require.NoError(t, err)

	// A directory at the JSONL path makes the atomic rename fail.
	require.NoError(t, os.Remove(b.jsonlPath()))
	require.NoError(t, os.MkdirAll(filepath.Join(b.jsonlPath(), "keep"), 0o755))

	_, err = b.Upsert(ctx, "u1", storetest.NewItem("Bananas", types.CategoryFruit, 1))
	require.Error(t, err)
	err = b.Remove(ctx, "u1", "apples")
	require.Error(t, err)

	items := storetest.FullScan(t, b, "u1", "")
	require.Len(t, items, 1)
	assert.Equal(t, "apples", items[0].ItemID)
	assert.Equal(t, 3, items[0].Quantity)
}
