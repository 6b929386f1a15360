package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pantry/internal/inventory"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// testDirs holds the per-test config and data directories.
type testDirs struct {
	config string
	data   string
}

func newTestDirs(t *testing.T) testDirs {
	t.Helper()
	root := t.TempDir()
	return testDirs{config: filepath.Join(root, "config"), data: filepath.Join(root, "data")}
}

// run executes pantry with args against dirs and returns stdout.
func (d testDirs) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--config-dir", d.config, "--data-dir", d.data}, args...))
	err := root.Execute()
	return stdout.String(), err
}

func (d testDirs) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := d.run(t, args...)
	require.NoError(t, err, "pantry %s", strings.Join(args, " "))
	return out
}

func (d testDirs) listJSON(t *testing.T, args ...string) listOutput {
	t.Helper()
	out := d.mustRun(t, append([]string{"--json", "list"}, args...)...)
	var res listOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	return res
}

func TestVersion(t *testing.T) {
	out := newTestDirs(t).mustRun(t, "version")
	assert.Contains(t, out, "pantry v"+Version)
	assert.Contains(t, out, modulePath)
}

func TestCategories(t *testing.T) {
	out := newTestDirs(t).mustRun(t, "categories")
	assert.Equal(t, strings.Join(types.Categories, "\n")+"\n", out)
}

func TestInit(t *testing.T) {
	for _, backend := range []string{types.BackendSQLite, types.BackendBolt} {
		t.Run(backend, func(t *testing.T) {
			t.Setenv("PANTRY_BACKEND", backend)
			d := newTestDirs(t)

			out := d.mustRun(t, "--json", "init")
			var res initOutput
			require.NoError(t, json.Unmarshal([]byte(out), &res))
			assert.Equal(t, backend, res.Backend)
			assert.NotEmpty(t, res.UserID)

			_, err := os.Stat(res.ConfigFile)
			assert.NoError(t, err)
			_, err = os.Stat(d.data)
			assert.NoError(t, err)

			// Identity is stable across commands.
			who := d.mustRun(t, "whoami")
			assert.Equal(t, res.UserID+"\n", who)

			// Init is idempotent.
			d.mustRun(t, "init")
		})
	}
}

func TestApplesScenario(t *testing.T) {
	d := newTestDirs(t)

	out := d.mustRun(t, "add", "--name", "Apples", "--category", "fruit", "--quantity", "3")
	assert.Contains(t, out, "Added Apples (apples)")

	res := d.listJSON(t)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Apples", res.Items[0].Name)
	assert.Equal(t, types.CategoryFruit, res.Items[0].Category)
	assert.Equal(t, 3, res.Items[0].Quantity)

	d.mustRun(t, "edit", "apples", "--quantity", "5")
	res = d.listJSON(t)
	require.Len(t, res.Items, 1)
	assert.Equal(t, 5, res.Items[0].Quantity)
	assert.Equal(t, "apples", res.Items[0].ItemID)

	d.mustRun(t, "delete", "apples")
	assert.Empty(t, d.listJSON(t).Items)
	d.mustRun(t, "delete", "apples")

	t.Setenv("PANTRY_NETWORK_OFFLINE", "true")
	_, err := d.run(t, "add", "--name", "Bananas", "--category", "Fruit")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrOffline)
	assert.Equal(t, inventory.MsgOffline, err.Error())
	assert.Equal(t, exitSysError, exitCode(err))

	t.Setenv("PANTRY_NETWORK_OFFLINE", "false")
	assert.Empty(t, d.listJSON(t).Items)
}

func TestListPagingAndSearch(t *testing.T) {
	d := newTestDirs(t)
	t.Setenv("PANTRY_PAGE_SIZE", "5")

	for i := range 12 {
		d.mustRun(t, "add", "--name", fmt.Sprintf("Can %02d", i), "--category", "Other")
	}
	d.mustRun(t, "add", "--name", "Apricots", "--category", "Fruit")

	res := d.listJSON(t)
	assert.Len(t, res.Items, 5)
	assert.True(t, res.HasMore)
	assert.NotEmpty(t, res.Cursor)

	res = d.listJSON(t, "--pages", "2")
	assert.Len(t, res.Items, 10)

	res = d.listJSON(t, "--all")
	assert.Len(t, res.Items, 13)
	assert.False(t, res.HasMore)
	assert.Equal(t, "Apricots", res.Items[0].Name)

	out := d.mustRun(t, "--json", "search", "CAN", "1")
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Items, 2)
	assert.Equal(t, "CAN 1", res.Search)

	text := d.mustRun(t, "list", "--search", "apr")
	assert.Contains(t, text, "Apricots")
	assert.Contains(t, text, "CATEGORY")
	assert.NotContains(t, text, "Can 00")

	assert.Contains(t, d.mustRun(t, "list", "--search", "zzz"), "No items found.")
}

func TestEditRenameKeepsID(t *testing.T) {
	d := newTestDirs(t)
	d.mustRun(t, "add", "--name", "Milk", "--category", "Dairy", "--quantity", "2")

	out := d.mustRun(t, "--json", "edit", "milk", "--name", "Oat Milk", "--category", "other")
	var it types.Item
	require.NoError(t, json.Unmarshal([]byte(out), &it))
	assert.Equal(t, "milk", it.ItemID)
	assert.Equal(t, "Oat Milk", it.Name)
	assert.Equal(t, types.CategoryOther, it.Category)
	assert.Equal(t, 2, it.Quantity)
}

func TestExportImport(t *testing.T) {
	d := newTestDirs(t)
	d.mustRun(t, "add", "--name", "Rice", "--category", "Grain", "--quantity", "2")
	d.mustRun(t, "add", "--name", "Cheddar, aged", "--category", "Dairy", "--quantity", "1")

	csvOut := d.mustRun(t, "export", "--output", "-")
	want := "id,name,category,quantity\n" +
		"\"cheddar,-aged\",\"Cheddar, aged\",Dairy,1\n" +
		"rice,Rice,Grain,2\n"
	assert.Equal(t, want, csvOut)

	file := filepath.Join(t.TempDir(), "inventory.csv")
	out := d.mustRun(t, "export", "--output", file)
	assert.Contains(t, out, "Exported 2 items")

	// Import into a fresh pantry.
	other := newTestDirs(t)
	out = other.mustRun(t, "import", file)
	assert.Contains(t, out, "Imported 2 items")
	res := other.listJSON(t)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "cheddar,-aged", res.Items[0].ItemID)
	assert.Equal(t, "Rice", res.Items[1].Name)
}

func TestExportEmpty(t *testing.T) {
	out := newTestDirs(t).mustRun(t, "export", "-o", "-")
	assert.Equal(t, "id,name,category,quantity\n", out)
}

func TestUserErrors(t *testing.T) {
	d := newTestDirs(t)
	d.mustRun(t, "add", "--name", "Apples", "--category", "Fruit")

	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{name: "missing name", args: []string{"add", "--category", "Fruit"}, wantMsg: "--name is required"},
		{name: "category suggestion", args: []string{"add", "--name", "Pears", "--category", "frut"}, wantErr: types.ErrInvalidCategory, wantMsg: "did you mean Fruit?"},
		{name: "unknown category", args: []string{"add", "--name", "Pears", "--category", "spaceship"}, wantErr: types.ErrInvalidCategory, wantMsg: "valid: Fruit"},
		{name: "negative quantity", args: []string{"add", "--name", "Pears", "--category", "Fruit", "--quantity", "-1"}, wantErr: types.ErrInvalidQuantity},
		{name: "edit unknown id", args: []string{"edit", "aples", "--quantity", "2"}, wantErr: inventory.ErrItemNotFound, wantMsg: "did you mean apples?"},
		{name: "edit nothing", args: []string{"edit", "apples"}, wantMsg: "nothing to change"},
		{name: "bad pages", args: []string{"list", "--pages", "0"}, wantMsg: "--pages"},
		{name: "missing import file", args: []string{"import", filepath.Join(t.TempDir(), "absent.csv")}, wantErr: os.ErrNotExist},
		{name: "unknown flag", args: []string{"list", "--bogus"}, wantMsg: "unknown flag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, exitUserError, exitCode(err))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestBadConfig(t *testing.T) {
	d := newTestDirs(t)
	require.NoError(t, os.MkdirAll(d.config, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(d.config, "config.yaml"), []byte("backend: mongo\n"), 0o644))

	_, err := d.run(t, "list")
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitUserError, exitCode(errors.New("plain")))
	assert.Equal(t, exitSysError, exitCode(fmt.Errorf("wrapped: %w", types.ErrStoreUnavailable)))
	assert.Equal(t, exitSysError, exitCode(sysError(errors.New("disk"))))
	assert.Equal(t, exitUserError, exitCode(userError(errors.New("typo"))))
}
