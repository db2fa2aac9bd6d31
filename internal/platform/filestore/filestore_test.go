package filestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileKeepsZeroValue(t *testing.T) {
	doc, err := Open(t.TempDir(), "keys.json")
	require.NoError(t, err)

	pools := map[string][]string{}
	require.NoError(t, doc.Load(&pools))
	assert.Empty(t, pools)
}

func TestSaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	doc, err := Open(dir, "keys.json")
	require.NoError(t, err)

	in := map[string][]string{"us_10": {"K1", "K2"}}
	require.NoError(t, doc.Save(in))

	var out map[string][]string
	require.NoError(t, doc.Load(&out))
	assert.Equal(t, in, out)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLoadEmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.json"), []byte("  \n"), 0o644))

	doc, err := Open(dir, "orders.json")
	require.NoError(t, err)

	var orders []string
	require.NoError(t, doc.Load(&orders))
	assert.Nil(t, orders)
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.json"), []byte("{nope"), 0o644))

	doc, err := Open(dir, "orders.json")
	require.NoError(t, err)

	var orders []string
	err = doc.Load(&orders)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestOpenCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	doc, err := Open(dir, "banners.json")
	require.NoError(t, err)
	require.NoError(t, doc.Save([]int{1}))

	_, err = os.Stat(doc.Path())
	assert.NoError(t, err)
}
