package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanFindsPayloads(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "nested"), 0755))

	for _, name := range []string{"b.json", "a.JSON", "nested/c.json", "skip.eml", "nested/notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, filepath.FromSlash(name)), []byte("{}"), 0644))
	}

	files, err := NewScanner(root).Scan()

	require.NoError(t, err)
	assert.Equal(t, []string{"a.JSON", "b.json", "nested/c.json"}, files)
}

func TestScanMissingRoot(t *testing.T) {
	_, err := NewScanner(filepath.Join(t.TempDir(), "missing")).Scan()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to scan directory")
}

func TestResolve(t *testing.T) {
	s := NewScanner("/data/payloads")

	assert.Equal(t, filepath.Join("/data/payloads", "nested", "c.json"), s.Resolve("nested/c.json"))
	assert.Equal(t, "/data/payloads", s.GetRootPath())
}
