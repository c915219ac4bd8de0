package fetcher

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZIP(t *testing.T, dir string, files map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, "archive.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

func TestExtractZIPSingle(t *testing.T) {
	dir := t.TempDir()
	zipPath := writeZIP(t, dir, map[string]string{"hmdb_metabolites.xml": "<hmdb/>"})

	got, err := ExtractZIPSingle(zipPath, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "hmdb_metabolites.xml"), got)

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, "<hmdb/>", string(data))
}

func TestExtractZIPSingleRejectsMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	zipPath := writeZIP(t, dir, map[string]string{"a.xml": "a", "b.xml": "b"})

	_, err := ExtractZIPSingle(zipPath, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected exactly 1 file")
}

func TestExtractZIPSingleRejectsZipSlip(t *testing.T) {
	dir := t.TempDir()
	zipPath := writeZIP(t, dir, map[string]string{"../escape.xml": "evil"})

	_, err := ExtractZIPSingle(zipPath, filepath.Join(dir, "dest"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zip slip")
}
