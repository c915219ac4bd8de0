package runlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestStartCompleteList(t *testing.T) {
	ctx := context.Background()
	l := openTestLog(t)

	id, err := l.Start(ctx, "classyfire")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	summary := map[string]any{"output": "2021-11-17_hmdb_metabolites_classy.json"}
	require.NoError(t, l.Complete(ctx, id, 217920, summary))

	entries, err := l.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, id, e.ID)
	assert.Equal(t, "classyfire", e.Stage)
	assert.Equal(t, "complete", e.Status)
	assert.Equal(t, int64(217920), e.Records)
	require.NotNil(t, e.CompletedAt)
	assert.Equal(t, "2021-11-17_hmdb_metabolites_classy.json", e.Summary["output"])
	assert.Empty(t, e.Error)
}

func TestFail(t *testing.T) {
	ctx := context.Background()
	l := openTestLog(t)

	id, err := l.Start(ctx, "collect")
	require.NoError(t, err)
	require.NoError(t, l.Fail(ctx, id, "collect: HMDB version: pattern not found"))

	entries, err := l.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "failed", entries[0].Status)
	assert.Contains(t, entries[0].Error, "pattern not found")
	require.NotNil(t, entries[0].CompletedAt)
}

func TestListRunning(t *testing.T) {
	ctx := context.Background()
	l := openTestLog(t)

	_, err := l.Start(ctx, "npclassify")
	require.NoError(t, err)

	entries, err := l.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "running", entries[0].Status)
	assert.Nil(t, entries[0].CompletedAt)
	assert.Nil(t, entries[0].Summary)
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "runs.db")
	l, err := Open(path)
	require.NoError(t, err)
	defer l.Close()

	_, err = l.Start(context.Background(), "flatten")
	assert.NoError(t, err)
}
