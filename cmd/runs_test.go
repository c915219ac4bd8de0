package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/metabolome-tools/enrich-cli/internal/runlog"
)

func TestFormatRuns(t *testing.T) {
	started := time.Date(2026, 8, 26, 9, 30, 0, 0, time.UTC)
	completed := started.Add(42 * time.Second)

	entries := []runlog.Entry{
		{
			ID:          "0b4f9c2a-1111-2222-3333-444455556666",
			Stage:       "classyfire",
			Status:      "complete",
			StartedAt:   started,
			CompletedAt: &completed,
			Records:     217920,
		},
		{
			ID:        "7e1d3f5b-aaaa-bbbb-cccc-ddddeeeeffff",
			Stage:     "collect",
			Status:    "failed",
			StartedAt: started,
			Error:     "collect: HMDB version: pattern not found and this message runs long",
		},
	}

	var buf strings.Builder
	formatRuns(&buf, entries)
	out := buf.String()

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "0b4f9c2a")
	assert.NotContains(t, out, "0b4f9c2a-1111")
	assert.Contains(t, out, "classyfire")
	assert.Contains(t, out, "217920")
	assert.Contains(t, out, "42s")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "...", "long errors are truncated")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "0b4f9c2a", truncateID("0b4f9c2a-1111-2222"))
	assert.Equal(t, "short", truncateID("short"))
}
