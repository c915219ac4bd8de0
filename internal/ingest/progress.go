package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
)

// progressEntry is one checkpoint line in the progress log artifact.
type progressEntry struct {
	Timestamp string `json:"timestamp"`
	Processed int    `json:"processed"`
}

// progressLog accumulates parse checkpoints and rewrites the log file on
// each append, so the artifact is always valid JSON even mid-run.
type progressLog struct {
	path    string
	entries []progressEntry
}

func newProgressLog(path string) *progressLog {
	return &progressLog{path: path}
}

func (p *progressLog) append(processed int) error {
	if p.path == "" {
		return nil
	}

	p.entries = append(p.entries, progressEntry{
		Timestamp: time.Now().Format("15:04:05"),
		Processed: processed,
	})

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return eris.Wrap(err, "progress: create log directory")
	}

	data, err := json.MarshalIndent(p.entries, "", "  ")
	if err != nil {
		return eris.Wrap(err, "progress: marshal log")
	}

	if err := os.WriteFile(p.path, data, 0o644); err != nil {
		return eris.Wrap(err, "progress: write log")
	}
	return nil
}
