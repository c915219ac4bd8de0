package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// WriteRecords serializes records as an indented JSON array at path,
// creating parent directories as needed.
func WriteRecords(path string, records []Metabolite) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "artifact: create directory for %s", path)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return eris.Wrap(err, "artifact: marshal records")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "artifact: write %s", path)
	}
	return nil
}

// ReadRecords loads a JSON record array written by a previous stage.
func ReadRecords(path string) ([]Metabolite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: read %s", path)
	}

	var records []Metabolite
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrapf(err, "artifact: parse %s", path)
	}
	return records, nil
}

// FindNewest returns the path of the most recently modified file in dir with
// the given extension. A missing upstream artifact is a hard error: every
// stage requires its predecessor's output.
func FindNewest(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrapf(err, "artifact: list %s", dir)
	}

	var newest string
	var newestMod int64
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().UnixNano() > newestMod {
			newest = filepath.Join(dir, e.Name())
			newestMod = info.ModTime().UnixNano()
		}
	}

	if newest == "" {
		return "", eris.Errorf("artifact: no %s file found in %s", ext, dir)
	}
	return newest, nil
}

// StageOutputName derives the output filename for a stage from its input:
// the input's base name with its extension replaced by suffix, placed in
// outDir. Filenames accumulate suffixes so the final artifact encodes the
// provenance of every upstream source.
func StageOutputName(inputPath, outDir, suffix string) string {
	base := filepath.Base(inputPath)
	ext := filepath.Ext(base)
	return filepath.Join(outDir, strings.TrimSuffix(base, ext)+suffix)
}
