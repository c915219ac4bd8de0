package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes into dir for the duration of the test, restoring the
// previous working directory on cleanup (t.Chdir requires go1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 5, cfg.ClassyFire.MaxAttempts)
	assert.Equal(t, 20, cfg.NPClassifier.Workers)
	assert.Equal(t, 2, cfg.LipidMaps.MinCriteria)
	assert.Equal(t, "csv", cfg.Flatten.Format)
	assert.Equal(t, 1000, cfg.Ingest.ProgressEvery)
	assert.Contains(t, cfg.Ingest.BackupPoints, 100000)
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ENRICH_DATA_DIR", "/var/lib/enrich")
	t.Setenv("ENRICH_NPCLASSIFIER_WORKERS", "5")
	t.Setenv("ENRICH_FLATTEN_FORMAT", "xlsx")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/enrich", cfg.DataDir)
	assert.Equal(t, 5, cfg.NPClassifier.Workers)
	assert.Equal(t, "xlsx", cfg.Flatten.Format)
}

func TestPathHelpers(t *testing.T) {
	cfg := &Config{DataDir: "/srv/enrich"}

	assert.Equal(t, filepath.Join("/srv/enrich", "download", "HMDB"), cfg.HMDBDir())
	assert.Equal(t, filepath.Join("/srv/enrich", "download", "LIPIDMAPS"), cfg.LipidMapsDir())
	assert.Equal(t,
		filepath.Join("/srv/enrich", "enrichment", "lipidmaps", "output"),
		cfg.StageOutputDir("lipidmaps"))
	assert.Equal(t, filepath.Join("/srv/enrich", "runs.db"), cfg.RunLogPath())

	cfg.RunLog.Path = "/tmp/runs.db"
	assert.Equal(t, "/tmp/runs.db", cfg.RunLogPath())
}
