package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metabolome-tools/enrich-cli/internal/fetcher"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Download and extract the HMDB and LIPID MAPS dumps",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunLog(cmd.Context(), "collect", runCollect)
	},
}

func init() {
	rootCmd.AddCommand(collectCmd)
}

func runCollect(ctx context.Context) (int64, map[string]any, error) {
	log := zap.L().With(zap.String("component", "collect"))

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:      time.Duration(cfg.Collect.TimeoutSecs) * time.Second,
		MaxRetries:   cfg.Collect.MaxRetries,
		RateLimiters: fetcher.DefaultRateLimiters(),
	})

	hmdbVersion, err := fetcher.FetchVersion(ctx, f, cfg.Collect.HMDBDownloadsURL, cfg.Collect.HMDBVersionPattern, cfg.Collect.MaxRetries)
	if err != nil {
		return 0, nil, eris.Wrap(err, "collect: HMDB version")
	}
	lmVersion, err := fetcher.FetchVersion(ctx, f, cfg.Collect.LMDownloadsURL, cfg.Collect.LMVersionPattern, cfg.Collect.MaxRetries)
	if err != nil {
		return 0, nil, eris.Wrap(err, "collect: LIPID MAPS version")
	}

	hmdbPath, hmdbBytes, err := collectArchive(ctx, f, cfg.Collect.HMDBArchiveURL, cfg.HMDBDir(), hmdbVersion, "hmdb_metabolites.xml")
	if err != nil {
		return 0, nil, err
	}
	log.Info("HMDB dump ready",
		zap.String("path", hmdbPath),
		zap.String("size", humanize.Bytes(uint64(hmdbBytes))),
	)

	lmPath, lmBytes, err := collectArchive(ctx, f, cfg.Collect.LMArchiveURL, cfg.LipidMapsDir(), lmVersion, "structures.sdf")
	if err != nil {
		return 0, nil, err
	}
	log.Info("LMSD dump ready",
		zap.String("path", lmPath),
		zap.String("size", humanize.Bytes(uint64(lmBytes))),
	)

	summary := map[string]any{
		"hmdb_version": hmdbVersion,
		"lm_version":   lmVersion,
		"hmdb_file":    filepath.Base(hmdbPath),
		"lm_file":      filepath.Base(lmPath),
	}
	return 2, summary, nil
}

// collectArchive downloads one zip, extracts its single payload, and renames
// it to <version>_<baseName> so every downstream artifact inherits the
// source version.
func collectArchive(ctx context.Context, f fetcher.Fetcher, url, destDir, version, baseName string) (string, int64, error) {
	zipPath := filepath.Join(destDir, baseName+".zip")
	n, err := f.DownloadToFile(ctx, url, zipPath)
	if err != nil {
		return "", 0, eris.Wrapf(err, "collect: download %s", url)
	}

	extracted, err := fetcher.ExtractZIPSingle(zipPath, destDir)
	if err != nil {
		return "", 0, err
	}

	target := filepath.Join(destDir, version+"_"+baseName)
	if err := os.Rename(extracted, target); err != nil {
		return "", 0, eris.Wrapf(err, "collect: rename %s", extracted)
	}

	return target, n, nil
}
