package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metabolome-tools/enrich-cli/internal/lipidmaps"
	"github.com/metabolome-tools/enrich-cli/internal/model"
)

var lipidmapsCmd = &cobra.Command{
	Use:   "lipidmaps",
	Short: "Cross-reference records against the LMSD structure dump",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunLog(cmd.Context(), "lipidmaps", runLipidMaps)
	},
}

func init() {
	rootCmd.AddCommand(lipidmapsCmd)
}

func runLipidMaps(ctx context.Context) (int64, map[string]any, error) {
	log := zap.L().With(zap.String("component", "lipidmaps"))

	input, err := model.FindNewest(cfg.StageOutputDir("npclassify"), ".json")
	if err != nil {
		return 0, nil, err
	}
	sdfPath, err := model.FindNewest(cfg.LipidMapsDir(), ".sdf")
	if err != nil {
		return 0, nil, err
	}
	lmVersion := strings.TrimSuffix(filepath.Base(sdfPath), "_structures.sdf")

	records, err := model.ReadRecords(input)
	if err != nil {
		return 0, nil, err
	}
	log.Info("building LMSD index",
		zap.String("sdf", sdfPath),
		zap.String("version", lmVersion),
	)

	sdf, err := os.Open(sdfPath)
	if err != nil {
		return 0, nil, eris.Wrapf(err, "lipidmaps: open %s", sdfPath)
	}
	index, err := lipidmaps.BuildIndex(sdf, cfg.Log.Format == "console")
	sdf.Close() //nolint:errcheck
	if err != nil {
		return 0, nil, err
	}
	log.Info("index ready",
		zap.Int("entries", index.Len()),
		zap.Int("skipped", index.Skipped()),
	)

	logPath := filepath.Join(cfg.StageLogDir("lipidmaps"), "matches.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return 0, nil, eris.Wrapf(err, "lipidmaps: create log directory")
	}
	logFile, err := os.Create(logPath)
	if err != nil {
		return 0, nil, eris.Wrapf(err, "lipidmaps: create %s", logPath)
	}
	defer logFile.Close() //nolint:errcheck

	matcher := lipidmaps.NewMatcher(index, cfg.LipidMaps.MinCriteria)
	stats := lipidmaps.Enrich(records, matcher, logFile)

	output := model.StageOutputName(input, cfg.StageOutputDir("lipidmaps"), "_lm_"+lmVersion+".json")
	if err := model.WriteRecords(output, records); err != nil {
		return 0, nil, err
	}

	log.Info("cross-reference stage complete", zap.String("output", output))
	for _, line := range stats.FormatSummary() {
		log.Info(line)
	}

	summary := map[string]any{
		"input":      filepath.Base(input),
		"output":     filepath.Base(output),
		"lm_version": lmVersion,
		"matches":    stats.Matches,
		"misses":     stats.Misses,
		"ambiguous":  stats.Ambiguous,
	}
	return int64(len(records)), summary, nil
}
