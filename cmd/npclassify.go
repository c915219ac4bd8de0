package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metabolome-tools/enrich-cli/internal/model"
	"github.com/metabolome-tools/enrich-cli/internal/npclassifier"
)

var npclassifyCmd = &cobra.Command{
	Use:   "npclassify",
	Short: "Classify natural products via NPClassifier",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunLog(cmd.Context(), "npclassify", runNPClassify)
	},
}

func init() {
	rootCmd.AddCommand(npclassifyCmd)
}

func runNPClassify(ctx context.Context) (int64, map[string]any, error) {
	log := zap.L().With(zap.String("component", "npclassify"))

	input, err := model.FindNewest(cfg.StageOutputDir("classyfire"), ".json")
	if err != nil {
		return 0, nil, err
	}
	records, err := model.ReadRecords(input)
	if err != nil {
		return 0, nil, err
	}
	log.Info("classifying natural products",
		zap.String("input", input),
		zap.Int("records", len(records)),
		zap.Int("workers", cfg.NPClassifier.Workers),
	)

	client := npclassifier.New(cfg.NPClassifier)
	enriched, lines, stats, err := npclassifier.Run(ctx, client, records, cfg.NPClassifier.Workers)
	if err != nil {
		return 0, nil, err
	}

	logPath := filepath.Join(cfg.StageLogDir("npclassify"), "npclassifier.log")
	if err := writeLines(logPath, lines); err != nil {
		return 0, nil, err
	}

	output := model.StageOutputName(input, cfg.StageOutputDir("npclassify"), "_np.json")
	if err := model.WriteRecords(output, enriched); err != nil {
		return 0, nil, err
	}

	log.Info("natural product stage complete",
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed),
		zap.String("output", output),
	)
	for _, line := range npclassifier.FormatBreakdown(stats.Failures) {
		log.Info(line)
	}

	summary := map[string]any{
		"input":     filepath.Base(input),
		"output":    filepath.Base(output),
		"succeeded": stats.Succeeded,
		"failed":    stats.Failed,
	}
	return int64(len(enriched)), summary, nil
}

func writeLines(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "create log directory %s", filepath.Dir(path))
	}
	data := strings.Join(lines, "\n")
	if len(lines) > 0 {
		data += "\n"
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return eris.Wrapf(err, "write %s", path)
	}
	return nil
}
