package main

import (
	"context"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metabolome-tools/enrich-cli/internal/flatten"
	"github.com/metabolome-tools/enrich-cli/internal/model"
)

var flattenCmd = &cobra.Command{
	Use:   "flatten",
	Short: "Flatten the enriched records into a columnar artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunLog(cmd.Context(), "flatten", runFlatten)
	},
}

func init() {
	rootCmd.AddCommand(flattenCmd)
}

func runFlatten(ctx context.Context) (int64, map[string]any, error) {
	log := zap.L().With(zap.String("component", "flatten"))

	input, err := model.FindNewest(cfg.StageOutputDir("lipidmaps"), ".json")
	if err != nil {
		return 0, nil, err
	}
	records, err := model.ReadRecords(input)
	if err != nil {
		return 0, nil, err
	}

	var output string
	switch cfg.Flatten.Format {
	case "csv":
		output = model.StageOutputName(input, cfg.FinalDir(), ".csv")
		err = flatten.WriteCSV(output, records)
	case "xlsx":
		output = model.StageOutputName(input, cfg.FinalDir(), ".xlsx")
		err = flatten.WriteXLSX(output, records)
	default:
		return 0, nil, eris.Errorf("flatten: unknown format %q", cfg.Flatten.Format)
	}
	if err != nil {
		return 0, nil, err
	}

	log.Info("flatten stage complete",
		zap.Int("records", len(records)),
		zap.String("output", output),
	)

	summary := map[string]any{
		"input":  filepath.Base(input),
		"output": filepath.Base(output),
		"format": cfg.Flatten.Format,
	}
	return int64(len(records)), summary, nil
}
