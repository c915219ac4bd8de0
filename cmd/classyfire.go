package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metabolome-tools/enrich-cli/internal/classyfire"
	"github.com/metabolome-tools/enrich-cli/internal/ingest"
	"github.com/metabolome-tools/enrich-cli/internal/model"
)

var classyfireCmd = &cobra.Command{
	Use:   "classyfire",
	Short: "Parse the HMDB dump and fill taxonomy gaps from ClassyFire",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunLog(cmd.Context(), "classyfire", runClassyFire)
	},
}

func init() {
	rootCmd.AddCommand(classyfireCmd)
}

func runClassyFire(ctx context.Context) (int64, map[string]any, error) {
	log := zap.L().With(zap.String("component", "classyfire"))

	input, err := model.FindNewest(cfg.HMDBDir(), ".xml")
	if err != nil {
		return 0, nil, err
	}
	log.Info("parsing HMDB dump", zap.String("input", input))

	in, err := os.Open(input)
	if err != nil {
		return 0, nil, eris.Wrapf(err, "classyfire: open %s", input)
	}
	defer in.Close() //nolint:errcheck

	records, err := ingest.Parse(ctx, in, classyfire.New(cfg.ClassyFire), ingest.Options{
		ProgressEvery:   cfg.Ingest.ProgressEvery,
		BackupPoints:    cfg.Ingest.BackupPoints,
		ProgressLogPath: filepath.Join(cfg.StageLogDir("classyfire"), "progress.json"),
		BackupDir:       cfg.BackupDir(),
		ShowProgress:    cfg.Log.Format == "console",
	})
	if err != nil {
		return 0, nil, err
	}

	output := model.StageOutputName(input, cfg.StageOutputDir("classyfire"), "_classy.json")
	if err := model.WriteRecords(output, records); err != nil {
		return 0, nil, err
	}
	log.Info("taxonomy stage complete",
		zap.Int("records", len(records)),
		zap.String("output", output),
	)

	summary := map[string]any{
		"input":  filepath.Base(input),
		"output": filepath.Base(output),
	}
	return int64(len(records)), summary, nil
}
