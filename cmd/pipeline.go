package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run every enrichment stage in order",
	Long: `Run collect, classyfire, npclassify, lipidmaps and flatten back to
back. Each stage reads the newest artifact its predecessor produced, so a
failed stage can be fixed and re-run individually before resuming.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stages := []struct {
			name string
			fn   stageFunc
		}{
			{"collect", runCollect},
			{"classyfire", runClassyFire},
			{"npclassify", runNPClassify},
			{"lipidmaps", runLipidMaps},
			{"flatten", runFlatten},
		}
		for _, stage := range stages {
			zap.L().Info("starting stage", zap.String("stage", stage.name))
			if err := withRunLog(cmd.Context(), stage.name, stage.fn); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pipelineCmd)
}
