package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/metabolome-tools/enrich-cli/internal/runlog"
)

// stageFunc runs one pipeline stage and reports how many records it
// processed plus a summary for the run log.
type stageFunc func(ctx context.Context) (int64, map[string]any, error)

// withRunLog wraps a stage with run-log bookkeeping. Run-log failures are
// logged but never fail the stage; the stage's own error always wins.
func withRunLog(ctx context.Context, stage string, fn stageFunc) error {
	log := zap.L().With(zap.String("stage", stage))

	rl, err := runlog.Open(cfg.RunLogPath())
	if err != nil {
		log.Warn("run log unavailable", zap.Error(err))
		_, _, err := fn(ctx)
		return err
	}
	defer rl.Close() //nolint:errcheck

	runID, err := rl.Start(ctx, stage)
	if err != nil {
		log.Warn("failed to record run start", zap.Error(err))
	}

	records, summary, stageErr := fn(ctx)

	if runID != "" {
		if stageErr != nil {
			if logErr := rl.Fail(ctx, runID, stageErr.Error()); logErr != nil {
				log.Warn("failed to record run failure", zap.Error(logErr))
			}
		} else if logErr := rl.Complete(ctx, runID, records, summary); logErr != nil {
			log.Warn("failed to record run completion", zap.Error(logErr))
		}
	}

	return stageErr
}
