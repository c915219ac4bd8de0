package npclassifier

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/metabolome-tools/enrich-cli/internal/model"
)

// Classifier issues one classification call. *Client satisfies it; tests
// substitute deterministic fakes.
type Classifier interface {
	Classify(ctx context.Context, smiles string) (model.NPTaxonomy, error)
}

// Result is the outcome for a single record: the enriched record, its
// original position, a log line when something went wrong, and the bare
// failure message used for the frequency breakdown.
type Result struct {
	Index      int
	Record     model.Metabolite
	LogLine    string
	FailureMsg string
	OK         bool
}

// Stats aggregates a stage run. Failures counts distinct failure-message
// strings so an operator can assess data quality without reading every line.
type Stats struct {
	Succeeded int
	Failed    int
	Failures  map[string]int
}

// Run classifies records across a bounded worker pool. Each worker writes
// exactly one slot of a pre-sized result array indexed by original position,
// so the output order always matches the input order regardless of
// completion order. The returned log lines follow input order as well.
// All counters are owned by this function, never by the workers.
func Run(ctx context.Context, classifier Classifier, records []model.Metabolite, workers int) ([]model.Metabolite, []string, Stats, error) {
	if workers <= 0 {
		workers = 20
	}

	log := zap.L().With(zap.String("component", "npclassifier"))
	log.Info("starting parallel classification",
		zap.Int("records", len(records)),
		zap.Int("workers", workers),
	)

	results := make([]Result, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			results[i] = classifyRecord(gctx, classifier, i, rec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, Stats{}, err
	}

	out := make([]model.Metabolite, len(records))
	var logLines []string
	stats := Stats{Failures: make(map[string]int)}
	for _, res := range results {
		out[res.Index] = res.Record
		if res.LogLine != "" {
			logLines = append(logLines, res.LogLine)
		}
		if res.OK {
			stats.Succeeded++
		} else {
			stats.Failed++
			stats.Failures[res.FailureMsg]++
		}
	}

	log.Info("classification complete",
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed),
	)

	return out, logLines, stats, nil
}

// classifyRecord enriches one record. It is a pure function of its inputs
// apart from the network call, so it is safe to run from any worker.
func classifyRecord(ctx context.Context, classifier Classifier, index int, rec model.Metabolite) Result {
	accession := rec.Accession
	if accession == "" {
		accession = fmt.Sprintf("INDEX_%d", index)
	}

	smiles := strings.TrimSpace(model.Deref(rec.SMILES))
	if smiles == "" {
		rec.NPTaxonomy = model.NPTaxonomy{}
		msg := "No valid SMILES (null or empty)"
		return Result{
			Index:      index,
			Record:     rec,
			LogLine:    logLine(accession, msg),
			FailureMsg: msg,
		}
	}

	tax, err := classifier.Classify(ctx, smiles)
	if err != nil {
		rec.NPTaxonomy = model.NPTaxonomy{}
		msg := failureMessage(err)
		return Result{
			Index:      index,
			Record:     rec,
			LogLine:    logLine(accession, msg),
			FailureMsg: msg,
		}
	}

	rec.NPTaxonomy = tax
	return Result{Index: index, Record: rec, OK: true}
}

// failureMessage reduces an error chain to its leading message so identical
// causes collapse into one breakdown bucket.
func failureMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ":"); i > 0 && strings.HasPrefix(msg, "npclassifier") {
		msg = strings.TrimSpace(msg[i+1:])
	}
	return msg
}

func logLine(accession, msg string) string {
	return fmt.Sprintf("[%s] %s: %s", time.Now().Format("2006-01-02 15:04:05"), accession, msg)
}

// FormatBreakdown renders the failure-message frequency count, most common
// first, for the end-of-run summary.
func FormatBreakdown(failures map[string]int) []string {
	type kv struct {
		msg   string
		count int
	}
	sorted := make([]kv, 0, len(failures))
	for msg, count := range failures {
		sorted = append(sorted, kv{msg, count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].msg < sorted[j].msg
	})

	lines := make([]string, len(sorted))
	for i, e := range sorted {
		lines[i] = fmt.Sprintf("%s: %d", e.msg, e.count)
	}
	return lines
}
