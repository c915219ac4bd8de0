package lipidmaps

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/metabolome-tools/enrich-cli/internal/model"
)

// Summary aggregates one matcher run. Ambiguous outcomes are a distinct
// error category, separate from misses, so false-negative risk can be
// audited on its own.
type Summary struct {
	Total            int
	Matches          int
	Misses           int
	Ambiguous        int
	CriteriaCounts   map[Criterion]int
	FallbackVariants map[string]int
}

// Enrich matches every record against the index, mutating records in place:
// a match fills LMID and LMTaxonomy, anything else sets them absent. Records
// are never dropped. Per-record outcomes are written to logw when non-nil.
func Enrich(records []model.Metabolite, matcher *Matcher, logw io.Writer) Summary {
	log := zap.L().With(zap.String("component", "lipidmaps"))

	summary := Summary{
		Total:            len(records),
		CriteriaCounts:   make(map[Criterion]int),
		FallbackVariants: make(map[string]int),
	}

	for i := range records {
		rec := &records[i]
		outcome := matcher.Match(*rec)

		switch outcome.Kind {
		case MatchPrimary:
			summary.Matches++
			summary.CriteriaCounts[CriterionInChIKey]++
			summary.FallbackVariants[string(CriterionInChIKey)]++
			applyMatch(rec, outcome.Entry)
			writeLine(logw, "MATCH (%s): %s", outcome.Reason, rec.Accession)

		case MatchFallback:
			summary.Matches++
			for _, c := range outcome.Criteria {
				summary.CriteriaCounts[c]++
			}
			summary.FallbackVariants[outcome.Reason]++
			applyMatch(rec, outcome.Entry)
			writeLine(logw, "MATCH (%s): %s", outcome.Reason, rec.Accession)

		case MatchAmbiguous:
			summary.Ambiguous++
			summary.Misses++
			clearMatch(rec)
			writeLine(logw, "ERROR: Ambiguous fallback match for %s using %s",
				rec.Accession, joinCriteria(outcome.Criteria))
			log.Warn("ambiguous fallback match",
				zap.String("accession", rec.Accession),
				zap.Int("candidates", outcome.Candidates),
			)

		default:
			summary.Misses++
			clearMatch(rec)
			writeLine(logw, "NO MATCH: %s", rec.Accession)
		}
	}

	log.Info("matching complete",
		zap.String("total", humanize.Comma(int64(summary.Total))),
		zap.String("matches", humanize.Comma(int64(summary.Matches))),
		zap.String("misses", humanize.Comma(int64(summary.Misses))),
		zap.Int("ambiguous_errors", summary.Ambiguous),
	)

	return summary
}

func applyMatch(rec *model.Metabolite, entry *Entry) {
	rec.LMID = entry.LMID
	rec.LMTaxonomy = model.LMTaxonomy{
		Category:  entry.Category,
		MainClass: entry.MainClass,
		SubClass:  entry.SubClass,
	}
}

func clearMatch(rec *model.Metabolite) {
	rec.LMID = nil
	rec.LMTaxonomy = model.LMTaxonomy{}
}

func writeLine(w io.Writer, format string, args ...any) {
	if w == nil {
		return
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// FormatSummary renders the aggregate run report: totals, per-identifier
// contribution counts, and the frequency of each fallback criteria
// combination observed.
func (s Summary) FormatSummary() []string {
	lines := []string{
		fmt.Sprintf("Total entries: %s", humanize.Comma(int64(s.Total))),
		fmt.Sprintf("Matches:       %s", humanize.Comma(int64(s.Matches))),
		fmt.Sprintf("No matches:    %s", humanize.Comma(int64(s.Misses))),
		fmt.Sprintf("Errors (ambiguous fallback): %d", s.Ambiguous),
		"Match breakdown:",
	}
	for _, c := range AllCriteria() {
		lines = append(lines, fmt.Sprintf("  %s: %d", c, s.CriteriaCounts[c]))
	}

	lines = append(lines, "Fallback variant breakdown:")
	variants := make([]string, 0, len(s.FallbackVariants))
	for v := range s.FallbackVariants {
		variants = append(variants, v)
	}
	sort.Strings(variants)
	for _, v := range variants {
		lines = append(lines, fmt.Sprintf("  %d x %s", s.FallbackVariants[v], v))
	}

	return lines
}
