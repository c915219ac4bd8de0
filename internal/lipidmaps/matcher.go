package lipidmaps

import (
	"fmt"
	"strings"

	"github.com/metabolome-tools/enrich-cli/internal/model"
)

// MatchKind classifies a match outcome.
type MatchKind int

const (
	// MatchNone means neither the primary key nor enough weak identifiers hit.
	MatchNone MatchKind = iota
	// MatchPrimary is a direct InChIKey hit, the only outcome treated as certain.
	MatchPrimary
	// MatchFallback is an agreement of at least minCriteria weak identifiers
	// on a single candidate.
	MatchFallback
	// MatchAmbiguous means enough weak identifiers hit but they point at more
	// than one candidate. Deliberately unresolved and reported as an error.
	MatchAmbiguous
)

// Outcome is the result of matching one compound record.
type Outcome struct {
	Kind       MatchKind
	Entry      *Entry      // set for MatchPrimary and MatchFallback
	Criteria   []Criterion // weak identifiers that contributed
	Candidates int         // distinct candidate keys seen by the fallback
	Reason     string
}

// Matcher matches compound records against a reference index.
type Matcher struct {
	index       *Index
	minCriteria int
}

// NewMatcher creates a Matcher. minCriteria is the number of distinct weak
// identifiers that must agree before a fallback match is accepted; values
// below 1 fall back to the default of 2. Requiring agreement across two
// independent identifier types keeps false-positive merges rare: any single
// weak identifier (a common name, a formula) collides across many entries.
func NewMatcher(index *Index, minCriteria int) *Matcher {
	if minCriteria < 1 {
		minCriteria = 2
	}
	return &Matcher{index: index, minCriteria: minCriteria}
}

// Match resolves one record in strict priority order: an InChIKey present in
// the index matches immediately and short-circuits everything else;
// otherwise the weak identifiers are pooled and the fallback policy decides.
func (m *Matcher) Match(rec model.Metabolite) Outcome {
	if key := model.Deref(rec.InChIKey); key != "" {
		if entry, ok := m.index.Entry(key); ok {
			return Outcome{
				Kind:   MatchPrimary,
				Entry:  &entry,
				Reason: "matched by INCHI_KEY",
			}
		}
	}

	candidates := make(map[string]struct{})
	var criteria []Criterion
	for _, c := range fallbackCriteria {
		value := recordValue(rec, c)
		if value == "" {
			continue
		}
		keys := m.index.Keys(c, value)
		if len(keys) == 0 {
			continue
		}
		for k := range keys {
			candidates[k] = struct{}{}
		}
		criteria = append(criteria, c)
	}

	switch {
	case len(criteria) >= m.minCriteria && len(candidates) == 1:
		var entry Entry
		for k := range candidates {
			entry, _ = m.index.Entry(k)
		}
		return Outcome{
			Kind:       MatchFallback,
			Entry:      &entry,
			Criteria:   criteria,
			Candidates: 1,
			Reason:     "fallback match by: " + joinCriteria(criteria),
		}

	case len(criteria) >= m.minCriteria && len(candidates) > 1:
		return Outcome{
			Kind:       MatchAmbiguous,
			Criteria:   criteria,
			Candidates: len(candidates),
			Reason:     fmt.Sprintf("ambiguous fallback (%d candidates) by: %s", len(candidates), joinCriteria(criteria)),
		}

	default:
		return Outcome{
			Kind:       MatchNone,
			Candidates: len(candidates),
			Reason:     "no match",
		}
	}
}

// recordValue extracts the record field corresponding to a weak identifier.
func recordValue(rec model.Metabolite, c Criterion) string {
	switch c {
	case CriterionPubChem:
		return model.Deref(rec.PubChemCompoundID)
	case CriterionName:
		return model.Deref(rec.Name)
	case CriterionChEBI:
		return model.Deref(rec.ChEBIID)
	case CriterionFormula:
		return model.Deref(rec.ChemicalFormula)
	case CriterionSystematicName:
		return model.Deref(rec.IUPACName)
	case CriterionSMILES:
		return model.Deref(rec.SMILES)
	default:
		return ""
	}
}

func joinCriteria(criteria []Criterion) string {
	names := make([]string, len(criteria))
	for i, c := range criteria {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
