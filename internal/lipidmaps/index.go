package lipidmaps

import (
	"io"

	"github.com/cheggaaa/pb/v3"
	"github.com/rotisserie/eris"

	"github.com/metabolome-tools/enrich-cli/internal/model"
)

// Criterion names one identifier type used during matching. The values
// match the LMSD property tags so log output reads against the source data.
type Criterion string

const (
	CriterionInChIKey       Criterion = "INCHI_KEY"
	CriterionPubChem        Criterion = "PUBCHEM_CID"
	CriterionName           Criterion = "NAME"
	CriterionChEBI          Criterion = "CHEBI_ID"
	CriterionFormula        Criterion = "FORMULA"
	CriterionSystematicName Criterion = "SYSTEMATIC_NAME"
	CriterionSMILES         Criterion = "SMILES"
)

// fallbackCriteria lists the weak identifiers consulted when the primary
// InChIKey misses, in the order they are reported.
var fallbackCriteria = []Criterion{
	CriterionPubChem,
	CriterionName,
	CriterionChEBI,
	CriterionFormula,
	CriterionSystematicName,
	CriterionSMILES,
}

// AllCriteria lists every identifier type, primary first, for summaries.
func AllCriteria() []Criterion {
	return append([]Criterion{CriterionInChIKey}, fallbackCriteria...)
}

// Entry is the identifier and classification bundle of one LMSD molecule.
type Entry struct {
	InChIKey       string
	LMID           *string
	Category       *string
	MainClass      *string
	SubClass       *string
	SMILES         *string
	PubChem        *string
	ChEBI          *string
	Name           *string
	Formula        *string
	SystematicName *string
}

// Index holds the reference structure database keyed by InChIKey plus one
// lookup map per weak identifier, each mapping an identifier value to the
// set of InChIKeys that share it. Collisions are expected; the set size is
// what distinguishes a fallback match from an ambiguous one. The index is
// built once per run and read-only afterwards.
type Index struct {
	entries map[string]Entry
	lookups map[Criterion]map[string]map[string]struct{}
	skipped int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	lookups := make(map[Criterion]map[string]map[string]struct{}, len(fallbackCriteria))
	for _, c := range fallbackCriteria {
		lookups[c] = make(map[string]map[string]struct{})
	}
	return &Index{
		entries: make(map[string]Entry),
		lookups: lookups,
	}
}

// BuildIndex stream-parses an SDF reader into a fresh index. Entries without
// an InChIKey cannot be indexed or matched against and are skipped.
func BuildIndex(r io.Reader, showProgress bool) (*Index, error) {
	ix := NewIndex()

	var bar *pb.ProgressBar
	if showProgress {
		bar = pb.Full.Start(0)
		bar.Set(pb.CleanOnFinish, true)
		defer bar.Finish()
	}

	err := ScanSDF(r, func(props map[string]string) {
		ix.Add(props)
		if bar != nil {
			bar.Increment()
		}
	})
	if err != nil {
		return nil, eris.Wrap(err, "lipidmaps: build index")
	}

	return ix, nil
}

// Add inserts one molecule's property bundle into the index.
func (ix *Index) Add(props map[string]string) {
	inchikey := model.Deref(model.OptString(props["INCHI_KEY"]))
	if inchikey == "" {
		ix.skipped++
		return
	}

	entry := Entry{
		InChIKey:       inchikey,
		LMID:           model.OptString(props["LM_ID"]),
		Category:       model.OptString(props["CATEGORY"]),
		MainClass:      model.OptString(props["MAIN_CLASS"]),
		SubClass:       model.OptString(props["SUB_CLASS"]),
		SMILES:         model.OptString(props["SMILES"]),
		PubChem:        model.OptString(props["PUBCHEM_CID"]),
		ChEBI:          model.OptString(props["CHEBI_ID"]),
		Name:           model.OptString(props["NAME"]),
		Formula:        model.OptString(props["FORMULA"]),
		SystematicName: model.OptString(props["SYSTEMATIC_NAME"]),
	}
	ix.entries[inchikey] = entry

	ix.insert(CriterionPubChem, entry.PubChem, inchikey)
	ix.insert(CriterionName, entry.Name, inchikey)
	ix.insert(CriterionChEBI, entry.ChEBI, inchikey)
	ix.insert(CriterionFormula, entry.Formula, inchikey)
	ix.insert(CriterionSystematicName, entry.SystematicName, inchikey)
	ix.insert(CriterionSMILES, entry.SMILES, inchikey)
}

func (ix *Index) insert(c Criterion, value *string, inchikey string) {
	if value == nil {
		return
	}
	byValue := ix.lookups[c]
	set, ok := byValue[*value]
	if !ok {
		set = make(map[string]struct{})
		byValue[*value] = set
	}
	set[inchikey] = struct{}{}
}

// Entry returns the reference bundle for an InChIKey.
func (ix *Index) Entry(inchikey string) (Entry, bool) {
	e, ok := ix.entries[inchikey]
	return e, ok
}

// Keys returns the set of InChIKeys sharing the given identifier value.
func (ix *Index) Keys(c Criterion, value string) map[string]struct{} {
	return ix.lookups[c][value]
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Skipped returns how many SDF records lacked an InChIKey.
func (ix *Index) Skipped() int {
	return ix.skipped
}
