package model

import "strings"

// Metabolite is one compound record as it flows through the pipeline.
// Every optional field is a pointer (or nil slice) so that "not classified"
// serializes as an explicit JSON null rather than an empty string or list.
// Enrichment stages fill their own group in place and never remove records.
type Metabolite struct {
	Accession              string  `json:"accession"`
	LMID                   *string `json:"lm_id"`
	Status                 *string `json:"status"`
	Name                   *string `json:"name"`
	Description            *string `json:"description"`
	ChemicalFormula        *string `json:"chemical_formula"`
	AverageMolecularWeight *string `json:"average_molecular_weight"`
	IUPACName              *string `json:"iupac_name"`
	SMILES                 *string `json:"smiles"`
	InChIKey               *string `json:"inchikey"`
	PubChemCompoundID      *string `json:"pubchem_compound_id"`
	ChEBIID                *string `json:"chebi_id"`
	WikipediaID            *string `json:"wikipedia_id"`

	Taxonomy             Taxonomy             `json:"taxonomy"`
	NPTaxonomy           NPTaxonomy           `json:"np_taxonomy"`
	LMTaxonomy           LMTaxonomy           `json:"lm_taxonomy"`
	BiologicalProperties BiologicalProperties `json:"biological_properties"`
}

// Taxonomy is the 5-level hierarchical chemical classification supplied by
// the HMDB document or, when missing there, by ClassyFire.
type Taxonomy struct {
	Kingdom      *string `json:"kingdom"`
	SuperClass   *string `json:"super_class"`
	Class        *string `json:"class"`
	SubClass     *string `json:"sub_class"`
	DirectParent *string `json:"direct_parent"`
}

// Empty reports whether every level of the taxonomy is absent.
func (t Taxonomy) Empty() bool {
	return t.Kingdom == nil && t.SuperClass == nil && t.Class == nil &&
		t.SubClass == nil && t.DirectParent == nil
}

// NPTaxonomy is the 3-level natural-product classification from NPClassifier.
// It is a disjoint scheme from Taxonomy, not a refinement of it.
type NPTaxonomy struct {
	Pathway    *string `json:"pathway"`
	SuperClass *string `json:"super_class"`
	Class      *string `json:"class"`
}

// LMTaxonomy is the 3-level LIPID MAPS classification attached by the
// structural cross-reference matcher.
type LMTaxonomy struct {
	Category  *string `json:"category"`
	MainClass *string `json:"main_class"`
	SubClass  *string `json:"sub_class"`
}

// BiologicalProperties groups the three location lists. Each list is either
// nil (absent) or non-empty; an empty non-nil list is never stored.
type BiologicalProperties struct {
	CellularLocations    []string `json:"cellular_locations"`
	BiospecimenLocations []string `json:"biospecimen_locations"`
	TissueLocations      []string `json:"tissue_locations"`
}

// OptString trims s and returns a pointer to it, or nil if the result is blank.
func OptString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// NonEmpty trims every element of vals, drops blanks, and returns the result,
// or nil when nothing survives.
func NonEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Deref returns the string value of p, or "" when p is nil.
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
