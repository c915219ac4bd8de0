// Package flatten converts enriched records into one flat tabular row per
// compound and writes the final columnar artifact. No matching logic lives
// here; it is purely structural.
package flatten

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/metabolome-tools/enrich-cli/internal/model"
)

// listSeparator joins list-valued cells in the flat output.
const listSeparator = "; "

// Header returns the flat column names. Nested groups expand to prefixed
// columns; lm_id sits immediately after accession for readability.
func Header() []string {
	return []string{
		"accession",
		"lm_id",
		"status",
		"name",
		"description",
		"chemical_formula",
		"average_molecular_weight",
		"iupac_name",
		"smiles",
		"inchikey",
		"pubchem_compound_id",
		"chebi_id",
		"wikipedia_id",
		"taxonomy_kingdom",
		"taxonomy_super_class",
		"taxonomy_class",
		"taxonomy_sub_class",
		"taxonomy_direct_parent",
		"np_taxonomy_pathway",
		"np_taxonomy_super_class",
		"np_taxonomy_class",
		"lm_taxonomy_category",
		"lm_taxonomy_main_class",
		"lm_taxonomy_sub_class",
		"biological_properties_cellular_locations",
		"biological_properties_biospecimen_locations",
		"biological_properties_tissue_locations",
	}
}

// Row flattens one record. Absent values render as empty cells; location
// lists are joined, preserving their order.
func Row(rec model.Metabolite) []string {
	return []string{
		rec.Accession,
		model.Deref(rec.LMID),
		model.Deref(rec.Status),
		model.Deref(rec.Name),
		model.Deref(rec.Description),
		model.Deref(rec.ChemicalFormula),
		model.Deref(rec.AverageMolecularWeight),
		model.Deref(rec.IUPACName),
		model.Deref(rec.SMILES),
		model.Deref(rec.InChIKey),
		model.Deref(rec.PubChemCompoundID),
		model.Deref(rec.ChEBIID),
		model.Deref(rec.WikipediaID),
		model.Deref(rec.Taxonomy.Kingdom),
		model.Deref(rec.Taxonomy.SuperClass),
		model.Deref(rec.Taxonomy.Class),
		model.Deref(rec.Taxonomy.SubClass),
		model.Deref(rec.Taxonomy.DirectParent),
		model.Deref(rec.NPTaxonomy.Pathway),
		model.Deref(rec.NPTaxonomy.SuperClass),
		model.Deref(rec.NPTaxonomy.Class),
		model.Deref(rec.LMTaxonomy.Category),
		model.Deref(rec.LMTaxonomy.MainClass),
		model.Deref(rec.LMTaxonomy.SubClass),
		strings.Join(rec.BiologicalProperties.CellularLocations, listSeparator),
		strings.Join(rec.BiologicalProperties.BiospecimenLocations, listSeparator),
		strings.Join(rec.BiologicalProperties.TissueLocations, listSeparator),
	}
}

// WriteCSV writes the flat table to path as CSV.
func WriteCSV(path string, records []model.Metabolite) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "flatten: create output directory")
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "flatten: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(Header()); err != nil {
		return eris.Wrap(err, "flatten: write header")
	}
	for _, rec := range records {
		if err := w.Write(Row(rec)); err != nil {
			return eris.Wrapf(err, "flatten: write row %s", rec.Accession)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "flatten: flush csv")
	}

	return nil
}

// WriteXLSX writes the flat table to path as a single-sheet workbook.
func WriteXLSX(path string, records []model.Metabolite) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "flatten: create output directory")
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("metabolites")
	if err != nil {
		return eris.Wrap(err, "flatten: add sheet")
	}

	addRow(sheet, Header())
	for _, rec := range records {
		addRow(sheet, Row(rec))
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "flatten: save %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}
