// Package ingest parses the HMDB metabolite XML dump into compound records,
// normalizing every missing or blank field to an explicit absent value and
// delegating to ClassyFire when the document carries no taxonomy.
package ingest

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/metabolome-tools/enrich-cli/internal/fetcher"
	"github.com/metabolome-tools/enrich-cli/internal/model"
)

// noneSentinel marks InChIKeys HMDB records as explicitly unknown.
const noneSentinel = "NONE"

// TaxonomyClassifier fills a taxonomy for records that lack one in the
// source document. classyfire.Client satisfies it.
type TaxonomyClassifier interface {
	Classify(ctx context.Context, inchikey string) (*model.Taxonomy, error)
}

// Options configures checkpointing and progress reporting.
type Options struct {
	// ProgressEvery controls how often a progress entry is appended to the
	// progress log. Zero disables the log.
	ProgressEvery int

	// BackupPoints are record counts at which a full-dataset snapshot is
	// written to BackupDir, so a long parse can be inspected without
	// re-running from scratch.
	BackupPoints []int

	// ProgressLogPath is the JSON progress log artifact. Empty disables it.
	ProgressLogPath string

	// BackupDir receives checkpoint snapshots. Empty disables backups.
	BackupDir string

	// ShowProgress renders a terminal progress counter.
	ShowProgress bool
}

// xmlMetabolite mirrors one <metabolite> element of the HMDB dump.
type xmlMetabolite struct {
	Accession              string      `xml:"accession"`
	Status                 string      `xml:"status"`
	Name                   string      `xml:"name"`
	Description            string      `xml:"description"`
	ChemicalFormula        string      `xml:"chemical_formula"`
	AverageMolecularWeight string      `xml:"average_molecular_weight"`
	IUPACName              string      `xml:"iupac_name"`
	SMILES                 string      `xml:"smiles"`
	InChIKey               string      `xml:"inchikey"`
	PubChemCompoundID      string      `xml:"pubchem_compound_id"`
	ChEBIID                string      `xml:"chebi_id"`
	WikipediaID            string      `xml:"wikipedia_id"`
	Taxonomy               xmlTaxonomy `xml:"taxonomy"`
	BioProperties          xmlBioProps `xml:"biological_properties"`
}

type xmlTaxonomy struct {
	Kingdom      string `xml:"kingdom"`
	SuperClass   string `xml:"super_class"`
	Class        string `xml:"class"`
	SubClass     string `xml:"sub_class"`
	DirectParent string `xml:"direct_parent"`
}

type xmlBioProps struct {
	CellularLocations    []string `xml:"cellular_locations>cellular"`
	BiospecimenLocations []string `xml:"biospecimen_locations>biospecimen"`
	TissueLocations      []string `xml:"tissue_locations>tissue"`
}

// Parse streams metabolite entries from r, preserving document order.
// A malformed entry yields a record with absent fields and is logged; a
// document-level parse failure aborts with an error. classifier may be nil
// to disable inline taxonomy enrichment.
func Parse(ctx context.Context, r io.Reader, classifier TaxonomyClassifier, opts Options) ([]model.Metabolite, error) {
	log := zap.L().With(zap.String("component", "ingest"))

	entries, errCh := fetcher.StreamXML[xmlMetabolite](ctx, r, "metabolite")

	var records []model.Metabolite
	progress := newProgressLog(opts.ProgressLogPath)

	var bar *pb.ProgressBar
	if opts.ShowProgress {
		bar = pb.Full.Start(0)
		bar.Set(pb.CleanOnFinish, true)
		defer bar.Finish()
	}

	for entry := range entries {
		rec := toRecord(ctx, entry, classifier, log)
		records = append(records, rec)
		if bar != nil {
			bar.Increment()
		}

		n := len(records)
		if opts.ProgressEvery > 0 && n%opts.ProgressEvery == 0 {
			if err := progress.append(n); err != nil {
				log.Warn("failed to write progress log", zap.Error(err))
			}
			log.Info("parse progress", zap.Int("processed", n))
		}

		if opts.BackupDir != "" && isBackupPoint(n, opts.BackupPoints) {
			backupPath := filepath.Join(opts.BackupDir, fmt.Sprintf("metabolites_%d.json", n))
			if err := model.WriteRecords(backupPath, records); err != nil {
				log.Warn("failed to write checkpoint", zap.Int("records", n), zap.Error(err))
			} else {
				log.Info("checkpoint saved", zap.Int("records", n), zap.String("path", backupPath))
			}
		}
	}

	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "ingest: parse metabolite document")
	}

	return records, nil
}

func isBackupPoint(n int, points []int) bool {
	for _, p := range points {
		if n == p {
			return true
		}
	}
	return false
}

// toRecord converts one XML entry to a record, normalizing blanks to absent
// values. When the document taxonomy is entirely blank and the InChIKey is
// usable, the classifier is consulted synchronously; its failure leaves the
// taxonomy absent and never aborts the parse.
func toRecord(ctx context.Context, entry xmlMetabolite, classifier TaxonomyClassifier, log *zap.Logger) model.Metabolite {
	rec := model.Metabolite{
		Accession:              strings.TrimSpace(entry.Accession),
		Status:                 model.OptString(entry.Status),
		Name:                   model.OptString(entry.Name),
		Description:            model.OptString(entry.Description),
		ChemicalFormula:        model.OptString(entry.ChemicalFormula),
		AverageMolecularWeight: model.OptString(entry.AverageMolecularWeight),
		IUPACName:              model.OptString(entry.IUPACName),
		SMILES:                 model.OptString(entry.SMILES),
		InChIKey:               model.OptString(entry.InChIKey),
		PubChemCompoundID:      model.OptString(entry.PubChemCompoundID),
		ChEBIID:                model.OptString(entry.ChEBIID),
		WikipediaID:            model.OptString(entry.WikipediaID),
		Taxonomy: model.Taxonomy{
			Kingdom:      model.OptString(entry.Taxonomy.Kingdom),
			SuperClass:   model.OptString(entry.Taxonomy.SuperClass),
			Class:        model.OptString(entry.Taxonomy.Class),
			SubClass:     model.OptString(entry.Taxonomy.SubClass),
			DirectParent: model.OptString(entry.Taxonomy.DirectParent),
		},
		BiologicalProperties: model.BiologicalProperties{
			CellularLocations:    model.NonEmpty(entry.BioProperties.CellularLocations),
			BiospecimenLocations: model.NonEmpty(entry.BioProperties.BiospecimenLocations),
			TissueLocations:      model.NonEmpty(entry.BioProperties.TissueLocations),
		},
	}

	if rec.Accession == "" {
		log.Warn("entry without accession, emitting with absent fields")
		rec.Accession = "UNKNOWN"
	}

	if classifier != nil && rec.Taxonomy.Empty() {
		key := model.Deref(rec.InChIKey)
		if key != "" && key != noneSentinel {
			tax, err := classifier.Classify(ctx, key)
			if err != nil {
				log.Warn("taxonomy enrichment failed",
					zap.String("accession", rec.Accession),
					zap.Error(err),
				)
			} else if tax != nil {
				rec.Taxonomy = *tax
			}
		}
	}

	return rec
}
