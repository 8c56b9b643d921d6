// Package importer implements the incremental import orchestration:
// discover changed source files against the manifest, merge their tabular
// content into the accumulated dataset, and archive the processed inputs.
package importer

import (
	"errors"
	"fmt"
	"os"

	"github.com/drive-merger/backend/internal/dataset"
	"github.com/drive-merger/backend/internal/manifest"
	"github.com/drive-merger/backend/internal/models"
	"github.com/drive-merger/backend/internal/storage"
	"github.com/drive-merger/backend/internal/tabular"
)

// Provenance columns appended to every imported row.
const (
	ColSourceFile   = "__source_file"
	ColSourceID     = "__source_id"
	ColModifiedTime = "__modifiedTime"
)

// ErrMissingLocation is returned when a run is attempted with a blank
// location identifier. This is a configuration error; no I/O happens.
var ErrMissingLocation = errors.New("missing location id")

// Locations names the three folders an import run operates on.
type Locations struct {
	Raw     string `json:"raw"`
	Archive string `json:"archive"`
	Extract string `json:"extract"`
}

// Validate rejects blank identifiers before any I/O is attempted.
func (l Locations) Validate() error {
	switch {
	case l.Raw == "":
		return fmt.Errorf("%w: raw", ErrMissingLocation)
	case l.Archive == "":
		return fmt.Errorf("%w: archive", ErrMissingLocation)
	case l.Extract == "":
		return fmt.Errorf("%w: extract", ErrMissingLocation)
	}
	return nil
}

// Importer composes the storage abstraction, the tabular parsers and the
// manifest/dataset stores into the incremental import flow.
type Importer struct {
	store      storage.Store
	manifests  *manifest.Store
	datasets   *dataset.Store
	scratchDir string
	cache      *SnapshotCache
}

// New creates an importer. scratchDir hosts the per-run staging
// directories for downloads; cache may be nil.
func New(store storage.Store, scratchDir string, cache *SnapshotCache) *Importer {
	return &Importer{
		store:      store,
		manifests:  manifest.NewStore(store),
		datasets:   dataset.NewStore(store),
		scratchDir: scratchDir,
		cache:      cache,
	}
}

// Run executes one synchronous import pass:
//
//  1. load manifest and accumulated dataset from the extract location
//  2. list the raw location, dropping folder entries
//  3. keep only records the manifest has not seen at their current
//     modification timestamp
//  4. for each such record: download, parse, tag with provenance, mark
//     the manifest, and move the file to the archive location
//  5. append the batch to the dataset (column union)
//  6. persist dataset then manifest, unconditionally
//
// The per-record mark/move sequence and the single flush at the end are
// deliberately not transactional; a failure mid-run leaves whatever was
// already applied. Callers must not run two imports against the same
// locations concurrently.
func (imp *Importer) Run(locs Locations) (*models.ImportSummary, error) {
	if err := locs.Validate(); err != nil {
		return nil, err
	}

	mRes, err := imp.manifests.Load(locs.Extract)
	if err != nil {
		return nil, err
	}
	man := mRes.Manifest

	dRes, err := imp.datasets.Load(locs.Extract)
	if err != nil {
		return nil, err
	}
	merged := dRes.Table

	children, err := imp.store.ListChildren(locs.Raw)
	if err != nil {
		return nil, fmt.Errorf("listing raw location: %w", err)
	}

	var toProcess []models.FileRecord
	for _, rec := range children {
		if rec.IsFolder() {
			continue
		}
		if !man.Seen(rec) {
			toProcess = append(toProcess, rec)
		}
	}

	var batch *tabular.Table
	if len(toProcess) > 0 {
		scratch, err := os.MkdirTemp(imp.scratchDir, "import-*")
		if err != nil {
			return nil, fmt.Errorf("creating scratch dir: %w", err)
		}
		defer os.RemoveAll(scratch)

		for _, rec := range toProcess {
			local, err := imp.store.Download(rec, scratch)
			if err != nil {
				return nil, fmt.Errorf("downloading %s: %w", rec.Name, err)
			}

			fragments := tabular.ReadTabular(local)
			for _, frag := range fragments {
				frag.SetConst(ColSourceFile, rec.Name)
				frag.SetConst(ColSourceID, rec.ID)
				frag.SetConst(ColModifiedTime, rec.ModifiedTime)
				if batch == nil {
					batch = tabular.New()
				}
				batch.Append(frag)
			}

			// Marked seen even with zero fragments: unsupported files
			// are not retried on the next run.
			man.Mark(rec)

			if err := imp.store.Move(rec.ID, locs.Raw, locs.Archive); err != nil {
				return nil, fmt.Errorf("archiving %s: %w", rec.Name, err)
			}
		}
	}

	if batch != nil {
		merged.Append(batch)
	}

	// Dataset first, manifest last; both rewritten even on an empty run.
	if err := imp.datasets.Save(locs.Extract, merged); err != nil {
		return nil, err
	}
	if err := imp.manifests.Save(locs.Extract, man); err != nil {
		return nil, err
	}

	if imp.cache != nil {
		imp.cache.Invalidate()
	}

	fmt.Printf("[Import] Run complete: %d processed, %d total rows\n",
		len(toProcess), merged.RowCount())

	return &models.ImportSummary{
		ProcessedNow: len(toProcess),
		TotalRows:    merged.RowCount(),
	}, nil
}

// Dataset loads the current accumulated dataset, going through the
// snapshot cache when its fingerprint still matches the extract location.
func (imp *Importer) Dataset(extractID string) (*tabular.Table, error) {
	if extractID == "" {
		return nil, fmt.Errorf("%w: extract", ErrMissingLocation)
	}

	var fp string
	if imp.cache != nil {
		children, err := imp.store.ListChildren(extractID)
		if err != nil {
			return nil, fmt.Errorf("listing extract location: %w", err)
		}
		fp = Fingerprint(extractID, children)
		if t, ok := imp.cache.Get(fp); ok {
			return t, nil
		}
	}

	res, err := imp.datasets.Load(extractID)
	if err != nil {
		return nil, err
	}
	if imp.cache != nil {
		imp.cache.Put(fp, res.Table)
	}
	return res.Table, nil
}
