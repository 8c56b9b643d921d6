// Package runs tracks import run invocations and serializes them: the
// importer itself is single-threaded and the shared locations have no
// locking, so at most one run may be active at a time.
package runs

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/drive-merger/backend/internal/importer"
	"github.com/drive-merger/backend/internal/models"
)

// RunMaxAge is how long finished runs are kept in the history.
const RunMaxAge = 24 * time.Hour

// MaxRuns bounds the history size regardless of age.
const MaxRuns = 100

// ErrRunInProgress is returned when a run is started while another is
// still active.
var ErrRunInProgress = errors.New("an import run is already in progress")

// Manager owns the run history and the one-active-run invariant.
type Manager struct {
	mu     sync.RWMutex
	runs   map[string]*models.ImportRun
	active bool

	imp *importer.Importer
}

// NewManager creates a run manager around an importer.
func NewManager(imp *importer.Importer) *Manager {
	return &Manager{
		runs: make(map[string]*models.ImportRun),
		imp:  imp,
	}
}

// Start launches an import run in the background. It fails fast with
// ErrRunInProgress while another run is active; configuration errors
// (blank locations) are also rejected here, before a run record exists.
func (m *Manager) Start(locs importer.Locations) (*models.ImportRun, error) {
	if err := locs.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.active {
		m.mu.Unlock()
		return nil, ErrRunInProgress
	}
	m.active = true

	run := models.NewImportRun(uuid.New().String())
	m.runs[run.ID] = run
	m.trimLocked()
	m.mu.Unlock()

	go m.execute(run.ID, locs)

	return run, nil
}

func (m *Manager) execute(runID string, locs importer.Locations) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("[Run %s] PANIC recovered: %v\n", shortID(runID), r)
			m.finish(runID, nil, fmt.Errorf("import panicked: %v", r))
		}
	}()

	fmt.Printf("[Run %s] Starting import raw=%s archive=%s extract=%s\n",
		shortID(runID), locs.Raw, locs.Archive, locs.Extract)

	summary, err := m.imp.Run(locs)
	m.finish(runID, summary, err)
}

func (m *Manager) finish(runID string, summary *models.ImportSummary, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.active = false

	run, ok := m.runs[runID]
	if !ok {
		return
	}

	now := time.Now()
	run.FinishedAt = &now
	if err != nil {
		run.Status = models.RunStatusError
		run.Error = err.Error()
		fmt.Printf("[Run %s] ERROR: %v\n", shortID(runID), err)
		return
	}
	run.Status = models.RunStatusComplete
	run.Summary = summary
}

// Get returns one run by ID.
func (m *Manager) Get(id string) (*models.ImportRun, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	return run, ok
}

// List returns all known runs, newest first.
func (m *Manager) List() []*models.ImportRun {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.ImportRun, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// CleanupOldRuns drops finished runs older than maxAge.
func (m *Manager) CleanupOldRuns(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for id, run := range m.runs {
		if run.Status == models.RunStatusRunning {
			continue
		}
		if run.StartedAt.Before(cutoff) {
			delete(m.runs, id)
		}
	}
}

// trimLocked drops the oldest finished runs when over MaxRuns. Callers
// hold the write lock.
func (m *Manager) trimLocked() {
	if len(m.runs) <= MaxRuns {
		return
	}

	finished := make([]*models.ImportRun, 0, len(m.runs))
	for _, run := range m.runs {
		if run.Status != models.RunStatusRunning {
			finished = append(finished, run)
		}
	}
	sort.Slice(finished, func(i, j int) bool {
		return finished[i].StartedAt.Before(finished[j].StartedAt)
	})

	excess := len(m.runs) - MaxRuns
	for i := 0; i < excess && i < len(finished); i++ {
		delete(m.runs, finished[i].ID)
	}
}

// shortID truncates an ID for log tags.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
