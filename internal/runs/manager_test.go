package runs

import (
	"errors"
	"testing"
	"time"

	"github.com/drive-merger/backend/internal/importer"
	"github.com/drive-merger/backend/internal/models"
	"github.com/drive-merger/backend/internal/testutil"
)

var testLocs = importer.Locations{Raw: "raw", Archive: "archive", Extract: "extract"}

// gatedStore blocks listing until released, to hold a run open while the
// test observes it.
type gatedStore struct {
	*testutil.MockStore
	gate chan struct{}
}

func (g *gatedStore) ListChildren(locationID string) ([]models.FileRecord, error) {
	<-g.gate
	return g.MockStore.ListChildren(locationID)
}

func waitForRun(t *testing.T, m *Manager, id string) *models.ImportRun {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		run, ok := m.Get(id)
		if !ok {
			t.Fatalf("Run %s disappeared", id)
		}
		if run.Status != models.RunStatusRunning {
			return run
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Run %s did not finish in time", id)
	return nil
}

func TestStartCompletesRun(t *testing.T) {
	mock := testutil.NewMockStore()
	mock.AddFile("f1", "raw", "q1.csv", "text/csv", "ts-1", []byte("a\n1\n"))

	m := NewManager(importer.New(mock, t.TempDir(), nil))
	run, err := m.Start(testLocs)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if run.Status != models.RunStatusRunning {
		t.Errorf("New run status = %q, want running", run.Status)
	}

	done := waitForRun(t, m, run.ID)
	if done.Status != models.RunStatusComplete {
		t.Fatalf("Run status = %q (error %q), want complete", done.Status, done.Error)
	}
	if done.Summary == nil || done.Summary.ProcessedNow != 1 {
		t.Errorf("Unexpected summary: %+v", done.Summary)
	}
	if done.FinishedAt == nil {
		t.Error("FinishedAt not set on completion")
	}
}

func TestStartRejectsConcurrentRun(t *testing.T) {
	gated := &gatedStore{MockStore: testutil.NewMockStore(), gate: make(chan struct{})}
	m := NewManager(importer.New(gated, t.TempDir(), nil))

	run, err := m.Start(testLocs)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, err := m.Start(testLocs); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("Expected ErrRunInProgress, got %v", err)
	}

	close(gated.gate)
	waitForRun(t, m, run.ID)

	// A finished run frees the slot.
	if _, err := m.Start(testLocs); err != nil {
		t.Errorf("Start after completion failed: %v", err)
	}
}

func TestStartRejectsBlankLocations(t *testing.T) {
	m := NewManager(importer.New(testutil.NewMockStore(), t.TempDir(), nil))

	_, err := m.Start(importer.Locations{Raw: "", Archive: "a", Extract: "e"})
	if !errors.Is(err, importer.ErrMissingLocation) {
		t.Errorf("Expected ErrMissingLocation, got %v", err)
	}
	if len(m.List()) != 0 {
		t.Error("Rejected start must not leave a run record")
	}
}

func TestRunErrorRecorded(t *testing.T) {
	mock := testutil.NewMockStore()
	mock.Err = errors.New("backend unavailable")

	m := NewManager(importer.New(mock, t.TempDir(), nil))
	run, err := m.Start(testLocs)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	done := waitForRun(t, m, run.ID)
	if done.Status != models.RunStatusError {
		t.Errorf("Run status = %q, want error", done.Status)
	}
	if done.Error == "" {
		t.Error("Expected error message on failed run")
	}

	// A failed run also frees the slot.
	mock.Err = nil
	if _, err := m.Start(testLocs); err != nil {
		t.Errorf("Start after failure failed: %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	mock := testutil.NewMockStore()
	m := NewManager(importer.New(mock, t.TempDir(), nil))

	first, err := m.Start(testLocs)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitForRun(t, m, first.ID)

	time.Sleep(2 * time.Millisecond)

	second, err := m.Start(testLocs)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitForRun(t, m, second.ID)

	list := m.List()
	if len(list) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(list))
	}
	if list[0].ID != second.ID {
		t.Error("Expected newest run first")
	}
}

func TestCleanupOldRuns(t *testing.T) {
	mock := testutil.NewMockStore()
	m := NewManager(importer.New(mock, t.TempDir(), nil))

	run, err := m.Start(testLocs)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitForRun(t, m, run.ID)

	m.mu.Lock()
	m.runs[run.ID].StartedAt = time.Now().Add(-48 * time.Hour)
	m.mu.Unlock()

	m.CleanupOldRuns(RunMaxAge)
	if _, ok := m.Get(run.ID); ok {
		t.Error("Expected old finished run to be dropped")
	}
}
