package manifest

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/drive-merger/backend/internal/models"
	"github.com/drive-merger/backend/internal/testutil"
)

func TestLoadMissingManifestDefaults(t *testing.T) {
	store := NewStore(testutil.NewMockStore())

	res, err := store.Load("extract")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if res.Loaded {
		t.Error("Expected Loaded=false for missing manifest")
	}
	if res.Manifest == nil || len(res.Manifest.Processed) != 0 {
		t.Errorf("Expected empty default manifest, got %+v", res.Manifest)
	}
}

func TestLoadMalformedManifestDefaults(t *testing.T) {
	mock := testutil.NewMockStore()
	mock.AddFile("m1", "extract", FileName, "application/json", "ts-1", []byte("not json"))

	res, err := NewStore(mock).Load("extract")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if res.Loaded {
		t.Error("Expected Loaded=false for malformed manifest")
	}
	if len(res.Manifest.Processed) != 0 {
		t.Errorf("Expected empty default manifest, got %+v", res.Manifest)
	}
}

func TestLoadTransportErrorPropagates(t *testing.T) {
	mock := testutil.NewMockStore()
	mock.Err = errors.New("network down")

	if _, err := NewStore(mock).Load("extract"); err == nil {
		t.Error("Expected transport error to propagate")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	mock := testutil.NewMockStore()
	store := NewStore(mock)

	m := models.NewManifest()
	m.Mark(models.FileRecord{ID: "f1", Name: "báo cáo.csv", MimeType: "text/csv", ModifiedTime: "ts-9"})

	if err := store.Save("extract", m); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	res, err := store.Load("extract")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !res.Loaded {
		t.Error("Expected Loaded=true after save")
	}
	entry, ok := res.Manifest.Processed["f1"]
	if !ok {
		t.Fatal("Expected entry for f1")
	}
	if entry.ModifiedTime != "ts-9" || entry.Name != "báo cáo.csv" {
		t.Errorf("Unexpected entry: %+v", entry)
	}
}

func TestSaveKeepsUnicodeUnescaped(t *testing.T) {
	mock := testutil.NewMockStore()
	store := NewStore(mock)

	m := models.NewManifest()
	m.Mark(models.FileRecord{ID: "f1", Name: "quý 1 <dữ liệu>", ModifiedTime: "ts-1"})

	if err := store.Save("extract", m); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw := mock.FileData("extract", FileName)
	if raw == nil {
		t.Fatal("manifest.json was not written")
	}
	if !json.Valid(raw) {
		t.Fatal("Saved manifest is not valid JSON")
	}
	s := string(raw)
	if !strings.Contains(s, "quý 1 <dữ liệu>") {
		t.Errorf("Expected unescaped Unicode and angle brackets, got: %s", s)
	}
	if !strings.Contains(s, "\n  ") {
		t.Error("Expected indented output")
	}
}

func TestManifestSeen(t *testing.T) {
	m := models.NewManifest()
	rec := models.FileRecord{ID: "f1", ModifiedTime: "ts-1"}
	if m.Seen(rec) {
		t.Error("Unknown record must not be seen")
	}

	m.Mark(rec)
	if !m.Seen(rec) {
		t.Error("Marked record with same timestamp must be seen")
	}

	rec.ModifiedTime = "ts-2"
	if m.Seen(rec) {
		t.Error("Changed timestamp must not be seen")
	}
}
