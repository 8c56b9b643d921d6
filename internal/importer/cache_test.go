package importer

import (
	"testing"

	"github.com/drive-merger/backend/internal/models"
	"github.com/drive-merger/backend/internal/tabular"
)

func TestFingerprintOrderIndependent(t *testing.T) {
	a := models.FileRecord{ID: "f1", ModifiedTime: "ts-1"}
	b := models.FileRecord{ID: "f2", ModifiedTime: "ts-2"}

	fp1 := Fingerprint("extract", []models.FileRecord{a, b})
	fp2 := Fingerprint("extract", []models.FileRecord{b, a})
	if fp1 != fp2 {
		t.Error("Fingerprint must not depend on listing order")
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	base := []models.FileRecord{{ID: "f1", ModifiedTime: "ts-1"}}
	fp := Fingerprint("extract", base)

	if fp == Fingerprint("other", base) {
		t.Error("Fingerprint must depend on the location id")
	}
	if fp == Fingerprint("extract", []models.FileRecord{{ID: "f1", ModifiedTime: "ts-2"}}) {
		t.Error("Fingerprint must depend on modification timestamps")
	}
	if fp == Fingerprint("extract", nil) {
		t.Error("Fingerprint must depend on the child set")
	}
}

func TestSnapshotCacheLifecycle(t *testing.T) {
	cache := NewSnapshotCache()

	if _, ok := cache.Get("fp-1"); ok {
		t.Error("Empty cache must miss")
	}

	table := tabular.New()
	cache.Put("fp-1", table)

	got, ok := cache.Get("fp-1")
	if !ok || got != table {
		t.Error("Expected hit for matching fingerprint")
	}
	if _, ok := cache.Get("fp-2"); ok {
		t.Error("Mismatched fingerprint must miss")
	}

	cache.Invalidate()
	if _, ok := cache.Get("fp-1"); ok {
		t.Error("Invalidated cache must miss")
	}
}
