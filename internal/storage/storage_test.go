package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"goldwatch/internal/models"
)

func tempStore(t *testing.T) (*Storage, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.json")
	return New(path), path
}

func TestAddAndList(t *testing.T) {
	s, _ := tempStore(t)

	rec, err := s.Add(models.PurchaseRecord{Date: "2024-01-01", Price: 30000, Weight: 1})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if rec.ID == 0 {
		t.Error("expected assigned ID")
	}

	records := s.List()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Price != 30000 {
		t.Errorf("Price = %v, want 30000", records[0].Price)
	}
}

func TestAddRejectsInvalid(t *testing.T) {
	s, _ := tempStore(t)

	if _, err := s.Add(models.PurchaseRecord{Price: 30000}); err == nil {
		t.Error("expected error for record without date")
	}
	if _, err := s.Add(models.PurchaseRecord{Date: "2024-01-01"}); err == nil {
		t.Error("expected error for record without price")
	}
	if s.Count() != 0 {
		t.Error("no partial record may be created on validation failure")
	}
}

func TestAddAssignsDistinctIDs(t *testing.T) {
	s, _ := tempStore(t)

	seen := make(map[int64]bool)
	for i := 0; i < 50; i++ {
		rec, err := s.Add(models.PurchaseRecord{Date: "2024-01-01", Price: 30000, Weight: 1})
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if seen[rec.ID] {
			t.Fatalf("duplicate ID %d", rec.ID)
		}
		seen[rec.ID] = true
	}
}

func TestUpdate(t *testing.T) {
	s, _ := tempStore(t)

	rec, _ := s.Add(models.PurchaseRecord{Date: "2024-01-01", Price: 30000, Weight: 1})

	updated, err := s.Update(rec.ID, models.PurchaseRecord{Date: "2024-01-02", Price: 31000, Weight: 2, Shop: "Aurora"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.ID != rec.ID {
		t.Errorf("ID changed on update: %d -> %d", rec.ID, updated.ID)
	}
	if updated.Date != "2024-01-02" || updated.Price != 31000 || updated.Weight != 2 {
		t.Errorf("unexpected record after update: %+v", updated)
	}

	if _, err := s.Update(9999, models.PurchaseRecord{Date: "x", Price: 1, Weight: 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAndClear(t *testing.T) {
	s, _ := tempStore(t)

	a, _ := s.Add(models.PurchaseRecord{Date: "2024-01-01", Price: 30000, Weight: 1})
	b, _ := s.Add(models.PurchaseRecord{Date: "2024-01-02", Price: 31000, Weight: 1})

	if err := s.Delete(a.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if s.Count() != 1 {
		t.Fatalf("expected 1 record after delete, got %d", s.Count())
	}
	if _, err := s.Get(b.ID); err != nil {
		t.Errorf("remaining record lost: %v", err)
	}

	if err := s.Delete(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}

	s.Clear()
	if s.Count() != 0 {
		t.Errorf("expected empty collection after Clear, got %d", s.Count())
	}
}

func TestReplaceAll(t *testing.T) {
	s, _ := tempStore(t)

	s.Add(models.PurchaseRecord{Date: "2024-01-01", Price: 30000, Weight: 1})

	replaced := s.ReplaceAll([]models.PurchaseRecord{
		{Date: "2024-05-01", Price: 40000, Weight: 1},
		{Date: "2024-05-02", Price: 40100, Weight: 2},
	})
	if len(replaced) != 2 {
		t.Fatalf("expected 2 records, got %d", len(replaced))
	}
	if replaced[0].ID == 0 || replaced[1].ID == 0 || replaced[0].ID == replaced[1].ID {
		t.Errorf("ReplaceAll must assign distinct IDs: %d, %d", replaced[0].ID, replaced[1].ID)
	}
	if s.Count() != 2 {
		t.Errorf("old collection not replaced, count = %d", s.Count())
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	s, path := tempStore(t)

	s.Add(models.PurchaseRecord{Date: "2024-01-01", Price: 30000, Weight: 1, Shop: "Hua Seng Heng"})
	s.Add(models.PurchaseRecord{Date: "2024-02-01", Price: 31000, Weight: 0.5, Block: 500})

	// Write-through: file exists immediately after the mutation.
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected persistence file after Add: %v", err)
	}

	restored := New(path)
	restored.Load()
	records := restored.List()
	if len(records) != 2 {
		t.Fatalf("expected 2 restored records, got %d", len(records))
	}
	if records[0].Shop != "Hua Seng Heng" || records[1].Block != 500 {
		t.Errorf("restored records mismatch: %+v", records)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope.json"))
	s.Load()
	if s.Count() != 0 {
		t.Errorf("expected empty collection, got %d", s.Count())
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(path)
	s.Load() // must not panic or error out
	if s.Count() != 0 {
		t.Errorf("corrupt file should load as empty collection, got %d records", s.Count())
	}

	// The store stays usable afterwards.
	if _, err := s.Add(models.PurchaseRecord{Date: "2024-01-01", Price: 30000, Weight: 1}); err != nil {
		t.Errorf("Add after corrupt load failed: %v", err)
	}
}

func TestLoadContinuesIDSequence(t *testing.T) {
	s, path := tempStore(t)
	rec, _ := s.Add(models.PurchaseRecord{Date: "2024-01-01", Price: 30000, Weight: 1})

	restored := New(path)
	restored.Load()
	next, _ := restored.Add(models.PurchaseRecord{Date: "2024-01-02", Price: 31000, Weight: 1})
	if next.ID <= rec.ID {
		t.Errorf("restored store reused ID space: %d <= %d", next.ID, rec.ID)
	}
}
