package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNew(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "ledger")

	store, err := New(tempDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if store.db == nil {
		t.Error("Store database is nil")
	}

	// Check if database file was created
	dbPath := filepath.Join(tempDir, DBFileName)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNew_InvalidPath(t *testing.T) {
	// A regular file where the directory should be
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := New(filepath.Join(blocker, "sub"))
	if err == nil {
		t.Error("Expected error for invalid path, got nil")
	}
}

func TestStore_Close(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Errorf("Error closing store: %v", err)
	}

	// Test closing already closed store
	if err := store.Close(); err != nil {
		t.Errorf("Error closing already closed store: %v", err)
	}
}

func TestStore_CloseNilDB(t *testing.T) {
	store := &Store{db: nil}
	err := store.Close()
	if err != nil {
		t.Errorf("Expected no error for nil db, got: %v", err)
	}
}

func TestStoreResult_RoundTripInOrder(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	// Stored out of order on purpose
	for _, offset := range []int{2, 0, 1} {
		rec := ResultRecord{
			RunID:       "run",
			SampleID:    "patient_07.bed",
			Timestamp:   base.Add(time.Duration(offset) * time.Hour),
			Probability: 0.1 * float64(offset+1),
			Prediction:  "Normal",
		}
		if err := store.StoreResult(rec); err != nil {
			t.Fatalf("Failed to store result: %v", err)
		}
	}

	got, err := store.GetResults("patient_07.bed", base, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("Failed to get results: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].Timestamp.Before(got[i].Timestamp) {
			t.Errorf("Results not ordered by time at %d", i)
		}
	}
	if got[0].Probability != 0.1 {
		t.Errorf("Expected first probability 0.1, got %f", got[0].Probability)
	}
}

func TestGetResults_RangeIsInclusive(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		rec := ResultRecord{SampleID: "s1", Timestamp: base.Add(time.Duration(i) * time.Minute)}
		if err := store.StoreResult(rec); err != nil {
			t.Fatalf("Failed to store result: %v", err)
		}
	}

	got, err := store.GetResults("s1", base.Add(time.Minute), base.Add(3*time.Minute))
	if err != nil {
		t.Fatalf("Failed to get results: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Expected 3 results in inclusive range, got %d", len(got))
	}

	got, err = store.GetResults("s1", time.Time{}, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("Failed to get results: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("Expected zero start to include everything, got %d", len(got))
	}
}

func TestGetResults_SamplesDoNotBleed(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	// "s1" is a prefix of "s1_b"
	for _, id := range []string{"s1", "s1_b", "s1_b"} {
		if err := store.StoreResult(ResultRecord{SampleID: id, Timestamp: now}); err != nil {
			t.Fatalf("Failed to store result: %v", err)
		}
		now = now.Add(time.Second)
	}

	got, err := store.GetResults("s1", time.Time{}, now)
	if err != nil {
		t.Fatalf("Failed to get results: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Expected 1 result for s1, got %d", len(got))
	}

	got, err = store.GetResults("unknown", time.Time{}, now)
	if err != nil {
		t.Fatalf("Failed to get results: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no results for unknown sample, got %d", len(got))
	}
}

func TestGetAllResults(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	recs := []ResultRecord{
		{SampleID: "b", Timestamp: base.Add(1 * time.Second)},
		{SampleID: "a", Timestamp: base.Add(3 * time.Second)},
		{SampleID: "a", Timestamp: base.Add(2 * time.Second)},
	}
	for _, r := range recs {
		if err := store.StoreResult(r); err != nil {
			t.Fatalf("Failed to store result: %v", err)
		}
	}

	got, err := store.GetAllResults(base, base.Add(time.Minute))
	if err != nil {
		t.Fatalf("Failed to get all results: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(got))
	}
	order := []string{got[0].SampleID, got[1].SampleID, got[2].SampleID}
	if order[0] != "b" || order[1] != "a" || order[2] != "a" {
		t.Errorf("Expected time order [b a a], got %v", order)
	}

	samples, err := store.Samples()
	if err != nil {
		t.Fatalf("Failed to list samples: %v", err)
	}
	if len(samples) != 2 || samples[0] != "a" || samples[1] != "b" {
		t.Errorf("Expected samples [a b], got %v", samples)
	}
}

func TestStoreResult_Validation(t *testing.T) {
	store := newTestStore(t)

	if err := store.StoreResult(ResultRecord{}); err == nil {
		t.Error("Expected error for result without sample id")
	}

	// A zero timestamp is filled in
	if err := store.StoreResult(ResultRecord{SampleID: "s"}); err != nil {
		t.Fatalf("Failed to store result: %v", err)
	}
	got, err := store.GetResults("s", time.Time{}, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("Failed to get results: %v", err)
	}
	if len(got) != 1 || got[0].Timestamp.IsZero() {
		t.Errorf("Expected one timestamped result, got %+v", got)
	}
}
