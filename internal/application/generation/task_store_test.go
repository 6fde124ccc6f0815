package generation

import (
	"testing"
	"time"
)

func TestTaskStoreMarkGeneratedClearsFailure(t *testing.T) {
	s := NewTaskStore(time.Hour)

	s.MarkFailed("t1", 2, "boom")
	s.MarkGenerated("t1", 2, "2.png")

	generated, failed := s.Snapshot("t1")
	if generated[2] != "2.png" {
		t.Fatalf("generated = %v, want 2.png at index 2", generated)
	}
	if _, ok := failed[2]; ok {
		t.Fatal("failure must be cleared after success")
	}
}

func TestTaskStoreMarkFailedIgnoredAfterSuccess(t *testing.T) {
	s := NewTaskStore(time.Hour)

	s.MarkGenerated("t1", 0, "0.png")
	s.MarkFailed("t1", 0, "late failure")

	generated, failed := s.Snapshot("t1")
	if generated[0] != "0.png" {
		t.Fatalf("generated = %v, want success preserved", generated)
	}
	if len(failed) != 0 {
		t.Fatalf("failed = %v, want empty", failed)
	}
}

func TestTaskStoreSnapshotIsolation(t *testing.T) {
	s := NewTaskStore(time.Hour)
	s.MarkGenerated("t1", 0, "0.png")

	generated, _ := s.Snapshot("t1")
	generated[0] = "mutated"

	again, _ := s.Snapshot("t1")
	if again[0] != "0.png" {
		t.Fatal("snapshot mutation leaked into store")
	}
}

func TestTaskStoreCover(t *testing.T) {
	s := NewTaskStore(time.Hour)

	if _, ok := s.Cover("t1"); ok {
		t.Fatal("cover must miss before set")
	}
	s.SetCover("t1", []byte("ref"))
	ref, ok := s.Cover("t1")
	if !ok || string(ref) != "ref" {
		t.Fatalf("cover = %q ok=%v, want ref", ref, ok)
	}
}

func TestTaskStoreSweep(t *testing.T) {
	s := NewTaskStore(10 * time.Millisecond)

	s.MarkGenerated("old", 0, "0.png")
	time.Sleep(30 * time.Millisecond)
	s.MarkGenerated("fresh", 0, "0.png")

	if removed := s.Sweep(); removed != 1 {
		t.Fatalf("sweep removed %d, want 1", removed)
	}
	if generated, _ := s.Snapshot("old"); len(generated) != 0 {
		t.Fatal("expired task must be evicted")
	}
	if generated, _ := s.Snapshot("fresh"); generated[0] != "0.png" {
		t.Fatal("fresh task must survive sweep")
	}
}
