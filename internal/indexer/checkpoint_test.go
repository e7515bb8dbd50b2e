package indexer

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestGapStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "gaps.json")
	store := NewGapStore(path, nil)

	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("expected empty state, ok=%v err=%v", ok, err)
	}

	if err := store.Save([]uint64{7, 9}); err != nil {
		t.Fatalf("save: %v", err)
	}
	st, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(st.Remaining, []uint64{7, 9}) {
		t.Fatalf("remaining mismatch: %v", st.Remaining)
	}
	if st.UpdatedAt == "" {
		t.Fatalf("expected updated_at")
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := store.Load(); ok {
		t.Fatalf("expected state removed")
	}
}

func TestGapStoreDisabled(t *testing.T) {
	store := NewGapStore("", nil)
	if err := store.Save([]uint64{1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("expected disabled store, ok=%v err=%v", ok, err)
	}
}

func TestGapStoreStampsWithClock(t *testing.T) {
	clk := newFakeClock()
	store := NewGapStore(filepath.Join(t.TempDir(), "gaps.json"), clk)
	if err := store.Save([]uint64{3}); err != nil {
		t.Fatalf("save: %v", err)
	}
	st, _, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := time.Unix(1_700_000_000, 0).UTC().Format(time.RFC3339Nano)
	if st.UpdatedAt != want {
		t.Fatalf("updated_at = %s, want %s", st.UpdatedAt, want)
	}
}
