package indexer

import (
	"reflect"
	"testing"
)

func walk(r BlockRange) []uint64 {
	got := []uint64{r.From}
	for n, ok := r.Next(r.From); ok; n, ok = r.Next(n) {
		got = append(got, n)
	}
	return got
}

func TestBlockRangeWalk(t *testing.T) {
	r, err := NewBlockRange(100, 105, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := walk(r)
	want := []uint64{100, 102, 104}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("blocks mismatch: %v != %v", got, want)
	}
	if r.Count() != uint64(len(want)) {
		t.Fatalf("count mismatch: %d != %d", r.Count(), len(want))
	}
}

func TestBlockRangeSingle(t *testing.T) {
	r, err := NewBlockRange(5, 5, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := walk(r)
	want := []uint64{5}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("blocks mismatch: %v != %v", got, want)
	}
}

func TestBlockRangeNearMax(t *testing.T) {
	r, err := NewBlockRange(^uint64(0)-1, ^uint64(0), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := r.Next(r.From); ok {
		t.Fatalf("expected range to end without overflow")
	}
}

func TestBlockRangeInvalid(t *testing.T) {
	if _, err := NewBlockRange(10, 9, 1); err == nil {
		t.Fatalf("expected error for invalid range")
	}
	if _, err := NewBlockRange(1, 10, 0); err == nil {
		t.Fatalf("expected error for zero step")
	}
}
