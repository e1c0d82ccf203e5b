package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"aprScope/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "apr.jsonl")
	s := NewJsonlStorage(path)

	fees := 12.5
	first := []model.APRRecord{{
		PairAddress: "0xb4e16d0168e52d35cacd2c6185b44281ec28c9dc",
		Window:      model.Window24h,
		Point:       model.APRDataPoint{Timestamp: "2024-01-01T00:00:00Z", APR: 10, WindowHours: 24, FeesUSD: &fees},
		FetchedAt:   "2024-01-02T00:00:00Z",
	}}
	second := []model.APRRecord{{
		PairAddress: "0xb4e16d0168e52d35cacd2c6185b44281ec28c9dc",
		Window:      model.Window1h,
		Point:       model.APRDataPoint{Timestamp: "2024-01-01T01:00:00Z", APR: 11, WindowHours: 1},
		FetchedAt:   "2024-01-02T00:00:00Z",
	}}

	if err := s.PutAPRBatch(context.Background(), first); err != nil {
		t.Fatalf("put first: %v", err)
	}
	if err := s.PutAPRBatch(context.Background(), nil); err != nil {
		t.Fatalf("put empty: %v", err)
	}
	if err := s.PutAPRBatch(context.Background(), second); err != nil {
		t.Fatalf("put second: %v", err)
	}

	got, err := ReadAPRRecords(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Point.FeesUSD == nil || *got[0].Point.FeesUSD != fees {
		t.Fatalf("fees not preserved: %+v", got[0].Point)
	}
	if got[1].Window != model.Window1h {
		t.Fatalf("window mismatch: %d", got[1].Window)
	}
	want := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	if !got[1].ObservedAt.Equal(want) {
		t.Fatalf("observed at = %v, want %v", got[1].ObservedAt, want)
	}
}
