package main

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeIngester struct {
	mu       sync.Mutex
	fail     map[int64]bool
	seen     []int64
	inFlight int
	peak     int
}

func (f *fakeIngester) IngestProperty(ctx context.Context, id int64) error {
	f.mu.Lock()
	f.seen = append(f.seen, id)
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()
	if f.fail[id] {
		return errors.New("upstream down")
	}
	return nil
}

func TestIngestAll_CountsFailures(t *testing.T) {
	f := &fakeIngester{fail: map[int64]bool{2: true, 5: true}}
	failed := ingestAll(context.Background(), f, []int64{1, 2, 3, 4, 5, 6}, 2)
	if failed != 2 {
		t.Fatalf("failed: %d", failed)
	}
	if len(f.seen) != 6 {
		t.Fatalf("every id should be attempted: %v", f.seen)
	}
	if f.peak > 2 {
		t.Fatalf("worker limit exceeded: %d", f.peak)
	}
}

func TestIngestAll_CancelledCountsSkipped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &fakeIngester{}
	if failed := ingestAll(ctx, f, []int64{1, 2, 3}, 1); failed != 3 {
		t.Fatalf("skipped ids must count as failed: %d", failed)
	}
	if len(f.seen) != 0 {
		t.Fatalf("nothing should run after cancellation: %v", f.seen)
	}
}

func TestIngestAll_Empty(t *testing.T) {
	if failed := ingestAll(context.Background(), &fakeIngester{}, nil, 0); failed != 0 {
		t.Fatalf("failed: %d", failed)
	}
}
