package app_test

import (
	"context"
	"errors"
	"testing"

	"pension_site/internal/app"
	"pension_site/internal/domain"
)

type fakeClient struct {
	payload map[string]any
	err     error
}

func (c *fakeClient) GetContent(ctx context.Context, id int64) (map[string]any, error) {
	return c.payload, c.err
}

func TestIngestProperty_StoresAndInvalidates(t *testing.T) {
	repo := &fakeRepo{}
	cache := &fakeCache{store: map[string]any{"content:7": record(7, `{}`)}}
	client := &fakeClient{payload: map[string]any{
		"data": map[string]any{
			"property": map[string]any{"id": float64(7), "name": "솔숲 펜션", "gpensionId": float64(55)},
			"rooms":    []any{},
		},
	}}

	if err := app.NewIngestionService(client, repo, cache).IngestProperty(context.Background(), 7); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	rec, ok := repo.records[7]
	if !ok || rec.Name == nil || *rec.Name != "솔숲 펜션" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	d, err := domain.ParseDocument(rec.RawJSON)
	if err != nil {
		t.Fatalf("stored document: %v", err)
	}
	if d.BookingID() != "55" {
		t.Fatalf("booking id not promoted: %q", d.BookingID())
	}
	if _, ok := cache.store["content:7"]; ok {
		t.Fatalf("cached document should be invalidated")
	}
}

func TestIngestProperty_Misses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", domain.ErrNotFound, 404},
		{"forbidden", errors.Join(errors.New("remote said no"), domain.ErrAccessDenied), 403},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeRepo{}
			cache := &fakeCache{}
			err := app.NewIngestionService(&fakeClient{err: tc.err}, repo, cache).IngestProperty(context.Background(), 9)
			if err != nil {
				t.Fatalf("miss should not fail ingestion: %v", err)
			}
			if repo.misses[9] != tc.status {
				t.Fatalf("miss status: %d", repo.misses[9])
			}
			if len(cache.dels) != 1 || cache.dels[0] != "content:9" {
				t.Fatalf("expected invalidation, got %v", cache.dels)
			}
		})
	}
}

func TestIngestProperty_RejectsForeignOrBrokenPayload(t *testing.T) {
	repo := &fakeRepo{}
	client := &fakeClient{payload: map[string]any{"property": map[string]any{"id": float64(8)}}}
	if err := app.NewIngestionService(client, repo, nil).IngestProperty(context.Background(), 7); err == nil {
		t.Fatalf("expected id mismatch error")
	}

	client.payload = map[string]any{"property": map[string]any{"id": float64(7)}, "rooms": "not a list"}
	if err := app.NewIngestionService(client, repo, nil).IngestProperty(context.Background(), 7); err == nil {
		t.Fatalf("expected decode error")
	}
	if len(repo.records) != 0 || repo.misses[7] != 422 {
		t.Fatalf("broken payloads must not be stored: %+v", repo)
	}
}

func TestIngestProperty_UnexpectedErrorBubbles(t *testing.T) {
	boom := errors.New("connection reset")
	err := app.NewIngestionService(&fakeClient{err: boom}, &fakeRepo{}, nil).IngestProperty(context.Background(), 1)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestIngestProperty_MistypedLeafIsStored(t *testing.T) {
	repo := &fakeRepo{}
	client := &fakeClient{payload: map[string]any{
		"property": map[string]any{"id": float64(7), "name": "솔숲", "latitude": "33.45"},
		"rooms": []any{map[string]any{"id": "r1", "images": []any{map[string]any{
			"interior": []any{map[string]any{"url": "https://img/a.jpg", "sortOrder": "first"}},
		}}}},
	}}
	if err := app.NewIngestionService(client, repo, nil).IngestProperty(context.Background(), 7); err != nil {
		t.Fatalf("one bad leaf should not reject the document: %v", err)
	}
	if _, ok := repo.records[7]; !ok || repo.misses[7] != 0 {
		t.Fatalf("document not stored: misses=%v", repo.misses)
	}
}
