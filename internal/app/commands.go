package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"pension_site/internal/domain"
)

type IngestionService struct {
	client domain.ContentClient
	repo   domain.ContentRepository
	cache  domain.Cache
	now    func() time.Time
}

func NewIngestionService(c domain.ContentClient, r domain.ContentRepository, cache domain.Cache) *IngestionService {
	return &IngestionService{client: c, repo: r, cache: cache, now: time.Now}
}

// IngestProperty fetches one property's content document and stores it.
// Missing or inaccessible properties are recorded as misses and their cached
// document is dropped; anything else unexpected is returned.
func (s *IngestionService) IngestProperty(ctx context.Context, id int64) error {
	payload, err := s.client.GetContent(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			s.miss(ctx, id, 404, "not found")
			return nil
		case errors.Is(err, domain.ErrAccessDenied):
			s.miss(ctx, id, 403, "inactive")
			return nil
		}
		return err
	}

	rec, err := mapContent(id, payload, s.now())
	if err != nil {
		s.miss(ctx, id, 422, "invalid document")
		return err
	}
	if err := s.repo.UpsertContent(ctx, rec); err != nil {
		return fmt.Errorf("store content %d: %w", id, err)
	}
	// rendered pages are keyed by fetch time, so only the document entry goes
	s.invalidate(ctx, id)
	return nil
}

func (s *IngestionService) miss(ctx context.Context, id int64, status int, reason string) {
	if err := s.repo.LogMiss(ctx, id, status, reason); err != nil {
		log.Warn().Err(err).Int64("property_id", id).Msg("record ingest miss failed")
	}
	s.invalidate(ctx, id)
}

func (s *IngestionService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, contentKey(id)); err != nil {
		log.Warn().Err(err).Int64("property_id", id).Msg("cache invalidation failed")
	}
}

func contentKey(id int64) string { return "content:" + domain.FormatPropertyID(id) }
