package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"pension_site/internal/adapters/observability"
	"pension_site/internal/domain"
	"pension_site/internal/render"
)

// maxCachedPage keeps oversized pages out of the shared cache.
const maxCachedPage = 1 << 20

// PageRenderer is the part of render.Renderer the site needs.
type PageRenderer interface {
	Render(ctx context.Context, page render.Page, itemID string, loader render.Loader) ([]byte, error)
}

// SiteService serves content documents and rendered pages: cache first, then
// the store.
type SiteService struct {
	repo     domain.ContentRepository
	cache    domain.Cache
	renderer PageRenderer
	cacheTTL time.Duration
	pageTTL  time.Duration
}

func NewSiteService(r domain.ContentRepository, c domain.Cache, pr PageRenderer, cacheTTL, pageTTL time.Duration) *SiteService {
	return &SiteService{repo: r, cache: c, renderer: pr, cacheTTL: cacheTTL, pageTTL: pageTTL}
}

// Content returns the stored record for a property.
func (s *SiteService) Content(ctx context.Context, id int64) (domain.ContentRecord, error) {
	key := contentKey(id)
	var rec domain.ContentRecord
	if s.cache != nil {
		if ok, err := s.cache.Get(ctx, key, &rec); ok {
			return rec, nil
		} else if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
	}
	rec, err := s.repo.GetContent(ctx, id)
	if err != nil {
		return domain.ContentRecord{}, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, rec, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return rec, nil
}

// Document decodes the stored content document of a property.
func (s *SiteService) Document(ctx context.Context, id int64) (*domain.Document, error) {
	rec, err := s.Content(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.ParseDocument(rec.RawJSON)
}

// Loader adapts Document to the renderer's loader.
func (s *SiteService) Loader(id int64) render.Loader {
	return render.LoaderFunc(func(ctx context.Context) (*domain.Document, error) {
		return s.Document(ctx, id)
	})
}

// RenderPage renders one page of a property's site. Pages are cached per
// document version; redirects and errors are not cached.
func (s *SiteService) RenderPage(ctx context.Context, id int64, page render.Page, itemID string) ([]byte, error) {
	start := time.Now()
	rec, err := s.Content(ctx, id)
	if err != nil {
		observability.ObserveRender(string(page), "error", time.Since(start))
		return nil, err
	}

	key := pageKey(rec, page, itemID)
	if s.cache != nil {
		var cached []byte
		if ok, _ := s.cache.Get(ctx, key, &cached); ok {
			observability.ObserveRender(string(page), "cached", time.Since(start))
			return cached, nil
		}
	}

	doc, err := domain.ParseDocument(rec.RawJSON)
	if err != nil {
		observability.ObserveRender(string(page), "error", time.Since(start))
		return nil, fmt.Errorf("property %d: %w", id, err)
	}
	out, err := s.renderer.Render(ctx, page, itemID, render.Static(doc))
	observability.ObserveRender(string(page), outcome(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	if s.cache != nil && len(out) < maxCachedPage {
		if err := s.cache.Set(ctx, key, out, int(s.pageTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("page cache write failed")
		}
	}
	return out, nil
}

// Preview renders an injected document without touching cache or store.
func (s *SiteService) Preview(ctx context.Context, page render.Page, itemID string, raw []byte) ([]byte, error) {
	start := time.Now()
	doc, err := domain.ParseDocument(raw)
	if err != nil {
		return nil, err
	}
	out, err := s.renderer.Render(ctx, page, itemID, render.Static(doc))
	observability.ObserveRender(string(page), outcome(err), time.Since(start))
	return out, err
}

func (s *SiteService) ListProperties(ctx context.Context, q domain.PropertiesQuery) (domain.PropertiesPage, error) {
	return s.repo.ListProperties(ctx, q)
}

func outcome(err error) string {
	var redirect *render.RedirectError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &redirect):
		return "redirect"
	}
	return "error"
}

func pageKey(rec domain.ContentRecord, page render.Page, itemID string) string {
	return "page:" + domain.FormatPropertyID(rec.PropertyID) + ":" +
		strconv.FormatInt(rec.FetchedAt.UnixNano(), 36) + ":" + string(page) + ":" + itemID
}
