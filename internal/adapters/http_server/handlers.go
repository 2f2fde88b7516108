package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"pension_site/internal/app"
	"pension_site/internal/domain"
	"pension_site/internal/render"
)

const maxPreviewBody = 4 << 20

type Handlers struct{ Site *app.SiteService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/properties", h.listProperties)
	s.mux.Get("/v1/properties/{propertyID}/content", h.getContent)
	s.mux.Group(func(r chi.Router) {
		r.Use(SiteCache(s.opts.PageMaxAge))
		r.Get("/sites/{propertyID}", h.siteRoot)
		r.Get("/sites/{propertyID}/", h.sitePage)
		r.Get("/sites/{propertyID}/{page}.html", h.sitePage)
	})
	s.mux.Post("/preview/{page}.html", h.preview)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func etagOf(body []byte) string {
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`
}

// notModified answers 304 when the client already holds etag.
func notModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	w.Header().Set("ETag", etag)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

func propertyID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "propertyID"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "propertyID must be a positive number")
		return 0, false
	}
	return id, true
}

// pageParam resolves {page}; an empty value is the site's landing page.
func pageParam(w http.ResponseWriter, r *http.Request) (render.Page, bool) {
	name := chi.URLParam(r, "page")
	if name == "" {
		return render.PageIndex, true
	}
	page, err := render.ParsePage(name)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "unknown page "+name)
		return "", false
	}
	return page, true
}

func (h *Handlers) getContent(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(w, r)
	if !ok {
		return
	}
	rec, err := h.Site.Content(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "property not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("property_id", id).Msg("load content failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}

	if notModified(w, r, etagOf(rec.RawJSON)) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Last-Modified", rec.FetchedAt.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(rec.RawJSON); err != nil {
		log.Error().Err(err).Msg("failed to write content body")
	}
}

func (h *Handlers) listProperties(w http.ResponseWriter, r *http.Request) {
	q := domain.PropertiesQuery{Limit: 50}
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		q.Limit = l
	}
	if cs := r.URL.Query().Get("cursor"); cs != "" {
		c, err := strconv.ParseInt(cs, 10, 64)
		if err != nil || c < 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid cursor", "cursor must be a non-negative integer")
			return
		}
		q.Cursor = &c
	}

	out, err := h.Site.ListProperties(r.Context(), q)
	if err != nil {
		log.Error().Err(err).Msg("list properties failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	body, err := json.Marshal(out)
	if err != nil {
		log.Error().Err(err).Msg("marshal properties failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	if notModified(w, r, etagOf(body)) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handlers) siteRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
}

func (h *Handlers) sitePage(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(w, r)
	if !ok {
		return
	}
	page, ok := pageParam(w, r)
	if !ok {
		return
	}
	out, err := h.Site.RenderPage(r.Context(), id, page, r.URL.Query().Get("id"))
	writePage(w, r, page, out, err)
}

func (h *Handlers) preview(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParam(w, r)
	if !ok {
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPreviewBody))
	if err != nil {
		writeProblem(w, http.StatusRequestEntityTooLarge, "Payload Too Large", "preview document exceeds the size limit")
		return
	}
	out, err := h.Site.Preview(r.Context(), page, r.URL.Query().Get("id"), raw)
	w.Header().Set("Cache-Control", "no-store")
	// a redirect would turn the POST into a GET and lose the document
	var redirect *render.RedirectError
	if errors.As(err, &redirect) {
		writeProblem(w, http.StatusUnprocessableEntity, "Item Required",
			"this page previews one item; retry with "+redirect.Location)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Document", err.Error())
		return
	}
	writePage(w, r, page, out, nil)
}

func writePage(w http.ResponseWriter, r *http.Request, page render.Page, out []byte, err error) {
	var redirect *render.RedirectError
	switch {
	case errors.As(err, &redirect):
		http.Redirect(w, r, redirect.Location, http.StatusFound)
		return
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "property not found")
		return
	case err != nil:
		log.Error().Err(err).Str("page", string(page)).Msg("render failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}

	if notModified(w, r, etagOf(out)) {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		log.Error().Err(err).Msg("failed to write page body")
	}
}
