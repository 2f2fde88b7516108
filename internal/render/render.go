package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"pension_site/internal/domain"
)

type Page string

const (
	PageIndex       Page = "index"
	PageMain        Page = "main"
	PageRoom        Page = "room"
	PageFacility    Page = "facility"
	PageDirections  Page = "directions"
	PageReservation Page = "reservation"
)

var ErrUnknownPage = errors.New("render: unknown page")

// Pages lists every renderable page in menu order.
func Pages() []Page {
	return []Page{PageIndex, PageMain, PageRoom, PageFacility, PageDirections, PageReservation}
}

func ParsePage(name string) (Page, error) {
	for _, p := range Pages() {
		if string(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPage, name)
}

// Template is the file name of the page's template.
func (p Page) Template() string { return string(p) + ".html" }

// NewPageMapper builds the mapper for page over dom. itemID selects the room
// or facility and is ignored elsewhere.
func NewPageMapper(page Page, dom *goquery.Document, loader Loader, itemID string) (PageMapper, *Base, error) {
	switch page {
	case PageIndex:
		m := NewIndexMapper(dom, loader)
		return m, m.Base, nil
	case PageMain:
		m := NewMainMapper(dom, loader)
		return m, m.Base, nil
	case PageRoom:
		m := NewRoomMapper(dom, loader, itemID)
		return m, m.Base, nil
	case PageFacility:
		m := NewFacilityMapper(dom, loader, itemID)
		return m, m.Base, nil
	case PageDirections:
		m := NewDirectionsMapper(dom, loader)
		return m, m.Base, nil
	case PageReservation:
		m := NewReservationMapper(dom, loader)
		return m, m.Base, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownPage, page)
}

// Renderer turns a page template plus a content document into finished HTML.
type Renderer struct {
	templates fs.FS
	layout    *Layout
	now       func() time.Time
}

func NewRenderer(templates fs.FS, layout *Layout) *Renderer {
	return &Renderer{templates: templates, layout: layout, now: time.Now}
}

// WithClock replaces the clock used for the footer copyright year.
func (r *Renderer) WithClock(now func() time.Time) *Renderer {
	r.now = now
	return r
}

// Render produces the HTML for one page. Load failures other than a missing
// property are logged and the unmapped template is served; a missing
// property returns domain.ErrNotFound. A *RedirectError asks the caller to
// redirect.
func (r *Renderer) Render(ctx context.Context, page Page, itemID string, loader Loader) ([]byte, error) {
	raw, err := fs.ReadFile(r.templates, page.Template())
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", page.Template(), err)
	}
	dom, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", page.Template(), err)
	}
	if r.layout != nil {
		r.layout.Apply(ctx, dom)
	}

	mapper, base, err := NewPageMapper(page, dom, loader, itemID)
	if err != nil {
		return nil, err
	}
	base.Now = r.now

	if err := mapper.Initialize(ctx); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		log.Error().Err(err).Str("page", string(page)).Msg("content load failed, serving template")
		return Serialize(dom)
	}
	if err := mapper.MapPage(); err != nil {
		return nil, err
	}
	if err := HeaderFooterFor(base).MapPage(); err != nil {
		return nil, err
	}
	return Serialize(dom)
}
