// Package render maps a content document onto the site's HTML templates.
//
// Every page follows the same convention: construct the page mapper over a
// parsed template, call Initialize to load the document, then MapPage to run
// the page's fixed sequence of section mappers. Section mappers only write
// when both the target node and the data exist; missing data keeps the
// template content or writes a fixed default.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/net/html"

	"pension_site/internal/domain"
)

var ErrNotLoaded = errors.New("render: document not loaded")

// RedirectError asks the caller to send the visitor elsewhere, e.g. a room
// page requested without ?id=.
type RedirectError struct{ Location string }

func (e *RedirectError) Error() string { return "render: redirect to " + e.Location }

// Loader delivers the content document for one page render.
type Loader interface {
	Load(ctx context.Context) (*domain.Document, error)
}

type LoaderFunc func(ctx context.Context) (*domain.Document, error)

func (f LoaderFunc) Load(ctx context.Context) (*domain.Document, error) { return f(ctx) }

// Static returns a loader for an already decoded document (preview injection).
func Static(doc *domain.Document) Loader {
	return LoaderFunc(func(context.Context) (*domain.Document, error) { return doc, nil })
}

type PageMapper interface {
	Initialize(ctx context.Context) error
	MapPage() error
}

// Base carries what every page mapper shares: the page DOM, the loaded
// document and the defensive accessors.
type Base struct {
	DOM    *goquery.Document
	Data   *domain.Document
	Loaded bool
	Now    func() time.Time

	loader Loader
}

func NewBase(dom *goquery.Document, loader Loader) *Base {
	return &Base{DOM: dom, loader: loader, Now: time.Now}
}

// NewBaseWithData builds a mapper base around a document that is already in
// memory, skipping the loader.
func NewBaseWithData(dom *goquery.Document, data *domain.Document) *Base {
	return &Base{DOM: dom, Data: data, Loaded: data != nil, Now: time.Now}
}

func (b *Base) Initialize(ctx context.Context) error {
	if b.loader == nil {
		return fmt.Errorf("initialize: %w", ErrNotLoaded)
	}
	data, err := b.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	if data == nil {
		return fmt.Errorf("load content: %w", ErrNotLoaded)
	}
	b.Data = data
	b.Loaded = true
	return nil
}

// SafeGet reads a dotted path from the raw document tree. Numeric segments
// index arrays. Any miss yields nil.
func (b *Base) SafeGet(path string) any {
	if !b.Loaded || b.Data == nil {
		return nil
	}
	return lookupPath(b.Data.Raw, path)
}

func lookupPath(root map[string]any, path string) any {
	cur := any(root)
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil
			}
			cur = node[i]
		default:
			return nil
		}
	}
	return cur
}

// SafeSelect returns the first match or nil.
func (b *Base) SafeSelect(selector string) *goquery.Selection {
	if b.DOM == nil {
		return nil
	}
	s := b.DOM.Find(selector)
	if s.Length() == 0 {
		return nil
	}
	return s.First()
}

// SafeSelectAll returns every match or nil.
func (b *Base) SafeSelectAll(selector string) *goquery.Selection {
	if b.DOM == nil {
		return nil
	}
	s := b.DOM.Find(selector)
	if s.Length() == 0 {
		return nil
	}
	return s
}

// Section decodes a free-form block at path; nil when absent or malformed.
func (b *Base) Section(path string) *domain.Section {
	m, ok := b.SafeGet(path).(map[string]any)
	if !ok {
		return nil
	}
	var s domain.Section
	if err := decodeLoose(m, &s); err != nil {
		return nil
	}
	return &s
}

// Sections decodes an array of blocks at path, skipping malformed entries.
func (b *Base) Sections(path string) []domain.Section {
	raw, ok := b.SafeGet(path).([]any)
	if !ok {
		return nil
	}
	out := make([]domain.Section, 0, len(raw))
	for _, it := range raw {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		var s domain.Section
		if err := decodeLoose(m, &s); err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

// itemPage finds the per-item page block (pages.room[] / pages.facility[])
// whose id matches and returns its first hero/about section.
func (b *Base) itemPage(list, id, section string) *domain.Section {
	pages, ok := b.SafeGet("homepage.customFields.pages." + list).([]any)
	if !ok {
		return nil
	}
	for _, p := range pages {
		m, ok := p.(map[string]any)
		if !ok || string(domain.IDOf(m["id"])) != id {
			continue
		}
		v, ok := lookupPath(m, "sections.0."+section).(map[string]any)
		if !ok {
			return nil
		}
		var s domain.Section
		if err := decodeLoose(v, &s); err != nil {
			return nil
		}
		return &s
	}
	return nil
}

func decodeLoose(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("new decoder: %w", err)
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// MetaOverrides replaces document-level SEO values for one page.
type MetaOverrides struct {
	Title       string
	Description string
	Image       string
}

// UpdateMetaTags writes title, description, keywords and Open Graph tags.
// Overrides win over homepage.seo, which wins over the property name.
func (b *Base) UpdateMetaTags(o *MetaOverrides) {
	if !b.Loaded || b.DOM == nil {
		return
	}
	seo := b.Data.Homepage.SEO
	if o == nil {
		o = &MetaOverrides{}
	}
	title := firstNonEmpty(o.Title, seo.Title, b.Data.Property.Name)
	desc := firstNonEmpty(o.Description, seo.Description)
	image := firstNonEmpty(o.Image, ExtractLogoURL(b.Data))

	head := b.DOM.Find("head").First()
	if head.Length() == 0 {
		return
	}
	if title != "" {
		t := head.Find("title").First()
		if t.Length() == 0 {
			head.PrependHtml("<title></title>")
			t = head.Find("title").First()
		}
		t.SetText(title)
		setMeta(head, "property", "og:title", title)
	}
	if desc != "" {
		setMeta(head, "name", "description", desc)
		setMeta(head, "property", "og:description", desc)
	}
	if seo.Keywords != "" {
		setMeta(head, "name", "keywords", seo.Keywords)
	}
	if image != "" {
		setMeta(head, "property", "og:image", image)
	}
}

func setMeta(head *goquery.Selection, attr, key, content string) {
	sel := head.Find(fmt.Sprintf(`meta[%s=%q]`, attr, key)).First()
	if sel.Length() == 0 {
		head.AppendHtml(fmt.Sprintf(`<meta %s="%s">`, attr, html.EscapeString(key)))
		sel = head.Find(fmt.Sprintf(`meta[%s=%q]`, attr, key)).First()
	}
	sel.SetAttr("content", content)
}

// MapEcommerceRegistration fills every registration placeholder outside the
// footer's dedicated line.
func (b *Base) MapEcommerceRegistration() {
	if !b.Loaded {
		return
	}
	info := b.Data.Property.BusinessInfo
	if info == nil || info.ECommerceRegistrationNumber == "" {
		return
	}
	if nodes := b.SafeSelectAll("[data-ecommerce-registration]"); nodes != nil {
		nodes.SetText("통신판매업신고번호 : " + info.ECommerceRegistrationNumber)
	}
}

// Run initializes and maps one page.
func Run(ctx context.Context, m PageMapper) error {
	if err := m.Initialize(ctx); err != nil {
		return err
	}
	return m.MapPage()
}

// Serialize renders the whole document, doctype included.
func Serialize(dom *goquery.Document) ([]byte, error) {
	var buf bytes.Buffer
	for _, n := range dom.Nodes {
		if err := html.Render(&buf, n); err != nil {
			return nil, fmt.Errorf("render html: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
