package render_test

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"pension_site/internal/domain"
	"pension_site/internal/render"
	"pension_site/web"
)

func loadDoc(t *testing.T) *domain.Document {
	t.Helper()
	raw, err := os.ReadFile("testdata/content.json")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	doc, err := domain.ParseDocument(raw)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func template(t *testing.T, name string) *goquery.Document {
	t.Helper()
	raw, err := fs.ReadFile(web.Templates(), name)
	if err != nil {
		t.Fatalf("read template %s: %v", name, err)
	}
	return parseHTML(t, string(raw))
}

func parseHTML(t *testing.T, s string) *goquery.Document {
	t.Helper()
	dom, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return dom
}

func run(t *testing.T, m render.PageMapper) {
	t.Helper()
	if err := render.Run(context.Background(), m); err != nil {
		t.Fatalf("map page: %v", err)
	}
}

func text(dom *goquery.Document, sel string) string {
	return strings.TrimSpace(dom.Find(sel).First().Text())
}

func htmlOf(t *testing.T, dom *goquery.Document, sel string) string {
	t.Helper()
	h, err := dom.Find(sel).First().Html()
	if err != nil {
		t.Fatalf("html of %s: %v", sel, err)
	}
	return h
}

func attrOf(dom *goquery.Document, sel, name string) string {
	return dom.Find(sel).First().AttrOr(name, "")
}

// serialize renders the document for substring assertions.
func serialize(t *testing.T, dom *goquery.Document) string {
	t.Helper()
	b, err := render.Serialize(dom)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return string(bytes.TrimSpace(b))
}
