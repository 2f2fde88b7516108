package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	HeaderFragment = "common/header.html"
	FooterFragment = "common/footer.html"
)

const (
	headerContainerStyle = "position: fixed; top: 0; left: 0; right: 0; z-index: 1000;"
	footerContainerStyle = "display: block; width: 100%; position: relative; z-index: 10; clear: both;"
	headerPaddingCSS     = `body { box-sizing: border-box !important; transition: padding-top 0.3s ease-out !important; } .scroll-indicator { bottom: 2rem !important; }`
)

// FragmentSource delivers the raw header/footer documents.
type FragmentSource interface {
	Fragment(ctx context.Context, name string) ([]byte, error)
}

// FSFragments reads fragments from a file system such as the embedded templates.
type FSFragments struct{ FS fs.FS }

func (f FSFragments) Fragment(_ context.Context, name string) ([]byte, error) {
	b, err := fs.ReadFile(f.FS, name)
	if err != nil {
		return nil, fmt.Errorf("read fragment %s: %w", name, err)
	}
	return b, nil
}

// HTTPFragments fetches fragments relative to a base URL.
type HTTPFragments struct {
	BaseURL string
	HTTP    *http.Client
}

func NewHTTPFragments(baseURL string) *HTTPFragments {
	return &HTTPFragments{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *HTTPFragments) Fragment(ctx context.Context, name string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"/"+name, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch fragment %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch fragment %s: status %d", name, resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("read fragment %s: %w", name, err)
	}
	return b, nil
}

// Layout splices the shared header and footer into page documents.
type Layout struct {
	src FragmentSource
}

func NewLayout(src FragmentSource) *Layout { return &Layout{src: src} }

// Apply loads both fragments concurrently and splices whichever succeeded.
// A half already present in the page is left alone.
func (l *Layout) Apply(ctx context.Context, dom *goquery.Document) {
	var header, footer *goquery.Document
	g, gctx := errgroup.WithContext(ctx)
	load := func(name string, dst **goquery.Document) func() error {
		return func() error {
			doc, err := l.parse(gctx, name)
			if err != nil {
				// a missing half degrades the page but never fails it
				log.Warn().Err(err).Str("fragment", name).Msg("layout fragment unavailable")
				return nil
			}
			*dst = doc
			return nil
		}
	}
	if dom.Find("#header-container").Length() == 0 {
		g.Go(load(HeaderFragment, &header))
	}
	if dom.Find("#footer-container").Length() == 0 {
		g.Go(load(FooterFragment, &footer))
	}
	_ = g.Wait()

	if header != nil {
		spliceHeader(dom, header)
	}
	if footer != nil {
		spliceFooter(dom, footer)
	}
}

func (l *Layout) parse(ctx context.Context, name string) (*goquery.Document, error) {
	raw, err := l.src.Fragment(ctx, name)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse fragment %s: %w", name, err)
	}
	return doc, nil
}

func spliceHeader(dom, frag *goquery.Document) {
	header := frag.Find("header").First()
	if header.Length() == 0 {
		return
	}
	body := dom.Find("body").First()
	headerHTML, err := goquery.OuterHtml(header)
	if err != nil {
		log.Warn().Err(err).Msg("serialize header fragment")
		return
	}
	body.PrependHtml(fmt.Sprintf(`<div id="header-container" style="%s">%s</div>`, headerContainerStyle, headerHTML))

	if mobile := frag.Find(".mobile-menu").First(); mobile.Length() > 0 && mobile.Closest("header").Length() == 0 {
		if h, err := goquery.OuterHtml(mobile); err == nil {
			body.AppendHtml(h)
		}
	}
	copyHeadAssets(dom, frag, "")
	copyScripts(dom, frag)
	rewireHandlers(dom.Find("#header-container"))
	rewireHandlers(dom.Find(".mobile-menu"))
	adjustBodyPadding(dom)
}

func spliceFooter(dom, frag *goquery.Document) {
	footer := frag.Find("footer").First()
	if footer.Length() == 0 {
		return
	}
	footerHTML, err := goquery.OuterHtml(footer)
	if err != nil {
		log.Warn().Err(err).Msg("serialize footer fragment")
		return
	}
	dom.Find("body").First().AppendHtml(fmt.Sprintf(`<div id="footer-container" style="%s">%s</div>`, footerContainerStyle, footerHTML))
	copyHeadAssets(dom, frag, "footer-styles")
	copyScripts(dom, frag)
}

// copyHeadAssets re-creates the fragment's head styles and stylesheet links
// in the page head.
func copyHeadAssets(dom, frag *goquery.Document, styleID string) {
	head := dom.Find("head").First()
	frag.Find("head style").Each(func(_ int, s *goquery.Selection) {
		head.AppendHtml("<style></style>")
		style := head.Children().Last()
		if styleID != "" {
			style.SetAttr("id", styleID)
		}
		style.SetHtml(s.Text())
	})
	frag.Find(`head link[rel="stylesheet"]`).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		head.AppendHtml(fmt.Sprintf(`<link rel="stylesheet" href="%s">`, attr(href)))
	})
}

// copyScripts re-adds the fragment's scripts at the end of the body so the
// browser runs them after the spliced markup exists.
func copyScripts(dom, frag *goquery.Document) {
	body := dom.Find("body").First()
	frag.Find("script").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			body.AppendHtml(fmt.Sprintf(`<script src="%s"></script>`, attr(src)))
			return
		}
		body.AppendHtml("<script></script>")
		body.Children().Last().SetHtml(s.Text())
	})
}

var navigateCall = regexp.MustCompile(`navigateTo\(\s*['"]([^'"]+)['"]\s*\)`)

// rewireHandlers replaces inline click handlers with data attributes that the
// header script binds.
func rewireHandlers(scope *goquery.Selection) {
	scope.Find(".menu-item, .sub-menu-item, .mobile-sub-item").Each(func(_ int, s *goquery.Selection) {
		onclick, ok := s.Attr("onclick")
		if !ok {
			return
		}
		s.RemoveAttr("onclick")
		if m := navigateCall.FindStringSubmatch(onclick); m != nil {
			s.SetAttr("data-navigate", m[1])
		}
	})
	scope.Find(".mobile-toggle").Each(func(_ int, s *goquery.Selection) {
		s.RemoveAttr("onclick")
		s.SetAttr("data-action", "toggle-mobile-menu")
	})
	scope.Find(".logo-container").Each(func(_ int, s *goquery.Selection) {
		s.RemoveAttr("onclick")
		s.SetAttr("data-navigate", "home")
	})
	scope.Find(".nav-container").Each(func(_ int, s *goquery.Selection) {
		s.RemoveAttr("onmouseenter")
		s.RemoveAttr("onmouseleave")
	})
}

// adjustBodyPadding keeps exactly one #header-padding-style block.
func adjustBodyPadding(dom *goquery.Document) {
	dom.Find("#header-padding-style").Remove()
	dom.Find("head").First().AppendHtml(`<style id="header-padding-style">` + headerPaddingCSS + `</style>`)
}
