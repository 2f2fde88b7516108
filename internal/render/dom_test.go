package render

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func styled(t *testing.T, style string) *goquery.Selection {
	t.Helper()
	dom, err := goquery.NewDocumentFromReader(strings.NewReader(`<div id="x" style="` + style + `"></div>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return dom.Find("#x")
}

func TestSetStyle_KeepsOtherDeclarations(t *testing.T) {
	el := styled(t, "background: url(data:image/png;base64,AAAA) no-repeat; COLOR: red !important; top: 10px")

	setStyle(el, "top", "63px")
	setStyle(el, "display", "none")
	want := "background: url(data:image/png;base64,AAAA) no-repeat; color: red !important; top: 63px; display: none;"
	if got := el.AttrOr("style", ""); got != want {
		t.Fatalf("style:\n got %q\nwant %q", got, want)
	}
	if got := styleValue(el, "top"); got != "63px" {
		t.Fatalf("top: %q", got)
	}

	setStyle(el, "color", "")
	setStyle(el, "background", "")
	setStyle(el, "top", "")
	setStyle(el, "display", "")
	if _, ok := el.Attr("style"); ok {
		t.Fatalf("empty style attribute should be removed")
	}
}

func TestStyleValue_MalformedTail(t *testing.T) {
	el := styled(t, "top: 5px; ; left: 2px")
	if got := styleValue(el, "top"); got != "5px" {
		t.Fatalf("top: %q", got)
	}
	if got := styleValue(el, "width"); got != "" {
		t.Fatalf("missing property: %q", got)
	}
}
