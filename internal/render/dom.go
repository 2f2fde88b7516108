package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/microcosm-cc/bluemonday"
)

// lineBreaks allows nothing but <br>; text is escaped before it gets here.
var lineBreaks = newLineBreakPolicy()

func newLineBreakPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("br")
	return p
}

// multiline converts newlines to <br> on escaped text.
func multiline(s string) string {
	escaped := html.EscapeString(s)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return lineBreaks.Sanitize(strings.ReplaceAll(escaped, "\n", "<br>"))
}

func present(s *goquery.Selection) bool { return s != nil && s.Length() > 0 }

func setText(s *goquery.Selection, text string) {
	if present(s) {
		s.SetText(text)
	}
}

func setMultiline(s *goquery.Selection, text string) {
	if present(s) {
		s.SetHtml(multiline(text))
	}
}

// setStyle sets or, for an empty value, removes one inline style property on
// every node of s, keeping the other declarations in order.
func setStyle(s *goquery.Selection, prop, value string) {
	if !present(s) {
		return
	}
	s.Each(func(_ int, el *goquery.Selection) {
		decls := parseStyle(el.AttrOr("style", ""))
		found := false
		out := decls[:0]
		for _, d := range decls {
			if d.Property == prop {
				found = true
				if value == "" {
					continue
				}
				d.Value, d.Important = value, false
			}
			out = append(out, d)
		}
		if !found && value != "" {
			out = append(out, &css.Declaration{Property: prop, Value: value})
		}
		if len(out) == 0 {
			el.RemoveAttr("style")
			return
		}
		parts := make([]string, len(out))
		for i, d := range out {
			parts[i] = d.String()
		}
		el.SetAttr("style", strings.Join(parts, " "))
	})
}

// styleValue returns one inline style property of the first node.
func styleValue(s *goquery.Selection, prop string) string {
	if !present(s) {
		return ""
	}
	for _, d := range parseStyle(s.First().AttrOr("style", "")) {
		if d.Property == prop {
			return d.Value
		}
	}
	return ""
}

// parseStyle reads an inline style attribute. A malformed tail is dropped;
// the declarations before it are kept.
func parseStyle(style string) []*css.Declaration {
	style = strings.TrimSpace(style)
	if style == "" {
		return nil
	}
	// the parser only closes a declaration on ';'
	if !strings.HasSuffix(style, ";") {
		style += ";"
	}
	decls, _ := parser.NewParser(style).ParseDeclarations()
	out := decls[:0]
	for _, d := range decls {
		d.Property = strings.ToLower(d.Property)
		if d.Property != "" {
			out = append(out, d)
		}
	}
	return out
}

func show(s *goquery.Selection, display string) { setStyle(s, "display", display) }

func hide(s *goquery.Selection) { setStyle(s, "display", "none") }

// attr escapes a value for use inside a double-quoted attribute.
func attr(v string) string { return html.EscapeString(v) }

func px(v int) string { return fmt.Sprintf("%dpx", v) }
