package render

import (
	"sort"

	"github.com/PuerkitoBio/goquery"

	"pension_site/internal/domain"
)

const (
	EmptyImageSVG = `data:image/svg+xml,%3Csvg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800 600"%3E%3Crect fill="%23d1d5db" width="800" height="600"/%3E%3Cg transform="translate(400, 300)"%3E%3Crect x="-48" y="-48" width="96" height="96" rx="8" ry="8" fill="none" stroke="%23374151" stroke-width="3"/%3E%3Ccircle cx="-20" cy="-20" r="6" fill="%23374151"/%3E%3Cpolyline points="48,-12 20,-40 -48,28" fill="none" stroke="%23374151" stroke-width="3" stroke-linecap="round" stroke-linejoin="round"/%3E%3C/g%3E%3C/svg%3E`

	PlaceholderAlt   = "이미지 없음"
	PlaceholderClass = "empty-image-placeholder"
)

// placeholderOnError swaps a broken image to the placeholder in the browser.
const placeholderOnError = `this.onerror=null;this.src='` + EmptyImageSVG + `';this.alt='` + PlaceholderAlt + `';this.classList.add('` + PlaceholderClass + `');`

// SelectImages keeps selected images ordered by ascending sortOrder; ties keep
// their input order. The input slice is not modified.
func SelectImages(images []domain.Image) []domain.Image {
	out := make([]domain.Image, 0, len(images))
	for _, img := range images {
		if img.IsSelected {
			out = append(out, img)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

// SortImages orders a copy by sortOrder without filtering.
func SortImages(images []domain.Image) []domain.Image {
	out := append([]domain.Image(nil), images...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

// ApplyImageOrPlaceholder shows the first selected image with a URL, or the
// placeholder when there is none. Overlays follow the image's visibility.
func ApplyImageOrPlaceholder(img *goquery.Selection, images []domain.Image, overlays ...*goquery.Selection) {
	if !present(img) {
		return
	}
	selected := SelectImages(images)
	if len(selected) == 0 || selected[0].URL == "" {
		ApplyPlaceholder(img, overlays...)
		return
	}
	ApplyImage(img, selected[0], "")
	for _, o := range overlays {
		setStyle(o, "display", "")
	}
}

// ApplyImage sets src/alt on an image and clears placeholder state.
func ApplyImage(img *goquery.Selection, image domain.Image, fallbackAlt string) {
	if !present(img) {
		return
	}
	alt := image.Description
	if alt == "" {
		alt = fallbackAlt
	}
	img.SetAttr("src", image.URL)
	img.SetAttr("alt", alt)
	img.SetAttr("onerror", placeholderOnError)
	img.RemoveClass(PlaceholderClass)
	setStyle(img, "opacity", "1")
}

func ApplyPlaceholder(img *goquery.Selection, overlays ...*goquery.Selection) {
	if !present(img) {
		return
	}
	img.SetAttr("src", EmptyImageSVG)
	img.SetAttr("alt", PlaceholderAlt)
	img.RemoveAttr("onerror")
	img.AddClass(PlaceholderClass)
	setStyle(img, "opacity", "1")
	for _, o := range overlays {
		setStyle(o, "display", "none")
	}
}

// ExtractLogoURL returns the lowest-sortOrder logo of the first logo group
// that has any; empty when none.
func ExtractLogoURL(d *domain.Document) string {
	if d == nil {
		return ""
	}
	for _, g := range d.Homepage.Images {
		if len(g.Logo) == 0 {
			continue
		}
		return SortImages(g.Logo)[0].URL
	}
	return ""
}
