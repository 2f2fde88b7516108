package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"pension_site/internal/domain"
)

const (
	animationBaseDelay    = 100
	animationStaggerDelay = 100

	imageHint = "이미지 설명을 입력해주세요."
)

type IndexMapper struct{ *Base }

func NewIndexMapper(dom *goquery.Document, loader Loader) *IndexMapper {
	return &IndexMapper{Base: NewBase(dom, loader)}
}

func (m *IndexMapper) MapPage() error {
	if !m.Loaded {
		log.Error().Str("page", "index").Msg("cannot map page: data not loaded")
		return ErrNotLoaded
	}
	m.mapHero()
	m.mapEssence()
	m.mapGallery()
	m.mapSignature()
	m.mapClosing()
	m.UpdateMetaTags(nil)
	m.MapEcommerceRegistration()
	return nil
}

const indexSections = "homepage.customFields.pages.index.sections.0."

func (m *IndexMapper) mapHero() {
	p := m.Data.Property
	if p.Name != "" {
		setText(m.SafeSelect("[data-index-property-name]"), p.Name)
	}
	if p.NameEn != "" {
		setText(m.SafeSelect("[data-index-property-name-en]"), strings.ToUpper(p.NameEn))
	}

	hero := m.Section(indexSections + "hero")
	var images []domain.Image
	if hero != nil {
		if hero.Title != "" {
			setText(m.SafeSelect("[data-index-hero-title]"), hero.Title)
		}
		if hero.Description != "" {
			setMultiline(m.SafeSelect("[data-index-property-description]"), hero.Description)
		}
		images = hero.Images
	}
	ApplyImageOrPlaceholder(m.SafeSelect("[data-index-hero-image]"), images,
		m.SafeSelect(".hero-overlay"), m.SafeSelect(".hero-vignette"))
}

func (m *IndexMapper) mapEssence() {
	essence := m.Section(indexSections + "essence")
	if essence == nil {
		return
	}
	ApplyImageOrPlaceholder(m.SafeSelect("[data-index-essence-image]"), essence.Images,
		m.SafeSelect(".essence-image-overlay"))
	if essence.Title != "" {
		setText(m.SafeSelect("[data-index-essence-title]"), essence.Title)
	}
	setMultiline(m.SafeSelect("[data-index-essence-description]"),
		describe(essence, "특징 섹션 설명"))
}

// describe prefers the section text, then the first image's description.
func describe(s *domain.Section, fallback string) string {
	if s.Description != "" {
		return s.Description
	}
	if len(s.Images) > 0 && s.Images[0].Description != "" {
		return s.Images[0].Description
	}
	return fallback
}

func (m *IndexMapper) mapGallery() {
	items := m.SafeSelect("[data-index-gallery-items]")
	if items == nil {
		return
	}
	gallery := m.Section(indexSections + "gallery")
	if gallery == nil {
		return
	}
	m.mapHeading("gallery", gallery)

	items.Empty()
	selected := SelectImages(gallery.Images)
	if len(selected) == 0 {
		appendPlaceholders(items, 4, imageHint)
		return
	}
	for i, img := range selected {
		appendAnimated(items, signatureItem(img.URL, img.Description, img.Description), i)
	}
}

func (m *IndexMapper) mapSignature() {
	items := m.SafeSelect("[data-index-signature-items]")
	if items == nil {
		return
	}
	sig := m.Section(indexSections + "signature")
	if sig == nil {
		return
	}
	m.mapHeading("signature", sig)

	items.Empty()
	switch {
	case len(sig.Images) > 0:
		selected := SelectImages(sig.Images)
		if len(selected) == 0 {
			appendPlaceholders(items, 4, imageHint)
			return
		}
		for i, img := range selected {
			title := img.Description
			if title == "" {
				title = "특별한 순간"
			}
			appendAnimated(items, signatureItem(img.URL, img.Description, title), i)
		}
	case len(sig.Experiences) > 0:
		for i, exp := range sig.Experiences {
			appendAnimated(items, signatureItem(exp.Image.URL, exp.Image.Description, exp.Title), i)
		}
	default:
		appendPlaceholders(items, 4, imageHint)
	}
}

func (m *IndexMapper) mapHeading(name string, s *domain.Section) {
	if s.Title != "" {
		setText(m.SafeSelect(fmt.Sprintf("[data-index-%s-title]", name)), s.Title)
	}
	if s.Description != "" {
		setMultiline(m.SafeSelect(fmt.Sprintf("[data-index-%s-description]", name)), s.Description)
	}
}

func (m *IndexMapper) mapClosing() {
	closing := m.Section(indexSections + "closing")
	if closing == nil {
		return
	}
	if closing.Title != "" {
		setText(m.SafeSelect("[data-index-closing-title]"), closing.Title)
	}
	setMultiline(m.SafeSelect("[data-index-closing-description]"),
		describe(closing, "마무리 섹션 설명"))
	// the closing overlay carries text, so it is never hidden
	ApplyImageOrPlaceholder(m.SafeSelect("[data-index-closing-image]"), closing.Images)
}

func signatureItem(url, alt, title string) string {
	return fmt.Sprintf(`<div class="signature-item"><img data-image-fallback src="%s" alt="%s" loading="lazy"><div class="signature-item-overlay"></div><div class="signature-item-text"><h5 class="signature-item-title">%s</h5></div></div>`,
		attr(url), attr(alt), attr(title))
}

// appendAnimated appends an item with a staggered transition delay.
func appendAnimated(container *goquery.Selection, item string, i int) {
	container.AppendHtml(item)
	last := container.Children().Last()
	setStyle(last, "transition-delay", fmt.Sprintf("%dms", animationBaseDelay+i*animationStaggerDelay))
}

func appendPlaceholders(container *goquery.Selection, n int, title string) {
	for i := 0; i < n; i++ {
		container.AppendHtml(signatureItem("", title, title))
		item := container.Children().Last()
		ApplyPlaceholder(item.Find("img"), item.Find(".signature-item-overlay"))
	}
}
