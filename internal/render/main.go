package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"pension_site/internal/domain"
	"pension_site/internal/slider"
)

const (
	blockTitleHint = "블록 생성 후 제목을 입력해주세요."
	blockDescHint  = "블록 생성 후 설명을 입력해주세요."
)

type MainMapper struct{ *Base }

func NewMainMapper(dom *goquery.Document, loader Loader) *MainMapper {
	return &MainMapper{Base: NewBase(dom, loader)}
}

func (m *MainMapper) MapPage() error {
	if !m.Loaded {
		log.Error().Str("page", "main").Msg("cannot map page: data not loaded")
		return ErrNotLoaded
	}
	m.mapHeroText()
	m.mapHeroSlider()
	m.mapContentSections()
	m.UpdateMetaTags(nil)
	m.MapEcommerceRegistration()
	return nil
}

const mainSections = "homepage.customFields.pages.main.sections.0."

func (m *MainMapper) mapHeroText() {
	hero := m.Section(mainSections + "hero")
	if hero == nil {
		return
	}
	if hero.Title != "" {
		setText(m.SafeSelect("[data-main-property-name]"), hero.Title)
	}
	if hero.Description != "" {
		setMultiline(m.SafeSelect("[data-main-hero-description]"), hero.Description)
	}
}

func (m *MainMapper) mapHeroSlider() {
	container := m.SafeSelect("#hero-slides-container")
	if container == nil {
		return
	}
	overlay := m.SafeSelect(".hero-overlay")
	var selected []domain.Image
	if hero := m.Section(mainSections + "hero"); hero != nil {
		selected = SelectImages(hero.Images)
	}

	if len(selected) == 0 {
		container.SetHtml(`<div class="hero-slide active"><img class="hero-image" alt="이미지 없음" loading="eager"></div>`)
		ApplyPlaceholder(container.Find("img"), overlay)
		setText(m.SafeSelect("#indicator-total"), "01")
		return
	}

	container.Empty()
	show(overlay, "")
	for i, img := range selected {
		class, loading := "hero-slide", "lazy"
		if i == 0 {
			class, loading = "hero-slide active", "eager"
		}
		container.AppendHtml(fmt.Sprintf(`<div class="%s"><img data-image-fallback class="hero-image" src="%s" alt="%s" loading="%s"></div>`,
			class, attr(img.URL), attr(img.Description), loading))
	}
	c := slider.New(len(selected), slider.HeroOptions())
	setText(m.SafeSelect("#indicator-total"), c.TotalIndicator())
	seedIndicator(m.Base, c)
}

// seedIndicator writes the carousel's initial position into the indicator.
func seedIndicator(b *Base, c *slider.Carousel) {
	setText(b.SafeSelect(".indicator-current"), c.Indicator())
	setStyle(b.SafeSelect(".indicator-progress"), "width", fmt.Sprintf("%g%%", c.Progress()))
}

func (m *MainMapper) mapContentSections() {
	about := m.Sections(mainSections + "about")
	if len(about) == 0 {
		about = []domain.Section{
			{Title: blockTitleHint, Description: blockDescHint},
			{Title: blockTitleHint, Description: blockDescHint},
		}
	}

	container := m.SafeSelect("#dynamic-content-sections")
	if container == nil {
		first := m.SafeSelect("section")
		if first == nil {
			return
		}
		first.AfterHtml(`<div id="dynamic-content-sections"></div>`)
		m.DOM.Find(".content-section").Remove()
		container = m.SafeSelect("#dynamic-content-sections")
	} else {
		container.Empty()
	}

	for i, s := range about {
		container.AppendHtml(contentSection(s, i))
		grid := container.Find(fmt.Sprintf(`[data-dynamic-images="%d"]`, i))
		populateImageGrid(grid, s.Images)
	}
}

func contentSection(s domain.Section, i int) string {
	title := attr(s.Title)
	if strings.TrimSpace(s.Title) == "" {
		title = blockTitleHint
	}
	desc := blockDescHint
	if strings.TrimSpace(s.Description) != "" {
		desc = multiline(s.Description)
	}
	class := "section-container"
	if i%2 == 1 {
		class += " reverse"
	}
	return fmt.Sprintf(`<section class="content-section"><div class="%s"><div class="text-content"><h2>%s</h2><div class="text-description"><p>%s</p></div></div><div class="image-grid" data-dynamic-images="%d"></div></div></section>`,
		class, title, desc, i)
}

// populateImageGrid shows at most two selected images, padded with placeholders.
func populateImageGrid(grid *goquery.Selection, images []domain.Image) {
	if !present(grid) {
		return
	}
	grid.Empty()
	selected := SelectImages(images)
	if len(selected) > 2 {
		selected = selected[:2]
	}
	for i, img := range selected {
		alt := img.Description
		if alt == "" {
			alt = fmt.Sprintf("이미지 %d", i+1)
		}
		grid.AppendHtml(fmt.Sprintf(`<div class="image-item"><img data-image-fallback src="%s" alt="%s" loading="lazy"></div>`,
			attr(img.URL), attr(alt)))
	}
	for i := len(selected); i < 2; i++ {
		grid.AppendHtml(`<div class="image-item"><img loading="lazy"></div>`)
		ApplyPlaceholder(grid.Find("img").Last())
	}
}
