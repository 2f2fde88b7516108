package render

import (
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"pension_site/internal/domain"
	"pension_site/internal/slider"
)

const facilitySubtitle = "특별한 부가서비스"

type FacilityMapper struct {
	*Base
	FacilityID string

	facility domain.Facility
	found    bool
}

func NewFacilityMapper(dom *goquery.Document, loader Loader, facilityID string) *FacilityMapper {
	return &FacilityMapper{Base: NewBase(dom, loader), FacilityID: facilityID}
}

func (m *FacilityMapper) MapPage() error {
	if !m.Loaded {
		log.Error().Str("page", "facility").Msg("cannot map page: data not loaded")
		return ErrNotLoaded
	}
	facilities := m.Data.Property.Facilities
	if m.FacilityID == "" && len(facilities) > 0 {
		return &RedirectError{Location: "facility.html?id=" + url.QueryEscape(string(facilities[0].ID))}
	}
	f, i := m.Data.FacilityByID(m.FacilityID)
	m.facility, m.found = f, i >= 0
	if !m.found {
		log.Warn().Str("page", "facility").Str("facility_id", m.FacilityID).Msg("cannot map page: facility not found")
		show(m.SafeSelect("[data-facility-error-message]"), "block")
		hide(m.SafeSelect("[data-facility-loading-message]"))
		return nil
	}

	m.mapHero()
	m.mapMainContent()
	hide(m.SafeSelect("[data-facility-gallery-section]"))
	m.mapSlider()

	var meta *MetaOverrides
	if f.Name != "" && m.Data.Property.Name != "" {
		meta = &MetaOverrides{Title: f.Name + " - " + m.Data.Property.Name}
	}
	m.UpdateMetaTags(meta)
	m.MapEcommerceRegistration()
	return nil
}

func (m *FacilityMapper) mapHero() {
	f := m.facility
	selected := SelectImages(f.Images)
	m.applyImage(m.SafeSelect("[data-facility-hero-image]"), selected, 0)

	setText(m.SafeSelect("[data-facility-hero-subtitle]"), facilitySubtitle)
	setText(m.SafeSelect("[data-facility-hero-title]"), f.Name)

	var heroTitle string
	if page := m.itemPage("facility", string(f.ID), "hero"); page != nil {
		heroTitle = page.Title
	}
	setText(m.SafeSelect("[data-facility-hero-description]"),
		firstNonEmpty(heroTitle, f.Description, f.Name+"을 이용해보세요."))
}

// applyImage shows selected[i] or the placeholder when it is missing.
func (m *FacilityMapper) applyImage(img *goquery.Selection, selected []domain.Image, i int) {
	if !present(img) {
		return
	}
	if i < len(selected) && selected[i].URL != "" {
		ApplyImage(img, selected[i], m.facility.Name)
		return
	}
	ApplyPlaceholder(img)
}

func (m *FacilityMapper) mapMainContent() {
	f := m.facility
	hide(m.SafeSelect("[data-facility-loading-message]"))
	hide(m.SafeSelect("[data-facility-error-message]"))
	show(m.SafeSelect("[data-facility-main-content]"), "block")

	setText(m.SafeSelect("[data-facility-content-subtitle]"), facilitySubtitle)
	setText(m.SafeSelect("[data-facility-content-title]"), f.Name)

	selected := SelectImages(f.Images)
	small := 0
	if len(selected) > 1 {
		small = 1
	}
	m.applyImage(m.SafeSelect("[data-facility-small-image]"), selected, small)
	m.applyImage(m.SafeSelect("[data-facility-large-image]"), selected, 0)

	var aboutTitle string
	if page := m.itemPage("facility", string(f.ID), "about"); page != nil {
		aboutTitle = page.Title
	}
	setMultiline(m.SafeSelect("[data-facility-content]"),
		firstNonEmpty(aboutTitle, f.Description, f.Name+"에 대한 설명입니다."))
	if f.UsageGuide != "" {
		setMultiline(m.SafeSelect("[data-facility-usage-guide]"), f.UsageGuide)
	}
}

func (m *FacilityMapper) mapSlider() {
	section := m.SafeSelect("[data-facility-slider-section]")
	if section == nil {
		return
	}
	show(section, "block")
	container := m.SafeSelect("[data-facility-slides-container]")
	indicators := m.SafeSelect("[data-facility-slide-indicators]")
	selected := SelectImages(m.facility.Images)

	if len(selected) == 0 {
		if container != nil {
			container.SetHtml(fmt.Sprintf(`<div class="facility-slide active"><img class="%s" src="%s" alt="%s" loading="eager"></div>`,
				PlaceholderClass, attr(EmptyImageSVG), PlaceholderAlt))
		}
		if indicators != nil {
			indicators.Empty()
		}
		setAttr(section, "data-total-slides", "1")
		return
	}

	c := slider.New(len(selected), slider.FacilityOptions())
	if container != nil {
		container.Empty()
		for i, img := range selected {
			class := "facility-slide"
			if i == 0 {
				class += " active"
			}
			container.AppendHtml(fmt.Sprintf(`<div class="%s"><img src="%s" alt="%s" loading="lazy"></div>`,
				class, attr(img.URL), attr(firstNonEmpty(img.Description, m.facility.Name))))
		}
	}
	if indicators != nil && len(selected) > 1 {
		indicators.Empty()
		for i := range selected {
			class := "facility-indicator"
			if i == 0 {
				class += " active"
			}
			indicators.AppendHtml(fmt.Sprintf(`<div class="%s" data-slide-index="%d"></div>`, class, i))
		}
	}
	setAttr(section, "data-total-slides", fmt.Sprint(c.Total()))
	setAttr(section, "data-swipe-threshold", num(slider.DefaultThreshold))
	m.seedFacilitySlider(c)
}

// seedFacilitySlider writes the carousel's initial state into slide opacity
// and indicator colors.
func (m *FacilityMapper) seedFacilitySlider(c *slider.Carousel) {
	cur := c.Index()
	m.DOM.Find(".facility-slide").Each(func(i int, s *goquery.Selection) {
		if i == cur {
			setStyle(s, "opacity", "1")
		} else {
			setStyle(s, "opacity", "0")
		}
	})
	m.DOM.Find(".facility-indicator").Each(func(i int, s *goquery.Selection) {
		if i == cur {
			setStyle(s, "background", "white")
		} else {
			setStyle(s, "background", "rgba(255,255,255,0.5)")
		}
	})
}

func setAttr(s *goquery.Selection, name, value string) {
	if present(s) {
		s.SetAttr(name, value)
	}
}
