package render

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// osmBBoxDelta is the half-width in degrees of the embedded map window.
const osmBBoxDelta = 0.01

type DirectionsMapper struct{ *Base }

func NewDirectionsMapper(dom *goquery.Document, loader Loader) *DirectionsMapper {
	return &DirectionsMapper{Base: NewBase(dom, loader)}
}

func (m *DirectionsMapper) MapPage() error {
	if !m.Loaded {
		log.Error().Str("page", "directions").Msg("cannot map page: data not loaded")
		return ErrNotLoaded
	}
	m.mapHero()
	m.mapAddress()
	setText(m.SafeSelect("[data-directions-map-title]"), "위치 안내")
	m.mapIframe()
	m.mapMapButtons()
	m.mapLegacySelectors()

	var meta *MetaOverrides
	if name := m.Data.Property.Name; name != "" {
		meta = &MetaOverrides{Title: "오시는길 - " + name}
	}
	m.UpdateMetaTags(meta)
	m.MapEcommerceRegistration()
	return nil
}

func (m *DirectionsMapper) mapHero() {
	p := m.Data.Property
	hero := m.Section("homepage.customFields.pages.directions.sections.0.hero")
	if title := m.SafeSelect("[data-directions-hero-title]"); title != nil {
		switch {
		case hero != nil && hero.Title != "":
			title.SetText(hero.Title)
		case p.Name != "":
			title.SetText(p.Name + " 오시는길")
		}
	}

	img := m.SafeSelect("[data-directions-hero-image]")
	if img == nil {
		return
	}
	// hero images are ordered but not filtered by isSelected
	if hero == nil || len(hero.Images) == 0 || SortImages(hero.Images)[0].URL == "" {
		ApplyPlaceholder(img)
		return
	}
	ApplyImage(img, SortImages(hero.Images)[0], p.Name+" 오시는길")
	img.SetAttr("loading", "eager")
}

func (m *DirectionsMapper) mapAddress() {
	p := m.Data.Property
	if p.Name != "" {
		setText(m.SafeSelect("[data-directions-section-title]"), p.Name+" 오시는길")
		setText(m.SafeSelect("[data-directions-notice]"),
			fmt.Sprintf("네비게이션 검색 시 '%s' 또는 주소를 이용해 주세요.", p.Name))
	}
	if p.Address != "" {
		setText(m.SafeSelect("[data-directions-road-address]"), p.Address)
		setText(m.SafeSelect("[data-directions-lot-address]"), p.Address)
	}
}

func (m *DirectionsMapper) mapIframe() {
	p := m.Data.Property
	iframe := m.SafeSelect("iframe[data-property-latitude][data-property-longitude]")
	if iframe == nil || !p.HasCoords() {
		return
	}
	iframe.SetAttr("src", OSMEmbedURL(p.Latitude, p.Longitude))
	iframe.SetAttr("title", p.Name+" 위치")
}

// OSMEmbedURL builds the OpenStreetMap embed address for a marker.
func OSMEmbedURL(lat, lon float64) string {
	bbox := strings.Join([]string{
		num(lon - osmBBoxDelta), num(lat - osmBBoxDelta),
		num(lon + osmBBoxDelta), num(lat + osmBBoxDelta),
	}, "%2C")
	return fmt.Sprintf("https://www.openstreetmap.org/export/embed.html?bbox=%s&layer=mapnik&marker=%s%%2C%s",
		bbox, num(lat), num(lon))
}

// KakaoMapURL links to a Kakao map pin; the place name prefers the address.
func KakaoMapURL(name, address string, lat, lon float64) string {
	place := firstNonEmpty(address, name, "선택한 위치")
	return fmt.Sprintf("https://map.kakao.com/link/map/%s,%s,%s", encodeComponent(place), num(lat), num(lon))
}

// GoogleMapURL searches by address, falling back to coordinates.
func GoogleMapURL(address string, lat, lon float64) string {
	q := num(lat) + "," + num(lon)
	if address != "" {
		q = encodeComponent(address)
	}
	return "https://www.google.com/maps/search/?api=1&query=" + q
}

func (m *DirectionsMapper) mapMapButtons() {
	p := m.Data.Property
	if !p.HasCoords() {
		return
	}
	for sel, href := range map[string]string{
		".kakao-button":  KakaoMapURL(p.Name, p.Address, p.Latitude, p.Longitude),
		".google-button": GoogleMapURL(p.Address, p.Latitude, p.Longitude),
	} {
		b := m.SafeSelect(sel)
		if b == nil {
			continue
		}
		b.RemoveAttr("onclick")
		if goquery.NodeName(b) == "a" {
			b.SetAttr("href", href)
			b.SetAttr("target", "_blank")
			b.SetAttr("rel", "noopener")
			continue
		}
		b.SetAttr("data-href", href)
	}
}

// mapLegacySelectors covers templates that predate the data attributes.
func (m *DirectionsMapper) mapLegacySelectors() {
	p := m.Data.Property
	if p.Address != "" {
		setText(m.SafeSelect(".address-item:first-of-type .address-details p:last-child"), p.Address)
		setText(m.SafeSelect(".address-item:last-of-type .address-details p:last-child"), p.Address)
		setText(m.SafeSelect(".map-content .address"), p.Address)
	}
	if p.Name == "" {
		return
	}
	setText(m.SafeSelect(".map-content h4"), p.Name)
	setText(m.SafeSelect(".section-title"), p.Name+" 오시는길")
	if notice := m.SafeSelect(".info-notice p"); notice != nil {
		notice.SetText(strings.Replace(notice.Text(), "제주 포레스트", p.Name, 1))
	}
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// componentUnescape undoes the query escaping a URI component keeps literal.
var componentUnescape = strings.NewReplacer("+", "%20", "%21", "!", "%27", "'", "%28", "(", "%29", ")", "%2A", "*")

// encodeComponent escapes like encodeURIComponent: spaces become %20 and
// !'()* stay literal.
func encodeComponent(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}
