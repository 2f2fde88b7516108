package render

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"pension_site/internal/domain"
)

// Desktop sub-menu geometry.
const (
	subMenuFirstTop   = 29
	subMenuItemHeight = 34
	subMenuPadding    = 10
)

var subMenuLeft = map[string]int{
	"sub-about-":       15,
	"sub-spaces-":      121,
	"sub-specials-":    228,
	"sub-reservation-": 332,
}

// HeaderFooterMapper fills the shared header and footer once they are
// spliced into a page.
type HeaderFooterMapper struct{ *Base }

func NewHeaderFooterMapper(dom *goquery.Document, loader Loader) *HeaderFooterMapper {
	return &HeaderFooterMapper{Base: NewBase(dom, loader)}
}

// HeaderFooterFor reuses a page mapper's loaded document.
func HeaderFooterFor(b *Base) *HeaderFooterMapper {
	hf := &HeaderFooterMapper{Base: NewBaseWithData(b.DOM, b.Data)}
	hf.Now = b.Now
	return hf
}

func (m *HeaderFooterMapper) MapPage() error {
	if !m.Loaded {
		log.Error().Str("page", "header-footer").Msg("cannot map header/footer: data not loaded")
		return ErrNotLoaded
	}
	m.MapHeader()
	m.MapFooter()
	return nil
}

func (m *HeaderFooterMapper) MapHeader() {
	m.mapFavicon()
	m.mapLogo("[data-logo]", "[data-logo-text]")
	m.mapMainMenu()
	m.mapMenuItems(m.roomItems(), "sub-spaces-", "mobile-spaces-items", "room.html", "객실")
	m.mapMenuItems(m.facilityItems(), "sub-specials-", "mobile-specials-items", "facility.html", "시설")
	m.mapBookingButtons()
}

func (m *HeaderFooterMapper) MapFooter() {
	m.mapLogo("[data-footer-logo]", "[data-footer-logo-text]")
	m.mapFooterInfo()
	m.MapEcommerceRegistration()
}

func (m *HeaderFooterMapper) mapFavicon() {
	logo := ExtractLogoURL(m.Data)
	if logo == "" {
		return
	}
	head := m.SafeSelect("head")
	if head == nil {
		return
	}
	icon := head.Find(`link[rel="icon"]`).First()
	if icon.Length() == 0 {
		head.AppendHtml(`<link rel="icon">`)
		icon = head.Find(`link[rel="icon"]`).First()
	}
	icon.SetAttr("href", logo)
}

func (m *HeaderFooterMapper) mapLogo(imageSel, textSel string) {
	name := m.Data.Property.Name
	if name != "" {
		setText(m.SafeSelect(textSel), name)
	}
	img := m.SafeSelect(imageSel)
	if img == nil {
		return
	}
	logo := ExtractLogoURL(m.Data)
	if logo == "" {
		ApplyPlaceholder(img)
		return
	}
	ApplyImage(img, domain.Image{URL: logo, Description: name}, "로고")
}

type menuItem struct {
	id   string
	name string
}

func (m *HeaderFooterMapper) roomItems() []menuItem {
	out := make([]menuItem, 0, len(m.Data.Rooms))
	for _, r := range m.Data.Rooms {
		out = append(out, menuItem{id: string(r.ID), name: r.Name})
	}
	return out
}

func (m *HeaderFooterMapper) facilityItems() []menuItem {
	fs := m.Data.Property.Facilities
	out := make([]menuItem, 0, len(fs))
	for _, f := range fs {
		out = append(out, menuItem{id: string(f.ID), name: f.Name})
	}
	return out
}

func itemURL(page, id string) string { return page + "?id=" + url.QueryEscape(id) }

// mapMainMenu points the top-level menu entries at the first room and facility.
func (m *HeaderFooterMapper) mapMainMenu() {
	if rooms := m.Data.Rooms; len(rooms) > 0 {
		link(m.SafeSelect("[data-room-link]"), itemURL("room.html", string(rooms[0].ID)))
	}
	if fs := m.Data.Property.Facilities; len(fs) > 0 {
		link(m.SafeSelect("[data-facility-link]"), itemURL("facility.html", string(fs[0].ID)))
	}
}

// link makes a node navigate to href: anchors get href, other nodes get
// data-navigate for the header script.
func link(s *goquery.Selection, href string) {
	if !present(s) {
		return
	}
	s.RemoveAttr("onclick")
	if goquery.NodeName(s) == "a" {
		s.SetAttr("href", href)
		return
	}
	s.SetAttr("data-navigate", href)
}

// mapMenuItems rebuilds one category of the desktop sub-menu and its mobile
// counterpart.
func (m *HeaderFooterMapper) mapMenuItems(items []menuItem, prefix, mobileID, page, defaultName string) {
	if desktop := m.SafeSelect(".sub-menus"); desktop != nil {
		desktop.Find(fmt.Sprintf(`[class*=%q]`, prefix)).Remove()
		left := subMenuLeft[prefix]
		for i, it := range items {
			top := subMenuFirstTop + i*subMenuItemHeight
			desktop.AppendHtml(fmt.Sprintf(`<a class="sub-menu-item %s%d" href="%s" style="left: %dpx; top: %dpx;">%s</a>`,
				prefix, i+1, attr(itemURL(page, it.id)), left, top, attr(menuName(it, defaultName, i))))
		}
		if h := subMenuHeight(desktop); h > 0 {
			setStyle(desktop, "height", px(h))
		}
	}

	if mobile := m.SafeSelect("#" + mobileID); mobile != nil {
		mobile.Empty()
		for i, it := range items {
			mobile.AppendHtml(fmt.Sprintf(`<button class="mobile-sub-item" data-navigate="%s">%s</button>`,
				attr(itemURL(page, it.id)), attr(menuName(it, defaultName, i))))
		}
	}
}

func menuName(it menuItem, defaultName string, i int) string {
	if it.name != "" {
		return it.name
	}
	return fmt.Sprintf("%s%d", defaultName, i+1)
}

// subMenuHeight fits the container to the lowest positioned item.
func subMenuHeight(desktop *goquery.Selection) int {
	maxBottom := 0
	desktop.Find(".sub-menu-item").Each(func(_ int, s *goquery.Selection) {
		top, _ := strconv.Atoi(strings.TrimSuffix(styleValue(s, "top"), "px"))
		if b := top + subMenuItemHeight; b > maxBottom {
			maxBottom = b
		}
	})
	if maxBottom == 0 {
		return 0
	}
	return maxBottom + subMenuPadding
}

func (m *HeaderFooterMapper) mapBookingButtons() {
	id := m.Data.BookingID()
	if id == "" {
		return
	}
	if buttons := m.SafeSelectAll("[data-booking-engine]"); buttons != nil {
		buttons.SetAttr("data-gpension-id", id)
	}
}

func (m *HeaderFooterMapper) mapFooterInfo() {
	p := m.Data.Property
	info := p.BusinessInfo
	if info == nil {
		return
	}
	lines := []struct{ sel, label, value string }{
		{"[data-footer-phone]", "숙소 전화번호", p.ContactPhone},
		{"[data-footer-representative-name]", "대표자명", info.RepresentativeName},
		{"[data-footer-address]", "주소", info.BusinessAddress},
		{"[data-footer-business-number]", "사업자번호", info.BusinessNumber},
		{"[data-footer-ecommerce]", "통신판매업신고번호", info.ECommerceRegistrationNumber},
	}
	for _, l := range lines {
		if l.value != "" {
			setText(m.SafeSelect(l.sel), l.label+" : "+l.value)
		}
	}
	if info.BusinessName != "" {
		setText(m.SafeSelect("[data-footer-copyright]"),
			fmt.Sprintf("© %d %s. All rights reserved.", m.Now().Year(), info.BusinessName))
	}
}
